// Package store persists decisions in SQLite and answers the two
// queries the rest of mnemo needs: recent rows and semantic topic
// lookup. Schema and query planning stay behind this package; callers
// only see the DecisionStore interface.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mnemohq/mnemo/internal/embed"
	"github.com/mnemohq/mnemo/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// currentSchemaVersion is bumped when adding migrations
const currentSchemaVersion = 1

// Decision is one persisted memory record
type Decision struct {
	ID        string
	Topic     string
	Decision  string
	Reasoning string
	Outcome   string
	CreatedAt time.Time
	Embedding []float32
}

// DecisionStore defines the persistence boundary
type DecisionStore interface {
	SaveDecision(ctx context.Context, d *Decision) error
	RecentDecisions(ctx context.Context, limit int) ([]*Decision, error)
	UpdateOutcome(ctx context.Context, id, outcome string) error
	Topics(ctx context.Context) ([]string, error)
	SemanticTopics(ctx context.Context, query string) ([]string, error)
	SemanticSearch(ctx context.Context, query string, limit int) ([]*Decision, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// SQLiteStore implements DecisionStore using SQLite
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	embedder embed.Embedder
	floor    float64
	maxRows  int
	mu       sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the decision database.
// The embedder may be a degraded implementation; semantic queries then
// fall back to exact topic listing.
func NewSQLiteStore(dbPath string, embedder embed.Embedder, floor float64, maxRows int) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("store: database path is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		dbPath:   dbPath,
		embedder: embedder,
		floor:    floor,
		maxRows:  maxRows,
	}
	if s.embedder == nil {
		s.embedder = embed.Null{}
	}
	if s.maxRows <= 0 {
		s.maxRows = 20
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Debug().Str("path", dbPath).Msg("Opened decision store")
	return s, nil
}

// migrate applies schema migrations based on user_version
func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS decisions (
			id             TEXT PRIMARY KEY,
			topic          TEXT NOT NULL,
			decision       TEXT NOT NULL,
			reasoning      TEXT,
			outcome        TEXT,
			created_at     INTEGER NOT NULL,
			embedding_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_decisions_topic ON decisions(topic);
		CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at);
		`
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return err
		}
	}

	return nil
}

// SaveDecision inserts a decision, assigning an ID and timestamp if
// missing and computing an embedding when the runtime is available.
func (s *SQLiteStore) SaveDecision(ctx context.Context, d *Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	if d.Embedding == nil {
		vec, err := s.embedder.Embed(ctx, d.Topic+" "+d.Decision)
		if err == nil {
			d.Embedding = vec
		}
	}

	var embJSON sql.NullString
	if len(d.Embedding) > 0 {
		b, err := json.Marshal(d.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		embJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, topic, decision, reasoning, outcome, created_at, embedding_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Topic, d.Decision, d.Reasoning, d.Outcome, d.CreatedAt.Unix(), embJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// RecentDecisions returns the newest decisions, newest first
func (s *SQLiteStore) RecentDecisions(ctx context.Context, limit int) ([]*Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = s.maxRows
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, decision, reasoning, outcome, created_at, embedding_json
		 FROM decisions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// allDecisions returns every row, newest first, for in-process ranking
func (s *SQLiteStore) allDecisions(ctx context.Context) ([]*Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, decision, reasoning, outcome, created_at, embedding_json
		 FROM decisions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// UpdateOutcome records how a decision worked out
func (s *SQLiteStore) UpdateOutcome(ctx context.Context, id, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE decisions SET outcome = ? WHERE id = ?", outcome, id)
	if err != nil {
		return fmt.Errorf("failed to update outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("decision not found: %s", id)
	}
	return nil
}

// Topics returns the distinct topics present in the store
func (s *SQLiteStore) Topics(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT topic FROM decisions ORDER BY topic")
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// Count returns the number of stored decisions
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions").Scan(&n)
	return n, err
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanDecisions(rows *sql.Rows) ([]*Decision, error) {
	var out []*Decision
	for rows.Next() {
		var (
			d       Decision
			created int64
			reason  sql.NullString
			outcome sql.NullString
			embJSON sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Topic, &d.Decision, &reason, &outcome, &created, &embJSON); err != nil {
			return nil, err
		}
		d.Reasoning = reason.String
		d.Outcome = outcome.String
		d.CreatedAt = time.Unix(created, 0)
		if embJSON.Valid {
			// Skip rows with unparsable vectors rather than failing the query
			_ = json.Unmarshal([]byte(embJSON.String), &d.Embedding)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
