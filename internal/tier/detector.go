// Package tier probes the optional native capabilities once, at
// install time, and records which capability tier the tool runs at.
// Runtime components read the persisted record; nothing re-derives the
// tier automatically.
package tier

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/mnemohq/mnemo/internal/embed"
	"github.com/mnemohq/mnemo/internal/logger"

	_ "modernc.org/sqlite" // probe the native driver directly
)

// Tier is a named capability level
type Tier int

// Capability tiers, best first
const (
	TierFull     Tier = 1
	TierDegraded Tier = 2
)

// Name returns the human-readable tier name
func (t Tier) Name() string {
	switch t {
	case TierFull:
		return "Full"
	case TierDegraded:
		return "Degraded"
	default:
		return "Unknown"
	}
}

const (
	minGoMajor = 1
	minGoMinor = 22

	// minDiskBytes is the free-space floor for the state directory:
	// database, WAL, and the embedding runtime's model files.
	minDiskBytes = 500 * 1024 * 1024
)

// FatalError is a precondition failure with no degraded path. The
// installer prints the remediation and exits non-zero.
type FatalError struct {
	Reason      string
	Remediation string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Reason, e.Remediation)
}

// Result describes the detected capability tier
type Result struct {
	Tier               Tier      `json:"tier"`
	Name               string    `json:"name"`
	StoreAvailable     bool      `json:"store_available"`
	EmbeddingAvailable bool      `json:"embedding_available"`
	Accuracy           string    `json:"accuracy"`
	Features           []string  `json:"features"`
	Unmet              []string  `json:"unmet,omitempty"`
	DetectedAt         time.Time `json:"detected_at"`
}

// Detector runs the capability probes. Probe functions are fields so
// tests can substitute failures without a broken host.
type Detector struct {
	stateDir string
	embedder embed.Embedder

	goVersion  func() string
	diskFree   func(path string) (uint64, error)
	storeProbe func(ctx context.Context) error
}

// NewDetector creates a detector probing the given state directory
func NewDetector(stateDir string, embedder embed.Embedder) *Detector {
	return &Detector{
		stateDir:   stateDir,
		embedder:   embedder,
		goVersion:  runtime.Version,
		diskFree:   diskFree,
		storeProbe: probeStore,
	}
}

// Detect runs all probes in order. Runtime-version and disk-space
// failures return a *FatalError; store and embedding failures only
// downgrade the tier.
func (d *Detector) Detect(ctx context.Context) (*Result, error) {
	if err := d.checkRuntime(); err != nil {
		return nil, err
	}
	if err := d.checkDisk(); err != nil {
		return nil, err
	}

	res := &Result{
		StoreAvailable:     true,
		EmbeddingAvailable: true,
		DetectedAt:         time.Now(),
	}

	if err := d.storeProbe(ctx); err != nil {
		res.StoreAvailable = false
		res.Unmet = append(res.Unmet, fmt.Sprintf("native store driver failed to initialize: %v", err))
		logger.Warn().Err(err).Msg("Store probe failed, downgrading tier")
	}

	if d.embedder == nil || !d.embedder.Available(ctx) {
		res.EmbeddingAvailable = false
		res.Unmet = append(res.Unmet, "embedding runtime not found; semantic search disabled")
		logger.Warn().Msg("Embedding probe failed, downgrading tier")
	}

	if res.StoreAvailable && res.EmbeddingAvailable {
		res.Tier = TierFull
		res.Accuracy = "high (semantic + exact match)"
		res.Features = []string{
			"persistent decision store",
			"semantic recall",
			"pre-compaction decision extraction",
			"session warmup",
		}
	} else {
		res.Tier = TierDegraded
		res.Accuracy = "reduced (exact match only)"
		res.Features = []string{
			"pre-compaction decision extraction",
			"session warmup",
		}
		if res.StoreAvailable {
			res.Features = append([]string{"persistent decision store"}, res.Features...)
		}
	}
	res.Name = res.Tier.Name()

	return res, nil
}

var goVersionRe = regexp.MustCompile(`^go(\d+)\.(\d+)`)

func (d *Detector) checkRuntime() error {
	version := d.goVersion()
	m := goVersionRe.FindStringSubmatch(version)
	if m == nil {
		// Development toolchains report devel strings; let them through
		return nil
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	if major > minGoMajor || (major == minGoMajor && minor >= minGoMinor) {
		return nil
	}
	return &FatalError{
		Reason:      fmt.Sprintf("runtime %s is older than the minimum go%d.%d", version, minGoMajor, minGoMinor),
		Remediation: "rebuild mnemo with a current Go toolchain",
	}
}

func (d *Detector) checkDisk() error {
	dir := d.stateDir
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &FatalError{
			Reason:      fmt.Sprintf("cannot create state directory %s: %v", dir, err),
			Remediation: "check permissions on the parent directory or set settings.state_dir",
		}
	}

	free, err := d.diskFree(dir)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not determine free disk space, skipping check")
		return nil
	}
	if free < minDiskBytes {
		return &FatalError{
			Reason:      fmt.Sprintf("only %d MB free at %s, need %d MB", free/(1024*1024), dir, minDiskBytes/(1024*1024)),
			Remediation: "free disk space or point settings.state_dir at a larger volume",
		}
	}
	return nil
}

// probeStore opens a disposable in-memory database and runs one no-op
// schema statement, proving the native driver links and executes.
func probeStore(ctx context.Context) error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS probe (id INTEGER)")
	return err
}

// Save persists the tier record. Written only during installation.
func Save(path string, res *Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create tier record directory: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tier record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tier record: %w", err)
	}
	return nil
}

// Load reads the persisted tier record. A missing or unreadable record
// returns nil: callers treat that as "not installed yet".
func Load(path string) *Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		logger.Debug().Err(err).Msg("Malformed tier record")
		return nil
	}
	return &res
}
