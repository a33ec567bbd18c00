// Package session provides the cross-process session cache: a
// key/value store scoped to one assistant session, materialized into a
// line-oriented env record so short-lived hook processes observe the
// same values, plus a content-hash set for duplicate-emission
// suppression.
//
// The hash set is process-local and lost between hook invocations.
// Cross-invocation dedup of injected text would need the same record
// mechanism as the other session state; it is not persisted today.
package session

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"os"
	"strings"
	"sync"

	"github.com/mnemohq/mnemo/internal/logger"
)

// ErrInvalidInput is returned by HashOf for empty input.
var ErrInvalidInput = errors.New("session: cannot hash empty text")

// Cache is a session-scoped key/value store. Reads consult the process
// environment first (inherited from the persisted record), then the
// in-process map. Writes always land in the map and, when a record
// path was supplied, are written through to the record.
type Cache struct {
	mu         sync.Mutex
	recordPath string
	values     map[string]json.RawMessage
	seen       map[uint32]struct{}

	// lookupEnv is swapped in tests; defaults to os.LookupEnv
	lookupEnv func(string) (string, bool)
}

// New creates a session cache. recordPath may be empty, in which case
// the cache is memory-only and nothing survives the process.
func New(recordPath string) *Cache {
	return &Cache{
		recordPath: recordPath,
		values:     make(map[string]json.RawMessage),
		seen:       make(map[uint32]struct{}),
		lookupEnv:  os.LookupEnv,
	}
}

// Get returns the value stored under key, decoded into out. It reports
// whether a value was found. Decoding failure is treated as absence,
// never surfaced as an error.
func (c *Cache) Get(key string, out any) bool {
	if raw, ok := c.lookupEnv(key); ok {
		if json.Unmarshal([]byte(raw), out) == nil {
			return true
		}
		logger.Debug().Str("key", key).Msg("Malformed env value, treating as absent")
	}

	c.mu.Lock()
	raw, ok := c.values[key]
	c.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Debug().Str("key", key).Err(err).Msg("Malformed cached value, treating as absent")
		return false
	}
	return true
}

// GetString is a convenience accessor for string values
func (c *Cache) GetString(key string) (string, bool) {
	var s string
	ok := c.Get(key, &s)
	return s, ok
}

// Set encodes value and stores it under key. The in-process map is
// updated unconditionally; the backing record, when configured, gets
// an idempotent replace-or-append for the key's line. The return value
// reports whether the durable write succeeded: an I/O failure
// degrades to "succeeded in memory" rather than aborting the hook,
// since the session must continue even if memory is unavailable.
func (c *Cache) Set(key string, value any) bool {
	encoded, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Str("key", key).Err(err).Msg("Failed to encode cache value")
		return false
	}

	c.mu.Lock()
	c.values[key] = encoded
	c.mu.Unlock()

	if c.recordPath == "" {
		return true
	}

	if err := writeRecordLine(c.recordPath, key, string(encoded)); err != nil {
		logger.Warn().
			Str("key", key).
			Str("path", c.recordPath).
			Err(err).
			Msg("Failed to persist cache entry, continuing in memory")
		return false
	}
	return true
}

// HashOf computes the deterministic 32-bit content hash of text.
// Non-cryptographic: used only for "already emitted this exact text"
// membership tests within one session.
func (c *Cache) HashOf(text string) (uint32, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrInvalidInput
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return h.Sum32(), nil
}

// HasSeen reports whether hash was already marked in this process
func (c *Cache) HasSeen(hash uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[hash]
	return ok
}

// MarkSeen records hash in the process-local seen set
func (c *Cache) MarkSeen(hash uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[hash] = struct{}{}
}

// Reset clears in-process state only. Variables already exported to
// the process environment by a prior record load cannot be revoked;
// that is a documented limitation of the env-record mechanism.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]json.RawMessage)
	c.seen = make(map[uint32]struct{})
}

// RecordPath returns the configured backing record path, if any
func (c *Cache) RecordPath() string {
	return c.recordPath
}
