// Package embed defines the embedding boundary. The model itself lives
// in an external runtime; mnemo only ever asks it one question: given
// text, return a vector. Anything else (failure, missing runtime,
// timeout) degrades to ErrUnavailable and the caller falls back to
// exact-match behavior.
package embed

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no embedding runtime is usable. Callers
// treat it as a degraded signal, not a failure.
var ErrUnavailable = errors.New("embed: embedding runtime unavailable")

// Embedder turns text into a numeric vector
type Embedder interface {
	// Embed returns the vector for text, or ErrUnavailable when the
	// runtime is missing or misbehaving.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Available reports whether the runtime can be reached at all
	Available(ctx context.Context) bool

	// Warm forces the one-time model load so later Embed calls are
	// cheap. Idempotent.
	Warm(ctx context.Context) error
}

// Null is the degraded-tier embedder: never available, never embeds
type Null struct{}

// Embed always returns ErrUnavailable
func (Null) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}

// Available always reports false
func (Null) Available(context.Context) bool { return false }

// Warm is a no-op: there is nothing to load
func (Null) Warm(context.Context) error { return nil }
