package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/mnemohq/mnemo/internal/config"
)

func TestNullEmbedder(t *testing.T) {
	var e Embedder = Null{}
	ctx := context.Background()

	if e.Available(ctx) {
		t.Error("null embedder should never be available")
	}
	if _, err := e.Embed(ctx, "text"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Embed should return ErrUnavailable, got %v", err)
	}
	if err := e.Warm(ctx); err != nil {
		t.Errorf("Warm on null embedder should be a no-op, got %v", err)
	}
}

func TestCommandEmbedderWithoutCommand(t *testing.T) {
	e := NewCommandEmbedder(config.EmbedSettings{})
	ctx := context.Background()

	if e.Available(ctx) {
		t.Error("empty command should mean unavailable")
	}
	if _, err := e.Embed(ctx, "text"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Embed should degrade, got %v", err)
	}
}

func TestCommandEmbedderMissingBinary(t *testing.T) {
	e := NewCommandEmbedder(config.EmbedSettings{Command: "definitely-not-a-real-embedder-binary"})
	if e.Available(context.Background()) {
		t.Error("missing binary should mean unavailable")
	}
}
