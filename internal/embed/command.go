package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mnemohq/mnemo/internal/config"
	"github.com/mnemohq/mnemo/internal/logger"
)

// CommandEmbedder invokes an external embedding runtime as a child
// process, writing {"text": ...} to its stdin and reading
// {"embedding": [...]} from its stdout.
type CommandEmbedder struct {
	binaryPath string
	args       []string
	timeout    time.Duration

	mu        sync.Mutex
	available bool
	warmed    bool
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewCommandEmbedder creates an embedder backed by the configured
// external command. An empty command means no runtime is installed and
// every call degrades.
func NewCommandEmbedder(cfg config.EmbedSettings) *CommandEmbedder {
	e := &CommandEmbedder{
		binaryPath: cfg.Command,
		args:       cfg.Args,
		timeout:    time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
	if e.timeout <= 0 {
		e.timeout = 8 * time.Second
	}

	if e.binaryPath != "" {
		if path, err := exec.LookPath(e.binaryPath); err == nil {
			e.binaryPath = path
			e.available = true
		}
	}

	return e
}

// Available reports whether the runtime binary was found on PATH
func (e *CommandEmbedder) Available(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Warm embeds a short fixed string to force the runtime's one-time
// model load. Repeated calls after a success are no-ops.
func (e *CommandEmbedder) Warm(ctx context.Context) error {
	e.mu.Lock()
	if e.warmed {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if _, err := e.Embed(ctx, "warmup"); err != nil {
		return err
	}

	e.mu.Lock()
	e.warmed = true
	e.mu.Unlock()
	return nil
}

// Embed runs the external runtime once for the given text
func (e *CommandEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.Available(ctx) {
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.binaryPath, e.args...)
	cmd.Env = os.Environ()
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Debug().
			Err(err).
			Str("stderr", stderr.String()).
			Msg("Embedding runtime failed")
		return nil, ErrUnavailable
	}

	var resp embedResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		logger.Debug().Err(err).Msg("Unparsable embedding runtime output")
		return nil, ErrUnavailable
	}
	if resp.Error != "" || len(resp.Embedding) == 0 {
		return nil, ErrUnavailable
	}

	return resp.Embedding, nil
}
