package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mnemohq/mnemo/internal/config"
	"github.com/mnemohq/mnemo/internal/extract"
	"github.com/mnemohq/mnemo/internal/hooks"
	"github.com/mnemohq/mnemo/internal/logger"
	"github.com/mnemohq/mnemo/internal/session"
	"github.com/mnemohq/mnemo/internal/tier"
	"github.com/mnemohq/mnemo/internal/warmup"
	"github.com/spf13/cobra"
)

var hookEventType string

// stdinTimeout bounds the wait for hook input. Empty input after the
// timeout is valid-empty, not an error.
const stdinTimeout = 1 * time.Second

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle a hook event from Claude Code",
	Long: `Handle a hook event from Claude Code.

Reads the hook input JSON from stdin, runs the handler for the event,
and writes exactly one JSON document to stdout. The command exits 0
even when subsystems fail: the session continues degraded rather than
blocking on memory.

Example:
  echo '{"session_id":"abc","transcript_path":"/tmp/t.jsonl"}' | mnemo hook --event SessionStart`,
	RunE: runHook,
}

func init() {
	hookCmd.Flags().StringVarP(&hookEventType, "event", "e", "", "Hook event type (required)")
	_ = hookCmd.MarkFlagRequired("event")
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	event := hooks.EventType(hookEventType)
	if !isValidEventType(event) {
		return fmt.Errorf("invalid event type: %s", hookEventType)
	}

	cfg := loadConfig()
	if verbose {
		_ = logger.Init("debug", cfg.Settings.LogFile)
	} else {
		logger.InitQuiet()
	}

	input := readHookInput(os.Stdin)

	// Whatever happens inside the handler, the host gets a structured
	// response and a zero exit.
	output := safeHandle(event, input, cfg)

	outputJSON, err := json.Marshal(output)
	if err != nil {
		fmt.Println(`{"continue":true}`)
		return nil
	}
	fmt.Println(string(outputJSON))
	return nil
}

// readHookInput reads stdin with a bounded wait. A slow or absent
// writer yields empty input, which every handler accepts.
func readHookInput(r io.Reader) []byte {
	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(r)
		ch <- readResult{data: data, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			logger.Debug().Err(res.err).Msg("Failed to read hook input")
			return nil
		}
		return res.data
	case <-time.After(stdinTimeout):
		logger.Debug().Msg("No hook input within timeout, treating as empty")
		return nil
	}
}

func safeHandle(event hooks.EventType, input []byte, cfg *config.Config) (output *hooks.HookOutput) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Hook handler panicked")
			output = hooks.NewMessageOutput("mnemo: internal error, session unaffected")
		}
	}()

	switch event {
	case hooks.SessionStart:
		return handleSessionStart(input, cfg)
	case hooks.PreCompact:
		return handlePreCompact(input, cfg)
	case hooks.UserPromptSubmit:
		return handleUserPrompt(input, cfg)
	case hooks.SessionEnd:
		return handleSessionEnd(input, cfg)
	default:
		return hooks.NewEmptyOutput()
	}
}

// handleSessionStart runs the once-per-session warmup and injects a
// short status context. A fresh persisted result short-circuits the
// whole thing, so repeated hooks in one session stay cheap.
func handleSessionStart(input []byte, cfg *config.Config) *hooks.HookOutput {
	var in hooks.SessionStartInput
	_ = json.Unmarshal(input, &in)

	cache := session.New(sessionFilePath(cfg))
	tierRes := loadTier(cfg)
	embedder := buildEmbedder(cfg, tierRes)

	storeTask := warmup.Task{
		Name: "store",
		Run: func(ctx context.Context) error {
			if tierRes != nil && !tierRes.StoreAvailable {
				// Degraded tier: nothing to warm, not a failure
				return nil
			}
			s, err := openStore(cfg, tierRes)
			if err != nil {
				return err
			}
			return s.Close()
		},
	}
	embedTask := warmup.Task{
		Name: "embedder",
		Run: func(ctx context.Context) error {
			if !embedder.Available(ctx) {
				// Degraded tier: nothing to warm, not a failure
				return nil
			}
			return embedder.Warm(ctx)
		},
	}

	freshness := time.Duration(cfg.Warmup.FreshnessMinutes) * time.Minute
	deadline := time.Duration(cfg.Warmup.DeadlineMs) * time.Millisecond
	orch := warmup.New(cache, storeTask, embedTask, freshness)
	res := orch.Run(context.Background(), deadline)

	if res.TimedOut {
		return hooks.NewMessageOutput("mnemo: warmup timed out, continuing with cold subsystems")
	}

	status := statusContext(tierRes, res)
	hash, err := cache.HashOf(status)
	if err == nil {
		if cache.HasSeen(hash) {
			return hooks.NewEmptyOutput()
		}
		cache.MarkSeen(hash)
	}
	return hooks.NewContextOutput(hooks.SessionStart, status)
}

// handlePreCompact runs the extraction pipeline and emits the
// preservation prompt. The prompt is emitted even when the transcript
// is unreadable: the seven-section template alone still tells the
// summarizer what to keep.
func handlePreCompact(input []byte, cfg *config.Config) *hooks.HookOutput {
	var in hooks.PreCompactInput
	_ = json.Unmarshal(input, &in)

	tierRes := loadTier(cfg)

	var topics extract.TopicSource
	s, err := openStore(cfg, tierRes)
	if err != nil {
		logger.Warn().Err(err).Msg("Store unavailable, filtering on transcript markers only")
	} else {
		defer func() { _ = s.Close() }()
		topics = s
	}

	pipeline := extract.NewPipeline(topics, cfg.Extract)

	prompt, err := pipeline.Run(context.Background(), in.TranscriptPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Transcript unreadable, emitting bare preservation template")
		prompt = extract.BuildPreservationPrompt(0, nil)
	}

	return hooks.NewContextOutput(hooks.PreCompact, prompt)
}

// handleUserPrompt keeps a per-session prompt counter in the record.
// Cheap bookkeeping so `mnemo status` can show session activity.
func handleUserPrompt(input []byte, cfg *config.Config) *hooks.HookOutput {
	var in hooks.UserPromptSubmitInput
	_ = json.Unmarshal(input, &in)

	cache := session.New(sessionFilePath(cfg))
	var count int
	cache.Get("MNEMO_PROMPT_COUNT", &count)
	cache.Set("MNEMO_PROMPT_COUNT", count+1)

	return hooks.NewEmptyOutput()
}

// handleSessionEnd clears the session record so the next session
// starts cold on purpose.
func handleSessionEnd(input []byte, cfg *config.Config) *hooks.HookOutput {
	var in hooks.SessionEndInput
	_ = json.Unmarshal(input, &in)

	cache := session.New(sessionFilePath(cfg))
	if err := cache.ClearRecord(); err != nil {
		logger.Warn().Err(err).Msg("Failed to clear session record")
	}
	return hooks.NewEmptyOutput()
}

// statusContext renders the short memory-status block injected at
// session start.
func statusContext(tierRes *tier.Result, res *warmup.Result) string {
	var sb strings.Builder
	sb.WriteString("Persistent memory is active for this session.\n")

	switch {
	case tierRes == nil:
		sb.WriteString("Capability tier: unknown (run `mnemo install`)\n")
	default:
		fmt.Fprintf(&sb, "Capability tier: %s (%s)\n", tierRes.Name, tierRes.Accuracy)
	}

	if res.Reused {
		sb.WriteString("Subsystems already warm from an earlier hook in this session.\n")
	} else if res.Success {
		fmt.Fprintf(&sb, "Warmup finished in %d ms (store %d ms, embedder %d ms).\n",
			res.TotalMs, res.StoreMs, res.EmbedMs)
	} else {
		fmt.Fprintf(&sb, "Warmup failed (%s); recall falls back to exact match.\n", res.Err)
	}

	sb.WriteString("Save decisions as they happen so they survive compaction.")
	return sb.String()
}

func isValidEventType(event hooks.EventType) bool {
	switch event {
	case hooks.SessionStart, hooks.SessionEnd, hooks.UserPromptSubmit,
		hooks.PreCompact, hooks.Stop:
		return true
	default:
		return false
	}
}
