package hooks

// EventType represents the type of Claude Code hook event
type EventType string

// Event types mnemo registers for
const (
	SessionStart     EventType = "SessionStart"
	SessionEnd       EventType = "SessionEnd"
	UserPromptSubmit EventType = "UserPromptSubmit"
	PreCompact       EventType = "PreCompact"
	Stop             EventType = "Stop"
)

// CommonInput contains fields common to all hook events
type CommonInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
}

// SessionStartInput is the input for SessionStart hooks
type SessionStartInput struct {
	CommonInput
	Source string `json:"source"` // startup, resume, clear, compact
}

// SessionEndInput is the input for SessionEnd hooks
type SessionEndInput struct {
	CommonInput
	Reason string `json:"reason"` // clear, logout, prompt_input_exit, other
}

// UserPromptSubmitInput is the input for UserPromptSubmit hooks
type UserPromptSubmitInput struct {
	CommonInput
	Prompt string `json:"prompt"`
}

// PreCompactInput is the input for PreCompact hooks
type PreCompactInput struct {
	CommonInput
	Trigger            string `json:"trigger"` // manual, auto
	CustomInstructions string `json:"custom_instructions"`
}

// HookOutput is the single JSON document every hook invocation writes
// to stdout before exiting.
type HookOutput struct {
	Continue           bool                `json:"continue"`
	StopReason         string              `json:"stopReason,omitempty"`
	SuppressOutput     bool                `json:"suppressOutput,omitempty"`
	SystemMessage      string              `json:"systemMessage,omitempty"`
	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// HookSpecificOutput contains event-specific output fields
type HookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// NewContextOutput creates an output that injects additional context
// into the session.
func NewContextOutput(eventName EventType, context string) *HookOutput {
	return &HookOutput{
		Continue: true,
		HookSpecificOutput: &HookSpecificOutput{
			HookEventName:     string(eventName),
			AdditionalContext: context,
		},
	}
}

// NewMessageOutput creates an output carrying a short operator-visible
// status message and no injected context.
func NewMessageOutput(message string) *HookOutput {
	return &HookOutput{
		Continue:      true,
		SystemMessage: message,
	}
}

// NewEmptyOutput creates a minimal success output. Hooks that have
// nothing to report still emit this so the host never sees a silent
// exit.
func NewEmptyOutput() *HookOutput {
	return &HookOutput{Continue: true}
}
