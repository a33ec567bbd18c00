// Package extract scans a session transcript for decisions that were
// never persisted, reconciles them against save markers and the
// decision store, and builds the preservation prompt emitted before
// compaction. Detection is regex-over-phrasing: a best-effort filter,
// not a correctness-bearing component.
package extract

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mnemohq/mnemo/internal/logger"
)

// Message is a single parsed transcript line
type Message struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
	Message *innerMessage   `json:"message,omitempty"`
}

type innerMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ParseTranscript reads a JSONL transcript. Each line is parsed
// independently; malformed lines are skipped, never fatal.
func ParseTranscript(path string) ([]Message, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	var messages []Message
	scanner := bufio.NewScanner(file)

	// Transcript lines carry whole tool results; allow large lines
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			logger.Debug().
				Int("line", lineNum).
				Err(err).
				Msg("Failed to parse transcript line")
			continue
		}
		messages = append(messages, msg)
	}

	if err := scanner.Err(); err != nil {
		return nil, size, fmt.Errorf("error reading transcript: %w", err)
	}

	return messages, size, nil
}

// Text flattens a message's textual content. Content may be a plain
// string or an array of typed blocks; only text blocks contribute.
func (m *Message) Text() string {
	raw := m.Content
	if m.Message != nil && len(m.Message.Content) > 0 {
		raw = m.Message.Content
	}
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var blocks []contentBlock
	if json.Unmarshal(raw, &blocks) != nil {
		return ""
	}

	var sb strings.Builder
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			sb.WriteString(b.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
