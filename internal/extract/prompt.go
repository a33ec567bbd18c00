package extract

import (
	"fmt"
	"strings"
)

// The preservation prompt is emitted unconditionally before
// compaction: critical context must survive even when no
// decision-like phrasing was detected.
var promptSections = []struct {
	header string
	body   string
}{
	{"User Requests", "Every explicit request the user made this session, including ones already satisfied."},
	{"Final Goal", "The end state the user is working toward, in one or two sentences."},
	{"Completed Work", "What was finished, with file paths and names where they matter."},
	{"Remaining Tasks", "What is still open, in priority order."},
	{"Active Context", "Files, branches, and values currently in play that the next turn will need."},
	{"Constraints", "Requirements, conventions, and hard limits stated during the session."},
	{"Verification State", "What has been tested or verified, and what has not."},
}

// BuildPreservationPrompt renders the fixed seven-section template,
// the enumerated unsaved decisions when any were found, and the
// approximate transcript size.
func BuildPreservationPrompt(transcriptBytes int64, unsaved []Candidate) string {
	var sb strings.Builder

	sb.WriteString("Before compacting, carry the following into the summary:\n\n")
	for i, s := range promptSections {
		fmt.Fprintf(&sb, "## %d. %s\n%s\n\n", i+1, s.header, s.body)
	}

	if len(unsaved) > 0 {
		sb.WriteString("## Unsaved Decisions\n")
		sb.WriteString("These decisions appear in the transcript but were never persisted. Restate each one in the summary:\n")
		for i, c := range unsaved {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Text)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Transcript size: ~%d KB\n", transcriptBytes/1024)
	return sb.String()
}
