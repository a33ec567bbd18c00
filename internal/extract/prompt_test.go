package extract

import (
	"strings"
	"testing"
)

var wantHeaders = []string{
	"## 1. User Requests",
	"## 2. Final Goal",
	"## 3. Completed Work",
	"## 4. Remaining Tasks",
	"## 5. Active Context",
	"## 6. Constraints",
	"## 7. Verification State",
}

func TestPreservationPromptAlwaysHasSevenSections(t *testing.T) {
	tests := []struct {
		name    string
		unsaved []Candidate
	}{
		{name: "no candidates", unsaved: nil},
		{name: "with candidates", unsaved: []Candidate{
			{Text: "use PostgreSQL for storage"},
			{Text: "JWT tokens for auth"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildPreservationPrompt(2048, tt.unsaved)

			for _, h := range wantHeaders {
				if !strings.Contains(prompt, h) {
					t.Errorf("prompt missing section %q", h)
				}
			}
			if !strings.Contains(prompt, "Transcript size: ~2 KB") {
				t.Errorf("prompt missing size line:\n%s", prompt)
			}
		})
	}
}

func TestPreservationPromptEnumeratesUnsaved(t *testing.T) {
	prompt := BuildPreservationPrompt(0, []Candidate{
		{Text: "use PostgreSQL for storage"},
		{Text: "JWT tokens for auth"},
	})

	if !strings.Contains(prompt, "## Unsaved Decisions") {
		t.Fatalf("prompt missing unsaved section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "1. use PostgreSQL for storage") ||
		!strings.Contains(prompt, "2. JWT tokens for auth") {
		t.Errorf("unsaved decisions not enumerated:\n%s", prompt)
	}
}

func TestPreservationPromptOmitsEmptyUnsavedSection(t *testing.T) {
	prompt := BuildPreservationPrompt(0, nil)
	if strings.Contains(prompt, "Unsaved Decisions") {
		t.Errorf("empty candidate list should not produce the unsaved section:\n%s", prompt)
	}
}
