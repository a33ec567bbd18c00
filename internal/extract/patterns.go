package extract

import (
	"regexp"
	"strings"

	"github.com/mnemohq/mnemo/internal/logger"
)

// Two families of decision phrasing, matched case-insensitively across
// the supported languages. Family one is declarative ("decided",
// "chose", "will use"); family two states an approach, architecture,
// or strategy. The first capture group is the decision text.
var decisionPatterns = compilePatterns([]string{
	// Declarative, English
	`(?i)\bdecided?\s*(?:to|on|:)\s*([^\n.!?]+)`,
	`(?i)\bchos(?:e|en)\s+(?:to\s+)?([^\n.!?]+)`,
	`(?i)\b(?:will|we'?ll|going to)\s+(use\s+[^\n.!?]+)`,
	`(?i)\bopted\s+for\s+([^\n.!?]+)`,
	`(?i)\bgoing\s+with\s+([^\n.!?]+)`,
	`(?i)\bsettled\s+on\s+([^\n.!?]+)`,
	// Declarative, Spanish
	`(?i)\b(?:decidimos|elegimos|optamos\s+por)\s*:?\s*([^\n.!?]+)`,
	`(?i)\bvamos\s+a\s+(usar\s+[^\n.!?]+)`,
	// Declarative, French
	`(?i)\b(?:nous\s+avons|on\s+a)\s+(?:décidé|choisi)\s+(?:de\s+|d')?([^\n.!?]+)`,
	// Declarative, Korean (verb-final: capture the whole clause)
	`([^\n.!?]{6,}(?:로\s*결정|을\s*선택|기로\s*했)[^\n.!?]*)`,

	// Approach/architecture/strategy, English
	`(?i)\b(?:approach|architecture|strategy)\s*(?:is|will\s+be|:)\s*([^\n.!?]+)`,
	`(?i)\b(?:new|final|overall)\s+((?:approach|architecture|strategy)\s+[^\n.!?]+)`,
	// Approach/architecture/strategy, Spanish
	`(?i)\b(?:arquitectura|estrategia|enfoque)\s*(?:es|será|:)\s*([^\n.!?]+)`,
})

// saveMarkerPattern recognizes an explicit "this topic was saved"
// marker left in the transcript by a save tool call, e.g.
// `mnemo_save ... topic: storage_choice`. The tool-name prefix is
// matched loosely so transcripts from differently branded builds still
// count.
var saveMarkerPattern = regexp.MustCompile(`(?i)\b\w*save\w*\b[^\n]*?\btopic\s*[:=]\s*["']?([\w.-]+)`)

var (
	fencedCodeRe  = regexp.MustCompile("(?s)```.*?```")
	danglingFence = regexp.MustCompile("(?s)```.*$")
	inlineCodeRe  = regexp.MustCompile("`[^`\n]*`")
)

func compilePatterns(patterns []string) []*regexp.Regexp {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Debug().Str("pattern", p).Err(err).Msg("Failed to compile pattern")
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// stripCode removes fenced and inline code spans so source snippets
// never read as decisions.
func stripCode(text string) string {
	text = fencedCodeRe.ReplaceAllString(text, " ")
	text = danglingFence.ReplaceAllString(text, " ")
	text = inlineCodeRe.ReplaceAllString(text, " ")
	return text
}

// savedTopicsIn captures every topic named by a save marker in text
func savedTopicsIn(text string) []string {
	var topics []string
	for _, m := range saveMarkerPattern.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 && m[1] != "" {
			topics = append(topics, strings.ToLower(m[1]))
		}
	}
	return topics
}
