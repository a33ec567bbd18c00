package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/mnemohq/mnemo/internal/config"
	"github.com/mnemohq/mnemo/internal/logger"
)

// Candidate is a heuristically extracted span of transcript text
// suspected of recording a decision not yet persisted. Ephemeral:
// exists only during one extraction pass.
type Candidate struct {
	Text string
	// SourceOffset is the index of the message the candidate came from
	SourceOffset int
}

// TopicSource is the slice of the decision store the pipeline needs
type TopicSource interface {
	SemanticTopics(ctx context.Context, query string) ([]string, error)
}

// storeTopicsQuery is the fixed generic lookup used to pull the
// storeTopics set. Candidates are not embedded individually; one broad
// query covers them all.
const storeTopicsQuery = "project decisions architecture technology choices"

// Pipeline extracts unsaved decision candidates from a transcript
type Pipeline struct {
	topics        TopicSource
	maxCandidates int
	minLength     int
	words         wordPatterns
}

// NewPipeline creates a pipeline. topics may be nil when the store is
// unavailable; filtering then uses in-transcript markers only.
func NewPipeline(topics TopicSource, cfg config.ExtractSettings) *Pipeline {
	maxC := cfg.MaxCandidates
	if maxC <= 0 {
		maxC = 5
	}
	minL := cfg.MinLength
	if minL <= 0 {
		minL = 15
	}
	return &Pipeline{
		topics:        topics,
		maxCandidates: maxC,
		minLength:     minL,
		words:         make(wordPatterns),
	}
}

// Extract scans the messages for decision candidates. Topics named by
// save markers earlier in the same transcript suppress near-duplicate
// phrasing later in the scan; the savedTopics set is returned so
// FilterUnsaved can reuse it. Output is de-duplicated by exact text
// and capped to the most recent maxCandidates. This feeds a final
// warning, not an audit, so recency beats completeness.
func (p *Pipeline) Extract(messages []Message) ([]Candidate, map[string]struct{}) {
	savedTopics := make(map[string]struct{})
	seenText := make(map[string]struct{})
	var candidates []Candidate

	for i := range messages {
		text := messages[i].Text()
		if text == "" {
			continue
		}

		for _, topic := range savedTopicsIn(text) {
			savedTopics[topic] = struct{}{}
		}

		clean := stripCode(text)
		for _, re := range decisionPatterns {
			for _, m := range re.FindAllStringSubmatch(clean, -1) {
				if len(m) < 2 {
					continue
				}
				cand := strings.TrimSpace(m[1])
				if len(cand) < p.minLength {
					continue
				}
				if p.words.matchesAnyTopic(cand, savedTopics) {
					continue
				}
				key := strings.ToLower(cand)
				if _, dup := seenText[key]; dup {
					continue
				}
				seenText[key] = struct{}{}
				candidates = append(candidates, Candidate{Text: cand, SourceOffset: i})
			}
		}
	}

	if len(candidates) > p.maxCandidates {
		candidates = candidates[len(candidates)-p.maxCandidates:]
	}
	return candidates, savedTopics
}

// FilterUnsaved removes candidates already covered by a known topic.
// knownTopics is the in-transcript savedTopics set; the store's
// storeTopics are merged in via a semantic lookup when available.
// Store unavailability degrades this step to transcript-only
// filtering, never an error.
func (p *Pipeline) FilterUnsaved(ctx context.Context, candidates []Candidate, knownTopics map[string]struct{}) []Candidate {
	topics := make(map[string]struct{}, len(knownTopics))
	for t := range knownTopics {
		topics[t] = struct{}{}
	}

	if p.topics != nil {
		storeTopics, err := p.topics.SemanticTopics(ctx, storeTopicsQuery)
		if err != nil {
			logger.Warn().Err(err).Msg("Store topic lookup failed, filtering on transcript markers only")
		} else {
			for _, t := range storeTopics {
				topics[strings.ToLower(t)] = struct{}{}
			}
		}
	}

	var unsaved []Candidate
	for _, c := range candidates {
		if !p.words.matchesAnyTopic(c.Text, topics) {
			unsaved = append(unsaved, c)
		}
	}
	return unsaved
}

// wordPatterns caches compiled whole-word patterns keyed by needle, so
// a filter pass compiles each topic variant and candidate once instead
// of once per comparison. Not safe for concurrent use; each Pipeline
// owns its own cache.
type wordPatterns map[string]*regexp.Regexp

// matchesAnyTopic checks a candidate against the topic set in both
// directions on whole-word boundaries: the candidate restating a saved
// topic and the topic restating a broader candidate both count.
func (w wordPatterns) matchesAnyTopic(candidate string, topics map[string]struct{}) bool {
	for topic := range topics {
		if topic == "" {
			continue
		}
		// Topics are often snake_case; match the spaced form too
		variants := []string{topic}
		if spaced := strings.ReplaceAll(topic, "_", " "); spaced != topic {
			variants = append(variants, spaced)
		}
		for _, v := range variants {
			if w.contains(candidate, v) || w.contains(v, candidate) {
				return true
			}
		}
	}
	return false
}

// contains reports whether needle occurs in haystack on word
// boundaries, case-insensitively.
func (w wordPatterns) contains(haystack, needle string) bool {
	if needle == "" || len(needle) > len(haystack) {
		return false
	}
	re, cached := w[needle]
	if !cached {
		re, _ = compileWholeWord(needle)
		w[needle] = re
	}
	if re == nil {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	return re.MatchString(haystack)
}

func compileWholeWord(needle string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b` + regexp.QuoteMeta(needle) + `\b`)
}

// Run parses the transcript and produces the preservation prompt
func (p *Pipeline) Run(ctx context.Context, transcriptPath string) (string, error) {
	messages, size, err := ParseTranscript(transcriptPath)
	if err != nil {
		return "", err
	}

	candidates, savedTopics := p.Extract(messages)
	unsaved := p.FilterUnsaved(ctx, candidates, savedTopics)

	logger.Debug().
		Int("messages", len(messages)).
		Int("candidates", len(candidates)).
		Int("unsaved", len(unsaved)).
		Msg("Extraction pass complete")

	return BuildPreservationPrompt(size, unsaved), nil
}
