package store

import (
	"context"
	"math"
	"sort"

	"github.com/mnemohq/mnemo/internal/logger"
)

// SemanticSearch returns decisions ranked by cosine similarity to the
// query, above the configured similarity floor, capped at limit. When
// the embedding runtime is unavailable the search degrades to the
// newest rows so callers still get something useful.
func (s *SQLiteStore) SemanticSearch(ctx context.Context, query string, limit int) ([]*Decision, error) {
	if limit <= 0 || limit > s.maxRows {
		limit = s.maxRows
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Debug().Msg("Embedding unavailable, falling back to recency order")
		return s.RecentDecisions(ctx, limit)
	}

	// Rank in Go over all embedded rows; decision counts are small
	// enough that a linear scan beats maintaining an index.
	all, err := s.allDecisions(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		d     *Decision
		score float64
	}
	var ranked []scored
	for _, d := range all {
		if len(d.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(queryVec, d.Embedding)
		if score < s.floor {
			continue
		}
		ranked = append(ranked, scored{d: d, score: score})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]*Decision, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.d)
	}
	return out, nil
}

// SemanticTopics returns the topics of decisions semantically near the
// query. Used by the extraction pipeline to build its storeTopics set;
// degradation returns all topics rather than none, since a broader
// suppression set only makes the final warning quieter, never wrong.
func (s *SQLiteStore) SemanticTopics(ctx context.Context, query string) ([]string, error) {
	if !s.embedder.Available(ctx) {
		return s.Topics(ctx)
	}

	decisions, err := s.SemanticSearch(ctx, query, s.maxRows)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var topics []string
	for _, d := range decisions {
		if _, ok := seen[d.Topic]; ok {
			continue
		}
		seen[d.Topic] = struct{}{}
		topics = append(topics, d.Topic)
	}
	return topics, nil
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Mismatched lengths compare over the shorter prefix.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
