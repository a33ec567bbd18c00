package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mnemohq/mnemo/internal/embed"
)

// wordEmbedder is a deterministic stand-in for the real runtime: each
// known keyword lights up one dimension.
type wordEmbedder struct {
	vocab []string
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocab))
	lower := strings.ToLower(text)
	for i, w := range e.vocab {
		if strings.Contains(lower, w) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *wordEmbedder) Available(context.Context) bool { return true }
func (e *wordEmbedder) Warm(context.Context) error     { return nil }

func newTestStore(t *testing.T, embedder embed.Embedder) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "decisions.db"), embedder, 0.5, 20)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndRecent(t *testing.T) {
	s := newTestStore(t, embed.Null{})
	ctx := context.Background()

	d := &Decision{Topic: "storage", Decision: "use PostgreSQL", Reasoning: "ops familiarity"}
	if err := s.SaveDecision(ctx, d); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}
	if d.ID == "" {
		t.Error("SaveDecision should assign an ID")
	}

	got, err := s.RecentDecisions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDecisions failed: %v", err)
	}
	if len(got) != 1 || got[0].Decision != "use PostgreSQL" || got[0].Reasoning != "ops familiarity" {
		t.Errorf("unexpected rows: %+v", got)
	}
}

func TestUpdateOutcome(t *testing.T) {
	s := newTestStore(t, embed.Null{})
	ctx := context.Background()

	d := &Decision{Topic: "auth", Decision: "JWT tokens"}
	if err := s.SaveDecision(ctx, d); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateOutcome(ctx, d.ID, "worked well"); err != nil {
		t.Fatalf("UpdateOutcome failed: %v", err)
	}
	got, _ := s.RecentDecisions(ctx, 1)
	if got[0].Outcome != "worked well" {
		t.Errorf("outcome = %q, want %q", got[0].Outcome, "worked well")
	}

	if err := s.UpdateOutcome(ctx, "missing-id", "x"); err == nil {
		t.Error("updating a missing decision should fail")
	}
}

func TestTopicsAndCount(t *testing.T) {
	s := newTestStore(t, embed.Null{})
	ctx := context.Background()

	for _, topic := range []string{"auth", "storage", "auth"} {
		if err := s.SaveDecision(ctx, &Decision{Topic: topic, Decision: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	topics, err := s.Topics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Errorf("want 2 distinct topics, got %v", topics)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestSemanticSearchRanksByCosine(t *testing.T) {
	emb := &wordEmbedder{vocab: []string{"postgres", "jwt", "cache"}}
	s := newTestStore(t, emb)
	ctx := context.Background()

	seeds := []*Decision{
		{Topic: "storage", Decision: "postgres for everything"},
		{Topic: "auth", Decision: "jwt with short expiry"},
		{Topic: "caching", Decision: "cache sessions in memory"},
	}
	for _, d := range seeds {
		if err := s.SaveDecision(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SemanticSearch(ctx, "postgres migration plan", 5)
	if err != nil {
		t.Fatalf("SemanticSearch failed: %v", err)
	}
	if len(got) != 1 || got[0].Topic != "storage" {
		t.Errorf("want the postgres decision above the floor, got %+v", got)
	}
}

func TestSemanticSearchDegradesToRecency(t *testing.T) {
	s := newTestStore(t, embed.Null{})
	ctx := context.Background()

	if err := s.SaveDecision(ctx, &Decision{Topic: "storage", Decision: "postgres"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.SemanticSearch(ctx, "anything at all", 5)
	if err != nil {
		t.Fatalf("degraded search should not error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("degraded search should return recent rows, got %+v", got)
	}
}

func TestSemanticTopics(t *testing.T) {
	emb := &wordEmbedder{vocab: []string{"postgres", "jwt"}}
	s := newTestStore(t, emb)
	ctx := context.Background()

	for _, d := range []*Decision{
		{Topic: "storage", Decision: "postgres for everything"},
		{Topic: "storage", Decision: "postgres replicas for reads"},
		{Topic: "auth", Decision: "jwt with short expiry"},
	} {
		if err := s.SaveDecision(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	topics, err := s.SemanticTopics(ctx, "postgres tuning")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 1 || topics[0] != "storage" {
		t.Errorf("want deduplicated storage topic, got %v", topics)
	}
}

func TestSemanticTopicsDegradesToAllTopics(t *testing.T) {
	s := newTestStore(t, embed.Null{})
	ctx := context.Background()

	for _, topic := range []string{"auth", "storage"} {
		if err := s.SaveDecision(ctx, &Decision{Topic: topic, Decision: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	topics, err := s.SemanticTopics(ctx, "whatever")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Errorf("degraded lookup should list all topics, got %v", topics)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "empty", a: nil, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
