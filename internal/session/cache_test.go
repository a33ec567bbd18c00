package session

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestCacheSetGetRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "string", key: "AGENTS", value: "claude"},
		{name: "number", key: "COUNT", value: float64(42)},
		{name: "nested", key: "RULES", value: map[string]any{
			"max": float64(5),
			"tags": []any{"a", "b"},
		}},
	}

	for _, withRecord := range []bool{false, true} {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				recordPath := ""
				if withRecord {
					recordPath = filepath.Join(t.TempDir(), "session.env")
				}
				c := New(recordPath)

				if ok := c.Set(tt.key, tt.value); !ok {
					t.Fatalf("Set(%q) returned false", tt.key)
				}

				var got any
				if !c.Get(tt.key, &got) {
					t.Fatalf("Get(%q) found nothing", tt.key)
				}
				if !reflect.DeepEqual(got, tt.value) {
					t.Errorf("Get(%q) = %#v, want %#v", tt.key, got, tt.value)
				}
			})
		}
	}
}

func TestCacheRecordNeverDuplicatesKey(t *testing.T) {
	recordPath := filepath.Join(t.TempDir(), "session.env")
	c := New(recordPath)

	c.Set("WARMUP_OK", true)
	c.Set("WARMUP_OK", false)
	c.Set("OTHER", "x")

	data, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatalf("failed to read record: %v", err)
	}

	count := strings.Count(string(data), "export WARMUP_OK=")
	if count != 1 {
		t.Errorf("record contains %d lines for WARMUP_OK, want 1:\n%s", count, data)
	}
	if !strings.Contains(string(data), `export WARMUP_OK="false"`) {
		t.Errorf("record should hold the second value:\n%s", data)
	}
}

func TestCacheGetPrefersEnvironment(t *testing.T) {
	c := New("")
	c.Set("MNEMO_TEST_KEY", "from-map")

	t.Setenv("MNEMO_TEST_KEY", `"from-env"`)

	got, ok := c.GetString("MNEMO_TEST_KEY")
	if !ok || got != "from-env" {
		t.Errorf("GetString = %q, %v; want %q from environment", got, ok, "from-env")
	}
}

func TestCacheGetMalformedEnvFallsThrough(t *testing.T) {
	c := New("")
	c.Set("MNEMO_TEST_KEY2", "from-map")

	t.Setenv("MNEMO_TEST_KEY2", "not valid json {{")

	got, ok := c.GetString("MNEMO_TEST_KEY2")
	if !ok || got != "from-map" {
		t.Errorf("GetString = %q, %v; want in-process fallback", got, ok)
	}
}

func TestCachePersistFailureDegradesToMemory(t *testing.T) {
	// Point the record at a path whose parent is a file, so the write
	// must fail while the in-memory value still lands.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c := New(filepath.Join(blocker, "session.env"))

	if ok := c.Set("KEY", "value"); ok {
		t.Error("Set should report persistence failure")
	}

	got, found := c.GetString("KEY")
	if !found || got != "value" {
		t.Errorf("value should survive in memory, got %q, %v", got, found)
	}
}

func TestHashOf(t *testing.T) {
	c := New("")

	h1, err := c.HashOf("some injected context")
	if err != nil {
		t.Fatalf("HashOf returned error: %v", err)
	}
	h2, err := c.HashOf("some injected context")
	if err != nil {
		t.Fatalf("HashOf returned error: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hash not stable: %d != %d", h1, h2)
	}

	h3, err := c.HashOf("different text entirely")
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 {
		t.Errorf("distinct texts hashed identically: %d", h1)
	}
}

func TestHashOfRejectsEmptyInput(t *testing.T) {
	c := New("")
	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := c.HashOf(input); err == nil {
			t.Errorf("HashOf(%q) should fail", input)
		}
	}
}

func TestSeenSet(t *testing.T) {
	c := New("")
	h, _ := c.HashOf("context block")

	if c.HasSeen(h) {
		t.Error("fresh hash should not be seen")
	}
	c.MarkSeen(h)
	if !c.HasSeen(h) {
		t.Error("marked hash should be seen")
	}

	c.Reset()
	if c.HasSeen(h) {
		t.Error("Reset should clear the seen set")
	}
}

func TestClearRecord(t *testing.T) {
	recordPath := filepath.Join(t.TempDir(), "session.env")
	c := New(recordPath)
	c.Set("KEY", "value")

	if err := c.ClearRecord(); err != nil {
		t.Fatalf("ClearRecord failed: %v", err)
	}
	if _, err := os.Stat(recordPath); !os.IsNotExist(err) {
		t.Error("record file should be gone")
	}

	// Clearing again is fine
	if err := c.ClearRecord(); err != nil {
		t.Errorf("ClearRecord on missing file: %v", err)
	}
}
