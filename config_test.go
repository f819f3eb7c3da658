package finrep

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LineBreakDistance != 14 {
		t.Errorf("LineBreakDistance = %v, want 14", cfg.LineBreakDistance)
	}
	if cfg.SpaceMaxDistance != 6 {
		t.Errorf("SpaceMaxDistance = %v, want 6", cfg.SpaceMaxDistance)
	}
	if cfg.ChunkSizeWords != 120 || cfg.OverlapWords != 30 {
		t.Errorf("chunking defaults = %d/%d, want 120/30", cfg.ChunkSizeWords, cfg.OverlapWords)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finrep.yaml")
	yaml := "line_break_distance: 20\nllm:\n  base_url: http://localhost:9999\n  model: test\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LineBreakDistance != 20 {
		t.Errorf("LineBreakDistance = %v, want 20", cfg.LineBreakDistance)
	}
	// Unset fields keep their defaults.
	if cfg.ChunkSizeWords != 120 {
		t.Errorf("ChunkSizeWords = %d, want default 120", cfg.ChunkSizeWords)
	}
	if cfg.LLM.BaseURL != "http://localhost:9999" || cfg.LLM.Model != "test" {
		t.Errorf("LLM config = %+v", cfg.LLM)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finrep.yaml")
	if err := os.WriteFile(path, []byte("chunk_size_words: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}

	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestResolveDBPath(t *testing.T) {
	cfg := Config{DBPath: "/tmp/explicit.db"}
	if got := cfg.ResolveDBPath(); got != "/tmp/explicit.db" {
		t.Errorf("ResolveDBPath = %q", got)
	}

	cfg = Config{DBName: "reports", StorageDir: "local"}
	if got := cfg.ResolveDBPath(); got != "reports.db" {
		t.Errorf("ResolveDBPath = %q, want reports.db", got)
	}

	cfg = Config{DBName: "reports", StorageDir: "home"}
	got := cfg.ResolveDBPath()
	if filepath.Base(got) != "reports.db" {
		t.Errorf("ResolveDBPath = %q, want a reports.db under the home dir", got)
	}
}
