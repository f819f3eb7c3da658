package finrep

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the finrep engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.finrep/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is
	// not set. "home" (default) uses ~/.finrep/, "local" uses the
	// working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Layout heuristics.
	SpaceMaxDistance  float64 `json:"space_max_distance" yaml:"space_max_distance"`
	LineBreakDistance float64 `json:"line_break_distance" yaml:"line_break_distance"`
	ColumnTolerance   float64 `json:"column_tolerance" yaml:"column_tolerance"`

	// Table detection. Declared for forward compatibility; the current
	// detector is single-row-oriented and does not enforce them.
	MinTableCols int `json:"min_table_cols" yaml:"min_table_cols"`
	MinTableRows int `json:"min_table_rows" yaml:"min_table_rows"`

	// Chunking.
	ChunkSizeWords  int `json:"chunk_size_words" yaml:"chunk_size_words"`
	OverlapWords    int `json:"overlap_words" yaml:"overlap_words"`
	MaxHeadingWords int `json:"max_heading_words" yaml:"max_heading_words"`

	// LLM endpoint for per-paragraph analysis and question answering.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Retrieval.
	TopK int `json:"top_k" yaml:"top_k"`
}

// LLMConfig configures the HTTP LLM endpoint.
type LLMConfig struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Model    string `json:"model" yaml:"model"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns a Config with the reference heuristic defaults.
// Database is stored in ~/.finrep/finrep.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:            "finrep",
		StorageDir:        "home",
		SpaceMaxDistance:  6,
		LineBreakDistance: 14,
		ColumnTolerance:   10,
		MinTableCols:      2,
		MinTableRows:      2,
		ChunkSizeWords:    120,
		OverlapWords:      30,
		MaxHeadingWords:   12,
		TopK:              3,
	}
}

// LoadConfig reads a YAML config file and overlays it on DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.ChunkSizeWords <= 0 {
		return cfg, fmt.Errorf("%w: chunk_size_words must be positive", ErrInvalidConfig)
	}
	return cfg, nil
}

// ResolveDBPath computes the final database path from config fields.
func (c *Config) ResolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "finrep"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".finrep", name+".db")
	}
}
