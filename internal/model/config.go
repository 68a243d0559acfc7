package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime settings. It is built once at process start
// and passed by reference into the pipeline components.
type Config struct {
	Thresholds   Thresholds         `yaml:"thresholds" mapstructure:"thresholds"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Synonyms     SynonymConfig      `yaml:"synonyms" mapstructure:"synonyms"`
	Normalize    NormalizeConfig    `yaml:"normalize" mapstructure:"normalize"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// Thresholds are independent tuning knobs, one per decision point.
// They are deliberately not tied to each other.
type Thresholds struct {
	FuzzyKey     float64 `yaml:"fuzzy_key" mapstructure:"fuzzy_key"`         // resolver tier 2
	ValidMatch   float64 `yaml:"valid_match" mapstructure:"valid_match"`     // is_valid_match gate
	Semantic     float64 `yaml:"semantic" mapstructure:"semantic"`           // resolver tier 3
	MemberMatch  float64 `yaml:"member_match" mapstructure:"member_match"`   // fuzzy Jaccard membership
	Acceptance   float64 `yaml:"acceptance" mapstructure:"acceptance"`       // retrieval acceptance
	BandHigh     float64 `yaml:"band_high" mapstructure:"band_high"`         // confidence band
	BandModerate float64 `yaml:"band_moderate" mapstructure:"band_moderate"` // confidence band
}

type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type SynonymConfig struct {
	// Sources are layered in order on top of the embedded defaults; later wins
	Sources []string `yaml:"sources" mapstructure:"sources"`
	Watch   bool     `yaml:"watch" mapstructure:"watch"`
}

type NormalizeConfig struct {
	Stopphrases []string `yaml:"stopphrases" mapstructure:"stopphrases"`
}

type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// LLMConfig configures the optional narrative summary. It never affects ranking.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

type OutputConfig struct {
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// DefaultThresholds returns the reference tuning
func DefaultThresholds() Thresholds {
	return Thresholds{
		FuzzyKey:     0.65,
		ValidMatch:   0.6,
		Semantic:     0.65,
		MemberMatch:  0.6,
		Acceptance:   0.6,
		BandHigh:     0.7,
		BandModerate: 0.4,
	}
}

// DefaultStopphrases are whole fragments that carry no symptom
func DefaultStopphrases() []string {
	return []string{
		// filler connectors
		"tengo", "me", "siento", "y", "a veces", "muy", "con", "el", "la", "los", "las",
		// well-being statements
		"estoy bien", "todo normal", "todo bien", "bien", "normal", "nada", "ninguno", "ninguna",
		"me siento bien", "sin problemas",
	}
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".casewise")

	return &Config{
		Thresholds: DefaultThresholds(),
		Store: StoreConfig{
			Path: filepath.Join(base, "cases.json"),
		},
		Synonyms: SynonymConfig{
			Sources: []string{},
		},
		Normalize: NormalizeConfig{
			Stopphrases: DefaultStopphrases(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
	}
}
