package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/bedtime/internal/story"
)

type Config struct {
	AI       AIConfig       `yaml:"ai" validate:"required"`
	Pipeline PipelineConfig `yaml:"pipeline" validate:"required"`
	Paths    PathsConfig    `yaml:"paths"`
	Limits   Limits         `yaml:"limits" validate:"required"`
}

type AIConfig struct {
	APIKey  string `yaml:"api_key" validate:"required,min=20"`
	Model   string `yaml:"model" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
	Timeout int    `yaml:"timeout" validate:"required,min=10,max=3600"`
}

// PipelineConfig carries the knobs of the generate-judge-revise loop. These
// are inputs to the core components, not behaviors of the core itself.
type PipelineConfig struct {
	AcceptanceThreshold    float64                          `yaml:"acceptance_threshold" validate:"required,min=1,max=10"`
	MaxRevisions           int                              `yaml:"max_revisions" validate:"min=0,max=5"`
	StorytellerTemperature float64                          `yaml:"storyteller_temperature" validate:"min=0,max=2"`
	JudgeTemperature       float64                          `yaml:"judge_temperature" validate:"min=0,max=2"`
	RouterTemperature      float64                          `yaml:"router_temperature" validate:"min=0,max=2"`
	DefaultCategory        story.Category                   `yaml:"default_category"`
	LengthWords            map[story.Length]story.WordRange `yaml:"length_words"`
}

type PathsConfig struct {
	ArchiveDir string `yaml:"archive_dir"`
}

type Limits struct {
	MaxRetries   int             `yaml:"max_retries" validate:"min=0,max=10"`
	TotalTimeout time.Duration   `yaml:"total_timeout" validate:"required,min=1m,max=24h"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" validate:"required"`
}

// UnmarshalYAML accepts total_timeout as a duration string ("10m", "1h"),
// which yaml does not decode into time.Duration on its own.
func (l *Limits) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxRetries   int             `yaml:"max_retries"`
		TotalTimeout string          `yaml:"total_timeout"`
		RateLimit    RateLimitConfig `yaml:"rate_limit"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	l.MaxRetries = raw.MaxRetries
	l.RateLimit = raw.RateLimit
	if raw.TotalTimeout != "" {
		d, err := time.ParseDuration(raw.TotalTimeout)
		if err != nil {
			return fmt.Errorf("parsing total_timeout: %w", err)
		}
		l.TotalTimeout = d
	}
	return nil
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"required,min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"required,min=1,max=100"`
}

func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		AcceptanceThreshold:    7.0,
		MaxRevisions:           2,
		StorytellerTemperature: 0.7,
		JudgeTemperature:       0.3,
		RouterTemperature:      0.3,
		DefaultCategory:        story.DefaultCategory,
		LengthWords: map[story.Length]story.WordRange{
			story.LengthShort:  {Min: 200, Max: 400},
			story.LengthMedium: {Min: 400, Max: 800},
			story.LengthLong:   {Min: 800, Max: 1200},
		},
	}
}

func DefaultLimits() Limits {
	return Limits{
		MaxRetries:   3,
		TotalTimeout: 30 * time.Minute,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         10,
		},
	}
}

// Load reads the config file, layering env fallbacks for the API key.
// A missing file yields a default config as long as an API key is present
// in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := getConfigPath()

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		cfg = defaultConfig()
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if cfg.AI.APIKey == "" || cfg.AI.APIKey == "${OPENAI_API_KEY}" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.AI.APIKey = key
		} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.AI.APIKey = key
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		AI: AIConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
			Timeout: 120,
		},
		Pipeline: DefaultPipeline(),
		Limits:   DefaultLimits(),
	}
}

func getConfigPath() string {
	if path := os.Getenv("BEDTIME_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "bedtime", "config.yaml")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bedtime", "config.yaml")
}

func (c *Config) validate() error {
	if c.Paths.ArchiveDir == "" {
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			c.Paths.ArchiveDir = filepath.Join(xdgData, "bedtime", "stories")
		} else {
			home, _ := os.UserHomeDir()
			c.Paths.ArchiveDir = filepath.Join(home, ".local", "share", "bedtime", "stories")
		}
	} else {
		c.Paths.ArchiveDir = expandTilde(c.Paths.ArchiveDir)
	}

	// Zero-value fields take defaults individually, so a partial config file
	// keeps every setting it does name.
	pipeline := DefaultPipeline()
	if c.Pipeline.AcceptanceThreshold == 0 {
		c.Pipeline.AcceptanceThreshold = pipeline.AcceptanceThreshold
	}
	if c.Pipeline.MaxRevisions == 0 {
		c.Pipeline.MaxRevisions = pipeline.MaxRevisions
	}
	if c.Pipeline.StorytellerTemperature == 0 {
		c.Pipeline.StorytellerTemperature = pipeline.StorytellerTemperature
	}
	if c.Pipeline.JudgeTemperature == 0 {
		c.Pipeline.JudgeTemperature = pipeline.JudgeTemperature
	}
	if c.Pipeline.RouterTemperature == 0 {
		c.Pipeline.RouterTemperature = pipeline.RouterTemperature
	}
	if c.Pipeline.DefaultCategory == "" {
		c.Pipeline.DefaultCategory = pipeline.DefaultCategory
	}
	if len(c.Pipeline.LengthWords) == 0 {
		c.Pipeline.LengthWords = pipeline.LengthWords
	}
	if _, ok := story.ParseCategory(string(c.Pipeline.DefaultCategory)); !ok {
		return fmt.Errorf("config validation failed: unknown default_category %q", c.Pipeline.DefaultCategory)
	}

	limits := DefaultLimits()
	if c.Limits.MaxRetries == 0 {
		c.Limits.MaxRetries = limits.MaxRetries
	}
	if c.Limits.TotalTimeout == 0 {
		c.Limits.TotalTimeout = limits.TotalTimeout
	}
	if c.Limits.RateLimit.RequestsPerMinute == 0 {
		c.Limits.RateLimit.RequestsPerMinute = limits.RateLimit.RequestsPerMinute
	}
	if c.Limits.RateLimit.BurstSize == 0 {
		c.Limits.RateLimit.BurstSize = limits.RateLimit.BurstSize
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// WordRange resolves the word band for a target length.
func (c *Config) WordRange(length story.Length) story.WordRange {
	if r, ok := c.Pipeline.LengthWords[length]; ok {
		return r
	}
	return DefaultPipeline().LengthWords[length]
}

func expandTilde(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
