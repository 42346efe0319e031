package model

import "time"

// Config is the complete groundcheck configuration
type Config struct {
	Knowledge    KnowledgeConfig    `yaml:"knowledge" mapstructure:"knowledge"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// KnowledgeConfig selects and tunes the reference knowledge source
type KnowledgeConfig struct {
	Language      string `yaml:"language" mapstructure:"language" validate:"required,min=2,max=12"`
	ExtractFormat string `yaml:"extract_format" mapstructure:"extract_format" validate:"oneof=wiki html"`
	Endpoint      string `yaml:"endpoint,omitempty" mapstructure:"endpoint" validate:"omitempty,url"` // Overrides https://{lang}.wikipedia.org/w/api.php
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	Retries       int    `yaml:"retries" mapstructure:"retries" validate:"min=0,max=5"`
	Offline       string `yaml:"offline,omitempty" mapstructure:"offline"` // Fixture file replacing the live source
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gt=0"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the lookup cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
}

// RateLimitConfig limits requests per knowledge host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gt=0"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gt=0"`
}

// VerificationConfig tunes the overlap heuristic
type VerificationConfig struct {
	MinCommonWords int `yaml:"min_common_words" mapstructure:"min_common_words" validate:"gt=0"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout" validate:"gt=0"`
	MaxBatch       int           `yaml:"max_batch" mapstructure:"max_batch" validate:"gt=0"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			Language:      "en",
			ExtractFormat: "wiki",
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "groundcheck/0.1 (+https://github.com/ppiankov/groundcheck)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
			Dir:       "~/.groundcheck/cache",
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Verification: VerificationConfig{
			MinCommonWords: 2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			MaxBatch:       100,
		},
	}
}
