package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atlasml/mmprep/internal/storage"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string          `yaml:"port"`
	InitialProfile       storage.Profile `yaml:"profile"`
	ShutdownGracePeriod  time.Duration   `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration   `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration   `yaml:"write_timeout"`
	IdleTimeout          time.Duration   `yaml:"idle_timeout"`
	EnableRequestLogging bool            `yaml:"enable_request_logging"`
	RateLimitRPS         float64         `yaml:"-"`
	RateLimitBurst       int             `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string          `yaml:"port"`
	Profile              storage.Profile `yaml:"profile"`
	ShutdownGracePeriod  string          `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string          `yaml:"read_header_timeout"`
	WriteTimeout         string          `yaml:"write_timeout"`
	IdleTimeout          string          `yaml:"idle_timeout"`
	EnableRequestLogging bool            `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit   `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	Capacity       *int
	FramesPerClip  *int
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply environment variables (override YAML)
	applyEnvConfig(&cfg)

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		InitialProfile:       storage.DefaultProfile(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.Profile.Capacity > 0 {
		cfg.InitialProfile.Capacity = yamlCfg.Profile.Capacity
	}
	if yamlCfg.Profile.ImageWidth > 0 {
		cfg.InitialProfile.ImageWidth = yamlCfg.Profile.ImageWidth
	}
	if yamlCfg.Profile.ImageHeight > 0 {
		cfg.InitialProfile.ImageHeight = yamlCfg.Profile.ImageHeight
	}
	if yamlCfg.Profile.FramesPerClip > 0 {
		cfg.InitialProfile.FramesPerClip = yamlCfg.Profile.FramesPerClip
	}
	if yamlCfg.Profile.ImageSeqLength > 0 {
		cfg.InitialProfile.ImageSeqLength = yamlCfg.Profile.ImageSeqLength
	}

	if yamlCfg.ShutdownGracePeriod != "" {
		if d, err := time.ParseDuration(yamlCfg.ShutdownGracePeriod); err == nil {
			cfg.ShutdownGracePeriod = d
		}
	}

	if yamlCfg.ReadHeaderTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.ReadHeaderTimeout); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}

	if yamlCfg.WriteTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.WriteTimeout); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if yamlCfg.IdleTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.IdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}

	cfg.EnableRequestLogging = yamlCfg.EnableRequestLogging

	if yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if capacity := strings.TrimSpace(os.Getenv("PACK_CAPACITY")); capacity != "" {
		if value, err := strconv.Atoi(capacity); err == nil && value > 0 {
			cfg.InitialProfile.Capacity = value
		}
	}

	if frames := strings.TrimSpace(os.Getenv("FRAMES_PER_CLIP")); frames != "" {
		if value, err := strconv.Atoi(frames); err == nil && value > 0 {
			cfg.InitialProfile.FramesPerClip = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.Capacity != nil && *overrides.Capacity > 0 {
		cfg.InitialProfile.Capacity = *overrides.Capacity
	}

	if overrides.FramesPerClip != nil && *overrides.FramesPerClip > 0 {
		cfg.InitialProfile.FramesPerClip = *overrides.FramesPerClip
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	p := cfg.InitialProfile
	if p.Capacity <= 0 {
		return fmt.Errorf("pack capacity must be positive")
	}
	if p.ImageWidth <= 0 || p.ImageHeight <= 0 {
		return fmt.Errorf("image dimensions must be positive")
	}
	if p.FramesPerClip <= 0 {
		return fmt.Errorf("frames per clip must be positive")
	}
	if p.ImageSeqLength < 0 {
		return fmt.Errorf("image segment length must be >= 0")
	}
	return nil
}
