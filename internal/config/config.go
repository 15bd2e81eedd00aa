package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/pkg/logformat"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level lens configuration
type Config struct {
	API     APIConfig    `yaml:"api"`
	EnvFile string       `yaml:"env_file"`
	View    ViewConfig   `yaml:"view"`
	Levels  LevelsConfig `yaml:"levels"`
}

// APIConfig defines the HTTP API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ViewConfig defines defaults for composed log views
type ViewConfig struct {
	Multiline    bool   `yaml:"multiline"`
	PollInterval string `yaml:"poll_interval"`
	MinimumLevel string `yaml:"minimum_level"`
	Theme        string `yaml:"theme"`
}

// LevelsConfig overrides the level detection pattern table
type LevelsConfig struct {
	TracePatterns   []string `yaml:"trace"`
	DebugPatterns   []string `yaml:"debug"`
	InfoPatterns    []string `yaml:"info"`
	WarningPatterns []string `yaml:"warning"`
	ErrorPatterns   []string `yaml:"error"`
	FatalPatterns   []string `yaml:"fatal"`
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	// Apply defaults
	if config.API.Port == 0 {
		config.API.Port = constants.DefaultAPIPort
	}
	if config.API.Host == "" {
		config.API.Host = constants.DefaultAPIHost
	}
	if config.View.Theme == "" {
		config.View.Theme = "monokai"
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	config, _ := Parse(nil)
	return config
}

// Validate checks a parsed configuration for consistency
func Validate(config *Config) error {
	if config.API.Port < 0 || config.API.Port > 65535 {
		return fmt.Errorf("%w: api port %d out of range", domain.ErrInvalidConfig, config.API.Port)
	}
	if config.View.PollInterval != "" {
		if _, err := time.ParseDuration(config.View.PollInterval); err != nil {
			return fmt.Errorf("%w: poll_interval: %v", domain.ErrInvalidConfig, err)
		}
	}
	if config.View.MinimumLevel != "" {
		if _, ok := domain.ParseLevel(config.View.MinimumLevel); !ok {
			return fmt.Errorf("%w: unknown minimum_level %q", domain.ErrInvalidConfig, config.View.MinimumLevel)
		}
	}
	return nil
}

// LevelPatterns converts the levels section into a detector table. An
// empty section yields the detector defaults.
func (c *Config) LevelPatterns() logformat.LevelPatterns {
	return logformat.LevelPatterns{
		Trace:   c.Levels.TracePatterns,
		Debug:   c.Levels.DebugPatterns,
		Info:    c.Levels.InfoPatterns,
		Warning: c.Levels.WarningPatterns,
		Error:   c.Levels.ErrorPatterns,
		Fatal:   c.Levels.FatalPatterns,
	}
}

// PollInterval returns the configured poll interval or the default
func (c *Config) PollInterval() time.Duration {
	if c.View.PollInterval == "" {
		return constants.DefaultPollInterval
	}
	d, err := time.ParseDuration(c.View.PollInterval)
	if err != nil {
		return constants.DefaultPollInterval
	}
	return d
}
