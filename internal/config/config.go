// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

var valid = validator.New()

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "10s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// MarshalJSON renders the duration as a string, as in the YAML file.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

// Config holds all collector configuration.
type Config struct {
	Collection  CollectionConfig  `yaml:"collection" json:"collection"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Recordables []recordable.Spec `yaml:"recordables,omitempty" json:"recordables,omitempty" validate:"unique=Name,dive"`
}

// CollectionConfig holds settings of the collection run.
type CollectionConfig struct {
	// CommandTimeout bounds every recordable without its own timeout.
	CommandTimeout Duration `yaml:"command_timeout" json:"command_timeout"`
	// LogTimeThreshold is the acquisition time above which durations are logged.
	LogTimeThreshold Duration `yaml:"log_time_threshold" json:"log_time_threshold"`
	Parallelism      int      `yaml:"parallelism" json:"parallelism" validate:"gte=1,lte=256"`
	// ResultJSON enables the gather.json manifest.
	ResultJSON  bool     `yaml:"result_json" json:"result_json"`
	MetricsFile string   `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
	Disable     []string `yaml:"disable,omitempty" json:"disable,omitempty" validate:"dive,required"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			CommandTimeout:   Duration{10 * time.Second},
			LogTimeThreshold: Duration{1 * time.Second},
			Parallelism:      1,
			ResultJSON:       true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take precedence over values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CLIOverrides holds values from command-line flags.
// Zero values and nil pointers are treated as "not set" and skipped.
type CLIOverrides struct {
	CommandTimeout   time.Duration
	LogTimeThreshold *time.Duration
	Parallelism      int
	NoResultJSON     bool
	MetricsFile      string
	// Disable is appended to the disabled names of lower layers.
	Disable  []string
	LogLevel string
	LogFile  string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > YAML file > defaults.
//
// An optional configPath argument controls file discovery:
//   - omitted        → auto-discover via Locate(); nothing found means defaults
//   - explicit value → that file must exist ("" means no file)
func LoadLayered(cli CLIOverrides, configPath ...string) (*Config, error) {
	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}

	var data []byte
	if filePath != "" {
		var err error
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg, err := LoadFromBytes(data)
	if err != nil {
		if filePath != "" {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		return nil, err
	}

	if cli.CommandTimeout > 0 {
		cfg.Collection.CommandTimeout = Duration{cli.CommandTimeout}
	}
	if cli.LogTimeThreshold != nil {
		cfg.Collection.LogTimeThreshold = Duration{*cli.LogTimeThreshold}
	}
	if cli.Parallelism > 0 {
		cfg.Collection.Parallelism = cli.Parallelism
	}
	if cli.NoResultJSON {
		cfg.Collection.ResultJSON = false
	}
	if cli.MetricsFile != "" {
		cfg.Collection.MetricsFile = cli.MetricsFile
	}
	cfg.Collection.Disable = append(cfg.Collection.Disable, cli.Disable...)
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFile != "" {
		cfg.Logging.File = cli.LogFile
	}

	return cfg, nil
}

// Marshal serializes the config to YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies GM_* environment variables to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if level := os.Getenv("GM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if v := os.Getenv("GM_COMMAND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GM_COMMAND_TIMEOUT: %w", err)
		}
		cfg.Collection.CommandTimeout = Duration{d}
	}
	if v := os.Getenv("GM_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GM_PARALLELISM: %w", err)
		}
		cfg.Collection.Parallelism = n
	}
	return nil
}

// Validate checks struct constraints and that user recordables can be built
// without clashing with the run manifest.
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Collection.CommandTimeout.Duration <= 0 {
		return fmt.Errorf("invalid config: command_timeout must be positive (got %s)", c.Collection.CommandTimeout)
	}
	if c.Collection.LogTimeThreshold.Duration < 0 {
		return fmt.Errorf("invalid config: log_time_threshold must not be negative")
	}

	for _, s := range c.Recordables {
		rec, err := s.Build()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if rec.Filename() == recordable.ManifestFilename {
			return fmt.Errorf("invalid config: recordable %q would overwrite %s", s.Name, recordable.ManifestFilename)
		}
	}
	return nil
}
