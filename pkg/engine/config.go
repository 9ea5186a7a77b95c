package engine

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"strata/pkg/ops"
)

// Config holds the tunables of an Engine. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// MaxBigIntBits bounds BigInt results, in bits.
	MaxBigIntBits int `yaml:"max_bigint_bits"`
	// MaxStringLength bounds string results, in UTF-16 code units.
	MaxStringLength int `yaml:"max_string_length"`
	// FoldConstants enables the construction-time rewrites of the builder.
	FoldConstants bool `yaml:"fold_constants"`
	// SafeIntegerLane enables the exact 64-bit integer rung.
	SafeIntegerLane bool `yaml:"safe_integer_lane"`
	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`
	// TraceTransitions forwards every generalization to the trace hook.
	TraceTransitions bool `yaml:"trace_transitions"`
	// Workers is the number of goroutines evaluating rows; zero means one per CPU.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	limits := ops.DefaultLimits()
	return Config{
		MaxBigIntBits:   limits.MaxBigIntBits,
		MaxStringLength: limits.MaxStringLength,
		FoldConstants:   true,
		SafeIntegerLane: limits.SafeIntegerLane,
		LogLevel:        zerolog.Disabled.String(),
	}
}

// ParseConfig decodes YAML over the defaults. Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, &config, yaml.DisallowUnknownField()); err != nil {
		return Config{}, xerrors.Errorf("parsing config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, xerrors.Errorf("loading config: %w", err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return Config{}, xerrors.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.MaxBigIntBits <= 0 {
		return xerrors.Errorf("max_bigint_bits must be positive, got %d", c.MaxBigIntBits)
	}
	if c.MaxStringLength <= 0 {
		return xerrors.Errorf("max_string_length must be positive, got %d", c.MaxStringLength)
	}
	if c.Workers < 0 {
		return xerrors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, xerrors.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Limits returns the resource limits handed to the realm.
func (c Config) Limits() ops.Limits {
	return ops.Limits{
		MaxBigIntBits:   c.MaxBigIntBits,
		MaxStringLength: c.MaxStringLength,
		SafeIntegerLane: c.SafeIntegerLane,
	}
}
