// Package config loads the run configuration of the amoebot command.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/amoebot/pkg/leader"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

// ErrInvalidConfig wraps every configuration rejection.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config controls how subroutines are simulated.
type Config struct {
	PinsPerEdge int    `yaml:"pins_per_edge"` // pins on every edge (default: 8)
	Seed        uint64 `yaml:"seed"`          // coin toss seed
	MaxRounds   int    `yaml:"max_rounds"`    // abort runs after this many rounds (default: 100000)
	Kappa       int    `yaml:"kappa"`         // leader election repetitions (default: 4)
	TraceDB     string `yaml:"trace_db"`      // SQLite file for round traces; empty disables tracing
	Verbose     bool   `yaml:"verbose"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		PinsPerEdge: sim.DefaultPinsPerEdge,
		MaxRounds:   100000,
		Kappa:       4,
	}
}

// Validate fills in defaults for unset limits and rejects values the
// simulator cannot run with.
func (c *Config) Validate() error {
	if c.MaxRounds < 1 {
		c.MaxRounds = DefaultConfig().MaxRounds
	}
	if c.Kappa < 1 {
		c.Kappa = DefaultConfig().Kappa
	}
	if c.PinsPerEdge < 1 {
		return fmt.Errorf("%w: pins_per_edge %d", ErrInvalidConfig, c.PinsPerEdge)
	}
	if c.Kappa > leader.MaxKappa {
		return fmt.Errorf("%w: kappa %d above %d", ErrInvalidConfig, c.Kappa, leader.MaxKappa)
	}
	return nil
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	c := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// SimOptions returns the simulator options the configuration implies.
func (c *Config) SimOptions() []sim.Option {
	return []sim.Option{sim.WithPinsPerEdge(c.PinsPerEdge), sim.WithSeed(c.Seed)}
}
