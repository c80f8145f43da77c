// File: internal/config/observation_config.go
// This file defines the ObservationConfig struct, which carries the tunable
// parameters of the measurement pipelines: the selected mode, the two
// shifted-gamma noise generators, the decision threshold and the Bernoulli
// corruption rates.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// GammaConfig parameterizes one shifted-gamma noise generator.
type GammaConfig struct {
	Shape    float64 `mapstructure:"shape" yaml:"shape"`
	Scale    float64 `mapstructure:"scale" yaml:"scale"`
	Location float64 `mapstructure:"location" yaml:"location"`
}

// ObservationConfig selects and tunes the measurement pipeline.
type ObservationConfig struct {
	// Mode is one of exact, distribution, fp_fn, classifier.
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Seed of the observation generator. Zero means seed from the clock.
	Seed      uint64      `mapstructure:"seed" yaml:"seed"`
	Threshold float64     `mapstructure:"threshold" yaml:"threshold"`
	OnTile    GammaConfig `mapstructure:"on_tile" yaml:"on_tile"`
	OffTile   GammaConfig `mapstructure:"off_tile" yaml:"off_tile"`
	// Corruption rates in percent (0-100).
	FalsePositive float64 `mapstructure:"false_positive" yaml:"false_positive"`
	FalseNegative float64 `mapstructure:"false_negative" yaml:"false_negative"`
}

func setObservationDefaults(v *viper.Viper) {
	v.SetDefault("observation.mode", "exact")
	v.SetDefault("observation.seed", 0)
	v.SetDefault("observation.threshold", 1.33)

	// White tiles vibrate harder than black ones; the threshold sits between the two modes.
	v.SetDefault("observation.on_tile.shape", 4.0)
	v.SetDefault("observation.on_tile.scale", 0.25)
	v.SetDefault("observation.on_tile.location", 1.0)
	v.SetDefault("observation.off_tile.shape", 2.0)
	v.SetDefault("observation.off_tile.scale", 0.15)
	v.SetDefault("observation.off_tile.location", 0.8)

	v.SetDefault("observation.false_positive", 0.0)
	v.SetDefault("observation.false_negative", 0.0)
}

// Validate checks the ObservationConfig settings.
func (o *ObservationConfig) Validate() error {
	switch strings.ToLower(o.Mode) {
	case "exact", "distribution", "fp_fn", "classifier":
	default:
		return fmt.Errorf("unknown mode %q", o.Mode)
	}
	if o.FalsePositive < 0 || o.FalsePositive > 100 {
		return fmt.Errorf("false_positive must be between 0 and 100")
	}
	if o.FalseNegative < 0 || o.FalseNegative > 100 {
		return fmt.Errorf("false_negative must be between 0 and 100")
	}
	for name, g := range map[string]GammaConfig{"on_tile": o.OnTile, "off_tile": o.OffTile} {
		if g.Shape <= 0 || g.Scale <= 0 {
			return fmt.Errorf("%s shape and scale must be positive", name)
		}
	}
	return nil
}
