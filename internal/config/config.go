// File: internal/config/config.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	World       WorldConfig       `mapstructure:"world" yaml:"world"`
	Observation ObservationConfig `mapstructure:"observation" yaml:"observation"`
	History     HistoryConfig     `mapstructure:"history" yaml:"history"`
	Classifier  ClassifierConfig  `mapstructure:"classifier" yaml:"classifier"`
	Agent       AgentConfig       `mapstructure:"agent" yaml:"agent"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry" yaml:"telemetry"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Batch       BatchConfig       `mapstructure:"batch" yaml:"batch"`
}

// LoggerConfig holds all the configuration for the logger.
// FileLevel is the minimum level written to LogFile; it is independent of
// Level so the file can keep every per-sample entry.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	FileLevel   string      `mapstructure:"file_level" yaml:"file_level"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// WorldConfig locates the tile description of the arena.
type WorldConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	// WorkingDir, when set, redirects the load to <WorkingDir>/world.txt.
	WorkingDir string `mapstructure:"working_dir" yaml:"working_dir"`
	Tiles      int    `mapstructure:"tiles" yaml:"tiles"`
}

// HistoryConfig configures the sensor log the classifier pathway reads from.
type HistoryConfig struct {
	Path      string `mapstructure:"path" yaml:"path"`
	Rows      int    `mapstructure:"rows" yaml:"rows"`
	MaxOffset int    `mapstructure:"max_offset" yaml:"max_offset"`
	// Anchor is "time" or "random".
	Anchor string `mapstructure:"anchor" yaml:"anchor"`
	// Reproducible makes the random anchor draw from the seeded observation generator.
	Reproducible bool `mapstructure:"reproducible" yaml:"reproducible"`
}

// ClassifierConfig describes how to reach the external classification process.
type ClassifierConfig struct {
	Binary            string         `mapstructure:"binary" yaml:"binary"`
	WorkDir           string         `mapstructure:"work_dir" yaml:"work_dir"`
	InputFile         string         `mapstructure:"input_file" yaml:"input_file"`
	Timeout           time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	ClassMap          map[string]int `mapstructure:"class_map" yaml:"class_map"`
	PositionInference bool           `mapstructure:"position_inference" yaml:"position_inference"`
}

// AgentConfig tunes the sense-decide-act loop and the simulated collaborators.
type AgentConfig struct {
	Name      string        `mapstructure:"name" yaml:"name"`
	TimeStep  time.Duration `mapstructure:"time_step" yaml:"time_step"`
	Ticks     int           `mapstructure:"ticks" yaml:"ticks"`
	WalkSteps int           `mapstructure:"walk_steps" yaml:"walk_steps"`
	StepSize  float64       `mapstructure:"step_size" yaml:"step_size"`
}

// TelemetryConfig configures where sample records are written.
type TelemetryConfig struct {
	SamplesFile string `mapstructure:"samples_file" yaml:"samples_file"`
}

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BatchConfig controls parallel evaluation of independent agent instances.
type BatchConfig struct {
	Instances  int     `mapstructure:"instances" yaml:"instances"`
	Workers    int     `mapstructure:"workers" yaml:"workers"`
	StartRate  float64 `mapstructure:"start_rate" yaml:"start_rate"`
	SeedOffset uint64  `mapstructure:"seed_offset" yaml:"seed_offset"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rugbot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.file_level", "debug")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- World --
	v.SetDefault("world.path", "world.txt")
	v.SetDefault("world.working_dir", "")
	v.SetDefault("world.tiles", 5)

	// -- Observation --
	setObservationDefaults(v)

	// -- History --
	v.SetDefault("history.path", "history.txt")
	v.SetDefault("history.rows", 24)
	v.SetDefault("history.max_offset", 36000)
	v.SetDefault("history.anchor", "time")
	v.SetDefault("history.reproducible", false)

	// -- Classifier --
	v.SetDefault("classifier.binary", "../keras2cpp/build/keras2cpp")
	v.SetDefault("classifier.work_dir", "")
	v.SetDefault("classifier.input_file", "temp_input.txt")
	v.SetDefault("classifier.timeout", "0s")
	v.SetDefault("classifier.class_map", map[string]int{"0": 0, "2": 1})
	v.SetDefault("classifier.position_inference", false)

	// -- Agent --
	v.SetDefault("agent.name", "R0")
	v.SetDefault("agent.time_step", "20ms")
	v.SetDefault("agent.ticks", 10000)
	v.SetDefault("agent.walk_steps", 50)
	v.SetDefault("agent.step_size", 0.01)

	// -- Telemetry / Database --
	v.SetDefault("telemetry.samples_file", "")
	v.SetDefault("database.url", "")

	// -- Batch --
	v.SetDefault("batch.instances", 10)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.start_rate", 1.0)
	v.SetDefault("batch.seed_offset", 1)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The simulator exports its per-run directory through WB_WORKING_DIR.
	_ = v.BindEnv("world.working_dir", "WB_WORKING_DIR")
	_ = v.BindEnv("database.url", "RUGBOT_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every user supplied path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.World.Path,
		&c.World.WorkingDir,
		&c.History.Path,
		&c.Classifier.Binary,
		&c.Classifier.WorkDir,
		&c.Telemetry.SamplesFile,
		&c.Logger.LogFile,
	}
	for _, p := range paths {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("could not expand path '%s': %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.World.Tiles <= 0 {
		return fmt.Errorf("world.tiles must be a positive integer")
	}
	if err := c.Observation.Validate(); err != nil {
		return fmt.Errorf("observation configuration invalid: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history configuration invalid: %w", err)
	}
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier configuration invalid: %w", err)
	}
	if c.Agent.TimeStep <= 0 {
		return fmt.Errorf("agent.time_step must be a positive duration")
	}
	if c.Agent.WalkSteps <= 0 {
		return fmt.Errorf("agent.walk_steps must be a positive integer")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be a positive integer")
	}
	if c.Batch.StartRate <= 0 {
		return fmt.Errorf("batch.start_rate must be positive")
	}
	return nil
}

// Validate checks the history window settings.
func (h *HistoryConfig) Validate() error {
	if h.Rows <= 0 {
		return fmt.Errorf("rows must be a positive integer")
	}
	if h.MaxOffset <= 0 {
		return fmt.Errorf("max_offset must be a positive integer")
	}
	switch strings.ToLower(h.Anchor) {
	case "time", "random":
	default:
		return fmt.Errorf("unknown anchor %q (want time or random)", h.Anchor)
	}
	return nil
}

// Validate checks the classifier settings.
func (c *ClassifierConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	_, err := c.Classes()
	return err
}

// Classes converts the class_map keys into classifier output indices.
func (c *ClassifierConfig) Classes() (map[int]int, error) {
	classes := make(map[int]int, len(c.ClassMap))
	for k, v := range c.ClassMap {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("class_map key %q is not a class index", k)
		}
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("class_map[%s] must map to 0 or 1, got %d", k, v)
		}
		classes[idx] = v
	}
	return classes, nil
}
