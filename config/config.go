// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/currents/scenario"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Cores     CoresConfig     `yaml:"cores"`
	Obstacles ObstaclesConfig `yaml:"obstacles"`
	Placement PlacementConfig `yaml:"placement"`
	Robot     RobotConfig     `yaml:"robot"`
	Sonar     SonarConfig     `yaml:"sonar"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Preview   PreviewConfig   `yaml:"preview"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WorldConfig holds the domain rectangle and the fixed start and goal points.
type WorldConfig struct {
	Width       float64    `yaml:"width"`
	Height      float64    `yaml:"height"`
	Start       [2]float64 `yaml:"start"`
	Goal        [2]float64 `yaml:"goal"`
	ClearRadius float64    `yaml:"clear_radius"` // No core or obstacle within this distance of start/goal (0 = off)
}

// CoresConfig holds vortex core generation parameters.
type CoresConfig struct {
	Count   int        `yaml:"count"`
	Radius  float64    `yaml:"radius"`    // Physical radius of every core
	VRelMax float64    `yaml:"v_rel_max"` // Max opposing-current speed where two same-sense cores meet
	P       float64    `yaml:"p"`         // Max relative speed fraction at another core's boundary
	VRange  [2]float64 `yaml:"v_range"`   // Edge speed range
}

// ObstaclesConfig holds obstacle generation parameters.
type ObstaclesConfig struct {
	Count  int        `yaml:"count"`
	RRange [2]float64 `yaml:"r_range"`
}

// PlacementConfig bounds the rejection sampler.
type PlacementConfig struct {
	AttemptsPerEntity int `yaml:"attempts_per_entity"` // Budget = count * this
}

// RobotConfig holds the reference robot's kinematic parameters.
type RobotConfig struct {
	DT        float64   `yaml:"dt"`
	N         int       `yaml:"n"` // Integration sub-steps per action
	Length    float64   `yaml:"length"`
	Width     float64   `yaml:"width"`
	R         float64   `yaml:"r"` // Collision radius
	MaxSpeed  float64   `yaml:"max_speed"`
	A         []float64 `yaml:"a"` // Linear accelerations
	W         []float64 `yaml:"w"` // Angular velocities
	InitTheta float64   `yaml:"init_theta"`
	InitSpeed float64   `yaml:"init_speed"`
}

// SonarConfig holds sonar beam geometry.
type SonarConfig struct {
	Range    float64 `yaml:"range"`
	Angle    float64 `yaml:"angle"` // Total field of view in radians
	NumBeams int     `yaml:"num_beams"`
}

// EpisodeConfig holds termination and reward parameters.
type EpisodeConfig struct {
	GoalDis          float64 `yaml:"goal_dis"`
	TimestepPenalty  float64 `yaml:"timestep_penalty"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	GoalReward       float64 `yaml:"goal_reward"`
	Discount         float64 `yaml:"discount"`
	MaxSteps         int     `yaml:"max_steps"`
}

// PreviewConfig holds field preview grid resolution.
type PreviewConfig struct {
	NX int `yaml:"nx"`
	NY int `yaml:"ny"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	Drifters int `yaml:"drifters"` // Tracers released on reset (0 = none)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Scenario returns the immutable scenario parameters described by this config.
func (c *Config) Scenario() scenario.Config {
	return scenario.Config{
		Width:             c.World.Width,
		Height:            c.World.Height,
		CoreRadius:        c.Cores.Radius,
		VRelMax:           c.Cores.VRelMax,
		P:                 c.Cores.P,
		VRange:            c.Cores.VRange,
		ObsRRange:         c.Obstacles.RRange,
		NumCores:          c.Cores.Count,
		NumObstacles:      c.Obstacles.Count,
		ClearRadius:       c.World.ClearRadius,
		Start:             r2.Vec{X: c.World.Start[0], Y: c.World.Start[1]},
		Goal:              r2.Vec{X: c.World.Goal[0], Y: c.World.Goal[1]},
		AttemptsPerEntity: c.Placement.AttemptsPerEntity,
	}
}

// Validate reports the first invalid parameter, wrapped in scenario.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if err := c.Scenario().Validate(); err != nil {
		return err
	}
	return c.validateRun()
}

// ValidateRecorded is Validate for a config overlaid from a saved episode:
// entity counts come from the record, so any count is accepted.
func (c *Config) ValidateRecorded() error {
	if err := c.Scenario().ValidateGeometry(); err != nil {
		return err
	}
	return c.validateRun()
}

func (c *Config) validateRun() error {

	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", scenario.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Robot.DT <= 0:
		return invalid("robot.dt must be positive, got %g", c.Robot.DT)
	case c.Robot.N < 1:
		return invalid("robot.n must be at least 1, got %d", c.Robot.N)
	case c.Robot.R < 0:
		return invalid("robot.r must be non-negative, got %g", c.Robot.R)
	case c.Robot.MaxSpeed <= 0:
		return invalid("robot.max_speed must be positive, got %g", c.Robot.MaxSpeed)
	case len(c.Robot.A) == 0 || len(c.Robot.W) == 0:
		return invalid("robot.a and robot.w must be non-empty")
	case c.Sonar.Range <= 0:
		return invalid("sonar.range must be positive, got %g", c.Sonar.Range)
	case c.Sonar.NumBeams < 1:
		return invalid("sonar.num_beams must be at least 1, got %d", c.Sonar.NumBeams)
	case c.Preview.NX < 2 || c.Preview.NY < 2:
		return invalid("preview grid must be at least 2x2, got %dx%d", c.Preview.NX, c.Preview.NY)
	case c.Episode.MaxSteps < 1:
		return invalid("episode.max_steps must be at least 1, got %d", c.Episode.MaxSteps)
	case c.Telemetry.Drifters < 0:
		return invalid("telemetry.drifters must be non-negative, got %d", c.Telemetry.Drifters)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
