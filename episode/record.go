// Package episode persists scenarios and the actions taken in them, and
// rebuilds both without re-running placement.
package episode

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/currents/config"
	"github.com/pthm-cable/currents/scenario"
	"github.com/pthm-cable/currents/sim"
)

// RecordVersion is incremented when the format changes.
const RecordVersion = 1

// Record is the persisted form of one episode.
type Record struct {
	Version int         `json:"version"`
	Env     EnvRecord   `json:"env"`
	Robot   RobotRecord `json:"robot"`
}

// EnvRecord holds the domain, placement parameters, entities and reward settings.
type EnvRecord struct {
	Seed             uint64     `json:"seed"`
	Width            float64    `json:"width"`
	Height           float64    `json:"height"`
	R                float64    `json:"r"`
	VRelMax          float64    `json:"v_rel_max"`
	P                float64    `json:"p"`
	VRange           [2]float64 `json:"v_range"`
	ObsRRange        [2]float64 `json:"obs_r_range"`
	ClearR           float64    `json:"clear_r"`
	Start            [2]float64 `json:"start"`
	Goal             [2]float64 `json:"goal"`
	GoalDis          float64    `json:"goal_dis"`
	TimestepPenalty  float64    `json:"timestep_penalty"`
	CollisionPenalty float64    `json:"collision_penalty"`
	GoalReward       float64    `json:"goal_reward"`
	Discount         float64    `json:"discount"`

	Cores     CoresRecord     `json:"cores"`
	Obstacles ObstaclesRecord `json:"obstacles"`
}

// CoresRecord stores cores column-wise.
type CoresRecord struct {
	Positions [][2]float64 `json:"positions"`
	Clockwise []Sense      `json:"clockwise"`
	Gamma     []float64    `json:"Gamma"`
}

// ObstaclesRecord stores obstacles column-wise.
type ObstaclesRecord struct {
	Positions [][2]float64 `json:"positions"`
	R         []float64    `json:"r"`
}

// RobotRecord holds the robot and sonar configuration and the action history.
type RobotRecord struct {
	DT        float64     `json:"dt"`
	N         int         `json:"N"`
	Length    float64     `json:"length"`
	Width     float64     `json:"width"`
	R         float64     `json:"r"`
	MaxSpeed  float64     `json:"max_speed"`
	A         []float64   `json:"a"`
	W         []float64   `json:"w"`
	InitTheta float64     `json:"init_theta"`
	InitSpeed float64     `json:"init_speed"`
	Sonar     SonarRecord `json:"sonar"`

	ActionHistory []int `json:"action_history"`

	// Per-step value quantiles, present only when a distributional agent recorded them.
	ActionsQuantiles [][][]float64 `json:"actions_quantiles,omitempty"`
	ActionsTaus      [][][]float64 `json:"actions_taus,omitempty"`
}

// SonarRecord holds sonar geometry.
type SonarRecord struct {
	Range    float64 `json:"range"`
	Angle    float64 `json:"angle"`
	NumBeams int     `json:"num_beams"`
}

// Sense is a rotation sense. It encodes as a JSON bool and also accepts the
// 0/1 integers older records used.
type Sense bool

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sense) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*s = true
	case "false", "0":
		*s = false
	default:
		return fmt.Errorf("invalid rotation sense %s", data)
	}
	return nil
}

// FromEnv captures the environment's current scenario, configuration and actions.
// It returns sim.ErrNotReset if the environment has no scenario yet.
func FromEnv(env *sim.Env) (Record, error) {
	s := env.Scenario()
	if s == nil {
		return Record{}, sim.ErrNotReset
	}
	cfg := env.Config()
	sc := s.Config()

	rec := Record{
		Version: RecordVersion,
		Env: EnvRecord{
			Seed:             env.Seed(),
			Width:            sc.Width,
			Height:           sc.Height,
			R:                sc.CoreRadius,
			VRelMax:          sc.VRelMax,
			P:                sc.P,
			VRange:           sc.VRange,
			ObsRRange:        sc.ObsRRange,
			ClearR:           sc.ClearRadius,
			Start:            [2]float64{sc.Start.X, sc.Start.Y},
			Goal:             [2]float64{sc.Goal.X, sc.Goal.Y},
			GoalDis:          cfg.Episode.GoalDis,
			TimestepPenalty:  cfg.Episode.TimestepPenalty,
			CollisionPenalty: cfg.Episode.CollisionPenalty,
			GoalReward:       cfg.Episode.GoalReward,
			Discount:         cfg.Episode.Discount,
		},
		Robot: RobotRecord{
			DT:            cfg.Robot.DT,
			N:             cfg.Robot.N,
			Length:        cfg.Robot.Length,
			Width:         cfg.Robot.Width,
			R:             cfg.Robot.R,
			MaxSpeed:      cfg.Robot.MaxSpeed,
			A:             append([]float64(nil), cfg.Robot.A...),
			W:             append([]float64(nil), cfg.Robot.W...),
			InitTheta:     cfg.Robot.InitTheta,
			InitSpeed:     cfg.Robot.InitSpeed,
			Sonar:         SonarRecord{Range: cfg.Sonar.Range, Angle: cfg.Sonar.Angle, NumBeams: cfg.Sonar.NumBeams},
			ActionHistory: env.ActionHistory(),
		},
	}

	for _, c := range s.Cores() {
		rec.Env.Cores.Positions = append(rec.Env.Cores.Positions, [2]float64{c.X, c.Y})
		rec.Env.Cores.Clockwise = append(rec.Env.Cores.Clockwise, Sense(c.Clockwise))
		rec.Env.Cores.Gamma = append(rec.Env.Cores.Gamma, c.Gamma)
	}
	for _, o := range s.Obstacles() {
		rec.Env.Obstacles.Positions = append(rec.Env.Obstacles.Positions, [2]float64{o.X, o.Y})
		rec.Env.Obstacles.R = append(rec.Env.Obstacles.R, o.R)
	}
	return rec, nil
}

// Config overlays the record's parameters on a copy of base.
func (r Record) Config(base *config.Config) *config.Config {
	cfg := *base
	e, rb := r.Env, r.Robot

	cfg.World.Width, cfg.World.Height = e.Width, e.Height
	cfg.World.Start, cfg.World.Goal = e.Start, e.Goal
	cfg.World.ClearRadius = e.ClearR
	cfg.Cores.Count = len(e.Cores.Positions)
	cfg.Cores.Radius = e.R
	cfg.Cores.VRelMax = e.VRelMax
	cfg.Cores.P = e.P
	cfg.Cores.VRange = e.VRange
	cfg.Obstacles.Count = len(e.Obstacles.Positions)
	cfg.Obstacles.RRange = e.ObsRRange

	cfg.Episode.GoalDis = e.GoalDis
	cfg.Episode.TimestepPenalty = e.TimestepPenalty
	cfg.Episode.CollisionPenalty = e.CollisionPenalty
	cfg.Episode.GoalReward = e.GoalReward
	cfg.Episode.Discount = e.Discount

	cfg.Robot = config.RobotConfig{
		DT:        rb.DT,
		N:         rb.N,
		Length:    rb.Length,
		Width:     rb.Width,
		R:         rb.R,
		MaxSpeed:  rb.MaxSpeed,
		A:         append([]float64(nil), rb.A...),
		W:         append([]float64(nil), rb.W...),
		InitTheta: rb.InitTheta,
		InitSpeed: rb.InitSpeed,
	}
	cfg.Sonar = config.SonarConfig{Range: rb.Sonar.Range, Angle: rb.Sonar.Angle, NumBeams: rb.Sonar.NumBeams}
	return &cfg
}

// Scenario rebuilds the recorded scenario without sampling.
func (r Record) Scenario(base *config.Config) (*scenario.Scenario, error) {
	cores := r.Env.Cores
	if len(cores.Clockwise) != len(cores.Positions) || len(cores.Gamma) != len(cores.Positions) {
		return nil, fmt.Errorf("cores: %d positions, %d senses, %d strengths",
			len(cores.Positions), len(cores.Clockwise), len(cores.Gamma))
	}
	obs := r.Env.Obstacles
	if len(obs.R) != len(obs.Positions) {
		return nil, fmt.Errorf("obstacles: %d positions, %d radii", len(obs.Positions), len(obs.R))
	}

	cs := make([]scenario.Core, len(cores.Positions))
	for i, p := range cores.Positions {
		cs[i] = scenario.Core{X: p[0], Y: p[1], Clockwise: bool(cores.Clockwise[i]), Gamma: cores.Gamma[i]}
	}
	obstacles := make([]scenario.Obstacle, len(obs.Positions))
	for i, p := range obs.Positions {
		obstacles[i] = scenario.Obstacle{X: p[0], Y: p[1], R: obs.R[i]}
	}
	return scenario.FromParts(r.Config(base).Scenario(), cs, obstacles)
}

// Replay rebuilds the environment from the record and re-applies the
// recorded actions. It stops early if the episode ends. Records with no cores
// or no obstacles replay as recorded.
func Replay(r Record, base *config.Config, logger *slog.Logger) (*sim.Env, []sim.StepResult, error) {
	cfg := r.Config(base)
	if err := cfg.ValidateRecorded(); err != nil {
		return nil, nil, fmt.Errorf("replay: %w", err)
	}
	s, err := r.Scenario(base)
	if err != nil {
		return nil, nil, fmt.Errorf("replay: %w", err)
	}

	env := sim.New(cfg, r.Env.Seed, logger)
	env.LoadScenario(s)

	results := make([]sim.StepResult, 0, len(r.Robot.ActionHistory))
	for i, a := range r.Robot.ActionHistory {
		res, err := env.Step(a)
		if err != nil {
			return env, results, fmt.Errorf("replay step %d: %w", i, err)
		}
		results = append(results, res)
		if res.Done {
			break
		}
	}
	return env, results, nil
}

// Save writes a record as indented JSON, creating parent directories.
func Save(r Record, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create episode dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal episode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write episode: %w", err)
	}
	return nil
}

// Load reads a record from disk.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("read episode: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("unmarshal episode: %w", err)
	}
	return r, nil
}
