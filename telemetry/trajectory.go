package telemetry

import "github.com/pthm-cable/currents/sim"

// TrajectoryRecord is one row of trajectory.csv.
type TrajectoryRecord struct {
	Episode  int     `csv:"episode"`
	Step     int     `csv:"step"`
	Action   int     `csv:"action"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Theta    float64 `csv:"theta"`
	Speed    float64 `csv:"speed"`
	VelX     float64 `csv:"vel_x"`
	VelY     float64 `csv:"vel_y"`
	CurrentU float64 `csv:"current_u"`
	CurrentV float64 `csv:"current_v"`
	Reward   float64 `csv:"reward"`
	Done     bool    `csv:"done"`
	Reason   string  `csv:"reason"`
}

// NewTrajectoryRecord flattens a step result.
func NewTrajectoryRecord(episode, step, action int, res sim.StepResult) TrajectoryRecord {
	return TrajectoryRecord{
		Episode:  episode,
		Step:     step,
		Action:   action,
		X:        res.State.X,
		Y:        res.State.Y,
		Theta:    res.State.Theta,
		Speed:    res.State.Speed,
		VelX:     res.State.Velocity.X,
		VelY:     res.State.Velocity.Y,
		CurrentU: res.Current.X,
		CurrentV: res.Current.Y,
		Reward:   res.Reward,
		Done:     res.Done,
		Reason:   res.Reason,
	}
}

// DrifterRecord is one row of drifters.csv.
type DrifterRecord struct {
	Episode int `csv:"episode"`
	Step    int `csv:"step"`
	sim.DrifterState
}
