package observation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/frame"
	"github.com/pthm-cable/currents/robot"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestComposeBodyFrame(t *testing.T) {
	body := frame.New(math.Pi/2, r2.Vec{X: 10, Y: 10})
	reflections := []robot.Reflection{
		{X: 10, Y: 15, Hit: true}, // 5 ahead
		{X: 0, Y: 10, Hit: false}, // 10 to the left, range end
		{X: 13, Y: 10, Hit: true}, // 3 to the right
	}
	obs := Compose(body, r2.Vec{X: 0, Y: 2}, reflections, r2.Vec{X: 10, Y: 40})

	if !near(obs.Velocity.X, 2, 1e-12) || !near(obs.Velocity.Y, 0, 1e-12) {
		t.Errorf("velocity = %v, want (2,0) in body frame", obs.Velocity)
	}
	if !near(obs.Goal.X, 30, 1e-12) || !near(obs.Goal.Y, 0, 1e-12) {
		t.Errorf("goal = %v, want (30,0) in body frame", obs.Goal)
	}

	want := []SonarPoint{{X: 5, Y: 0, Hit: true}, {X: 0, Y: 10, Hit: false}, {X: 0, Y: -3, Hit: true}}
	if len(obs.Sonar) != len(want) {
		t.Fatalf("got %d sonar points, want %d", len(obs.Sonar), len(want))
	}
	for i, w := range want {
		got := obs.Sonar[i]
		if !near(got.X, w.X, 1e-12) || !near(got.Y, w.Y, 1e-12) || got.Hit != w.Hit {
			t.Errorf("sonar[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestComposeIdentityPose(t *testing.T) {
	vel := r2.Vec{X: 1.5, Y: -0.5}
	obs := Compose(frame.New(0, r2.Vec{}), vel, nil, r2.Vec{X: 45, Y: 45})
	if obs.Velocity != vel {
		t.Errorf("velocity = %v, want unchanged %v", obs.Velocity, vel)
	}
	if obs.Goal != (r2.Vec{X: 45, Y: 45}) {
		t.Errorf("goal = %v, want unchanged", obs.Goal)
	}
	if len(obs.Sonar) != 0 {
		t.Errorf("got %d sonar points from no reflections", len(obs.Sonar))
	}
}

func TestComposeInvertsRobotTransform(t *testing.T) {
	r := robot.New(robot.Params{DT: 0.05, N: 1, MaxSpeed: 2, A: []float64{0}, W: []float64{0}, InitTheta: -math.Pi / 3, InitSpeed: 1}, nil)
	r.Reset(r2.Vec{X: 20, Y: 5}, r2.Vec{X: 0.3, Y: -0.1})
	body := r.Transform()
	state := r.State()

	goal := r2.Vec{X: 40, Y: 30}
	reflections := []robot.Reflection{{X: 22, Y: 1, Hit: true}}
	obs := Compose(body, state.Velocity, reflections, goal)

	// Mapping the composed points back through the robot's own transform
	// recovers the world inputs.
	back := []struct {
		name      string
		got, want r2.Vec
	}{
		{"goal", body.BodyPointToWorld(obs.Goal), goal},
		{"sonar", body.BodyPointToWorld(r2.Vec{X: obs.Sonar[0].X, Y: obs.Sonar[0].Y}), reflections[0].Pos()},
		{"velocity", body.BodyVectorToWorld(obs.Velocity), state.Velocity},
	}
	for _, b := range back {
		if !near(b.got.X, b.want.X, 1e-9) || !near(b.got.Y, b.want.Y, 1e-9) {
			t.Errorf("%s round trip = %v, want %v", b.name, b.got, b.want)
		}
	}
	// Straight ahead along the heading is +x in the body frame.
	ahead := r2.Add(state.Pos(), r2.Vec{X: math.Cos(state.Theta), Y: math.Sin(state.Theta)})
	if p := body.WorldPointToBody(ahead); !near(p.X, 1, 1e-12) || !near(p.Y, 0, 1e-12) {
		t.Errorf("point ahead = %v, want (1,0)", p)
	}
}

func TestVectorLayout(t *testing.T) {
	obs := Observation{
		Velocity: r2.Vec{X: 3, Y: 4},
		Goal:     r2.Vec{X: 1, Y: 2},
		Sonar:    []SonarPoint{{X: 5, Y: 6}, {X: 7, Y: 8, Hit: true}},
	}
	got := obs.Vector()
	want := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Vector()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
