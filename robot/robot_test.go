package robot

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/currents/scenario"
)

func testParams() Params {
	return Params{
		DT:        0.05,
		N:         10,
		Length:    1,
		Width:     0.5,
		R:         0.8,
		MaxSpeed:  2,
		A:         []float64{-0.4, 0, 0.4},
		W:         []float64{-0.5, 0, 0.5},
		InitTheta: 0,
		InitSpeed: 1,
	}
}

func TestActionsAccelerationMajor(t *testing.T) {
	r := New(testParams(), nil)
	if r.NumActions() != 9 {
		t.Fatalf("NumActions() = %d, want 9", r.NumActions())
	}
	got := r.Actions()[:4]
	want := []Action{{A: -0.4, W: -0.5}, {A: -0.4, W: 0}, {A: -0.4, W: 0.5}, {A: 0, W: -0.5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Actions mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateStateStraightLine(t *testing.T) {
	r := New(testParams(), nil)
	r.Reset(r2.Vec{X: 5, Y: 5}, r2.Vec{})
	coast := 4 // a=0, w=0

	for i := 0; i < 20; i++ {
		if err := r.UpdateState(coast, r2.Vec{}); err != nil {
			t.Fatalf("UpdateState: %v", err)
		}
	}
	s := r.State()
	if math.Abs(s.X-6) > 1e-12 || math.Abs(s.Y-5) > 1e-12 {
		t.Errorf("position after 1s at speed 1 = (%v,%v), want (6,5)", s.X, s.Y)
	}
	if s.Speed != 1 || s.Theta != 0 {
		t.Errorf("speed/theta changed while coasting: %v/%v", s.Speed, s.Theta)
	}
}

func TestUpdateStateCurrentDrift(t *testing.T) {
	p := testParams()
	p.InitSpeed = 0
	r := New(p, nil)
	r.Reset(r2.Vec{}, r2.Vec{})
	current := r2.Vec{X: 0.5, Y: -1}

	for i := 0; i < 10; i++ {
		if err := r.UpdateState(4, current); err != nil {
			t.Fatalf("UpdateState: %v", err)
		}
	}
	s := r.State()
	if math.Abs(s.X-0.25) > 1e-12 || math.Abs(s.Y+0.5) > 1e-12 {
		t.Errorf("drifted to (%v,%v), want (0.25,-0.5)", s.X, s.Y)
	}
	if s.Velocity != current {
		t.Errorf("velocity %v, want current %v", s.Velocity, current)
	}
}

func TestSpeedClampedAndAngleWrapped(t *testing.T) {
	r := New(testParams(), nil)
	r.Reset(r2.Vec{}, r2.Vec{})
	accelLeft := 8 // a=0.4, w=0.5

	for i := 0; i < 2000; i++ {
		if err := r.UpdateState(accelLeft, r2.Vec{}); err != nil {
			t.Fatalf("UpdateState: %v", err)
		}
		s := r.State()
		if s.Speed > 2 || s.Speed < 0 {
			t.Fatalf("speed %v outside [0, 2]", s.Speed)
		}
		if s.Theta < -math.Pi || s.Theta >= math.Pi {
			t.Fatalf("theta %v outside [-pi, pi)", s.Theta)
		}
	}
	if r.State().Speed != 2 {
		t.Errorf("speed = %v, want saturated at 2", r.State().Speed)
	}
}

func TestUpdateStateRejectsBadAction(t *testing.T) {
	r := New(testParams(), nil)
	if err := r.UpdateState(9, r2.Vec{}); err == nil {
		t.Error("expected error for action 9")
	}
	if err := r.UpdateState(-1, r2.Vec{}); err == nil {
		t.Error("expected error for action -1")
	}
}

func sonarScenario(t *testing.T, obstacles []scenario.Obstacle) *scenario.Scenario {
	t.Helper()
	cfg := scenario.Config{Width: 50, Height: 50, CoreRadius: 0.5}
	s, err := scenario.FromParts(cfg, []scenario.Core{{X: 45, Y: 5, Gamma: 10}}, obstacles)
	if err != nil {
		t.Fatalf("FromParts: %v", err)
	}
	return s
}

func TestSonarBeamAngles(t *testing.T) {
	s := NewSonar(10, math.Pi, 5)
	want := []float64{-math.Pi / 2, -math.Pi / 4, 0, math.Pi / 4, math.Pi / 2}
	for i, a := range s.BeamAngles {
		if math.Abs(a-want[i]) > 1e-12 {
			t.Errorf("beam %d angle %v, want %v", i, a, want[i])
		}
	}
	if got := NewSonar(10, 1, 1).BeamAngles; len(got) != 1 || got[0] != 0 {
		t.Errorf("single beam angles = %v, want [0]", got)
	}
}

func TestSonarHitAndMiss(t *testing.T) {
	sc := sonarScenario(t, []scenario.Obstacle{{X: 20, Y: 10, R: 2}})
	s := NewSonar(10, math.Pi, 3) // beams at -90, 0, +90 degrees

	refl := s.Reflect(r2.Vec{X: 10, Y: 10}, 0, sc)
	if len(refl) != 3 {
		t.Fatalf("got %d reflections, want 3", len(refl))
	}

	ahead := refl[1]
	if !ahead.Hit || math.Abs(ahead.X-18) > 1e-9 || math.Abs(ahead.Y-10) > 1e-9 {
		t.Errorf("forward beam = %+v, want hit at (18,10)", ahead)
	}
	right := refl[0]
	if right.Hit || math.Abs(right.X-10) > 1e-9 || math.Abs(right.Y-0) > 1e-9 {
		t.Errorf("right beam = %+v, want range end (10,0) without hit", right)
	}
	if len(s.Reflections) != 3 {
		t.Errorf("Reflections not stored on sonar")
	}
}

func TestSonarOutOfRange(t *testing.T) {
	sc := sonarScenario(t, []scenario.Obstacle{{X: 30, Y: 10, R: 2}})
	s := NewSonar(10, 0, 1)
	refl := s.Reflect(r2.Vec{X: 10, Y: 10}, 0, sc)
	if refl[0].Hit {
		t.Errorf("obstacle beyond range reported as hit: %+v", refl[0])
	}
}

func TestRayCircle(t *testing.T) {
	tests := []struct {
		name   string
		origin r2.Vec
		dir    r2.Vec
		want   float64
		ok     bool
	}{
		{"head on", r2.Vec{}, r2.Vec{X: 1}, 4, true},
		{"behind", r2.Vec{X: 10}, r2.Vec{X: 1}, 0, false},
		{"inside", r2.Vec{X: 5}, r2.Vec{Y: 1}, 0, true},
		{"tangent miss", r2.Vec{Y: 1.5}, r2.Vec{X: 1}, 0, false},
	}
	for _, tt := range tests {
		got, ok := rayCircle(tt.origin, tt.dir, r2.Vec{X: 5}, 1)
		if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-12) {
			t.Errorf("%s: rayCircle = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
