package runner

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/currents/observation"
	"github.com/pthm-cable/currents/robot"
)

// actionSet mirrors the default 3x3 acceleration-major action set.
func actionSet() []robot.Action {
	var out []robot.Action
	for _, a := range []float64{-0.4, 0, 0.4} {
		for _, w := range []float64{-0.5236, 0, 0.5236} {
			out = append(out, robot.Action{A: a, W: w})
		}
	}
	return out
}

func TestRandomDriver(t *testing.T) {
	actions := actionSet()
	a, b := NewRandomDriver(3), NewRandomDriver(3)
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		x := a.Act(observation.Observation{}, actions)
		if y := b.Act(observation.Observation{}, actions); x != y {
			t.Fatalf("draw %d: %d != %d with equal seeds", i, x, y)
		}
		if x < 0 || x >= len(actions) {
			t.Fatalf("action %d out of range", x)
		}
		seen[x] = true
	}
	if len(seen) != len(actions) {
		t.Errorf("saw %d distinct actions in 500 draws, want %d", len(seen), len(actions))
	}
}

func TestScripted(t *testing.T) {
	d := &Scripted{Actions: []int{1, 2}, Fallback: 4}
	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, d.Act(observation.Observation{}, nil))
	}
	if diff := cmp.Diff([]int{1, 2, 4, 4}, got); diff != "" {
		t.Errorf("script mismatch:\n%s", diff)
	}
	d.Reset()
	if a := d.Act(observation.Observation{}, nil); a != 1 {
		t.Errorf("after Reset got %d, want 1", a)
	}
}

func TestParseActions(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "4", want: []int{4}},
		{in: "7, 7,4 ,1", want: []int{7, 7, 4, 1}},
		{in: "1,x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseActions(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseActions(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseActions(%q) mismatch:\n%s", tt.in, diff)
		}
	}
}

func TestNewDriver(t *testing.T) {
	for _, name := range []string{"", "random", "scripted"} {
		if _, err := NewDriver(name, 1, nil, 4); err != nil {
			t.Errorf("NewDriver(%q): %v", name, err)
		}
	}
	if _, err := NewDriver("greedy", 1, nil, 4); err == nil {
		t.Error("expected error for unknown driver")
	}
}
