package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/currents/episode"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("scenarioctl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestGenerateCheckPreviewReplay(t *testing.T) {
	dir := t.TempDir()
	rec := filepath.Join(dir, "scenario.json")

	out := execute(t, "generate", "--seed", "17", "-o", rec)
	if !strings.Contains(out, "5 cores, 5 obstacles") {
		t.Errorf("generate output = %q", out)
	}

	if out := execute(t, "check", "-f", rec); !strings.Contains(out, "ok") {
		t.Errorf("check output = %q", out)
	}

	field := filepath.Join(dir, "field.csv")
	execute(t, "preview", "-f", rec, "-o", field, "--nx", "6", "--ny", "5")
	data, err := os.ReadFile(field)
	if err != nil {
		t.Fatalf("read field: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 31 {
		t.Errorf("field csv has %d lines, want header + 30", lines)
	}

	// Give the record a short action history, then replay it.
	r, err := episode.Load(rec)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.Robot.ActionHistory = []int{8, 8, 4}
	if err := episode.Save(r, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	replayDir := filepath.Join(dir, "replay")
	out = execute(t, "replay", "-f", rec, "--output-dir", replayDir)
	if !strings.Contains(out, "/3 steps") {
		t.Errorf("replay output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(replayDir, "trajectory.csv")); err != nil {
		t.Errorf("replay trajectory missing: %v", err)
	}
}

func TestGenerateNumbered(t *testing.T) {
	dir := t.TempDir()
	execute(t, "generate", "--seed", "3", "-n", "3", "-o", filepath.Join(dir, "s.json"))
	for _, name := range []string{"s_0.json", "s_1.json", "s_2.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestNumberedPath(t *testing.T) {
	tests := []struct {
		path string
		i, n int
		want string
	}{
		{"a/b.json", 0, 1, "a/b.json"},
		{"a/b.json", 2, 3, "a/b_2.json"},
		{"noext", 1, 2, "noext_1"},
	}
	for _, tt := range tests {
		if got := numberedPath(tt.path, tt.i, tt.n); got != tt.want {
			t.Errorf("numberedPath(%q, %d, %d) = %q, want %q", tt.path, tt.i, tt.n, got, tt.want)
		}
	}
}
