package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTimelineCmd(t *testing.T) {
	out, err := run(t, "timeline", "hi", "--hand", "left")
	if err != nil {
		t.Fatalf("timeline error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "left/h.anim") || !strings.Contains(lines[1], "left/i.anim") {
		t.Errorf("unexpected windows:\n%s", out)
	}
	if !strings.HasPrefix(lines[2], "total ") {
		t.Errorf("last line = %q, want total", lines[2])
	}

	if _, err := run(t, "timeline", "42"); err == nil {
		t.Error("timeline with digits succeeded")
	}
}

func TestLettersAndTrainCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := "store:\n  path: " + filepath.Join(dir, "test.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "letters")
	if err != nil {
		t.Fatalf("letters error = %v", err)
	}
	if strings.TrimSpace(out) != "no letters" {
		t.Errorf("letters output = %q", out)
	}

	if _, err := run(t, "--config", cfgPath, "train", "q"); err == nil {
		t.Error("training an unknown letter succeeded")
	}
}

func TestConfigCmd(t *testing.T) {
	out, err := run(t, "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	for _, want := range []string{"quiz:", "window_capacity:", "animation:", "addr: 127.0.0.1:8080"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q", want)
		}
	}
}
