package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/buoy/config"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// All writes are no-ops on a nil manager.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvent(Event{}); err != nil {
		t.Error(err)
	}
	if path, err := om.WriteSnapshot(&Snapshot{}); path != "" || err != nil {
		t.Errorf("WriteSnapshot = %q, %v", path, err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := int32(1); i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 600, Steps: 10}); err != nil {
			t.Fatal(err)
		}
		if err := om.WritePerf(PerfStats{}, i*600); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBodies([]BodySample{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBodies(nil); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteEvent(Event{Type: EventSunk, Body: "a"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	snap, err := om.WriteSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 42})
	if err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	tel := readLines(t, filepath.Join(dir, "telemetry.csv"))
	if len(tel) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(tel))
	}
	if !strings.HasPrefix(tel[0], "window_end,sim_time,bodies") {
		t.Errorf("telemetry header = %q", tel[0])
	}
	if strings.Contains(tel[0], "WindowStartTick") {
		t.Error("skipped column written")
	}
	if n := len(readLines(t, filepath.Join(dir, "perf.csv"))); n != 3 {
		t.Errorf("perf.csv has %d lines, want 3", n)
	}
	if n := len(readLines(t, filepath.Join(dir, "bodies.csv"))); n != 3 {
		t.Errorf("bodies.csv has %d lines, want 3", n)
	}
	ev := readLines(t, filepath.Join(dir, "events.csv"))
	if len(ev) != 2 || !strings.HasPrefix(ev[1], "sunk,") {
		t.Errorf("events.csv = %q", ev)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml does not load: %v", err)
	}
	if filepath.Dir(snap) != filepath.Join(dir, "snapshots") {
		t.Errorf("snapshot path = %s", snap)
	}
}
