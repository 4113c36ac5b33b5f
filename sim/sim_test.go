package sim

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/config"
	"github.com/pthm-cable/buoy/surface"
	"github.com/pthm-cable/buoy/telemetry"
)

// still returns the default config on flat water with the given bodies.
func still(t *testing.T, bodies string) *config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if bodies != "" {
		if err := cfg.Merge([]byte(bodies)); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}
	cfg.Surface.Waves = nil
	cfg.Surface.Chop.Amplitude = 0
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, opts Options) *Simulation {
	t.Helper()
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func runFor(s *Simulation, seconds float64) {
	n := int(seconds/s.dt + 0.5)
	for i := 0; i < n; i++ {
		s.Step()
	}
}

func TestNewDefaults(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	s := newSim(t, cfg, Options{})

	for _, name := range []string{"dinghy", "buoy", "diver", "crate"} {
		if _, ok := s.Body(name); !ok {
			t.Errorf("Body(%q) missing", name)
		}
		if s.Lifetime(name) == nil {
			t.Errorf("Lifetime(%q) missing", name)
		}
	}
	if _, ok := s.Body("kraken"); ok {
		t.Error("Body found an unknown name")
	}
	if _, ok := s.LastReport("kraken"); ok {
		t.Error("LastReport found an unknown name")
	}

	// dinghy + buoy + 3 bones + crate parent and 4 pieces
	if n := len(s.World().Bodies()); n != 10 {
		t.Errorf("world has %d bodies, want 10", n)
	}
	if _, ok := s.Surface().(*surface.Chop); !ok || s.memo == nil {
		t.Errorf("default surface = %T, want memoized chop over waves", s.Surface())
	}

	runFor(s, 1)
	if s.Tick() != 60 {
		t.Errorf("Tick = %d, want 60", s.Tick())
	}
	if math.Abs(s.Time()-1) > 1e-9 {
		t.Errorf("Time = %v, want 1", s.Time())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"nil fluid", func(c *config.Config) { c.Fluid.Density = 0 }},
		{"bad kind", func(c *config.Config) { c.Bodies[0].Kind = "jelly" }},
		{"no dt", func(c *config.Config) { c.Simulation.DT = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := still(t, "")
			tt.mutate(cfg)
			if _, err := New(cfg, Options{}); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("New error = %v, want ErrInvalid", err)
			}
		})
	}
	if _, err := New(nil, Options{}); err == nil {
		t.Error("New(nil) succeeded")
	}
}

func TestPointBodySettles(t *testing.T) {
	cfg := still(t, `
bodies:
  - name: float
    mass: 100
    position: [0, 0, 0.5]
    points:
      - {offset: [0, 0, 0]}
`)
	s := newSim(t, cfg, Options{})
	runFor(s, 20)

	// Lift balances weight at depth multiplier 600/1025 of a 0.25 m point.
	dm := cfg.Point.MeshDensity / cfg.Fluid.Density
	want := cfg.Point.TestPointRadius - dm*2*cfg.Point.TestPointRadius

	b, _ := s.Body("float")
	if z := b.Position().Z(); math.Abs(z-want) > 0.05 {
		t.Errorf("rest height = %.3f, want %.3f", z, want)
	}
	if v := b.LinearVelocity().Z(); math.Abs(v) > 0.05 {
		t.Errorf("still moving vertically: %v", v)
	}
	r, _ := s.LastReport("float")
	if r.Points != 1 || r.Submerged != 1 {
		t.Errorf("report = %+v", r)
	}
}

func TestDenserBodySinks(t *testing.T) {
	cfg := still(t, `
bodies:
  - name: anchor
    mass: 50
    density: 7800
    position: [0, 0, 0]
`)
	s := newSim(t, cfg, Options{})
	runFor(s, 5)

	b, _ := s.Body("anchor")
	if z := b.Position().Z(); z > -5 {
		t.Errorf("steel point at z = %.2f, want well below the surface", z)
	}
	if v := b.LinearVelocity().Len(); v > cfg.Point.MaxUnderwaterVelocity+1e-9 {
		t.Errorf("speed %v exceeds underwater cap", v)
	}
}

func TestMeshBodyFloats(t *testing.T) {
	cfg := still(t, `
bodies:
  - name: box
    model: mesh
    mass: 500
    linear_damping: 1
    angular_damping: 1
    hull: [0.5, 0.5, 0.5]
    position: [0, 0, 1]
`)
	s := newSim(t, cfg, Options{})
	runFor(s, 20)

	// Half the box density of water: the center rides near the waterline.
	b, _ := s.Body("box")
	if z := b.Position().Z(); z < -0.3 || z > 0.3 {
		t.Errorf("box center at z = %.3f, want near 0", z)
	}
	r, _ := s.LastReport("box")
	if r.Points != 12 || r.Submerged == 0 {
		t.Errorf("report = %+v", r)
	}
	if r.Force.Z() <= 0 {
		t.Errorf("no lift: %v", r.Force)
	}
}

func TestSkeletonBonesFloatIndependently(t *testing.T) {
	cfg := still(t, `
bodies:
  - name: diver
    kind: skeletal
    position: [0, 0, 0]
    bones:
      - {name: light, offset: [-2, 0, 0], mass: 10, density: 500}
      - {name: heavy, offset: [2, 0, 0], mass: 10, density: 5000}
`)
	s := newSim(t, cfg, Options{})
	runFor(s, 5)

	bones := s.byName["diver"].skeleton.Bodies()
	if len(bones) != 2 {
		t.Fatalf("%d bones", len(bones))
	}
	light, heavy := bones[0].Position().Z(), bones[1].Position().Z()
	if light < -1 {
		t.Errorf("light bone sank to %.2f", light)
	}
	if heavy > light-1 {
		t.Errorf("heavy bone at %.2f, light at %.2f", heavy, light)
	}
}

func TestFragmentsBreakAfterDelay(t *testing.T) {
	cfg := still(t, `
bodies:
  - name: crate
    kind: fragment
    position: [0, 0, 0]
    break_after: 0.5
    pieces:
      - {offset: [0.4, 0, 0], mass: 10}
      - {offset: [-0.4, 0, 0], mass: 10}
      - {offset: [0, 0.4, 0], mass: 10}
`)
	s := newSim(t, cfg, Options{})
	cl := s.byName["crate"].cluster

	runFor(s, 0.4)
	if n := cl.Attached(); n != 3 {
		t.Fatalf("attached before break time = %d, want 3", n)
	}
	if n := len(s.byName["crate"].members()); n != 1 {
		t.Errorf("members while welded = %d, want the parent only", n)
	}

	// One piece per tick once the delay has passed.
	for cl.Attached() == 3 && s.Time() < 1 {
		s.Step()
	}
	if got := s.Time(); got < 0.5-1e-9 || got > 0.5+s.dt+1e-9 {
		t.Errorf("first piece broke at %.3fs, want 0.5s", got)
	}
	s.Step()
	if n := cl.Attached(); n != 1 {
		t.Errorf("attached one tick after first break = %d, want 1", n)
	}
	runFor(s, 0.5)
	if n := cl.Attached(); n != 0 {
		t.Errorf("attached = %d, want 0", n)
	}
	if cl.Parent().Mass() != 0 {
		t.Errorf("parent keeps mass %v", cl.Parent().Mass())
	}
	if n := len(s.byName["crate"].members()); n != 3 {
		t.Errorf("members after break = %d, want 3 pieces", n)
	}
}

func TestStatsCallback(t *testing.T) {
	cfg := still(t, "")
	var windows []telemetry.WindowStats
	s := newSim(t, cfg, Options{
		StatsWindowSec: 0.5,
		MaxTicks:       90,
		StatsCallback:  func(ws telemetry.WindowStats) { windows = append(windows, ws) },
	})
	s.Run()

	if !s.Done() || s.Tick() != 90 {
		t.Fatalf("Run stopped at tick %d", s.Tick())
	}
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, ws := range windows {
		if ws.WindowEndTick != int32(30*(i+1)) {
			t.Errorf("window %d ends at %d", i, ws.WindowEndTick)
		}
		if ws.Bodies != len(cfg.Bodies) {
			t.Errorf("window %d has %d bodies, want %d", i, ws.Bodies, len(cfg.Bodies))
		}
		if ws.Steps != 30*len(cfg.Bodies) {
			t.Errorf("window %d counted %d steps", i, ws.Steps)
		}
	}
}

func TestOutputFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s, err := New(still(t, ""), Options{OutputDir: dir, StatsWindowSec: 0.25, MaxTicks: 60})
	if err != nil {
		t.Fatal(err)
	}
	s.Run()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bodies.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestSampleBodies(t *testing.T) {
	cfg := still(t, `
bodies:
  - name: a
    mass: 10
    position: [1, 2, -0.5]
    velocity: [3, 0, 4]
`)
	s := newSim(t, cfg, Options{})
	samples := s.SampleBodies()
	if len(samples) != 1 {
		t.Fatalf("%d samples", len(samples))
	}
	got := samples[0]
	if got.Name != "a" || got.Kind != "rigid" {
		t.Errorf("identity = %q %q", got.Name, got.Kind)
	}
	if math.Abs(got.Draft-0.5) > 1e-12 {
		t.Errorf("Draft = %v, want 0.5", got.Draft)
	}
	if math.Abs(got.Speed-5) > 1e-12 || math.Abs(got.KineticEnergy-125) > 1e-9 {
		t.Errorf("Speed %v KE %v", got.Speed, got.KineticEnergy)
	}
	if got.Tilt != 0 {
		t.Errorf("Tilt = %v", got.Tilt)
	}
}

func TestSnapshotRestore(t *testing.T) {
	cfg := still(t, "")
	s := newSim(t, cfg, Options{})
	runFor(s, 1)

	path, err := telemetry.SaveSnapshot(s.Snapshot(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	dinghy, _ := s.Body("dinghy")
	pos, rot := dinghy.Position(), dinghy.Rotation()

	runFor(s, 1)
	if dinghy.Position() == pos {
		t.Fatal("dinghy did not move")
	}

	if err := s.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s.Tick() != 60 {
		t.Errorf("Tick = %d, want 60", s.Tick())
	}
	if !dinghy.Position().ApproxEqual(pos) || !dinghy.Rotation().ApproxEqualThreshold(rot, 1e-9) {
		t.Errorf("pose = %v %v, want %v %v", dinghy.Position(), dinghy.Rotation(), pos, rot)
	}
	if lt := s.Lifetime("dinghy"); lt == nil || lt.Steps != 60 {
		t.Errorf("lifetime = %+v", lt)
	}

	// A fresh scene accepts the snapshot too.
	fresh := newSim(t, still(t, ""), Options{})
	if err := fresh.Restore(snap); err != nil {
		t.Fatalf("Restore into fresh scene: %v", err)
	}
	b, _ := fresh.Body("dinghy")
	if !b.Position().ApproxEqual(pos) {
		t.Errorf("fresh pose = %v, want %v", b.Position(), pos)
	}
	if b.Sleeping() {
		t.Error("awake dinghy restored asleep")
	}

	// Sleep state round-trips in both directions.
	for i := range snap.Bodies {
		if snap.Bodies[i].Name == "dinghy" {
			snap.Bodies[i].Sleeping = true
		}
	}
	if err := fresh.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if !b.Sleeping() {
		t.Error("sleeping dinghy restored awake")
	}
	for i := range snap.Bodies {
		snap.Bodies[i].Sleeping = false
	}
	if err := fresh.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if b.Sleeping() {
		t.Error("dinghy stayed asleep after restoring an awake state")
	}

	snap.Bodies = snap.Bodies[1:]
	if err := fresh.Restore(snap); err == nil {
		t.Error("Restore accepted a snapshot missing a body")
	}
	if err := fresh.Restore(nil); err == nil {
		t.Error("Restore(nil) succeeded")
	}
}

func TestBoxHullIsClosedAndOutward(t *testing.T) {
	half := mgl64.Vec3{1, 2, 3}
	tris := boxHull(half)
	if len(tris) != 12 {
		t.Fatalf("%d triangles", len(tris))
	}
	var area float64
	for i, tr := range tris {
		n := tr[1].Sub(tr[0]).Cross(tr[2].Sub(tr[0]))
		center := tr[0].Add(tr[1]).Add(tr[2]).Mul(1.0 / 3)
		if n.Dot(center) <= 0 {
			t.Errorf("triangle %d faces inward", i)
		}
		area += n.Len() / 2
	}
	want := 8 * (half.X()*half.Y() + half.Y()*half.Z() + half.X()*half.Z())
	if math.Abs(area-want) > 1e-9 {
		t.Errorf("area = %v, want %v", area, want)
	}
}
