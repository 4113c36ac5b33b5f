package telemetry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/buoyancy"
)

func TestQuantiles(t *testing.T) {
	tests := []struct {
		name                string
		values              []float64
		mean, p10, p50, p90 float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"single", []float64{5}, 5, 5, 5, 5},
		{"odd", []float64{5, 1, 4, 2, 3}, 3, 1, 3, 5},
		{"ten", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 5.5, 1, 5, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, p10, p50, p90 := Quantiles(tt.values)
			if math.Abs(mean-tt.mean) > 1e-12 || p10 != tt.p10 || p50 != tt.p50 || p90 != tt.p90 {
				t.Errorf("Quantiles(%v) = %v %v %v %v, want %v %v %v %v",
					tt.values, mean, p10, p50, p90, tt.mean, tt.p10, tt.p50, tt.p90)
			}
		})
	}
}

func TestQuantilesLeavesInputAlone(t *testing.T) {
	values := []float64{3, 1, 2}
	Quantiles(values)
	if values[0] != 3 || values[1] != 1 {
		t.Errorf("input reordered: %v", values)
	}
}

func TestSpread(t *testing.T) {
	mean, std := Spread([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(std-math.Sqrt(32.0/7)) > 1e-12 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(32.0/7))
	}
	if m, s := Spread([]float64{1.5}); m != 1.5 || s != 0 {
		t.Errorf("single value spread = %v %v", m, s)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("WindowDurationTicks = %d, want 10", c.WindowDurationTicks())
	}

	c.Record(buoyancy.Report{Points: 4, Submerged: 2, Force: mgl64.Vec3{0, 0, 100}, Torque: mgl64.Vec3{3, 4, 0}, WettedArea: 1})
	c.Record(buoyancy.Report{Points: 4, Submerged: 4, Force: mgl64.Vec3{0, 0, 300}, Clamped: 2, WettedArea: 3})
	c.Record(buoyancy.Report{Skipped: true})
	c.Record(buoyancy.Report{Snapped: true})
	c.Record(buoyancy.Report{Points: 12, Submerged: 6, Aborted: true, Slams: 1})
	c.RecordMemo(3, 1)

	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) before window end")
	}
	if !c.ShouldFlush(10) {
		t.Error("ShouldFlush(10) = false")
	}

	bodies := []BodySample{
		{Name: "a", Draft: 0.2, Speed: 1, KineticEnergy: 10},
		{Name: "b", Draft: 0.4, Speed: 3, KineticEnergy: 5, Sleeping: true},
	}
	s := c.Flush(10, bodies)

	if s.Steps != 5 || s.Skipped != 1 || s.Snapped != 1 || s.Aborted != 1 {
		t.Errorf("counts = %d steps %d skipped %d snapped %d aborted", s.Steps, s.Skipped, s.Snapped, s.Aborted)
	}
	if s.Clamped != 2 || s.Slams != 1 {
		t.Errorf("clamped %d slams %d", s.Clamped, s.Slams)
	}
	if math.Abs(s.WetMean-(0.5+1+0.5)/3) > 1e-12 {
		t.Errorf("WetMean = %v", s.WetMean)
	}
	if math.Abs(s.LiftMean-400.0/3) > 1e-9 || s.LiftP90 != 300 {
		t.Errorf("lift = %v p90 %v", s.LiftMean, s.LiftP90)
	}
	if s.TorqueMax != 5 {
		t.Errorf("TorqueMax = %v, want 5", s.TorqueMax)
	}
	if math.Abs(s.WettedAreaMean-4.0/3) > 1e-12 {
		t.Errorf("WettedAreaMean = %v", s.WettedAreaMean)
	}
	if s.Bodies != 2 || s.Sleeping != 1 || s.MaxSpeed != 3 || s.KineticEnergy != 15 {
		t.Errorf("body aggregates = %+v", s)
	}
	if math.Abs(s.DraftMean-0.3) > 1e-12 {
		t.Errorf("DraftMean = %v", s.DraftMean)
	}
	if s.MemoHitRate != 0.75 {
		t.Errorf("MemoHitRate = %v", s.MemoHitRate)
	}
	if math.Abs(s.SimTimeSec-1) > 1e-12 {
		t.Errorf("SimTimeSec = %v", s.SimTimeSec)
	}

	// The next window starts clean.
	next := c.Flush(20, nil)
	if next.Steps != 0 || next.WetMean != 0 || next.WindowStartTick != 10 || next.MemoHitRate != 0 {
		t.Errorf("window not reset: %+v", next)
	}
	if c.ShouldFlush(25) {
		t.Error("ShouldFlush(25) after flush at 20")
	}
}
