package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/buoy/config"
	"github.com/pthm-cable/buoy/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := []float64{600, 1, 2.5}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}

	clamped := pv.Clamp([]float64{-10, 99, 3})
	if clamped[0] != 50 || clamped[1] != 5 || clamped[2] != 3 {
		t.Errorf("Clamp = %v", clamped)
	}
}

func TestApplyAndExtract(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	got, ok := pv.ExtractFromConfig(cfg, "dinghy")
	if !ok {
		t.Fatal("dinghy missing")
	}
	// No per-body density: falls back to the shared one.
	if got[0] != cfg.Point.MeshDensity {
		t.Errorf("density = %v, want %v", got[0], cfg.Point.MeshDensity)
	}

	if !pv.ApplyToConfig(cfg, "dinghy", []float64{400, 0.5, 7}) {
		t.Fatal("ApplyToConfig failed")
	}
	b, _ := cfg.Body("dinghy")
	if b.Density != 400 || cfg.Point.FluidLinearDamping != 0.5 || cfg.Point.FluidAngularDamping != 5 {
		t.Errorf("applied density %v damping %v/%v", b.Density, cfg.Point.FluidLinearDamping, cfg.Point.FluidAngularDamping)
	}
	if pv.ApplyToConfig(cfg, "kraken", []float64{1, 1, 1}) {
		t.Error("ApplyToConfig accepted an unknown body")
	}
}

func TestSettled(t *testing.T) {
	var windows []telemetry.WindowStats
	for _, d := range []float64{2, 1, 0.3, 0.1, 0.3, 0.1} {
		windows = append(windows, telemetry.WindowStats{DraftMean: d})
	}
	draft, wobble := settled(windows)
	if math.Abs(draft-0.5/3) > 1e-12 {
		t.Errorf("draft = %v", draft)
	}
	if wobble <= 0 {
		t.Errorf("wobble = %v", wobble)
	}

	if d, w := settled(windows[:1]); d != 2 || w != 0 {
		t.Errorf("single window = %v, %v", d, w)
	}
	if d, _ := settled(nil); !math.IsNaN(d) {
		t.Errorf("no windows = %v", d)
	}
}

func TestEvaluatePrefersTarget(t *testing.T) {
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, "", "dinghy", 0.1, 600, []float64{0.5})

	if f := fe.computeFitness(0.1, 0); f != 0 {
		t.Errorf("perfect fitness = %v", f)
	}
	if fe.computeFitness(0.3, 0) <= fe.computeFitness(0.15, 0) {
		t.Error("larger draft error did not score worse")
	}

	// A lighter hull rides higher, so its draft is smaller.
	light := fe.Evaluate([]float64{200, 1, 1})
	lightDraft, _ := fe.LastResult()
	heavy := fe.Evaluate([]float64{900, 1, 1})
	heavyDraft, _ := fe.LastResult()
	if light >= failedFitness || heavy >= failedFitness {
		t.Fatalf("runs failed: %v %v", light, heavy)
	}
	if lightDraft >= heavyDraft {
		t.Errorf("draft light %.3f, heavy %.3f", lightDraft, heavyDraft)
	}

	bad := NewFitnessEvaluator(pv, "", "kraken", 0.1, 60, []float64{0.5})
	if f := bad.Evaluate([]float64{500, 1, 1}); f != failedFitness {
		t.Errorf("unknown body fitness = %v", f)
	}
}
