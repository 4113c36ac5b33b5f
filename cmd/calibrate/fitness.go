package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/buoy/config"
	"github.com/pthm-cable/buoy/sim"
	"github.com/pthm-cable/buoy/telemetry"
)

// FitnessEvaluator runs still-water drops and scores how closely the body
// settles at the target draft.
type FitnessEvaluator struct {
	params      *ParamVector
	configPath  string
	body        string
	target      float64
	maxTicks    int32
	drops       []float64 // initial heights above the surface, one run each
	statsWindow float64

	mu         sync.Mutex
	lastDraft  float64 // mean settled draft from the most recent Evaluate call
	lastWobble float64
}

// NewFitnessEvaluator creates a new evaluator. The base config is reloaded
// from configPath for every run so runs share no state.
func NewFitnessEvaluator(params *ParamVector, configPath, body string, target float64, maxTicks int32, drops []float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		configPath:  configPath,
		body:        body,
		target:      target,
		maxTicks:    maxTicks,
		drops:       drops,
		statsWindow: 0.5,
	}
}

// LastResult returns the settled draft and wobble of the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() (draft, wobble float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastDraft, fe.lastWobble
}

// Fitness weights.
const (
	wobbleWeight = 4.0
	// A run that fails to build scores this.
	failedFitness = 1e6
)

// runResult holds the results from a single drop.
type runResult struct {
	windows []telemetry.WindowStats // collected via StatsCallback each window
	err     error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.drops))
	var wg sync.WaitGroup

	for i, drop := range fe.drops {
		wg.Add(1)
		go func(idx int, h float64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, h)
		}(i, drop)
	}
	wg.Wait()

	var total, draftSum, wobbleSum float64
	for _, r := range results {
		if r.err != nil {
			return failedFitness
		}
		draft, wobble := settled(r.windows)
		draftSum += draft
		wobbleSum += wobble
		total += fe.computeFitness(draft, wobble)
	}

	n := float64(len(results))
	fe.mu.Lock()
	fe.lastDraft = draftSum / n
	fe.lastWobble = wobbleSum / n
	fe.mu.Unlock()

	return total / n
}

// runSimulation drops the body alone onto flat water from height h.
func (fe *FitnessEvaluator) runSimulation(x []float64, h float64) runResult {
	cfg, err := fe.sceneConfig(x, h)
	if err != nil {
		return runResult{err: err}
	}

	var result runResult
	s, err := sim.New(cfg, sim.Options{
		StatsWindowSec: fe.statsWindow,
		MaxTicks:       fe.maxTicks,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windows = append(result.windows, stats)
		},
	})
	if err != nil {
		return runResult{err: err}
	}
	defer s.Close()

	s.Run()
	return result
}

// sceneConfig loads a fresh config holding only the calibrated body, at rest
// h above a flat surface.
func (fe *FitnessEvaluator) sceneConfig(x []float64, h float64) (*config.Config, error) {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return nil, err
	}
	if !fe.params.ApplyToConfig(cfg, fe.body, x) {
		return nil, fmt.Errorf("body %q not in config", fe.body)
	}
	b, _ := findBody(cfg, fe.body)
	body := *b
	body.Position = [3]float64{0, 0, cfg.Surface.Level + h}
	body.Rotation = [3]float64{}
	body.Velocity = [3]float64{}
	body.BreakAfter = 0

	cfg.Bodies = []config.BodyConfig{body}
	cfg.Surface.Waves = nil
	cfg.Surface.Chop.Amplitude = 0
	return cfg, nil
}

// settled returns the mean and spread of the window drafts over the second
// half of the run.
func settled(windows []telemetry.WindowStats) (draft, wobble float64) {
	if len(windows) == 0 {
		return math.NaN(), math.NaN()
	}
	tail := windows[len(windows)/2:]
	drafts := make([]float64, len(tail))
	for i, w := range tail {
		drafts[i] = w.DraftMean
	}
	if len(drafts) < 2 {
		return drafts[0], 0
	}
	return stat.MeanStdDev(drafts, nil)
}

// computeFitness is the squared draft error plus weighted squared wobble.
func (fe *FitnessEvaluator) computeFitness(draft, wobble float64) float64 {
	if math.IsNaN(draft) || math.IsNaN(wobble) {
		return failedFitness
	}
	e := draft - fe.target
	return e*e + wobbleWeight*wobble*wobble
}
