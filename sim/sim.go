// Package sim builds a floating scene from configuration and steps it: the
// surface, one buoyancy strategy per body, stabilizers and the rigid-body
// world, with telemetry at window boundaries.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/buoy/buoyancy"
	"github.com/pthm-cable/buoy/config"
	"github.com/pthm-cable/buoy/physics"
	"github.com/pthm-cable/buoy/surface"
	"github.com/pthm-cable/buoy/telemetry"
)

// Options configures a simulation run.
type Options struct {
	OutputDir      string  // CSV and snapshot output; empty disables
	StatsWindowSec float64 // 0 = use config
	LogStats       bool    // log window and perf stats via slog
	Snapshots      bool    // write a snapshot on every body event
	MaxTicks       int32   // Done reports true after this many ticks; 0 = unlimited

	// StatsCallback, if set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Simulation holds the complete scene state.
type Simulation struct {
	cfg  *config.Config
	opts Options

	world *physics.World

	// surface is what strategies sample; oracle is the unmemoized source
	// used for telemetry. clock is nil for a still surface.
	surface surface.Oracle
	oracle  surface.Oracle
	memo    *surface.Memo
	clock   surface.Clock

	floaters []*floater
	byName   map[string]*floater

	tick int32
	dt   float64

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	lifetimes     *telemetry.LifetimeTracker
	events        *telemetry.EventDetector
	output        *telemetry.OutputManager
}

// New builds the scene described by cfg.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sim: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	world := physics.NewWorld(ecs.NewWorld(), physics.Params{
		Gravity:    cfg.Simulation.Gravity,
		SleepSpeed: cfg.Simulation.SleepSpeed,
		SleepTime:  cfg.Simulation.SleepTime,
	})
	s := &Simulation{
		cfg:    cfg,
		opts:   opts,
		world:  world,
		byName: make(map[string]*floater, len(cfg.Bodies)),
		dt:     cfg.Simulation.DT,
	}

	s.oracle, s.clock = buildSurface(cfg)
	s.surface = s.oracle
	if cfg.Surface.Memoize {
		s.memo = surface.NewMemo(s.oracle)
		s.surface = s.memo
	}

	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		window = opts.StatsWindowSec
	}
	s.collector = telemetry.NewCollector(window, s.dt)
	s.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	s.lifetimes = telemetry.NewLifetimeTracker()
	s.events = telemetry.NewEventDetector()

	for i := range cfg.Bodies {
		f, err := s.spawn(&cfg.Bodies[i])
		if err != nil {
			return nil, err
		}
		s.floaters = append(s.floaters, f)
		s.byName[f.name] = f
		s.lifetimes.Register(f.primary.ID(), 0)
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	s.output = out
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	slog.Info("scene built",
		"bodies", len(s.floaters),
		"entities", len(s.world.Bodies()),
		"waves", len(cfg.Surface.Waves),
		"chop", cfg.Surface.Chop.Amplitude,
		"memoize", cfg.Surface.Memoize,
		"dt", s.dt,
	)
	return s, nil
}

// Step advances the scene by one tick.
func (s *Simulation) Step() {
	s.perfCollector.StartTick()
	t := s.Time()

	s.perfCollector.StartPhase(telemetry.PhaseSurface)
	if s.clock != nil {
		s.clock.SetTime(t)
	}
	if s.memo != nil {
		s.memo.Reset()
	}

	s.perfCollector.StartPhase(telemetry.PhaseBuoyancy)
	env := buoyancy.Env{Gravity: s.world.Gravity(), Time: t, Timed: true, Dt: s.dt}
	for _, f := range s.floaters {
		s.stepFloater(f, env)
	}

	s.perfCollector.StartPhase(telemetry.PhaseStabilize)
	for _, f := range s.floaters {
		for _, st := range f.stabilizer {
			st.Apply(s.dt)
		}
	}

	s.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	s.world.Step(s.dt)
	s.tick++

	s.perfCollector.StartPhase(telemetry.PhaseFracture)
	for _, f := range s.floaters {
		s.fracture(f)
	}

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	if s.memo != nil {
		s.collector.RecordMemo(s.memo.Stats())
	}
	s.flushTelemetry()

	s.perfCollector.EndTick()
}

func (s *Simulation) stepFloater(f *floater, env buoyancy.Env) {
	r := f.strategy.Step(env)
	f.last = r
	if !r.Skipped {
		s.perfCollector.AddWork(r.Points)
	}
	s.collector.Record(r)
	s.lifetimes.Record(f.primary.ID(), r, s.dt)

	switch {
	case r.Aborted:
		slog.Warn("buoyancy step aborted", "body", f.name, "tick", s.tick, "points", r.Points)
	case r.Skipped && !f.loggedSkip:
		f.loggedSkip = true
		slog.Debug("buoyancy step skipped", "body", f.name, "tick", s.tick, "points", r.Points)
	case !r.Skipped:
		f.loggedSkip = false
	}
}

// fracture frees one fragment per tick once the body's break time is reached.
func (s *Simulation) fracture(f *floater) {
	if f.cluster == nil || f.cfg.BreakAfter <= 0 || s.Time() < f.cfg.BreakAfter {
		return
	}
	n := len(f.cfg.Pieces)
	for f.nextBreak < n {
		i := f.nextBreak
		f.nextBreak++
		if f.cluster.Break(i) {
			slog.Info("fragment broke free", "body", f.name, "piece", i, "attached", f.cluster.Attached())
			return
		}
	}
}

// Run steps until Done.
func (s *Simulation) Run() {
	for !s.Done() {
		s.Step()
	}
}

// Done reports whether MaxTicks has been reached.
func (s *Simulation) Done() bool {
	return s.opts.MaxTicks > 0 && s.tick >= s.opts.MaxTicks
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int32 { return s.tick }

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return float64(s.tick) * s.dt }

// Config returns the configuration the scene was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }

// World returns the rigid-body world.
func (s *Simulation) World() *physics.World { return s.world }

// Surface returns the oracle bodies float on.
func (s *Simulation) Surface() surface.Oracle { return s.oracle }

// Body returns the primary body of the named floater: the rigid body, the
// first bone of a skeleton or the parent of a cluster.
func (s *Simulation) Body(name string) (physics.Body, bool) {
	f, ok := s.byName[name]
	if !ok {
		return physics.Body{}, false
	}
	return f.primary, true
}

// LastReport returns the named body's report from the most recent step.
func (s *Simulation) LastReport(name string) (buoyancy.Report, bool) {
	f, ok := s.byName[name]
	if !ok {
		return buoyancy.Report{}, false
	}
	return f.last, true
}

// Lifetime returns the accumulated statistics of the named body.
func (s *Simulation) Lifetime(name string) *telemetry.LifetimeStats {
	f, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.lifetimes.Get(f.primary.ID())
}

// Close logs per-body lifetime totals and flushes output files.
func (s *Simulation) Close() error {
	for _, f := range s.floaters {
		if lt := s.lifetimes.Get(f.primary.ID()); lt != nil {
			slog.Debug("body lifetime",
				"body", f.name,
				"steps", lt.Steps,
				"submerged_sec", lt.SubmergedSec,
				"max_draft", lt.MaxDraft,
				"peak_speed", lt.PeakSpeed,
				"slams", lt.Slams,
			)
		}
	}
	if dir := s.output.Dir(); dir != "" {
		slog.Info("output written", "dir", dir, "tick", s.tick)
	}
	return s.output.Close()
}
