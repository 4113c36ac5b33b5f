package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a simulation step.
type Phase int

// Step phases in execution order.
const (
	PhaseSurface Phase = iota
	PhaseBuoyancy
	PhaseStabilize
	PhaseIntegrate
	PhaseFracture
	PhaseTelemetry
	phaseCount
)

var phaseNames = [phaseCount]string{"surface", "buoyancy", "stabilize", "integrate", "fracture", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return "unknown"
	}
	return phaseNames[p]
}

// tickTiming is the wall time of one step.
type tickTiming struct {
	total  time.Duration
	phases [phaseCount]time.Duration
	work   int // points and triangles evaluated
}

// PerfCollector keeps step timings in a ring of the last windowSize ticks.
type PerfCollector struct {
	ring   []tickTiming
	next   int
	filled int

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (e.g. 120 for two seconds at 60 steps/s).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]tickTiming, windowSize), now: time.Now}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.cur = tickTiming{}
	p.tickStart = p.now()
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = phase, now, true
}

// AddWork counts n evaluated points or triangles toward this tick.
func (p *PerfCollector) AddWork(n int) {
	p.cur.work += n
}

// EndTick closes the step and stores it.
func (p *PerfCollector) EndTick() {
	now := p.now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.filled = min(p.filled+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 && p.phase < phaseCount {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// PerfStats summarizes the ticks currently in the ring.
type PerfStats struct {
	Ticks int

	TickMean time.Duration
	TickP50  time.Duration
	TickP99  time.Duration
	TickMax  time.Duration

	// PhasePct is each phase's share of total tick time, in percent.
	PhasePct [phaseCount]float64

	TicksPerSecond float64
	WorkPerSecond  float64 // points and triangles per wall-clock second
}

// Stats computes the summary. An empty collector yields zero stats.
func (p *PerfCollector) Stats() PerfStats {
	if p.filled == 0 {
		return PerfStats{}
	}
	ticks := p.ring[:p.filled]

	durs := make([]float64, len(ticks))
	var total time.Duration
	var phases [phaseCount]time.Duration
	var work int
	for i, t := range ticks {
		durs[i] = float64(t.total)
		total += t.total
		work += t.work
		for ph, d := range t.phases {
			phases[ph] += d
		}
	}
	slices.Sort(durs)

	s := PerfStats{
		Ticks:    len(ticks),
		TickMean: time.Duration(stat.Mean(durs, nil)),
		TickP50:  time.Duration(stat.Quantile(0.5, stat.Empirical, durs, nil)),
		TickP99:  time.Duration(stat.Quantile(0.99, stat.Empirical, durs, nil)),
		TickMax:  time.Duration(durs[len(durs)-1]),
	}
	if total > 0 {
		for ph, d := range phases {
			s.PhasePct[ph] = float64(d) / float64(total) * 100
		}
		s.TicksPerSecond = float64(len(ticks)) / total.Seconds()
		s.WorkPerSecond = float64(work) / total.Seconds()
	}
	return s
}

// LogStats logs the summary via slog; phases under 0.1% are left out.
func (s PerfStats) LogStats() {
	attrs := []any{
		"tick_mean_us", s.TickMean.Microseconds(),
		"tick_p99_us", s.TickP99.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"work_per_sec", int(s.WorkPerSecond),
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, Phase(ph).String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("tick_mean_us", s.TickMean.Microseconds()),
		slog.Int64("tick_p50_us", s.TickP50.Microseconds()),
		slog.Int64("tick_p99_us", s.TickP99.Microseconds()),
		slog.Int64("tick_max_us", s.TickMax.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.Float64("work_per_sec", s.WorkPerSecond),
	}
	for ph, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	TickMeanUS   int64   `csv:"tick_mean_us"`
	TickP50US    int64   `csv:"tick_p50_us"`
	TickP99US    int64   `csv:"tick_p99_us"`
	TickMaxUS    int64   `csv:"tick_max_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	WorkPerSec   float64 `csv:"work_per_sec"`
	SurfacePct   float64 `csv:"surface_pct"`
	BuoyancyPct  float64 `csv:"buoyancy_pct"`
	StabilizePct float64 `csv:"stabilize_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	FracturePct  float64 `csv:"fracture_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		TickMeanUS:   s.TickMean.Microseconds(),
		TickP50US:    s.TickP50.Microseconds(),
		TickP99US:    s.TickP99.Microseconds(),
		TickMaxUS:    s.TickMax.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		WorkPerSec:   s.WorkPerSecond,
		SurfacePct:   s.PhasePct[PhaseSurface],
		BuoyancyPct:  s.PhasePct[PhaseBuoyancy],
		StabilizePct: s.PhasePct[PhaseStabilize],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		FracturePct:  s.PhasePct[PhaseFracture],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
