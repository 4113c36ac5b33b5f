package telemetry

import "github.com/pthm-cable/buoy/buoyancy"

// BodySample is the state of one body at a window boundary. Rows go to
// bodies.csv.
type BodySample struct {
	Tick          int32   `csv:"tick"`
	SimTimeSec    float64 `csv:"sim_time"`
	ID            uint64  `csv:"id"`
	Name          string  `csv:"name"`
	Kind          string  `csv:"kind"`
	X             float64 `csv:"x"`
	Y             float64 `csv:"y"`
	Z             float64 `csv:"z"`
	Draft         float64 `csv:"draft"` // surface height minus center of mass height
	Speed         float64 `csv:"speed"`
	Tilt          float64 `csv:"tilt"` // radians between body up and world up
	KineticEnergy float64 `csv:"kinetic_energy"`
	Submerged     int     `csv:"submerged"`
	Points        int     `csv:"points"`
	Sleeping      bool    `csv:"sleeping"`
}

// Collector accumulates strategy reports within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	steps   int
	skipped int
	aborted int
	snapped int
	clamped int
	slams   int

	wet       []float64
	lift      []float64
	area      []float64
	maxTorque float64

	memoHits   int
	memoMisses int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record adds one strategy step to the current window.
func (c *Collector) Record(r buoyancy.Report) {
	c.steps++
	c.clamped += r.Clamped
	c.slams += r.Slams
	switch {
	case r.Skipped:
		c.skipped++
		return
	case r.Snapped:
		c.snapped++
		return
	}
	if r.Aborted {
		c.aborted++
	}
	if r.Points > 0 {
		c.wet = append(c.wet, float64(r.Submerged)/float64(r.Points))
	}
	c.lift = append(c.lift, r.Force.Z())
	c.area = append(c.area, r.WettedArea)
	if t := r.Torque.Len(); t > c.maxTorque {
		c.maxTorque = t
	}
}

// RecordMemo adds surface cache hits and misses for one step.
func (c *Collector) RecordMemo(hits, misses int) {
	c.memoHits += hits
	c.memoMisses += misses
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the recorded steps and the body samples
// taken at window end, then resets for the next window.
func (c *Collector) Flush(currentTick int32, bodies []BodySample) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Bodies:          len(bodies),
		Steps:           c.steps,
		Skipped:         c.skipped,
		Aborted:         c.aborted,
		Snapped:         c.snapped,
		Clamped:         c.clamped,
		Slams:           c.slams,
		TorqueMax:       c.maxTorque,
	}

	stats.WetMean, stats.WetP10, stats.WetP50, stats.WetP90 = Quantiles(c.wet)
	stats.LiftMean, _, _, stats.LiftP90 = Quantiles(c.lift)
	stats.WettedAreaMean, _ = Spread(c.area)

	drafts := make([]float64, 0, len(bodies))
	for _, b := range bodies {
		if b.Sleeping {
			stats.Sleeping++
		}
		if b.Speed > stats.MaxSpeed {
			stats.MaxSpeed = b.Speed
		}
		stats.KineticEnergy += b.KineticEnergy
		drafts = append(drafts, b.Draft)
	}
	stats.DraftMean, stats.DraftStd = Spread(drafts)

	if total := c.memoHits + c.memoMisses; total > 0 {
		stats.MemoHitRate = float64(c.memoHits) / float64(total)
	}

	c.windowStartTick = currentTick
	c.steps, c.skipped, c.aborted, c.snapped, c.clamped, c.slams = 0, 0, 0, 0, 0, 0
	c.wet = c.wet[:0]
	c.lift = c.lift[:0]
	c.area = c.area[:0]
	c.maxTorque = 0
	c.memoHits, c.memoMisses = 0, 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
