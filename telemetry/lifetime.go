package telemetry

import "github.com/pthm-cable/buoy/buoyancy"

// LifetimeStats tracks per-body statistics since the body was registered.
type LifetimeStats struct {
	SpawnTick int32
	Steps     int

	// Time with at least one point or triangle under water
	SubmergedSec float64

	Slams   int
	Clamps  int
	Aborts  int
	Snapped int

	MaxDraft  float64
	PeakSpeed float64
	PeakLift  float64

	observed bool
}

// LifetimeTracker manages per-body lifetime statistics.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

// Register creates lifetime stats for a body.
func (lt *LifetimeTracker) Register(id uint64, spawnTick int32) {
	lt.stats[id] = &LifetimeStats{SpawnTick: spawnTick}
}

// Get returns the lifetime stats for a body, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// Record folds one strategy step into the body's totals.
func (lt *LifetimeTracker) Record(id uint64, r buoyancy.Report, dt float64) {
	s := lt.stats[id]
	if s == nil {
		return
	}
	s.Steps++
	s.Slams += r.Slams
	s.Clamps += r.Clamped
	if r.Aborted {
		s.Aborts++
	}
	if r.Snapped {
		s.Snapped++
	}
	if r.Submerged > 0 {
		s.SubmergedSec += dt
	}
	if lift := r.Force.Z(); lift > s.PeakLift {
		s.PeakLift = lift
	}
}

// Observe tracks the deepest draft and the peak speed.
func (lt *LifetimeTracker) Observe(id uint64, draft, speed float64) {
	s := lt.stats[id]
	if s == nil {
		return
	}
	if !s.observed || draft > s.MaxDraft {
		s.MaxDraft = draft
	}
	s.observed = true
	if speed > s.PeakSpeed {
		s.PeakSpeed = speed
	}
}

// Count returns the number of tracked bodies.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
