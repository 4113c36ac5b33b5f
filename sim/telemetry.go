package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/surface"
	"github.com/pthm-cable/buoy/telemetry"
)

// flushTelemetry closes the stats window when due and reports events.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	samples := s.SampleBodies()
	for _, b := range samples {
		s.lifetimes.Observe(b.ID, b.Draft, b.Speed)
	}

	stats := s.collector.Flush(s.tick, samples)
	perfStats := s.perfCollector.Stats()

	if s.opts.StatsCallback != nil {
		s.opts.StatsCallback(stats)
	}

	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := s.output.WriteBodies(samples); err != nil {
			slog.Error("failed to write bodies", "error", err)
		}
	}

	for _, ev := range s.events.Check(samples) {
		if s.opts.LogStats {
			ev.LogEvent()
		}
		if s.output == nil {
			continue
		}
		if err := s.output.WriteEvent(ev); err != nil {
			slog.Error("failed to write event", "error", err)
		}
		if s.opts.Snapshots {
			snap := s.Snapshot()
			snap.Event = &ev
			if _, err := s.output.WriteSnapshot(snap); err != nil {
				slog.Error("failed to write snapshot", "error", err)
			}
		}
	}
}

// SampleBodies returns the current state of every floater. Multi-body
// floaters are reduced to their mass-weighted center and momentum.
func (s *Simulation) SampleBodies() []telemetry.BodySample {
	q := surface.Query{Time: s.Time(), Timed: true}
	out := make([]telemetry.BodySample, 0, len(s.floaters))
	for _, f := range s.floaters {
		var mass, ke float64
		var com, momentum mgl64.Vec3
		sleeping := true
		members := f.members()
		for _, b := range members {
			m := b.Mass()
			v := b.LinearVelocity()
			mass += m
			com = com.Add(b.Position().Mul(m))
			momentum = momentum.Add(v.Mul(m))
			ke += 0.5 * m * v.Dot(v)
			sleeping = sleeping && b.Sleeping()
		}
		if mass > 0 {
			com = com.Mul(1 / mass)
			momentum = momentum.Mul(1 / mass)
		} else {
			com = f.primary.Position()
		}

		up := f.primary.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
		out = append(out, telemetry.BodySample{
			Tick:          s.tick,
			SimTimeSec:    s.Time(),
			ID:            f.primary.ID(),
			Name:          f.name,
			Kind:          f.kind.String(),
			X:             com.X(),
			Y:             com.Y(),
			Z:             com.Z(),
			Draft:         s.oracle.Sample(com, q).Height - com.Z(),
			Speed:         momentum.Len(),
			Tilt:          math.Acos(clampUnit(up.Z())),
			KineticEnergy: ke,
			Submerged:     f.last.Submerged,
			Points:        f.last.Points,
			Sleeping:      sleeping && len(members) > 0,
		})
	}
	return out
}

// Snapshot captures the dynamic state of every body in the world.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Tick:       s.tick,
		SimTimeSec: s.Time(),
		Gravity:    s.world.Gravity(),
	}
	for _, b := range s.world.Bodies() {
		id := b.Identity()
		q := b.Rotation()
		snap.Bodies = append(snap.Bodies, telemetry.BodyState{
			ID:             b.ID(),
			Name:           id.Name,
			Kind:           id.Kind.String(),
			Position:       b.Position(),
			Rotation:       [4]float64{q.W, q.X(), q.Y(), q.Z()},
			Linear:         b.LinearVelocity(),
			Angular:        b.AngularVelocity(),
			LinearDamping:  b.LinearDamping(),
			AngularDamping: b.AngularDamping(),
			Simulating:     b.Simulating(),
			Sleeping:       b.Sleeping(),
			Lifetime:       s.lifetimes.Get(b.ID()).ToJSON(),
		})
	}
	return snap
}

// Restore applies a snapshot taken from a simulation built from the same
// configuration. Bodies are matched by name. Fragment attachment is not part
// of the snapshot and keeps its current state.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("restore: nil snapshot")
	}
	byName := make(map[string]int, len(snap.Bodies))
	for i, b := range snap.Bodies {
		byName[b.Name] = i
	}
	bodies := s.world.Bodies()
	for _, b := range bodies {
		if _, ok := byName[b.Identity().Name]; !ok {
			return fmt.Errorf("restore: body %q not in snapshot", b.Identity().Name)
		}
	}

	for _, b := range bodies {
		st := snap.Bodies[byName[b.Identity().Name]]
		b.SetPosition(mgl64.Vec3(st.Position))
		b.SetRotation(mgl64.Quat{W: st.Rotation[0], V: mgl64.Vec3{st.Rotation[1], st.Rotation[2], st.Rotation[3]}})
		b.SetLinearVelocity(mgl64.Vec3(st.Linear))
		b.SetAngularVelocity(mgl64.Vec3(st.Angular))
		b.SetLinearDamping(st.LinearDamping)
		b.SetAngularDamping(st.AngularDamping)
		b.SetSimulating(st.Simulating)
		if st.Sleeping {
			b.Sleep()
		} else {
			b.Wake()
		}
		if lt := st.Lifetime.FromJSON(); lt != nil {
			*s.lifetimeFor(b.ID()) = *lt
		}
	}
	s.world.SetGravity(snap.Gravity)
	s.tick = snap.Tick
	return nil
}

func (s *Simulation) lifetimeFor(id uint64) *telemetry.LifetimeStats {
	if lt := s.lifetimes.Get(id); lt != nil {
		return lt
	}
	s.lifetimes.Register(id, s.tick)
	return s.lifetimes.Get(id)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
