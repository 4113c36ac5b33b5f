package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/buoyancy"
	"github.com/pthm-cable/buoy/components"
	"github.com/pthm-cable/buoy/config"
	"github.com/pthm-cable/buoy/physics"
	"github.com/pthm-cable/buoy/surface"
)

// floater is one configured body and everything that acts on it.
type floater struct {
	name     string
	kind     components.Kind
	cfg      *config.BodyConfig
	strategy buoyancy.Strategy

	// primary is the body reported in telemetry for orientation: the rigid
	// body, the first bone or the cluster parent.
	primary    physics.Body
	skeleton   *physics.Skeleton
	cluster    *physics.Cluster
	stabilizer []*buoyancy.Stabilizer

	nextBreak  int
	last       buoyancy.Report
	loggedSkip bool
}

// members returns the bodies whose mass makes up the floater. Attached
// fragments are excluded because the parent already carries their mass.
func (f *floater) members() []physics.Body {
	switch {
	case f.skeleton != nil:
		return f.skeleton.Bodies()
	case f.cluster != nil:
		var out []physics.Body
		parent := f.cluster.Parent()
		if parent.Mass() > 0 {
			out = append(out, parent)
		}
		for _, p := range f.cluster.Particles() {
			if _, attached := p.Parent(); !attached {
				out = append(out, p.(physics.Body))
			}
		}
		return out
	}
	return []physics.Body{f.primary}
}

// buildSurface creates the configured oracle. The returned clock is nil for
// a still surface.
func buildSurface(cfg *config.Config) (surface.Oracle, surface.Clock) {
	dir := cfg.Derived.WaveDirection
	var o surface.Oracle = surface.Flat{Level: cfg.Surface.Level, Direction: dir}
	var clock surface.Clock
	if len(cfg.Surface.Waves) > 0 {
		comps := make([]surface.Wave, 0, len(cfg.Surface.Waves))
		for _, w := range cfg.Surface.Waves {
			comps = append(comps, surface.Wave{
				Amplitude:  w.Amplitude,
				Wavelength: w.Wavelength,
				Speed:      w.Speed,
				Direction:  mgl64.Vec2(w.Direction),
				Steepness:  w.Steepness,
			})
		}
		waves := surface.NewWaves(cfg.Surface.Level, dir, comps)
		o, clock = waves, waves
	}
	if ch := cfg.Surface.Chop; ch.Amplitude > 0 {
		chop := surface.NewChop(o, ch.Amplitude, ch.Scale, ch.Speed, ch.Seed)
		o, clock = chop, chop
	}
	return o, clock
}

func pointParams(cfg *config.Config, b *config.BodyConfig) buoyancy.PointParams {
	p := cfg.Point
	params := buoyancy.PointParams{
		MeshDensity:           p.MeshDensity,
		FluidDensity:          cfg.Fluid.Density,
		TestPointRadius:       p.TestPointRadius,
		FluidLinearDamping:    p.FluidLinearDamping,
		FluidAngularDamping:   p.FluidAngularDamping,
		VelocityDamper:        cfg.Derived.VelocityDamper,
		ClampMaxVelocity:      p.ClampMaxVelocity,
		MaxUnderwaterVelocity: p.MaxUnderwaterVelocity,
		WaveForces:            p.WaveForces,
		WaveForceMultiplier:   p.WaveForceMultiplier,
		SnapToSurface:         p.SnapToSurface,
		TwoIterations:         p.TwoIterations,
	}
	if b.Density > 0 {
		params.MeshDensity = b.Density
	}
	return params
}

func meshParams(cfg *config.Config) buoyancy.MeshParams {
	m := cfg.Mesh
	return buoyancy.MeshParams{
		FluidDensity:        cfg.Fluid.Density,
		Drag:                buoyancy.Coefficients{Linear: m.Drag[0], Quadratic: m.Drag[1], Falloff: m.Drag[2]},
		Suction:             buoyancy.Coefficients{Linear: m.Suction[0], Quadratic: m.Suction[1], Falloff: m.Suction[2]},
		Viscous:             m.Viscous,
		DensityCorrection:   m.DensityCorrection,
		Dynamics:            m.Dynamics,
		ImpactCoefficient:   m.ImpactCoefficient,
		MaxSlamAcceleration: m.MaxSlamAcceleration,
		SlamThreshold:       m.SlamThreshold,
		BuoyancyReduction:   m.BuoyancyReduction,
		PitchReduction:      m.PitchReduction,
		GridResolution:      m.GridResolution,
		TwoIterations:       m.TwoIterations,
	}
}

func stabilizerParams(cfg *config.Config) buoyancy.StabilizerParams {
	return buoyancy.StabilizerParams{
		Enabled:   true,
		Stiffness: cfg.Stabilizer.Stiffness,
		Damping:   cfg.Stabilizer.Damping,
		Desired:   cfg.Derived.Upright,
	}
}

func bodyDef(b *config.BodyConfig, kind components.Kind) physics.BodyDef {
	return physics.BodyDef{
		Name:           b.Name,
		Kind:           kind,
		Position:       mgl64.Vec3(b.Position),
		Rotation:       config.EulerDegrees(b.Rotation),
		Velocity:       mgl64.Vec3(b.Velocity),
		Mass:           b.Mass,
		LinearDamping:  b.LinearDamping,
		AngularDamping: b.AngularDamping,
		Kinematic:      b.Kinematic,
		NoGravity:      b.NoGravity,
	}
}

// kindOf maps a body config to its submersion model.
func kindOf(b *config.BodyConfig) (components.Kind, error) {
	if b.Model == "mesh" {
		return components.KindMesh, nil
	}
	k, ok := components.ParseKind(b.Kind)
	if !ok || k == components.KindMesh {
		return 0, fmt.Errorf("body %q: unknown kind %q", b.Name, b.Kind)
	}
	return k, nil
}

// spawn creates the physics bodies for b and binds a strategy to them.
func (s *Simulation) spawn(b *config.BodyConfig) (*floater, error) {
	kind, err := kindOf(b)
	if err != nil {
		return nil, err
	}
	cfg := s.cfg
	f := &floater{name: b.Name, kind: kind, cfg: b}
	var stabilize []physics.Body

	switch kind {
	case components.KindRigid:
		def := bodyDef(b, kind)
		points := make([]buoyancy.SubmersionPoint, 0, len(b.Points))
		reach := 0.5
		for _, p := range b.Points {
			sp := buoyancy.SubmersionPoint{Offset: mgl64.Vec3(p.Offset), Radius: p.Radius, Density: p.Density}
			points = append(points, sp)
			reach = math.Max(reach, sp.Offset.Len())
		}
		def.Inertia = physics.SphereInertia(b.Mass, reach)
		body := s.world.Spawn(def)
		f.primary = body
		f.strategy = &buoyancy.PointStrategy{
			Engine:   buoyancy.NewPointEngine(s.surface, pointParams(cfg, b)),
			Provider: buoyancy.NewRigidPoints(body, points),
			Body:     body,
		}
		stabilize = append(stabilize, body)

	case components.KindMesh:
		half := mgl64.Vec3(b.Hull)
		def := bodyDef(b, kind)
		def.Inertia = physics.BoxInertia(b.Mass, half)
		body := s.world.Spawn(def)
		f.primary = body
		f.strategy = buoyancy.NewMeshEngine(s.surface, body, boxHull(half), meshParams(cfg))
		stabilize = append(stabilize, body)

	case components.KindSkeletal:
		bones := make([]physics.BoneDef, 0, len(b.Bones))
		overrides := make([]buoyancy.BoneOverride, 0, len(b.Bones))
		for _, bc := range b.Bones {
			bones = append(bones, physics.BoneDef{
				Name:      bc.Name,
				Offset:    mgl64.Vec3(bc.Offset),
				Mass:      bc.Mass,
				NoGravity: bc.NoGravity,
			})
			if bc.Density > 0 || bc.Radius > 0 {
				overrides = append(overrides, buoyancy.BoneOverride{Name: bc.Name, Density: bc.Density, Radius: bc.Radius})
			}
		}
		skel := s.world.SpawnSkeleton(bodyDef(b, kind), bones)
		f.skeleton = &skel
		f.primary = skel.Bodies()[0]
		f.strategy = &buoyancy.PointStrategy{
			Engine:   buoyancy.NewPointEngine(s.surface, pointParams(cfg, b)),
			Provider: buoyancy.NewBonePoints(skel, overrides),
		}
		stabilize = append(stabilize, skel.Bodies()...)

	case components.KindFragment:
		pieces := make([]physics.PieceDef, 0, len(b.Pieces))
		for _, p := range b.Pieces {
			pieces = append(pieces, physics.PieceDef{Offset: mgl64.Vec3(p.Offset), Mass: p.Mass})
		}
		cl := s.world.SpawnCluster(bodyDef(b, kind), pieces)
		f.cluster = &cl
		f.primary = cl.Parent()
		f.strategy = &buoyancy.PointStrategy{
			Engine:   buoyancy.NewPointEngine(s.surface, pointParams(cfg, b)),
			Provider: buoyancy.NewFragmentPoints(cl),
		}
		stabilize = append(stabilize, cl.Parent())
	}

	if b.Stabilize {
		for _, body := range stabilize {
			f.stabilizer = append(f.stabilizer, buoyancy.NewStabilizer(body, stabilizerParams(cfg)))
		}
	}
	return f, nil
}

// boxHull returns the 12 outward-facing triangles of a box with the given
// half extents centered on the origin.
func boxHull(half mgl64.Vec3) []buoyancy.Triangle {
	x, y, z := half.X(), half.Y(), half.Z()
	c := [8]mgl64.Vec3{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	}
	quads := [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // -y
		{2, 3, 7, 6}, // +y
		{1, 2, 6, 5}, // +x
		{3, 0, 4, 7}, // -x
	}
	tris := make([]buoyancy.Triangle, 0, 12)
	for _, q := range quads {
		tris = append(tris,
			buoyancy.Triangle{c[q[0]], c[q[1]], c[q[2]]},
			buoyancy.Triangle{c[q[0]], c[q[2]], c[q[3]]},
		)
	}
	return tris
}
