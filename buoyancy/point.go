package buoyancy

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/surface"
)

// PointParams configures the point-sampling model.
type PointParams struct {
	MeshDensity           float64 // kg/m^3 of the floating body
	FluidDensity          float64 // kg/m^3 of the fluid
	TestPointRadius       float64 // default radius for points without their own
	FluidLinearDamping    float64 // added to base linear damping at full submersion
	FluidAngularDamping   float64
	VelocityDamper        mgl64.Vec3
	ClampMaxVelocity      bool
	MaxUnderwaterVelocity float64
	WaveForces            bool
	WaveForceMultiplier   float64
	SnapToSurface         bool // kinematic bodies ride the surface
	TwoIterations         bool // displacement-corrected surface lookup
}

// DefaultPointParams returns the stock tuning for a light wooden hull in
// seawater.
func DefaultPointParams() PointParams {
	return PointParams{
		MeshDensity:           600,
		FluidDensity:          1025,
		TestPointRadius:       0.25,
		FluidLinearDamping:    1,
		FluidAngularDamping:   1,
		VelocityDamper:        mgl64.Vec3{0.1, 0.1, 0.1},
		ClampMaxVelocity:      true,
		MaxUnderwaterVelocity: 10,
		WaveForces:            true,
		WaveForceMultiplier:   2,
	}
}

// SubmersionPoint is a sample location in body-local space.
// Zero Radius or Density fall back to the engine defaults.
type SubmersionPoint struct {
	Offset  mgl64.Vec3
	Radius  float64
	Density float64
}

// Probe is one resolved sample handed from a provider to the engine.
type Probe struct {
	Index    int
	Position mgl64.Vec3 // world space
	Radius   float64
	Density  float64
	Mass     float64
	Share    float64 // fraction of Mass this sample stands for
	Body     Body    // receives the force and supplies the velocity
	Skip     bool    // counted but not evaluated
}

// PointProvider adapts one body kind (rigid, skeletal, fragmented) to the
// shared point loop. Prepare is called once per step and returns the point
// count the step was dispatched with; Len is re-checked before every point.
type PointProvider interface {
	Prepare(params *PointParams) int
	Len() int
	Probe(i int, params *PointParams) (Probe, bool)
	Apply(p Probe, force mgl64.Vec3)
	// SettlePoint runs after each evaluated point. Returns whether the
	// velocity was clamped.
	SettlePoint(p Probe, submerged bool, params *PointParams) bool
	// Settle runs once after all points. Returns whether the velocity was
	// clamped.
	Settle(submerged, total int, params *PointParams) bool
}

// PointEngine evaluates buoyancy, damping and wave push at discrete points.
type PointEngine struct {
	Surface surface.Oracle
	Params  PointParams
}

// NewPointEngine creates an engine sampling o.
func NewPointEngine(o surface.Oracle, params PointParams) *PointEngine {
	return &PointEngine{Surface: o, Params: params}
}

// Run executes one step over every point prov exposes.
//
// If the point set changes size mid-step the loop stops where it is: forces
// already applied stand, the remaining points and the damping update are
// skipped, and the report is marked Aborted.
func (e *PointEngine) Run(prov PointProvider, env Env) Report {
	var r Report
	if e == nil || e.Surface == nil || prov == nil {
		r.Skipped = true
		return r
	}
	params := &e.Params
	total := prov.Prepare(params)
	if total < 1 {
		r.Skipped = true
		return r
	}
	r.Points = total

	q := e.queryFor(env)
	for i := 0; i < total; i++ {
		if prov.Len() != total {
			r.Aborted = true
			return r
		}
		p, ok := prov.Probe(i, params)
		if !ok {
			r.Aborted = true
			return r
		}
		if p.Skip || p.Body == nil {
			continue
		}

		s := e.Surface.Sample(p.Position, q)
		depth := DepthSample(s.Height, p.Position.Z(), SignedRadius(env.Gravity, p.Radius))
		submerged := depth > 0 && p.Body.GravityEnabled()
		if submerged {
			r.Submerged++
			f := e.force(p, depth, env)
			prov.Apply(p, f)
			r.Force = r.Force.Add(f)
		}
		if prov.SettlePoint(p, submerged, params) {
			r.Clamped++
		}
	}
	if prov.Settle(r.Submerged, total, params) {
		r.Clamped++
	}
	return r
}

func (e *PointEngine) queryFor(env Env) surface.Query {
	return surface.Query{Time: env.Time, Timed: env.Timed, HighAccuracy: e.Params.TwoIterations}
}

// force is the total force on one submerged point.
func (e *PointEngine) force(p Probe, depth float64, env Env) mgl64.Vec3 {
	params := &e.Params
	dm := DepthMultiplier(depth, p.Radius)
	lift := BuoyantForce(p.Mass, p.Density, params.FluidDensity, env.Gravity, p.Share, dm)
	f := mgl64.Vec3{0, 0, lift}

	vel := p.Body.VelocityAtPoint(p.Position)
	f = f.Add(DampingForce(vel, params.VelocityDamper, p.Mass, dm))

	if params.WaveForces {
		f = f.Add(WaveForce(e.Surface.WaveDirection(), p.Mass, vel.Z(), dm, params.WaveForceMultiplier, p.Share))
	}
	return f
}

func resolveRadius(r, fallback float64) float64 {
	if r == 0 {
		r = fallback
	}
	if r < 0 {
		return -r
	}
	return r
}

func resolveDensity(d, fallback float64) float64 {
	if d > 0 {
		return d
	}
	return fallback
}
