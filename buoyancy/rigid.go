package buoyancy

import "github.com/go-gl/mathgl/mgl64"

// RigidPoints exposes a single rigid body's submersion points. Every point
// stands for an equal share of the body's mass.
//
// Points may be replaced between steps; a change during a step aborts it.
type RigidPoints struct {
	Body   Body
	Points []SubmersionPoint

	baseLinear  float64
	baseAngular float64
}

// NewRigidPoints captures b's current damping as the dry baseline.
func NewRigidPoints(b Body, points []SubmersionPoint) *RigidPoints {
	return &RigidPoints{
		Body:        b,
		Points:      points,
		baseLinear:  b.LinearDamping(),
		baseAngular: b.AngularDamping(),
	}
}

// BaseDamping returns the captured dry damping.
func (r *RigidPoints) BaseDamping() (linear, angular float64) {
	return r.baseLinear, r.baseAngular
}

func (r *RigidPoints) Prepare(*PointParams) int { return len(r.Points) }

func (r *RigidPoints) Len() int { return len(r.Points) }

func (r *RigidPoints) Probe(i int, params *PointParams) (Probe, bool) {
	if i < 0 || i >= len(r.Points) {
		return Probe{}, false
	}
	pt := r.Points[i]
	return Probe{
		Index:    i,
		Position: r.Body.Position().Add(r.Body.Rotation().Rotate(pt.Offset)),
		Radius:   resolveRadius(pt.Radius, params.TestPointRadius),
		Density:  resolveDensity(pt.Density, params.MeshDensity),
		Mass:     r.Body.Mass(),
		Share:    1 / float64(len(r.Points)),
		Body:     r.Body,
	}, true
}

func (r *RigidPoints) Apply(p Probe, f mgl64.Vec3) {
	r.Body.AddForceAtPoint(f, p.Position)
}

func (r *RigidPoints) SettlePoint(Probe, bool, *PointParams) bool { return false }

// Settle blends damping by the submerged fraction and caps underwater speed.
func (r *RigidPoints) Settle(submerged, total int, params *PointParams) bool {
	frac := float64(submerged) / float64(total)
	r.Body.SetLinearDamping(r.baseLinear + params.FluidLinearDamping*frac)
	r.Body.SetAngularDamping(r.baseAngular + params.FluidAngularDamping*frac)

	if submerged > 0 && params.ClampMaxVelocity {
		return clampVelocity(r.Body, params.MaxUnderwaterVelocity)
	}
	return false
}
