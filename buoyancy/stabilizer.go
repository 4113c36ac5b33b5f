package buoyancy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// StabilizerParams configures the upright spring.
type StabilizerParams struct {
	Enabled   bool
	Stiffness float64
	Damping   float64
	Desired   mgl64.Quat // world orientation whose up axis is the target
}

// DefaultStabilizerParams returns the stock spring, targeting world up.
func DefaultStabilizerParams() StabilizerParams {
	return StabilizerParams{Stiffness: 50, Damping: 5, Desired: mgl64.QuatIdent()}
}

// Stabilizer is an angular spring that swings a body's up axis back toward a
// target. Rotation about the body's own up axis is left free. It acts on
// angular velocity directly, so response does not depend on inertia.
type Stabilizer struct {
	body   Body
	params StabilizerParams
	target mgl64.Vec3
}

// NewStabilizer attaches a spring to b, or returns nil when disabled.
func NewStabilizer(b Body, params StabilizerParams) *Stabilizer {
	if b == nil || !params.Enabled {
		return nil
	}
	d := params.Desired
	if d.Len() == 0 {
		d = mgl64.QuatIdent()
	}
	return &Stabilizer{
		body:   b,
		params: params,
		target: d.Normalize().Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

// Apply advances the spring by dt and returns the tilt angle in radians.
// A nil Stabilizer does nothing.
func (s *Stabilizer) Apply(dt float64) float64 {
	if s == nil || !s.body.Simulating() {
		return 0
	}
	up := s.body.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
	axis := up.Cross(s.target)
	sin := axis.Len()
	angle := math.Atan2(sin, up.Dot(s.target))

	switch {
	case sin > 1e-9:
		axis = axis.Mul(1 / sin)
	case angle > math.Pi/2:
		// Upside down: any horizontal axis will do.
		axis = up.Cross(mgl64.Vec3{1, 0, 0})
		if axis.Len() < 1e-9 {
			axis = up.Cross(mgl64.Vec3{0, 1, 0})
		}
		axis = axis.Normalize()
	default:
		axis = mgl64.Vec3{}
	}

	w := s.body.AngularVelocity()
	swing := w.Sub(up.Mul(w.Dot(up)))
	dw := axis.Mul(s.params.Stiffness * angle).Sub(swing.Mul(s.params.Damping)).Mul(dt)
	s.body.SetAngularVelocity(w.Add(dw))
	return angle
}
