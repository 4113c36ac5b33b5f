// Package buoyancy computes the forces a fluid surface exerts on rigid bodies
// each simulation step: buoyant lift, velocity damping, wave push, and
// hydrostatic/hydrodynamic pressure over a submerged triangle mesh.
//
// The surface and the rigid-body backend are external collaborators reached
// through the surface.Oracle and Body interfaces. All work is synchronous and
// runs once per body per step.
package buoyancy

import "github.com/go-gl/mathgl/mgl64"

// Body is the rigid-body backend as seen by the force engine. The backend owns
// mass, pose and velocity; the engine only reads them and mutates them through
// these calls. Position is the world-space center of mass.
type Body interface {
	Mass() float64
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	LinearVelocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	// VelocityAtPoint includes the rotational contribution at p.
	VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3

	SetLinearVelocity(v mgl64.Vec3)
	SetAngularVelocity(w mgl64.Vec3)
	SetPosition(p mgl64.Vec3)

	LinearDamping() float64
	AngularDamping() float64
	SetLinearDamping(d float64)
	SetAngularDamping(d float64)

	AddForceAtPoint(f, p mgl64.Vec3)
	AddForce(f mgl64.Vec3)
	AddTorque(t mgl64.Vec3)

	// Simulating reports whether the backend integrates dynamics for the body.
	Simulating() bool
	GravityEnabled() bool
}

// Sleeper is implemented by bodies the backend can put to sleep.
type Sleeper interface {
	Sleeping() bool
	Wake()
}

// Env carries the per-step inputs shared by every body.
type Env struct {
	Gravity float64 // signed vertical gravity, negative pulls down
	Time    float64
	Timed   bool // forward Time to the surface oracle
	Dt      float64
}

// Report summarizes what one strategy step did to one body.
type Report struct {
	Points     int // sample points or mesh triangles considered
	Submerged  int
	Skipped    bool // precondition not met, nothing touched
	Aborted    bool // point set resized mid-step
	Snapped    bool // kinematic surface snap instead of forces
	Clamped    int  // velocity clamps applied
	Slams      int
	Force      mgl64.Vec3
	Torque     mgl64.Vec3
	WettedArea float64
}

// Strategy is a submersion model bound to one body.
type Strategy interface {
	Step(env Env) Report
}
