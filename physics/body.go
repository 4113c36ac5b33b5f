package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/buoy/buoyancy"
	"github.com/pthm-cable/buoy/components"
)

// Body is a handle to a body entity. It is comparable and cheap to copy.
type Body struct {
	w *World
	e ecs.Entity
}

var (
	_ buoyancy.Body     = Body{}
	_ buoyancy.Bone     = Body{}
	_ buoyancy.Particle = Body{}
)

// Entity returns the underlying entity.
func (b Body) Entity() ecs.Entity { return b.e }

func (b Body) Mass() float64 { return b.w.masses.Get(b.e).Mass }

func (b Body) Position() mgl64.Vec3 { return b.w.transforms.Get(b.e).Position }

func (b Body) Rotation() mgl64.Quat { return b.w.transforms.Get(b.e).Rotation }

func (b Body) LinearVelocity() mgl64.Vec3 { return b.w.velocities.Get(b.e).Linear }

func (b Body) AngularVelocity() mgl64.Vec3 { return b.w.velocities.Get(b.e).Angular }

// VelocityAtPoint returns v + w × (p - com).
func (b Body) VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3 {
	v := b.w.velocities.Get(b.e)
	return v.Linear.Add(v.Angular.Cross(p.Sub(b.Position())))
}

func (b Body) SetLinearVelocity(v mgl64.Vec3) { b.w.velocities.Get(b.e).Linear = v }

func (b Body) SetAngularVelocity(w mgl64.Vec3) { b.w.velocities.Get(b.e).Angular = w }

func (b Body) SetPosition(p mgl64.Vec3) { b.w.transforms.Get(b.e).Position = p }

// SetRotation replaces the body orientation.
func (b Body) SetRotation(q mgl64.Quat) { b.w.transforms.Get(b.e).Rotation = q.Normalize() }

func (b Body) LinearDamping() float64 { return b.w.dampings.Get(b.e).Linear }

func (b Body) AngularDamping() float64 { return b.w.dampings.Get(b.e).Angular }

func (b Body) SetLinearDamping(d float64) { b.w.dampings.Get(b.e).Linear = d }

func (b Body) SetAngularDamping(d float64) { b.w.dampings.Get(b.e).Angular = d }

// AddForceAtPoint accumulates f at world point p, adding the torque about
// the center of mass, and wakes the body.
func (b Body) AddForceAtPoint(f, p mgl64.Vec3) {
	acc := b.w.accums.Get(b.e)
	acc.Force = acc.Force.Add(f)
	acc.Torque = acc.Torque.Add(p.Sub(b.Position()).Cross(f))
	b.Wake()
}

// AddForce accumulates f at the center of mass and wakes the body.
func (b Body) AddForce(f mgl64.Vec3) {
	acc := b.w.accums.Get(b.e)
	acc.Force = acc.Force.Add(f)
	b.Wake()
}

// AddTorque accumulates t and wakes the body.
func (b Body) AddTorque(t mgl64.Vec3) {
	acc := b.w.accums.Get(b.e)
	acc.Torque = acc.Torque.Add(t)
	b.Wake()
}

// Force returns the force accumulated since the last step.
func (b Body) Force() mgl64.Vec3 { return b.w.accums.Get(b.e).Force }

// Torque returns the torque accumulated since the last step.
func (b Body) Torque() mgl64.Vec3 { return b.w.accums.Get(b.e).Torque }

func (b Body) Simulating() bool { return b.w.dynamics.Get(b.e).Simulating }

// SetSimulating switches between dynamic and kinematic.
func (b Body) SetSimulating(on bool) { b.w.dynamics.Get(b.e).Simulating = on }

func (b Body) GravityEnabled() bool { return b.w.dynamics.Get(b.e).Gravity }

// SetGravityEnabled toggles gravity for this body.
func (b Body) SetGravityEnabled(on bool) { b.w.dynamics.Get(b.e).Gravity = on }

func (b Body) Sleeping() bool { return b.w.dynamics.Get(b.e).Sleeping }

// Sleep suspends integration until a force or Wake arrives.
func (b Body) Sleep() {
	d := b.w.dynamics.Get(b.e)
	d.Sleeping = true
	d.IdleTime = 0
}

// Wake resumes integration.
func (b Body) Wake() {
	d := b.w.dynamics.Get(b.e)
	d.Sleeping = false
	d.IdleTime = 0
}

// Identity returns the body's name, id and kind.
func (b Body) Identity() components.Identity { return *b.w.idents.Get(b.e) }

// Name is the configured name; for bones, the bone name.
func (b Body) Name() string {
	if b.w.bones.Has(b.e) {
		return b.w.bones.Get(b.e).Name
	}
	return b.w.idents.Get(b.e).Name
}

// ID is unique per world.
func (b Body) ID() uint64 { return uint64(b.w.idents.Get(b.e).ID) }

// Parent returns the cluster body an attached fragment is welded into.
func (b Body) Parent() (buoyancy.Particle, bool) {
	if !b.w.fragments.Has(b.e) {
		return nil, false
	}
	f := b.w.fragments.Get(b.e)
	if !f.Attached || !b.w.ecs.Alive(f.Parent) {
		return nil, false
	}
	return Body{w: b.w, e: f.Parent}, true
}
