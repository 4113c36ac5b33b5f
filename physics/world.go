// Package physics is a small rigid-body integrator on top of the ECS world.
// It owns pose, velocity, mass and damping, accumulates forces between steps
// and exposes bodies through handles the buoyancy engine can drive.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/buoy/components"
)

// maxAngularStep caps the rotation integrated in one step.
const maxAngularStep = math.Pi / 4

// Params configures the integrator.
type Params struct {
	Gravity    float64 // signed vertical acceleration
	SleepSpeed float64 // linear and angular speed below which a body idles
	SleepTime  float64 // idle seconds before sleeping; 0 disables sleep
}

// World integrates every body entity in an ECS world.
type World struct {
	ecs    *ecs.World
	params Params
	nextID uint32

	bodies *ecs.Map7[
		components.Transform,
		components.Velocity,
		components.Mass,
		components.Damping,
		components.Accumulator,
		components.Dynamics,
		components.Identity,
	]
	filter *ecs.Filter6[
		components.Transform,
		components.Velocity,
		components.Mass,
		components.Damping,
		components.Accumulator,
		components.Dynamics,
	]
	fragFilter *ecs.Filter3[components.Fragment, components.Transform, components.Velocity]

	transforms *ecs.Map1[components.Transform]
	velocities *ecs.Map1[components.Velocity]
	masses     *ecs.Map1[components.Mass]
	dampings   *ecs.Map1[components.Damping]
	accums     *ecs.Map1[components.Accumulator]
	dynamics   *ecs.Map1[components.Dynamics]
	idents     *ecs.Map1[components.Identity]
	bones      *ecs.Map[components.Bone]
	skeletons  *ecs.Map[components.Skeleton]
	fragments  *ecs.Map[components.Fragment]
	clusters   *ecs.Map[components.Cluster]
}

// NewWorld attaches an integrator to w.
func NewWorld(w *ecs.World, params Params) *World {
	return &World{
		ecs:    w,
		params: params,
		bodies: ecs.NewMap7[
			components.Transform,
			components.Velocity,
			components.Mass,
			components.Damping,
			components.Accumulator,
			components.Dynamics,
			components.Identity,
		](w),
		filter: ecs.NewFilter6[
			components.Transform,
			components.Velocity,
			components.Mass,
			components.Damping,
			components.Accumulator,
			components.Dynamics,
		](w),
		fragFilter: ecs.NewFilter3[components.Fragment, components.Transform, components.Velocity](w),
		transforms: ecs.NewMap1[components.Transform](w),
		velocities: ecs.NewMap1[components.Velocity](w),
		masses:     ecs.NewMap1[components.Mass](w),
		dampings:   ecs.NewMap1[components.Damping](w),
		accums:     ecs.NewMap1[components.Accumulator](w),
		dynamics:   ecs.NewMap1[components.Dynamics](w),
		idents:     ecs.NewMap1[components.Identity](w),
		bones:      ecs.NewMap[components.Bone](w),
		skeletons:  ecs.NewMap[components.Skeleton](w),
		fragments:  ecs.NewMap[components.Fragment](w),
		clusters:   ecs.NewMap[components.Cluster](w),
	}
}

// Gravity returns the signed vertical gravity.
func (w *World) Gravity() float64 { return w.params.Gravity }

// SetGravity changes gravity for subsequent steps.
func (w *World) SetGravity(g float64) { w.params.Gravity = g }

// BodyDef describes a body to spawn.
type BodyDef struct {
	Name           string
	Kind           components.Kind
	Position       mgl64.Vec3
	Rotation       mgl64.Quat // zero means identity
	Velocity       mgl64.Vec3
	Mass           float64
	Inertia        mgl64.Vec3 // zero means a unit sphere of Mass
	LinearDamping  float64
	AngularDamping float64
	Kinematic      bool
	NoGravity      bool
}

// Spawn creates a body entity and returns its handle.
func (w *World) Spawn(def BodyDef) Body {
	rot := def.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	inertia := def.Inertia
	if inertia == (mgl64.Vec3{}) {
		inertia = SphereInertia(def.Mass, 1)
	}
	w.nextID++

	tr := components.Transform{Position: def.Position, Rotation: rot.Normalize()}
	vel := components.Velocity{Linear: def.Velocity}
	mass := components.Mass{Mass: def.Mass, Inertia: inertia}
	damp := components.Damping{Linear: def.LinearDamping, Angular: def.AngularDamping}
	acc := components.Accumulator{}
	dyn := components.Dynamics{Simulating: !def.Kinematic, Gravity: !def.NoGravity}
	id := components.Identity{ID: w.nextID, Name: def.Name, Kind: def.Kind}

	e := w.bodies.NewEntity(&tr, &vel, &mass, &damp, &acc, &dyn, &id)
	return Body{w: w, e: e}
}

// Bodies returns a handle for every body in creation order.
func (w *World) Bodies() []Body {
	var out []Body
	query := w.filter.Query()
	for query.Next() {
		out = append(out, Body{w: w, e: query.Entity()})
	}
	return out
}

// Step integrates all awake, simulating, free bodies by dt and clears their
// accumulators. Attached fragments are then carried by their parents.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	g := mgl64.Vec3{0, 0, w.params.Gravity}

	query := w.filter.Query()
	for query.Next() {
		e := query.Entity()
		tr, vel, mass, damp, acc, dyn := query.Get()

		if !dyn.Simulating || dyn.Sleeping || w.attached(e) || mass.Mass <= 0 {
			*acc = components.Accumulator{}
			continue
		}

		a := acc.Force.Mul(1 / mass.Mass)
		if dyn.Gravity {
			a = a.Add(g)
		}
		vel.Linear = vel.Linear.Add(a.Mul(dt)).Mul(1 / (1 + dt*damp.Linear))

		alpha := worldInverseInertia(tr.Rotation, mass.Inertia, acc.Torque)
		vel.Angular = vel.Angular.Add(alpha.Mul(dt)).Mul(1 / (1 + dt*damp.Angular))

		tr.Position = tr.Position.Add(vel.Linear.Mul(dt))
		tr.Rotation = integrateRotation(tr.Rotation, vel.Angular, dt)

		w.updateSleep(vel, dyn, dt)
		*acc = components.Accumulator{}
	}

	w.carryFragments()
}

func (w *World) attached(e ecs.Entity) bool {
	return w.fragments.Has(e) && w.fragments.Get(e).Attached
}

func (w *World) updateSleep(vel *components.Velocity, dyn *components.Dynamics, dt float64) {
	if w.params.SleepTime <= 0 {
		return
	}
	if vel.Linear.Len() > w.params.SleepSpeed || vel.Angular.Len() > w.params.SleepSpeed {
		dyn.IdleTime = 0
		return
	}
	dyn.IdleTime += dt
	if dyn.IdleTime >= w.params.SleepTime {
		dyn.Sleeping = true
		vel.Linear = mgl64.Vec3{}
		vel.Angular = mgl64.Vec3{}
	}
}

// carryFragments moves attached pieces with their parent.
func (w *World) carryFragments() {
	query := w.fragFilter.Query()
	for query.Next() {
		frag, tr, vel := query.Get()
		if !frag.Attached || !w.ecs.Alive(frag.Parent) {
			continue
		}
		ptr := w.transforms.Get(frag.Parent)
		pvel := w.velocities.Get(frag.Parent)
		arm := ptr.Rotation.Rotate(frag.Offset)
		tr.Position = ptr.Position.Add(arm)
		tr.Rotation = ptr.Rotation
		vel.Linear = pvel.Linear.Add(pvel.Angular.Cross(arm))
		vel.Angular = pvel.Angular
	}
}

// worldInverseInertia returns R * diag(1/I) * R^T * torque.
func worldInverseInertia(rot mgl64.Quat, inertia, torque mgl64.Vec3) mgl64.Vec3 {
	if torque == (mgl64.Vec3{}) {
		return mgl64.Vec3{}
	}
	local := rot.Inverse().Rotate(torque)
	for i := range local {
		if inertia[i] > 0 {
			local[i] /= inertia[i]
		} else {
			local[i] = 0
		}
	}
	return rot.Rotate(local)
}

// integrateRotation advances q by angular velocity w over dt.
func integrateRotation(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	speed := w.Len()
	if speed == 0 {
		return q
	}
	angle := math.Min(speed*dt, maxAngularStep)
	return mgl64.QuatRotate(angle, w.Mul(1/speed)).Mul(q).Normalize()
}
