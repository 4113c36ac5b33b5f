package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/buoy/buoyancy"
	"github.com/pthm-cable/buoy/components"
)

// BoneDef describes one bone of a skeleton, positioned relative to the
// skeleton root.
type BoneDef struct {
	Name      string
	Offset    mgl64.Vec3
	Mass      float64
	NoGravity bool
}

// Skeleton is a handle to a set of bone bodies.
type Skeleton struct {
	w *World
	e ecs.Entity
}

var _ buoyancy.Skeleton = Skeleton{}

// SpawnSkeleton creates one body per bone. root supplies the shared pose,
// velocity and damping; its mass is ignored in favor of per-bone mass.
func (w *World) SpawnSkeleton(root BodyDef, bones []BoneDef) Skeleton {
	skel := w.skeletons.NewEntity(&components.Skeleton{})
	list := make([]ecs.Entity, 0, len(bones))
	for _, bd := range bones {
		def := root
		def.Name = root.Name + "/" + bd.Name
		def.Kind = components.KindSkeletal
		def.Position = root.Position.Add(rotationOf(root).Rotate(bd.Offset))
		def.Mass = bd.Mass
		def.Inertia = mgl64.Vec3{}
		def.NoGravity = root.NoGravity || bd.NoGravity
		b := w.Spawn(def)
		w.bones.Add(b.e, &components.Bone{Skeleton: skel, Name: bd.Name})
		list = append(list, b.e)
	}
	w.skeletons.Get(skel).Bones = list
	return Skeleton{w: w, e: skel}
}

// Bones implements buoyancy.Skeleton.
func (s Skeleton) Bones() []buoyancy.Bone {
	sk := s.w.skeletons.Get(s.e)
	out := make([]buoyancy.Bone, 0, len(sk.Bones))
	for _, e := range sk.Bones {
		if s.w.ecs.Alive(e) {
			out = append(out, Body{w: s.w, e: e})
		}
	}
	return out
}

// Bodies returns the bone handles.
func (s Skeleton) Bodies() []Body {
	sk := s.w.skeletons.Get(s.e)
	out := make([]Body, 0, len(sk.Bones))
	for _, e := range sk.Bones {
		out = append(out, Body{w: s.w, e: e})
	}
	return out
}

// PieceDef describes one fragment, offset from the cluster body.
type PieceDef struct {
	Offset mgl64.Vec3
	Mass   float64
}

// Cluster is a handle to a fractured body: a parent body carrying welded
// pieces that can break free.
type Cluster struct {
	w      *World
	e      ecs.Entity
	parent Body
}

var _ buoyancy.Cluster = Cluster{}

// SpawnCluster creates the parent body from def and one attached particle
// per piece. The parent's mass is the sum of the piece masses.
func (w *World) SpawnCluster(def BodyDef, pieces []PieceDef) Cluster {
	var total float64
	for _, p := range pieces {
		total += p.Mass
	}
	pdef := def
	pdef.Kind = components.KindFragment
	pdef.Mass = total
	pdef.Inertia = mgl64.Vec3{}
	parent := w.Spawn(pdef)

	cl := w.clusters.NewEntity(&components.Cluster{
		LinearDamping:  def.LinearDamping,
		AngularDamping: def.AngularDamping,
	})
	list := make([]ecs.Entity, 0, len(pieces))
	for i, p := range pieces {
		cdef := pdef
		cdef.Name = fmt.Sprintf("%s/%d", def.Name, i)
		cdef.Position = parent.Position().Add(parent.Rotation().Rotate(p.Offset))
		cdef.Mass = p.Mass
		b := w.Spawn(cdef)
		w.fragments.Add(b.e, &components.Fragment{Cluster: cl, Parent: parent.e, Attached: true, Offset: p.Offset})
		list = append(list, b.e)
	}
	w.clusters.Get(cl).Particles = list
	return Cluster{w: w, e: cl, parent: parent}
}

// Parent returns the welded cluster body.
func (c Cluster) Parent() Body { return c.parent }

// Particles implements buoyancy.Cluster.
func (c Cluster) Particles() []buoyancy.Particle {
	cl := c.w.clusters.Get(c.e)
	out := make([]buoyancy.Particle, 0, len(cl.Particles))
	for _, e := range cl.Particles {
		out = append(out, Body{w: c.w, e: e})
	}
	return out
}

func (c Cluster) LinearDamping() float64 { return c.w.clusters.Get(c.e).LinearDamping }

func (c Cluster) AngularDamping() float64 { return c.w.clusters.Get(c.e).AngularDamping }

// Break frees piece i from the parent. It keeps the velocity it had while
// welded and the parent loses its mass. Returns false if i is out of range
// or already free.
func (c Cluster) Break(i int) bool {
	cl := c.w.clusters.Get(c.e)
	if i < 0 || i >= len(cl.Particles) {
		return false
	}
	e := cl.Particles[i]
	f := c.w.fragments.Get(e)
	if !f.Attached {
		return false
	}
	f.Attached = false
	piece := Body{w: c.w, e: e}
	piece.SetLinearDamping(cl.LinearDamping)
	piece.SetAngularDamping(cl.AngularDamping)

	pm := c.w.masses.Get(c.parent.e)
	pm.Mass -= piece.Mass()
	if pm.Mass <= 0 {
		// Last piece gone: the parent no longer floats anything.
		pm.Mass = 0
		c.parent.SetGravityEnabled(false)
		c.parent.SetSimulating(false)
	} else {
		pm.Inertia = SphereInertia(pm.Mass, 1)
	}
	return true
}

// Attached counts pieces still welded to the parent.
func (c Cluster) Attached() int {
	n := 0
	for _, e := range c.w.clusters.Get(c.e).Particles {
		if c.w.fragments.Get(e).Attached {
			n++
		}
	}
	return n
}

func rotationOf(def BodyDef) mgl64.Quat {
	if def.Rotation.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return def.Rotation.Normalize()
}

// SphereInertia is the diagonal inertia of a solid sphere.
func SphereInertia(mass, radius float64) mgl64.Vec3 {
	i := 0.4 * mass * radius * radius
	return mgl64.Vec3{i, i, i}
}

// BoxInertia is the diagonal inertia of a solid box with the given half
// extents.
func BoxInertia(mass float64, half mgl64.Vec3) mgl64.Vec3 {
	x, y, z := 2*half.X(), 2*half.Y(), 2*half.Z()
	k := mass / 12
	return mgl64.Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)}
}
