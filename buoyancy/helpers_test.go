package buoyancy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/surface"
)

// fakeBody records what the engine does to it.
type fakeBody struct {
	id        uint64
	name      string
	mass      float64
	pos       mgl64.Vec3
	rot       mgl64.Quat
	linear    mgl64.Vec3
	angular   mgl64.Vec3
	linDamp   float64
	angDamp   float64
	kinematic bool
	noGravity bool
	sleeping  bool
	parent    *fakeBody

	force  mgl64.Vec3
	torque mgl64.Vec3
	pushes int
	wakes  int
}

func newFakeBody(mass float64, pos mgl64.Vec3) *fakeBody {
	return &fakeBody{mass: mass, pos: pos, rot: mgl64.QuatIdent()}
}

func (b *fakeBody) Mass() float64               { return b.mass }
func (b *fakeBody) Position() mgl64.Vec3        { return b.pos }
func (b *fakeBody) Rotation() mgl64.Quat        { return b.rot }
func (b *fakeBody) LinearVelocity() mgl64.Vec3  { return b.linear }
func (b *fakeBody) AngularVelocity() mgl64.Vec3 { return b.angular }
func (b *fakeBody) VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3 {
	return b.linear.Add(b.angular.Cross(p.Sub(b.pos)))
}
func (b *fakeBody) SetLinearVelocity(v mgl64.Vec3)  { b.linear = v }
func (b *fakeBody) SetAngularVelocity(w mgl64.Vec3) { b.angular = w }
func (b *fakeBody) SetPosition(p mgl64.Vec3)        { b.pos = p }
func (b *fakeBody) LinearDamping() float64          { return b.linDamp }
func (b *fakeBody) AngularDamping() float64         { return b.angDamp }
func (b *fakeBody) SetLinearDamping(d float64)      { b.linDamp = d }
func (b *fakeBody) SetAngularDamping(d float64)     { b.angDamp = d }
func (b *fakeBody) AddForceAtPoint(f, p mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.pos).Cross(f))
	b.pushes++
}
func (b *fakeBody) AddForce(f mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.pushes++
}
func (b *fakeBody) AddTorque(t mgl64.Vec3) { b.torque = b.torque.Add(t) }
func (b *fakeBody) Simulating() bool       { return !b.kinematic }
func (b *fakeBody) GravityEnabled() bool   { return !b.noGravity }

// Bone and Particle.
func (b *fakeBody) Name() string   { return b.name }
func (b *fakeBody) ID() uint64     { return b.id }
func (b *fakeBody) Sleeping() bool { return b.sleeping }
func (b *fakeBody) Wake() {
	b.sleeping = false
	b.wakes++
}
func (b *fakeBody) Parent() (Particle, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent, true
}

type fakeSkeleton []*fakeBody

func (s fakeSkeleton) Bones() []Bone {
	out := make([]Bone, len(s))
	for i, b := range s {
		out[i] = b
	}
	return out
}

type fakeCluster struct {
	particles []*fakeBody
	lin, ang  float64
}

func (c *fakeCluster) Particles() []Particle {
	out := make([]Particle, len(c.particles))
	for i, p := range c.particles {
		out[i] = p
	}
	return out
}
func (c *fakeCluster) LinearDamping() float64  { return c.lin }
func (c *fakeCluster) AngularDamping() float64 { return c.ang }

// calmParams disables everything but lift.
func calmParams() PointParams {
	p := DefaultPointParams()
	p.VelocityDamper = mgl64.Vec3{}
	p.WaveForces = false
	p.ClampMaxVelocity = false
	return p
}

func flat() surface.Flat {
	return surface.Flat{Level: 0, Direction: mgl64.Vec2{1, 0}}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func nearVec(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

// box returns the 12 outward-wound triangles of an axis-aligned box
// centered on the origin.
func box(hx, hy, hz float64) []Triangle {
	c := func(sx, sy, sz float64) mgl64.Vec3 { return mgl64.Vec3{sx * hx, sy * hy, sz * hz} }
	quad := func(a, b, c, d mgl64.Vec3) []Triangle {
		return []Triangle{{a, b, c}, {a, c, d}}
	}
	var tris []Triangle
	tris = append(tris, quad(c(-1, -1, -1), c(-1, 1, -1), c(1, 1, -1), c(1, -1, -1))...) // bottom
	tris = append(tris, quad(c(-1, -1, 1), c(1, -1, 1), c(1, 1, 1), c(-1, 1, 1))...)     // top
	tris = append(tris, quad(c(-1, -1, -1), c(1, -1, -1), c(1, -1, 1), c(-1, -1, 1))...) // -y
	tris = append(tris, quad(c(-1, 1, -1), c(-1, 1, 1), c(1, 1, 1), c(1, 1, -1))...)     // +y
	tris = append(tris, quad(c(-1, -1, -1), c(-1, -1, 1), c(-1, 1, 1), c(-1, 1, -1))...) // -x
	tris = append(tris, quad(c(1, -1, -1), c(1, 1, -1), c(1, 1, 1), c(1, -1, 1))...)     // +x
	return tris
}
