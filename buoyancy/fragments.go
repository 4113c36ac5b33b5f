package buoyancy

import "github.com/go-gl/mathgl/mgl64"

// Particle is one rigid piece of a fractured body.
type Particle interface {
	Body
	Sleeper
	ID() uint64
	// Parent returns the cluster this piece is still welded into, if any.
	Parent() (Particle, bool)
}

// Cluster lists the particles of a fractured body and its dry damping.
type Cluster interface {
	Particles() []Particle
	LinearDamping() float64
	AngularDamping() float64
}

// FragmentPoints samples each free particle once. Welded pieces resolve to
// their cluster parent, and a parent reached through several children is
// evaluated only on its first visit.
type FragmentPoints struct {
	Cluster Cluster

	particles []Particle
	seen      map[uint64]struct{}
}

// NewFragmentPoints wraps c.
func NewFragmentPoints(c Cluster) *FragmentPoints {
	return &FragmentPoints{Cluster: c, seen: make(map[uint64]struct{})}
}

func (f *FragmentPoints) Prepare(*PointParams) int {
	clear(f.seen)
	f.particles = f.particles[:0]
	if f.Cluster == nil {
		return 0
	}
	f.particles = append(f.particles, f.Cluster.Particles()...)
	return len(f.particles)
}

func (f *FragmentPoints) Len() int { return len(f.particles) }

func (f *FragmentPoints) Probe(i int, params *PointParams) (Probe, bool) {
	if i < 0 || i >= len(f.particles) {
		return Probe{}, false
	}
	p := f.particles[i]
	if parent, ok := p.Parent(); ok {
		p = parent
	}
	if _, dup := f.seen[p.ID()]; dup {
		return Probe{Index: i, Skip: true}, true
	}
	f.seen[p.ID()] = struct{}{}

	return Probe{
		Index:    i,
		Position: p.Position(),
		Radius:   resolveRadius(0, params.TestPointRadius),
		Density:  params.MeshDensity,
		Mass:     p.Mass(),
		Share:    1,
		Body:     p,
	}, true
}

// Apply wakes a sleeping particle before pushing it.
func (f *FragmentPoints) Apply(p Probe, force mgl64.Vec3) {
	if s, ok := p.Body.(Sleeper); ok && s.Sleeping() {
		s.Wake()
	}
	p.Body.AddForce(force)
}

// SettlePoint sets the particle's ether drag: base damping, plus fluid
// damping when wet.
func (f *FragmentPoints) SettlePoint(p Probe, submerged bool, params *PointParams) bool {
	wet := 0.0
	if submerged {
		wet = 1
	}
	p.Body.SetLinearDamping(f.Cluster.LinearDamping() + params.FluidLinearDamping*wet)
	p.Body.SetAngularDamping(f.Cluster.AngularDamping() + params.FluidAngularDamping*wet)

	if submerged && params.ClampMaxVelocity {
		return clampVelocity(p.Body, params.MaxUnderwaterVelocity)
	}
	return false
}

func (f *FragmentPoints) Settle(int, int, *PointParams) bool { return false }
