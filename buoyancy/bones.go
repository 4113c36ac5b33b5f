package buoyancy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bone is one physics body of a skeletal mesh.
type Bone interface {
	Body
	Name() string
}

// Skeleton lists the bones of a skeletal mesh.
type Skeleton interface {
	Bones() []Bone
}

// BoneOverride replaces density or radius for a named bone. Zero fields keep
// the engine default.
type BoneOverride struct {
	Name    string
	Density float64
	Radius  float64
}

// BonePoints samples each gravity-enabled bone at its center of mass. Each
// bone is its own body, so shares are 1 and damping is applied per bone as a
// direct velocity attenuation.
type BonePoints struct {
	Skeleton  Skeleton
	Overrides []BoneOverride

	bones []Bone
}

// NewBonePoints wraps s.
func NewBonePoints(s Skeleton, overrides []BoneOverride) *BonePoints {
	return &BonePoints{Skeleton: s, Overrides: overrides}
}

func (b *BonePoints) Prepare(*PointParams) int {
	b.bones = b.bones[:0]
	if b.Skeleton == nil {
		return 0
	}
	for _, bone := range b.Skeleton.Bones() {
		if bone.GravityEnabled() {
			b.bones = append(b.bones, bone)
		}
	}
	return len(b.bones)
}

func (b *BonePoints) Len() int { return len(b.bones) }

func (b *BonePoints) Probe(i int, params *PointParams) (Probe, bool) {
	if i < 0 || i >= len(b.bones) {
		return Probe{}, false
	}
	bone := b.bones[i]
	radius, density := params.TestPointRadius, params.MeshDensity
	if o, ok := b.override(bone.Name()); ok {
		radius = resolveRadius(o.Radius, radius)
		density = resolveDensity(o.Density, density)
	}
	return Probe{
		Index:    i,
		Position: bone.Position(),
		Radius:   math.Abs(radius),
		Density:  density,
		Mass:     bone.Mass(),
		Share:    1,
		Body:     bone,
	}, true
}

func (b *BonePoints) override(name string) (BoneOverride, bool) {
	for _, o := range b.Overrides {
		if o.Name == name {
			return o, true
		}
	}
	return BoneOverride{}, false
}

func (b *BonePoints) Apply(p Probe, f mgl64.Vec3) {
	p.Body.AddForce(f)
}

// SettlePoint attenuates a wet bone's velocity by a tenth of the fluid
// damping per step. The angular term is read in degrees.
func (b *BonePoints) SettlePoint(p Probe, submerged bool, params *PointParams) bool {
	if !submerged {
		return false
	}
	v := p.Body.LinearVelocity()
	p.Body.SetLinearVelocity(v.Sub(v.Mul(params.FluidLinearDamping / 10)))
	w := p.Body.AngularVelocity()
	p.Body.SetAngularVelocity(w.Sub(w.Mul(mgl64.DegToRad(params.FluidAngularDamping / 10))))

	if params.ClampMaxVelocity {
		return clampVelocity(p.Body, params.MaxUnderwaterVelocity)
	}
	return false
}

func (b *BonePoints) Settle(int, int, *PointParams) bool { return false }
