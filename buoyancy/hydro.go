package buoyancy

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	areaEpsilon  = 1e-9
	depthEpsilon = 1e-9
	speedEpsilon = 1e-6
)

// Motion is a body's velocity state, enough to find the velocity of any
// point on it.
type Motion struct {
	Center  mgl64.Vec3
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// MotionOf snapshots b.
func MotionOf(b Body) Motion {
	return Motion{Center: b.Position(), Linear: b.LinearVelocity(), Angular: b.AngularVelocity()}
}

// At returns the velocity of world point p.
func (m Motion) At(p mgl64.Vec3) mgl64.Vec3 {
	return m.Linear.Add(m.Angular.Cross(p.Sub(m.Center)))
}

// Coefficients shape a pressure-drag response: linear and quadratic speed
// terms and the falloff power on the incidence cosine.
type Coefficients struct {
	Linear    float64
	Quadratic float64
	Falloff   float64
}

// HydroParams configures per-triangle force integration.
type HydroParams struct {
	FluidDensity      float64
	Gravity           float64      // magnitude
	Drag              Coefficients // face advancing into the fluid
	Suction           Coefficients // face retreating from the fluid
	Viscous           float64
	DensityCorrection float64
	Dynamics          bool // include pressure drag and viscous terms
}

// TriangleForce is the integrated load on one wetted piece.
type TriangleForce struct {
	Area           float64
	CenterDepth    float64
	PressureCenter mgl64.Vec3
	Hydrostatic    mgl64.Vec3
	Hydrodynamic   mgl64.Vec3
	Force          mgl64.Vec3
}

// Integrate computes the hydrostatic and hydrodynamic force on t and where it
// acts. Degenerate pieces yield a zero force.
func Integrate(t SubmergedTriangle, hp HydroParams, m Motion) TriangleForce {
	area := t.Area()
	if area < areaEpsilon {
		return TriangleForce{}
	}
	tf := TriangleForce{
		Area:           area,
		CenterDepth:    t.CenterDepth(),
		PressureCenter: PressureCenter(t),
	}

	dc := hp.DensityCorrection
	if dc == 0 {
		dc = 1
	}
	pressure := hp.FluidDensity * hp.Gravity * tf.CenterDepth * dc
	tf.Hydrostatic = t.Normal.Mul(-area * pressure)

	if hp.Dynamics {
		tf.Hydrodynamic = hydrodynamic(t.Normal, area, m.At(t.Centroid()), hp)
	}
	tf.Force = tf.Hydrostatic.Add(tf.Hydrodynamic)
	return tf
}

// hydrodynamic is pressure drag along the normal plus viscous drag along the
// face, for a face moving at vel through still fluid.
func hydrodynamic(n mgl64.Vec3, area float64, vel mgl64.Vec3, hp HydroParams) mgl64.Vec3 {
	speed := vel.Len()
	if speed < speedEpsilon {
		return mgl64.Vec3{}
	}
	cos := vel.Dot(n) / speed

	var f mgl64.Vec3
	if cos > 0 {
		c := hp.Drag
		mag := (c.Linear*speed + c.Quadratic*speed*speed) * area * math.Pow(cos, c.Falloff)
		f = n.Mul(-mag)
	} else if cos < 0 {
		c := hp.Suction
		mag := (c.Linear*speed + c.Quadratic*speed*speed) * area * math.Pow(-cos, c.Falloff)
		f = n.Mul(mag)
	}

	vt := vel.Sub(n.Mul(vel.Dot(n)))
	if st := vt.Len(); st > 0 {
		f = f.Add(vt.Mul(-0.5 * hp.FluidDensity * hp.Viscous * area * st))
	}
	return f
}

// PressureCenter is where the hydrostatic resultant on t acts. Pressure grows
// linearly with depth, so the point sits below the centroid. The piece is cut
// at its middle-depth vertex into two triangles that each have a horizontal
// edge, and their closed-form centers are blended by force. The cut covers
// apex-up and apex-down pieces alike (one half is empty when an edge already
// lies on a level), so t.Orientation is not consulted.
func PressureCenter(t SubmergedTriangle) mgl64.Vec3 {
	v := [3]MeshVertex{t.A, t.B, t.C}
	sort.Slice(v[:], func(i, j int) bool { return v[i].Depth() < v[j].Depth() })
	top, mid, bot := v[0], v[1], v[2]
	zt, zm, zb := top.Depth(), mid.Depth(), bot.Depth()

	if zb-zt < depthEpsilon {
		return t.Centroid()
	}

	// q is on the top-bottom edge at the middle vertex's depth.
	q := top.Position.Add(bot.Position.Sub(top.Position).Mul((zm - zt) / (zb - zt)))
	base := mid.Position.Add(q).Mul(0.5)

	var sum mgl64.Vec3
	var weight float64

	// Upper piece: horizontal edge at the bottom, apex above.
	if h := zm - zt; h > depthEpsilon {
		a := TriangleArea(top.Position, mid.Position, q)
		w := a * (zt + 2*zm) / 3
		c := top.Position.Add(base.Sub(top.Position).Mul((4*zt + 3*h) / (6*zt + 4*h)))
		sum = sum.Add(c.Mul(w))
		weight += w
	}
	// Lower piece: horizontal edge on top, apex below.
	if h := zb - zm; h > depthEpsilon {
		a := TriangleArea(bot.Position, mid.Position, q)
		w := a * (2*zm + zb) / 3
		den := 6*zm + 2*h
		c := base.Add(bot.Position.Sub(base).Mul((2*zm + h) / den))
		sum = sum.Add(c.Mul(w))
		weight += w
	}
	if weight <= 0 {
		return t.Centroid()
	}
	return sum.Mul(1 / weight)
}
