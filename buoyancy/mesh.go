package buoyancy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/buoy/surface"
)

// Triangle is three body-local vertices wound counter-clockwise when seen
// from outside the hull.
type Triangle [3]mgl64.Vec3

// MeshParams configures the mesh model.
type MeshParams struct {
	FluidDensity      float64
	Drag              Coefficients
	Suction           Coefficients
	Viscous           float64
	DensityCorrection float64
	Dynamics          bool

	// Slamming: a triangle whose wetted flux grows faster than
	// SlamThreshold gets a stopping force scaled by
	// (accel/MaxSlamAcceleration)^ImpactCoefficient.
	ImpactCoefficient   float64
	MaxSlamAcceleration float64
	SlamThreshold       float64

	BuoyancyReduction float64 // heave damping, per kg
	PitchReduction    float64 // roll/pitch damping, per kg

	GridResolution int // >0 samples the surface on a grid over the hull
	TwoIterations  bool
}

// DefaultMeshParams returns the stock tuning.
func DefaultMeshParams() MeshParams {
	return MeshParams{
		FluidDensity:        1025,
		Drag:                Coefficients{Linear: 15, Quadratic: 15, Falloff: 1},
		Suction:             Coefficients{Linear: 15, Quadratic: 15, Falloff: 1},
		Viscous:             0.09,
		DensityCorrection:   1,
		Dynamics:            true,
		ImpactCoefficient:   2,
		MaxSlamAcceleration: 3000,
		SlamThreshold:       1,
	}
}

// MeshEngine integrates fluid pressure over a triangle hull each step and
// applies the sum as one force and one torque about the center of mass.
type MeshEngine struct {
	Surface surface.Oracle
	Body    Body
	Params  MeshParams

	triangles []Triangle
	areas     []float64
	totalArea float64

	prevArea  []float64
	prevSpeed []float64
	primed    bool

	verts   [][3]MeshVertex
	scratch []SubmergedTriangle
}

// NewMeshEngine binds a hull to a body.
func NewMeshEngine(o surface.Oracle, b Body, tris []Triangle, params MeshParams) *MeshEngine {
	m := &MeshEngine{Surface: o, Body: b, Params: params}
	m.SetTriangles(tris)
	return m
}

// SetTriangles replaces the hull. Per-triangle state is resized and the slam
// history restarts, so the next step cannot raise a slam.
func (m *MeshEngine) SetTriangles(tris []Triangle) {
	n := len(tris)
	m.triangles = tris
	m.areas = make([]float64, n)
	m.prevArea = make([]float64, n)
	m.prevSpeed = make([]float64, n)
	m.verts = make([][3]MeshVertex, n)
	m.primed = false
	m.totalArea = 0
	for i, t := range tris {
		m.areas[i] = TriangleArea(t[0], t[1], t[2])
		m.totalArea += m.areas[i]
	}
}

// Triangles returns the hull in body space.
func (m *MeshEngine) Triangles() []Triangle { return m.triangles }

// TotalArea is the hull surface area.
func (m *MeshEngine) TotalArea() float64 { return m.totalArea }

// Step implements Strategy.
func (m *MeshEngine) Step(env Env) Report {
	r := Report{Points: len(m.triangles)}
	if m.Surface == nil || m.Body == nil || len(m.triangles) == 0 || !m.Body.Simulating() {
		r.Skipped = true
		return r
	}

	hp := HydroParams{
		FluidDensity:      m.Params.FluidDensity,
		Drag:              m.Params.Drag,
		Suction:           m.Params.Suction,
		Viscous:           m.Params.Viscous,
		DensityCorrection: m.Params.DensityCorrection,
		Dynamics:          m.Params.Dynamics,
	}
	if m.Body.GravityEnabled() {
		hp.Gravity = math.Abs(env.Gravity)
	}

	m.transform(env)

	motion := MotionOf(m.Body)
	mass := m.Body.Mass()
	com := motion.Center
	var force, torque mgl64.Vec3

	for i := range m.triangles {
		v := m.verts[i]
		a, b, c := v[0].Position, v[1].Position, v[2].Position
		cross := b.Sub(a).Cross(c.Sub(a))
		l := cross.Len()
		if l < 2*areaEpsilon {
			m.prevArea[i], m.prevSpeed[i] = 0, 0
			continue
		}
		n := cross.Mul(1 / l)

		m.scratch = SplitTriangle(m.scratch[:0], v, n)
		var wet float64
		var wetCenter mgl64.Vec3
		for _, sub := range m.scratch {
			tf := Integrate(sub, hp, motion)
			if tf.Area == 0 {
				continue
			}
			force = force.Add(tf.Force)
			torque = torque.Add(tf.PressureCenter.Sub(com).Cross(tf.Force))
			wet += tf.Area
			wetCenter = wetCenter.Add(sub.Centroid().Mul(tf.Area))
		}
		if wet > 0 {
			r.Submerged++
			r.WettedArea += wet
			wetCenter = wetCenter.Mul(1 / wet)
		}

		vel := motion.At(a.Add(b).Add(c).Mul(1.0 / 3))
		vn := vel.Dot(n)
		if f, ok := m.slam(i, wet, vn, vel.Len(), n, mass, env.Dt); ok {
			force = force.Add(f)
			torque = torque.Add(wetCenter.Sub(com).Cross(f))
			r.Slams++
		}
		m.prevArea[i], m.prevSpeed[i] = wet, vn
	}
	m.primed = true

	if r.WettedArea > 0 && m.totalArea > 0 {
		frac := r.WettedArea / m.totalArea
		if m.Params.BuoyancyReduction > 0 {
			force = force.Sub(mgl64.Vec3{0, 0, motion.Linear.Z()}.Mul(m.Params.BuoyancyReduction * mass * frac))
		}
		if m.Params.PitchReduction > 0 {
			w := motion.Angular
			torque = torque.Sub(mgl64.Vec3{w.X(), w.Y(), 0}.Mul(m.Params.PitchReduction * mass * frac))
		}
	}

	if r.Submerged > 0 {
		m.Body.AddForce(force)
		m.Body.AddTorque(torque)
	}
	r.Force, r.Torque = force, torque
	return r
}

// transform fills m.verts with world positions and heights above the surface.
func (m *MeshEngine) transform(env Env) {
	pos, rot := m.Body.Position(), m.Body.Rotation()
	lo := mgl64.Vec2{math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec2{math.Inf(-1), math.Inf(-1)}
	for i, t := range m.triangles {
		for j, p := range t {
			w := pos.Add(rot.Rotate(p))
			m.verts[i][j].Position = w
			lo = mgl64.Vec2{math.Min(lo.X(), w.X()), math.Min(lo.Y(), w.Y())}
			hi = mgl64.Vec2{math.Max(hi.X(), w.X()), math.Max(hi.Y(), w.Y())}
		}
	}

	q := surface.Query{Time: env.Time, Timed: env.Timed, HighAccuracy: m.Params.TwoIterations}
	if m.Params.GridResolution > 0 {
		g := surface.NewGrid(m.Surface, q, lo, hi, m.Params.GridResolution)
		for i := range m.verts {
			for j := range m.verts[i] {
				w := m.verts[i][j].Position
				m.verts[i][j].Height = w.Z() - g.Height(w.Vec2())
			}
		}
		return
	}
	for i := range m.verts {
		for j := range m.verts[i] {
			w := m.verts[i][j].Position
			m.verts[i][j].Height = w.Z() - m.Surface.Sample(w, q).Height
		}
	}
}

// slam returns the impact force on triangle i when its wetted flux grew
// sharply since the previous step while moving into the fluid.
func (m *MeshEngine) slam(i int, wet, vn, speed float64, n mgl64.Vec3, mass, dt float64) (mgl64.Vec3, bool) {
	if !m.primed || dt <= 0 || wet == 0 || vn <= 0 || m.Params.MaxSlamAcceleration <= 0 || m.areas[i] == 0 {
		return mgl64.Vec3{}, false
	}
	accel := (wet*vn - m.prevArea[i]*m.prevSpeed[i]) / (m.areas[i] * dt)
	if accel <= m.Params.SlamThreshold {
		return mgl64.Vec3{}, false
	}
	ratio := clamp(accel/m.Params.MaxSlamAcceleration, 0, 1)
	stop := mass * vn * (wet / m.totalArea) / dt
	cos := vn / speed
	return n.Mul(-stop * math.Pow(ratio, m.Params.ImpactCoefficient) * cos), true
}
