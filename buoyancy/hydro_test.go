package buoyancy

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

var still = Motion{}

func seawater() HydroParams {
	return HydroParams{FluidDensity: 1025, Gravity: 9.8, DensityCorrection: 1}
}

func TestIntegrateHorizontalTriangle(t *testing.T) {
	// Clockwise seen from above, so the outward normal points down.
	tri := SubmergedTriangle{
		A:      MeshVertex{Position: mgl64.Vec3{0, 0, -2}, Height: -2},
		B:      MeshVertex{Position: mgl64.Vec3{0, 1, -2}, Height: -2},
		C:      MeshVertex{Position: mgl64.Vec3{1, 0, -2}, Height: -2},
		Normal: mgl64.Vec3{0, 0, -1},
	}
	tf := Integrate(tri, seawater(), still)

	want := mgl64.Vec3{0, 0, 0.5 * 1025 * 9.8 * 2}
	if !nearVec(tf.Force, want, 1e-9) {
		t.Errorf("force = %v, want %v", tf.Force, want)
	}
	if !nearVec(tf.PressureCenter, tri.Centroid(), 1e-12) {
		t.Errorf("pressure center = %v, want centroid %v", tf.PressureCenter, tri.Centroid())
	}
	if tf.CenterDepth != 2 {
		t.Errorf("CenterDepth = %v, want 2", tf.CenterDepth)
	}

	hp := seawater()
	hp.DensityCorrection = 0.5
	if got := Integrate(tri, hp, still).Force; !nearVec(got, want.Mul(0.5), 1e-9) {
		t.Errorf("corrected force = %v, want %v", got, want.Mul(0.5))
	}
}

func TestIntegrateDegenerate(t *testing.T) {
	tri := SubmergedTriangle{
		A:      MeshVertex{Position: mgl64.Vec3{0, 0, -1}, Height: -1},
		B:      MeshVertex{Position: mgl64.Vec3{1, 0, -1}, Height: -1},
		C:      MeshVertex{Position: mgl64.Vec3{2, 0, -1}, Height: -1},
		Normal: mgl64.Vec3{0, 0, -1},
	}
	tf := Integrate(tri, seawater(), Motion{Linear: mgl64.Vec3{3, 0, 0}})
	if tf.Force != (mgl64.Vec3{}) || tf.Area != 0 {
		t.Errorf("degenerate triangle produced %+v", tf)
	}
}

func TestIntegrateHydrodynamics(t *testing.T) {
	tri := SubmergedTriangle{
		A:      MeshVertex{Position: mgl64.Vec3{0, 0, -1}, Height: -1},
		B:      MeshVertex{Position: mgl64.Vec3{0, 2, -1}, Height: -1},
		C:      MeshVertex{Position: mgl64.Vec3{2, 0, -1}, Height: -1},
		Normal: mgl64.Vec3{0, 0, -1},
	}
	area := 2.0
	hp := HydroParams{
		FluidDensity: 1025,
		Drag:         Coefficients{Linear: 15, Quadratic: 15, Falloff: 1},
		Suction:      Coefficients{Linear: 5, Quadratic: 5, Falloff: 1},
		Viscous:      0.09,
		Dynamics:     true,
	}

	tests := []struct {
		name string
		vel  mgl64.Vec3
		want mgl64.Vec3
	}{
		{"pressing down", mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 30 * area}},
		{"lifting off", mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, -10 * area}},
		{"sliding", mgl64.Vec3{2, 0, 0}, mgl64.Vec3{-0.5 * 1025 * 0.09 * area * 2 * 2, 0, 0}},
		{"still", mgl64.Vec3{}, mgl64.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := Integrate(tri, hp, Motion{Linear: tt.vel})
			if !nearVec(tf.Hydrodynamic, tt.want, 1e-9) {
				t.Errorf("hydrodynamic = %v, want %v", tf.Hydrodynamic, tt.want)
			}
			if tf.Hydrostatic != (mgl64.Vec3{}) {
				t.Errorf("hydrostatic = %v without gravity", tf.Hydrostatic)
			}
		})
	}

	hp.Dynamics = false
	if tf := Integrate(tri, hp, Motion{Linear: mgl64.Vec3{0, 0, -1}}); tf.Hydrodynamic != (mgl64.Vec3{}) {
		t.Errorf("dynamics disabled but got %v", tf.Hydrodynamic)
	}
}

// numericCenter integrates depth-weighted position over the triangle on an
// n×n barycentric lattice.
func numericCenter(t SubmergedTriangle, n int) mgl64.Vec3 {
	a, b, c := t.A.Position, t.B.Position, t.C.Position
	da, db, dc := t.A.Depth(), t.B.Depth(), t.C.Depth()
	var sum mgl64.Vec3
	var w float64
	add := func(u, v float64) {
		p := a.Add(b.Sub(a).Mul(u)).Add(c.Sub(a).Mul(v))
		d := da + (db-da)*u + (dc-da)*v
		sum = sum.Add(p.Mul(d))
		w += d
	}
	fn := float64(n)
	for i := 0; i < n; i++ {
		for j := 0; i+j < n; j++ {
			add((float64(i)+1.0/3)/fn, (float64(j)+1.0/3)/fn)
			if i+j < n-1 {
				add((float64(i)+2.0/3)/fn, (float64(j)+2.0/3)/fn)
			}
		}
	}
	return sum.Mul(1 / w)
}

func vertical(a, b, c mgl64.Vec3) SubmergedTriangle {
	v := func(p mgl64.Vec3) MeshVertex { return MeshVertex{Position: p, Height: p.Z()} }
	return SubmergedTriangle{A: v(a), B: v(b), C: v(c), Normal: mgl64.Vec3{0, -1, 0}}
}

func TestPressureCenter(t *testing.T) {
	tests := []struct {
		name  string
		tri   SubmergedTriangle
		exact *mgl64.Vec3
	}{
		{
			// base on the surface, apex at depth h: center at h/2
			name:  "apex down at surface",
			tri:   vertical(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, -3}),
			exact: &mgl64.Vec3{0, 0, -1.5},
		},
		{
			// apex on the surface, base at depth h: center at 3h/4
			name:  "apex up at surface",
			tri:   vertical(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, -4}, mgl64.Vec3{-1, 0, -4}),
			exact: &mgl64.Vec3{0, 0, -3},
		},
		{
			name: "general deep",
			tri:  vertical(mgl64.Vec3{0, 0, -1}, mgl64.Vec3{3, 0, -2.5}, mgl64.Vec3{1, 0, -6}),
		},
		{
			name: "general touching",
			tri:  vertical(mgl64.Vec3{-2, 0, 0}, mgl64.Vec3{2, 0, -1}, mgl64.Vec3{0.5, 0, -3}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PressureCenter(tt.tri)
			want := numericCenter(tt.tri, 300)
			if !nearVec(got, want, 1e-3) {
				t.Errorf("PressureCenter = %v, numeric %v", got, want)
			}
			if tt.exact != nil && !nearVec(got, *tt.exact, 1e-9) {
				t.Errorf("PressureCenter = %v, want %v", got, *tt.exact)
			}
			if got.Z() >= tt.tri.Centroid().Z() {
				t.Errorf("center %v not below centroid %v", got, tt.tri.Centroid())
			}
		})
	}
}
