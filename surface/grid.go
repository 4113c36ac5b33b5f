package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Grid holds surface heights sampled on a regular XY lattice and answers
// heights inside it by bilinear interpolation. It trades accuracy for far
// fewer oracle calls when many vertices share a small footprint.
type Grid struct {
	origin  mgl64.Vec2
	nx, ny  int
	step    mgl64.Vec2
	heights []float64
}

// NewGrid samples o at (res+1)^2 nodes covering [lo, hi].
// res < 1 is treated as 1.
func NewGrid(o Oracle, q Query, lo, hi mgl64.Vec2, res int) *Grid {
	if res < 1 {
		res = 1
	}
	g := &Grid{origin: lo, nx: res + 1, ny: res + 1}
	g.step = mgl64.Vec2{(hi.X() - lo.X()) / float64(res), (hi.Y() - lo.Y()) / float64(res)}
	g.heights = make([]float64, g.nx*g.ny)
	for j := 0; j < g.ny; j++ {
		for i := 0; i < g.nx; i++ {
			p := mgl64.Vec3{lo.X() + float64(i)*g.step.X(), lo.Y() + float64(j)*g.step.Y(), 0}
			g.heights[j*g.nx+i] = o.Sample(p, q).Height
		}
	}
	return g
}

// Height interpolates the surface height at xy. Points outside the grid are
// clamped to its border.
func (g *Grid) Height(xy mgl64.Vec2) float64 {
	fx := gridCoord(xy.X(), g.origin.X(), g.step.X(), g.nx)
	fy := gridCoord(xy.Y(), g.origin.Y(), g.step.Y(), g.ny)

	i0 := int(math.Floor(fx))
	j0 := int(math.Floor(fy))
	i1 := min(i0+1, g.nx-1)
	j1 := min(j0+1, g.ny-1)
	tx := fx - float64(i0)
	ty := fy - float64(j0)

	h00 := g.heights[j0*g.nx+i0]
	h10 := g.heights[j0*g.nx+i1]
	h01 := g.heights[j1*g.nx+i0]
	h11 := g.heights[j1*g.nx+i1]

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*ty
}

// gridCoord maps a world coordinate to a fractional cell index in [0, n-1].
func gridCoord(v, origin, step float64, n int) float64 {
	if step <= 0 {
		return 0
	}
	f := (v - origin) / step
	return math.Max(0, math.Min(f, float64(n-1)))
}

