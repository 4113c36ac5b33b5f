package buoyancy

import "github.com/go-gl/mathgl/mgl64"

// MeshVertex is a world-space vertex with its signed height above the fluid
// surface. Negative heights are underwater.
type MeshVertex struct {
	Position mgl64.Vec3
	Height   float64
}

// Depth is the distance below the surface, clamped at zero.
func (v MeshVertex) Depth() float64 {
	if v.Height >= 0 {
		return 0
	}
	return -v.Height
}

// Orientation classifies a wetted piece by how it was cut from its parent.
type Orientation uint8

const (
	// Whole means the parent triangle was fully underwater.
	Whole Orientation = iota
	// ApexDown pieces have a waterline edge on top and a single vertex below.
	ApexDown
	// ApexUp pieces come from the quad left when one vertex stays dry.
	ApexUp
)

func (o Orientation) String() string {
	switch o {
	case Whole:
		return "whole"
	case ApexDown:
		return "apex-down"
	case ApexUp:
		return "apex-up"
	}
	return "unknown"
}

// SubmergedTriangle is one fully wetted piece of a mesh triangle. Winding and
// Normal are inherited from the parent.
type SubmergedTriangle struct {
	A, B, C     MeshVertex
	Normal      mgl64.Vec3
	Orientation Orientation
}

// Centroid returns the arithmetic mean of the vertices.
func (t SubmergedTriangle) Centroid() mgl64.Vec3 {
	return t.A.Position.Add(t.B.Position).Add(t.C.Position).Mul(1.0 / 3)
}

// CenterDepth is the depth at the centroid.
func (t SubmergedTriangle) CenterDepth() float64 {
	return (t.A.Depth() + t.B.Depth() + t.C.Depth()) / 3
}

// Area of the piece.
func (t SubmergedTriangle) Area() float64 {
	return TriangleArea(t.A.Position, t.B.Position, t.C.Position)
}

// TriangleArea is half the magnitude of the edge cross product. It equals
// Heron's formula on the side lengths without the cancellation near zero area.
func TriangleArea(a, b, c mgl64.Vec3) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Len()
}

// SplitTriangle appends the wetted pieces of triangle v to dst: nothing when
// dry, the whole triangle when fully under, one apex-down piece when one
// vertex is under and two apex-up pieces when two are. Cut points lie on the
// waterline with height zero.
func SplitTriangle(dst []SubmergedTriangle, v [3]MeshVertex, normal mgl64.Vec3) []SubmergedTriangle {
	under := 0
	for _, x := range v {
		if x.Height < 0 {
			under++
		}
	}
	switch under {
	case 0:
		return dst
	case 3:
		return append(dst, SubmergedTriangle{A: v[0], B: v[1], C: v[2], Normal: normal, Orientation: Whole})
	}

	// Rotate the odd vertex out to a, keeping winding.
	k := 0
	for i, x := range v {
		if (x.Height < 0) == (under == 1) {
			k = i
			break
		}
	}
	a, b, c := v[k], v[(k+1)%3], v[(k+2)%3]
	ab := waterline(a, b)
	ac := waterline(a, c)

	if under == 1 {
		return append(dst, SubmergedTriangle{A: a, B: ab, C: ac, Normal: normal, Orientation: ApexDown})
	}
	return append(dst,
		SubmergedTriangle{A: ab, B: b, C: c, Normal: normal, Orientation: ApexUp},
		SubmergedTriangle{A: ab, B: c, C: ac, Normal: normal, Orientation: ApexUp},
	)
}

// waterline interpolates the zero-height point on edge p-q. The endpoints
// are on opposite sides of the surface.
func waterline(p, q MeshVertex) MeshVertex {
	t := p.Height / (p.Height - q.Height)
	pos := p.Position.Add(q.Position.Sub(p.Position).Mul(t))
	return MeshVertex{Position: pos}
}
