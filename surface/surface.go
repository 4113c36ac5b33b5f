// Package surface describes the fluid surface as seen by the force engine:
// a height (and optionally horizontal displacement) at a world position.
package surface

import "github.com/go-gl/mathgl/mgl64"

// Sample is a queried surface height and horizontal displacement.
type Sample struct {
	Height       float64
	Displacement mgl64.Vec2
}

// Query selects how a surface sample is computed.
type Query struct {
	Time         float64 // sample time, used when Timed is set
	Timed        bool    // false = oracle uses its own clock
	Displacement bool    // fill Sample.Displacement
	HighAccuracy bool    // two-iteration lookup that corrects for horizontal displacement
}

// Oracle answers surface queries. Implementations must be cheap enough to
// call once per point or vertex per body per step.
type Oracle interface {
	Sample(pos mgl64.Vec3, q Query) Sample
	// WaveDirection is the global direction waves push floating bodies in.
	WaveDirection() mgl64.Vec2
}

// Flat is a still surface at a constant height.
type Flat struct {
	Level     float64
	Direction mgl64.Vec2
}

// Sample returns the flat level. Displacement is always zero.
func (f Flat) Sample(mgl64.Vec3, Query) Sample {
	return Sample{Height: f.Level}
}

// WaveDirection returns the configured direction.
func (f Flat) WaveDirection() mgl64.Vec2 {
	return f.Direction
}
