package buoyancy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertical velocity range fed into the wave push.
const (
	waveVelocityMin = -20.0
	waveVelocityMax = 150.0
)

// SignedRadius orients a test radius along gravity so inverted-gravity worlds
// measure depth from the other face of the point.
func SignedRadius(gravity, radius float64) float64 {
	return sign(gravity) * math.Abs(radius)
}

// DepthSample is how far the surface lies above the point's test face.
// The point is submerged iff the result is positive.
func DepthSample(surfaceHeight, pointZ, signedRadius float64) float64 {
	return surfaceHeight - (pointZ + signedRadius)
}

// DepthMultiplier ramps from 0 at the test face to 1 once the point is a full
// diameter under.
func DepthMultiplier(depth, radius float64) float64 {
	r := math.Abs(radius)
	if r == 0 {
		if depth > 0 {
			return 1
		}
		return 0
	}
	return clamp(depth/(2*r), 0, 1)
}

// BuoyantForce is the vertical lift of one point:
// displaced volume (mass/density) × fluid density × −gravity × share × multiplier.
func BuoyantForce(mass, density, fluidDensity, gravity, share, depthMul float64) float64 {
	if density <= 0 {
		return 0
	}
	return mass / density * fluidDensity * -gravity * share * depthMul
}

// DampingForce opposes the point velocity component-wise.
func DampingForce(vel, damper mgl64.Vec3, mass, depthMul float64) mgl64.Vec3 {
	return hadamard(vel, damper).Mul(-mass * depthMul)
}

// WaveForce pushes along the horizontal wave direction, strongest near the
// surface where the multiplier is small.
func WaveForce(dir mgl64.Vec2, mass, verticalVel, depthMul, multiplier, share float64) mgl64.Vec3 {
	v := clamp(verticalVel, waveVelocityMin, waveVelocityMax)
	return mgl64.Vec3{dir.X(), dir.Y(), 0}.Mul(mass * v * (1 - depthMul) * multiplier * share)
}

// clampVelocity rescales b's linear velocity to max along its current
// direction. Reports whether it did.
func clampVelocity(b Body, max float64) bool {
	v := b.LinearVelocity()
	speed := v.Len()
	if speed <= max || speed == 0 {
		return false
	}
	b.SetLinearVelocity(v.Mul(max / speed))
	return true
}

func hadamard(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
