package components

import "github.com/go-gl/mathgl/mgl64"

// Transform is the world pose of a body's center of mass.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Velocity holds linear and angular velocity in world space.
type Velocity struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3 // rad/s
}
