package components

import "github.com/go-gl/mathgl/mgl64"

// Mass holds inertial properties. Inertia is the diagonal of the inertia
// tensor in body space.
type Mass struct {
	Mass    float64
	Inertia mgl64.Vec3
}

// Damping is applied as v /= 1 + dt*d each step.
type Damping struct {
	Linear  float64
	Angular float64
}

// Accumulator collects forces and torques until the next step.
type Accumulator struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// Dynamics flags how the integrator treats a body.
type Dynamics struct {
	Simulating bool    // false for kinematic bodies
	Gravity    bool    // gravity acts on the body
	Sleeping   bool    // integration suspended until woken
	IdleTime   float64 // seconds spent below the sleep threshold
}
