// Package main provides CMA-ES calibration of a floating body's buoyancy
// parameters against a target draft.
package main

import (
	"github.com/pthm-cable/buoy/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Body density stays below the fluid so the body can float at all.
			{Name: "density", Path: "bodies[].density", Min: 50, Max: 1000},
			{Name: "fluid_linear_damping", Path: "point.fluid_linear_damping", Min: 0, Max: 5},
			{Name: "fluid_angular_damping", Path: "point.fluid_angular_damping", Min: 0, Max: 5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes parameter values into cfg for the named body.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, body string, values []float64) bool {
	b, ok := findBody(cfg, body)
	if !ok {
		return false
	}
	clamped := pv.Clamp(values)
	b.Density = clamped[0]
	cfg.Point.FluidLinearDamping = clamped[1]
	cfg.Point.FluidAngularDamping = clamped[2]
	return true
}

// ExtractFromConfig reads the current parameter values for the named body.
// A body without its own density uses point.mesh_density.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config, body string) ([]float64, bool) {
	b, ok := findBody(cfg, body)
	if !ok {
		return nil, false
	}
	density := b.Density
	if density <= 0 {
		density = cfg.Point.MeshDensity
	}
	return pv.Clamp([]float64{
		density,
		cfg.Point.FluidLinearDamping,
		cfg.Point.FluidAngularDamping,
	}), true
}

// findBody scans the list; the derived index goes stale once bodies are
// edited.
func findBody(cfg *config.Config, name string) (*config.BodyConfig, bool) {
	for i := range cfg.Bodies {
		if cfg.Bodies[i].Name == name {
			return &cfg.Bodies[i], true
		}
	}
	return nil, false
}
