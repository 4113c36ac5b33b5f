package config

import (
	"errors"
	"fmt"
)

var (
	validKinds  = map[string]bool{"rigid": true, "skeletal": true, "fragment": true}
	validModels = map[string]bool{"point": true, "mesh": true}
)

// Validate reports every problem found, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Simulation.DT <= 0 {
		bad("simulation.dt must be positive, got %v", c.Simulation.DT)
	}
	if c.Simulation.SleepTime < 0 {
		bad("simulation.sleep_time must not be negative")
	}
	if c.Fluid.Density <= 0 {
		bad("fluid.density must be positive, got %v", c.Fluid.Density)
	}
	if c.Point.MeshDensity <= 0 {
		bad("point.mesh_density must be positive, got %v", c.Point.MeshDensity)
	}
	if c.Point.ClampMaxVelocity && c.Point.MaxUnderwaterVelocity <= 0 {
		bad("point.max_underwater_velocity must be positive when clamping")
	}
	if c.Mesh.GridResolution < 0 {
		bad("mesh.grid_resolution must not be negative")
	}
	for i, w := range c.Surface.Waves {
		if w.Wavelength <= 0 {
			bad("surface.waves[%d].wavelength must be positive", i)
		}
	}
	if c.Surface.Chop.Amplitude < 0 || c.Surface.Chop.Scale < 0 {
		bad("surface.chop amplitude and scale must not be negative")
	}
	if c.Telemetry.StatsWindow <= 0 {
		bad("telemetry.stats_window must be positive")
	}

	seen := make(map[string]bool, len(c.Bodies))
	for i := range c.Bodies {
		b := &c.Bodies[i]
		where := fmt.Sprintf("bodies[%d] %q", i, b.Name)
		if b.Name == "" {
			bad("bodies[%d] has no name", i)
		} else if seen[b.Name] {
			bad("%s: duplicate name", where)
		}
		seen[b.Name] = true

		if !validKinds[b.Kind] {
			bad("%s: unknown kind %q", where, b.Kind)
			continue
		}
		if !validModels[b.Model] {
			bad("%s: unknown model %q", where, b.Model)
		}
		if b.Model == "mesh" && b.Kind != "rigid" {
			bad("%s: the mesh model needs a rigid body", where)
		}
		if b.Model == "mesh" && (b.Hull[0] <= 0 || b.Hull[1] <= 0 || b.Hull[2] <= 0) {
			bad("%s: mesh hull extents must be positive", where)
		}
		if b.Density < 0 {
			bad("%s: density must not be negative", where)
		}

		switch b.Kind {
		case "rigid":
			if b.Mass <= 0 {
				bad("%s: mass must be positive", where)
			}
		case "skeletal":
			if len(b.Bones) == 0 {
				bad("%s: skeletal body has no bones", where)
			}
			for j, bone := range b.Bones {
				if bone.Name == "" || bone.Mass <= 0 {
					bad("%s: bone %d needs a name and positive mass", where, j)
				}
			}
		case "fragment":
			if len(b.Pieces) == 0 {
				bad("%s: fragment body has no pieces", where)
			}
			for j, p := range b.Pieces {
				if p.Mass <= 0 {
					bad("%s: piece %d needs positive mass", where, j)
				}
			}
		}
	}
	return errors.Join(errs...)
}
