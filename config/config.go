// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Fluid      FluidConfig      `yaml:"fluid"`
	Surface    SurfaceConfig    `yaml:"surface"`
	Point      PointConfig      `yaml:"point"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Stabilizer StabilizerConfig `yaml:"stabilizer"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bodies     []BodyConfig     `yaml:"bodies"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds integrator parameters.
type SimulationConfig struct {
	DT         float64 `yaml:"dt"`
	Gravity    float64 `yaml:"gravity"` // signed, negative pulls down
	SleepSpeed float64 `yaml:"sleep_speed"`
	SleepTime  float64 `yaml:"sleep_time"` // 0 disables sleeping
}

// FluidConfig holds properties of the water.
type FluidConfig struct {
	Density float64 `yaml:"density"`
}

// SurfaceConfig describes the water surface.
type SurfaceConfig struct {
	Level         float64      `yaml:"level"`
	WaveDirection [2]float64   `yaml:"wave_direction"`
	Memoize       bool         `yaml:"memoize"`
	Waves         []WaveConfig `yaml:"waves"`
	Chop          ChopConfig   `yaml:"chop"`
}

// WaveConfig is one Gerstner component.
type WaveConfig struct {
	Amplitude  float64    `yaml:"amplitude"`
	Wavelength float64    `yaml:"wavelength"`
	Speed      float64    `yaml:"speed"`
	Direction  [2]float64 `yaml:"direction"`
	Steepness  float64    `yaml:"steepness"`
}

// ChopConfig adds simplex-noise ripples over the waves. Zero amplitude
// disables it.
type ChopConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Scale     float64 `yaml:"scale"` // cycles per meter
	Speed     float64 `yaml:"speed"` // cycles per second
	Seed      int64   `yaml:"seed"`
}

// PointConfig holds point-sampling parameters shared by rigid, skeletal and
// fragment bodies.
type PointConfig struct {
	MeshDensity           float64    `yaml:"mesh_density"`
	TestPointRadius       float64    `yaml:"test_point_radius"`
	FluidLinearDamping    float64    `yaml:"fluid_linear_damping"`
	FluidAngularDamping   float64    `yaml:"fluid_angular_damping"`
	VelocityDamper        [3]float64 `yaml:"velocity_damper"`
	ClampMaxVelocity      bool       `yaml:"clamp_max_velocity"`
	MaxUnderwaterVelocity float64    `yaml:"max_underwater_velocity"`
	WaveForces            bool       `yaml:"wave_forces"`
	WaveForceMultiplier   float64    `yaml:"wave_force_multiplier"`
	SnapToSurface         bool       `yaml:"snap_to_surface"`
	TwoIterations         bool       `yaml:"two_iterations"`
}

// MeshConfig holds triangle-integration parameters.
type MeshConfig struct {
	Drag                [3]float64 `yaml:"drag"`    // linear, quadratic, falloff power
	Suction             [3]float64 `yaml:"suction"` // linear, quadratic, falloff power
	Viscous             float64    `yaml:"viscous"`
	DensityCorrection   float64    `yaml:"density_correction"`
	Dynamics            bool       `yaml:"dynamics"`
	ImpactCoefficient   float64    `yaml:"impact_coefficient"`
	MaxSlamAcceleration float64    `yaml:"max_slam_acceleration"`
	SlamThreshold       float64    `yaml:"slam_threshold"`
	BuoyancyReduction   float64    `yaml:"buoyancy_reduction"`
	PitchReduction      float64    `yaml:"pitch_reduction"`
	GridResolution      int        `yaml:"grid_resolution"`
	TwoIterations       bool       `yaml:"two_iterations"`
}

// StabilizerConfig holds the upright spring. Angles are degrees.
type StabilizerConfig struct {
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Roll      float64 `yaml:"roll"`
	Pitch     float64 `yaml:"pitch"`
	Yaw       float64 `yaml:"yaw"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// BodyConfig describes one floating body in the scene.
type BodyConfig struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`  // rigid, skeletal, fragment
	Model string `yaml:"model"` // point, mesh

	Position       [3]float64 `yaml:"position"`
	Rotation       [3]float64 `yaml:"rotation"` // roll, pitch, yaw in degrees
	Velocity       [3]float64 `yaml:"velocity"`
	Mass           float64    `yaml:"mass"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
	Kinematic      bool       `yaml:"kinematic"`
	NoGravity      bool       `yaml:"no_gravity"`
	Stabilize      bool       `yaml:"stabilize"`

	// Density overrides point.mesh_density for this body.
	Density float64       `yaml:"density"`
	Points  []PointSample `yaml:"points"`
	Bones   []BoneConfig  `yaml:"bones"`
	Pieces  []PieceConfig `yaml:"pieces"`
	Hull    [3]float64    `yaml:"hull"` // box half extents for the mesh model

	BreakAfter float64 `yaml:"break_after"` // seconds until fragments detach; 0 never
}

// PointSample is one submersion point in body space.
type PointSample struct {
	Offset  [3]float64 `yaml:"offset"`
	Radius  float64    `yaml:"radius"`
	Density float64    `yaml:"density"`
}

// BoneConfig is one bone of a skeletal body.
type BoneConfig struct {
	Name      string     `yaml:"name"`
	Offset    [3]float64 `yaml:"offset"`
	Mass      float64    `yaml:"mass"`
	Density   float64    `yaml:"density"`
	Radius    float64    `yaml:"radius"`
	NoGravity bool       `yaml:"no_gravity"`
}

// PieceConfig is one fragment of a fracturable body.
type PieceConfig struct {
	Offset [3]float64 `yaml:"offset"`
	Mass   float64    `yaml:"mass"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WaveDirection  mgl64.Vec2     // Surface.WaveDirection, normalized
	VelocityDamper mgl64.Vec3     // Point.VelocityDamper as a vector
	Upright        mgl64.Quat     // Stabilizer target orientation
	StepsPerSecond int            // round(1 / Simulation.DT)
	BodyIndex      map[string]int // name -> index into Bodies
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Defaults returns the embedded configuration.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, fmt.Errorf("embedded defaults: %w", err)
	}
	return cfg, nil
}

// Merge overlays YAML data onto c. Only fields present in data change; a
// bodies list replaces the existing one.
func (c *Config) Merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return c.finish()
}

func (c *Config) finish() error {
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// applyDefaults fills per-body fields left empty.
func (c *Config) applyDefaults() {
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Kind == "" {
			b.Kind = "rigid"
		}
		if b.Model == "" {
			b.Model = "point"
		}
		if b.Kind == "rigid" && b.Model == "point" && len(b.Points) == 0 {
			b.Points = []PointSample{{}}
		}
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	dir := mgl64.Vec2{c.Surface.WaveDirection[0], c.Surface.WaveDirection[1]}
	if dir.Len() == 0 {
		dir = mgl64.Vec2{1, 0}
	}
	c.Derived.WaveDirection = dir.Normalize()
	c.Derived.VelocityDamper = mgl64.Vec3(c.Point.VelocityDamper)
	c.Derived.Upright = EulerDegrees([3]float64{c.Stabilizer.Roll, c.Stabilizer.Pitch, c.Stabilizer.Yaw})
	c.Derived.StepsPerSecond = int(1/c.Simulation.DT + 0.5)

	c.Derived.BodyIndex = make(map[string]int, len(c.Bodies))
	for i, b := range c.Bodies {
		c.Derived.BodyIndex[b.Name] = i
	}
}

// Body returns the named body config.
func (c *Config) Body(name string) (*BodyConfig, bool) {
	i, ok := c.Derived.BodyIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Bodies[i], true
}

// EulerDegrees converts roll, pitch, yaw in degrees to a quaternion applied
// yaw first.
func EulerDegrees(rpy [3]float64) mgl64.Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(rpy[2]),
		mgl64.DegToRad(rpy[1]),
		mgl64.DegToRad(rpy[0]),
		mgl64.ZYX,
	)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
