package surface

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"
)

// Clock is implemented by oracles with an internal time used by untimed
// queries.
type Clock interface {
	SetTime(t float64)
}

// Chop adds coherent simplex noise to the height of a base oracle: short,
// irregular ripples on top of a swell. Displacement is the base's.
type Chop struct {
	Base      Oracle
	Amplitude float64 // peak height added, meters
	Scale     float64 // noise cycles per meter
	Speed     float64 // noise cycles per second

	noise opensimplex.Noise
	clock float64
}

// NewChop wraps base. The same seed always yields the same surface.
func NewChop(base Oracle, amplitude, scale, speed float64, seed int64) *Chop {
	return &Chop{
		Base:      base,
		Amplitude: amplitude,
		Scale:     scale,
		Speed:     speed,
		noise:     opensimplex.New(seed),
	}
}

// SetTime sets the clock for untimed queries and forwards it to the base.
func (c *Chop) SetTime(t float64) {
	c.clock = t
	if bc, ok := c.Base.(Clock); ok {
		bc.SetTime(t)
	}
}

// Sample returns the base sample raised by the noise at pos.
func (c *Chop) Sample(pos mgl64.Vec3, q Query) Sample {
	s := c.Base.Sample(pos, q)
	t := c.clock
	if q.Timed {
		t = q.Time
	}
	s.Height += c.Amplitude * c.noise.Eval3(pos.X()*c.Scale, pos.Y()*c.Scale, t*c.Speed)
	return s
}

// WaveDirection forwards to the base.
func (c *Chop) WaveDirection() mgl64.Vec2 {
	return c.Base.WaveDirection()
}
