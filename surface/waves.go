package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Wave is one Gerstner component.
type Wave struct {
	Amplitude  float64
	Wavelength float64
	Speed      float64
	Direction  mgl64.Vec2 // normalized on use
	Steepness  float64    // 0 = pure sine, 1 = sharp crests
}

// Waves is a summed-Gerstner reference surface around a base level.
type Waves struct {
	Level      float64
	Components []Wave
	Direction  mgl64.Vec2

	clock float64
}

// NewWaves creates a wave field. Zero-length component directions default to +X.
func NewWaves(level float64, dir mgl64.Vec2, comps []Wave) *Waves {
	w := &Waves{Level: level, Direction: dir}
	for _, c := range comps {
		if c.Wavelength <= 0 {
			continue
		}
		if c.Direction.Len() < 1e-9 {
			c.Direction = mgl64.Vec2{1, 0}
		} else {
			c.Direction = c.Direction.Normalize()
		}
		w.Components = append(w.Components, c)
	}
	return w
}

// SetTime sets the clock used by untimed queries.
func (w *Waves) SetTime(t float64) {
	w.clock = t
}

// Time returns the current clock.
func (w *Waves) Time() float64 {
	return w.clock
}

// WaveDirection returns the global push direction.
func (w *Waves) WaveDirection() mgl64.Vec2 {
	return w.Direction
}

// Sample evaluates the wave sum at pos.
func (w *Waves) Sample(pos mgl64.Vec3, q Query) Sample {
	t := w.clock
	if q.Timed {
		t = q.Time
	}
	xy := pos.Vec2()

	if q.HighAccuracy {
		// Points on the surface have moved horizontally; look up the
		// undisplaced point that ends up above xy.
		_, disp := w.eval(xy, t)
		xy = xy.Sub(disp)
	}

	h, disp := w.eval(xy, t)
	s := Sample{Height: w.Level + h}
	if q.Displacement {
		s.Displacement = disp
	}
	return s
}

func (w *Waves) eval(xy mgl64.Vec2, t float64) (float64, mgl64.Vec2) {
	var h float64
	var disp mgl64.Vec2
	for _, c := range w.Components {
		k := 2 * math.Pi / c.Wavelength
		phase := k * (c.Direction.Dot(xy) - c.Speed*t)
		h += c.Amplitude * math.Sin(phase)
		disp = disp.Add(c.Direction.Mul(c.Steepness * c.Amplitude * math.Cos(phase)))
	}
	return h, disp
}
