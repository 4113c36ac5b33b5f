package buoyancy

import "github.com/go-gl/mathgl/mgl64"

// PointStrategy binds a point provider to an engine. When Body is set and is
// not simulating, the step either snaps it onto the surface or does nothing.
type PointStrategy struct {
	Engine   *PointEngine
	Provider PointProvider
	Body     Body
}

// Step implements Strategy.
func (s *PointStrategy) Step(env Env) Report {
	if s.Body != nil && !s.Body.Simulating() {
		return s.snap(env)
	}
	return s.Engine.Run(s.Provider, env)
}

func (s *PointStrategy) snap(env Env) Report {
	if s.Engine == nil || s.Engine.Surface == nil || !s.Engine.Params.SnapToSurface {
		return Report{Skipped: true}
	}
	pos := s.Body.Position()
	q := s.Engine.queryFor(env)
	h := s.Engine.Surface.Sample(pos, q).Height
	s.Body.SetPosition(mgl64.Vec3{pos.X(), pos.Y(), h})
	return Report{Snapped: true}
}
