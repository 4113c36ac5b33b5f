package surface

import "github.com/go-gl/mathgl/mgl64"

type memoKey struct {
	pos mgl64.Vec3
	q   Query
}

// Memo caches samples of an expensive oracle for the duration of one step.
// Call Reset at the start of every step; the surface moves between steps.
type Memo struct {
	Oracle Oracle

	cache  map[memoKey]Sample
	hits   int
	misses int
}

// NewMemo wraps o.
func NewMemo(o Oracle) *Memo {
	return &Memo{Oracle: o, cache: make(map[memoKey]Sample, 256)}
}

// Reset drops all cached samples and counters.
func (m *Memo) Reset() {
	clear(m.cache)
	m.hits, m.misses = 0, 0
}

// Sample returns a cached sample or queries the wrapped oracle.
func (m *Memo) Sample(pos mgl64.Vec3, q Query) Sample {
	key := memoKey{pos: pos, q: q}
	if s, ok := m.cache[key]; ok {
		m.hits++
		return s
	}
	m.misses++
	s := m.Oracle.Sample(pos, q)
	m.cache[key] = s
	return s
}

// WaveDirection forwards to the wrapped oracle.
func (m *Memo) WaveDirection() mgl64.Vec2 {
	return m.Oracle.WaveDirection()
}

// Stats returns cache hits and misses since the last Reset.
func (m *Memo) Stats() (hits, misses int) {
	return m.hits, m.misses
}
