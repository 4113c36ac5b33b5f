// Package telemetry provides windowed buoyancy statistics, body events,
// snapshots and CSV output.
package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// EventType identifies the type of body event.
type EventType string

const (
	EventCapsized EventType = "capsized"
	EventRighted  EventType = "righted"
	EventSunk     EventType = "sunk"
	EventBreached EventType = "breached"
	EventSettled  EventType = "settled"
)

// Event is a notable change in one body's state between windows.
type Event struct {
	Type        EventType `csv:"type"`
	Tick        int32     `csv:"tick"`
	Body        string    `csv:"body"`
	Description string    `csv:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"tick", e.Tick,
		"body", e.Body,
		"description", e.Description,
	)
}

// bodyState is what the detector remembers about one body.
type bodyState struct {
	capsized    bool
	sunk        bool
	wet         bool
	calmWindows int
}

// EventDetector watches body samples at window boundaries and reports
// transitions.
type EventDetector struct {
	CapsizeTilt   float64 // radians; tilt beyond this is capsized
	SinkDraft     float64 // meters of draft beyond which a body has sunk
	SettleSpeed   float64 // speed below which a window counts as calm
	SettleWindows int     // calm windows in a row before settled fires

	bodies map[uint64]*bodyState
}

// NewEventDetector creates a detector with default thresholds.
func NewEventDetector() *EventDetector {
	return &EventDetector{
		CapsizeTilt:   math.Pi / 2,
		SinkDraft:     3,
		SettleSpeed:   0.05,
		SettleWindows: 3,
		bodies:        make(map[uint64]*bodyState),
	}
}

// Check analyzes the latest samples and returns any triggered events.
// The first sample of a body only establishes its state.
func (d *EventDetector) Check(samples []BodySample) []Event {
	var events []Event
	for _, s := range samples {
		st, seen := d.bodies[s.ID]
		if !seen {
			st = &bodyState{
				capsized: s.Tilt > d.CapsizeTilt,
				sunk:     s.Draft > d.SinkDraft,
				wet:      s.Submerged > 0,
			}
			d.bodies[s.ID] = st
			continue
		}

		if e := d.checkCapsize(st, s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkSunk(st, s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkBreach(st, s); e != nil {
			events = append(events, *e)
		}
		if e := d.checkSettled(st, s); e != nil {
			events = append(events, *e)
		}
	}
	return events
}

func (d *EventDetector) checkCapsize(st *bodyState, s BodySample) *Event {
	capsized := s.Tilt > d.CapsizeTilt
	if capsized == st.capsized {
		return nil
	}
	st.capsized = capsized

	if capsized {
		return &Event{
			Type:        EventCapsized,
			Tick:        s.Tick,
			Body:        s.Name,
			Description: fmt.Sprintf("Tilted %.0f degrees", s.Tilt*180/math.Pi),
		}
	}
	return &Event{
		Type:        EventRighted,
		Tick:        s.Tick,
		Body:        s.Name,
		Description: fmt.Sprintf("Back within %.0f degrees of upright", s.Tilt*180/math.Pi),
	}
}

func (d *EventDetector) checkSunk(st *bodyState, s BodySample) *Event {
	sunk := s.Draft > d.SinkDraft
	defer func() { st.sunk = sunk }()
	if !sunk || st.sunk {
		return nil
	}
	return &Event{
		Type:        EventSunk,
		Tick:        s.Tick,
		Body:        s.Name,
		Description: fmt.Sprintf("Center of mass %.2fm below the surface", s.Draft),
	}
}

func (d *EventDetector) checkBreach(st *bodyState, s BodySample) *Event {
	// Snapped or skipped bodies report no points and say nothing about water.
	if s.Points == 0 {
		return nil
	}
	wet := s.Submerged > 0
	defer func() { st.wet = wet }()
	if wet || !st.wet {
		return nil
	}
	return &Event{
		Type:        EventBreached,
		Tick:        s.Tick,
		Body:        s.Name,
		Description: fmt.Sprintf("Left the water at %.2fm/s", s.Speed),
	}
}

func (d *EventDetector) checkSettled(st *bodyState, s BodySample) *Event {
	if s.Speed >= d.SettleSpeed {
		st.calmWindows = 0
		return nil
	}
	st.calmWindows++
	if st.calmWindows != d.SettleWindows { // trigger exactly once
		return nil
	}
	return &Event{
		Type:        EventSettled,
		Tick:        s.Tick,
		Body:        s.Name,
		Description: fmt.Sprintf("Below %.2fm/s for %d windows with draft %.2fm", d.SettleSpeed, d.SettleWindows, s.Draft),
	}
}

// Forget drops the remembered state of a body.
func (d *EventDetector) Forget(id uint64) {
	delete(d.bodies, id)
}
