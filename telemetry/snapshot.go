package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the state of every body at one tick, enough to restore the
// scene onto a freshly built simulation.
type Snapshot struct {
	Version    int     `json:"version"`
	Tick       int32   `json:"tick"`
	SimTimeSec float64 `json:"sim_time"`
	Gravity    float64 `json:"gravity"`

	Bodies []BodyState `json:"bodies"`

	Event *Event `json:"event,omitempty"`
}

// BodyState holds one body's dynamic state.
type BodyState struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`

	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"` // w, x, y, z
	Linear   [3]float64 `json:"linear"`
	Angular  [3]float64 `json:"angular"`

	LinearDamping  float64 `json:"linear_damping"`
	AngularDamping float64 `json:"angular_damping"`
	Simulating     bool    `json:"simulating"`
	Sleeping       bool    `json:"sleeping"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	SpawnTick    int32   `json:"spawn_tick"`
	Steps        int     `json:"steps"`
	SubmergedSec float64 `json:"submerged_sec"`
	Slams        int     `json:"slams"`
	Clamps       int     `json:"clamps"`
	Aborts       int     `json:"aborts"`
	Snapped      int     `json:"snapped"`
	MaxDraft     float64 `json:"max_draft"`
	PeakSpeed    float64 `json:"peak_speed"`
	PeakLift     float64 `json:"peak_lift"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		SpawnTick:    ls.SpawnTick,
		Steps:        ls.Steps,
		SubmergedSec: ls.SubmergedSec,
		Slams:        ls.Slams,
		Clamps:       ls.Clamps,
		Aborts:       ls.Aborts,
		Snapped:      ls.Snapped,
		MaxDraft:     ls.MaxDraft,
		PeakSpeed:    ls.PeakSpeed,
		PeakLift:     ls.PeakLift,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON() *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		SpawnTick:    lsj.SpawnTick,
		Steps:        lsj.Steps,
		SubmergedSec: lsj.SubmergedSec,
		Slams:        lsj.Slams,
		Clamps:       lsj.Clamps,
		Aborts:       lsj.Aborts,
		Snapped:      lsj.Snapped,
		MaxDraft:     lsj.MaxDraft,
		PeakSpeed:    lsj.PeakSpeed,
		PeakLift:     lsj.PeakLift,
		observed:     lsj.Steps > 0,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if e := snapshot.Event; e != nil {
		sanitized := strings.ReplaceAll(e.Body+"_"+string(e.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
