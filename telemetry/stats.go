package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Scene at window end
	Bodies   int `csv:"bodies"`
	Sleeping int `csv:"sleeping"`

	// Strategy steps during window
	Steps   int `csv:"steps"`
	Skipped int `csv:"skipped"`
	Aborted int `csv:"aborted"`
	Snapped int `csv:"snapped"`
	Clamped int `csv:"clamped"`
	Slams   int `csv:"slams"`

	// Submerged fraction per step (points or triangles under water / total)
	WetMean float64 `csv:"wet_mean"`
	WetP10  float64 `csv:"wet_p10"`
	WetP50  float64 `csv:"wet_p50"`
	WetP90  float64 `csv:"wet_p90"`

	// Net vertical force and wetted area per step
	LiftMean       float64 `csv:"lift_mean"`
	LiftP90        float64 `csv:"lift_p90"`
	TorqueMax      float64 `csv:"torque_max"`
	WettedAreaMean float64 `csv:"wetted_area_mean"`

	// Body state sampled at window end
	DraftMean     float64 `csv:"draft_mean"`
	DraftStd      float64 `csv:"draft_std"`
	MaxSpeed      float64 `csv:"max_speed"`
	KineticEnergy float64 `csv:"kinetic_energy"`

	// Surface memo efficiency over the window
	MemoHitRate float64 `csv:"memo_hit_rate"`
}

// Quantiles returns the mean and the 10th, 50th and 90th percentiles of
// values. Returns zeros for an empty slice.
func Quantiles(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// Spread returns the mean and sample standard deviation of values.
// The deviation is 0 for fewer than two values.
func Spread(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("bodies", s.Bodies),
		slog.Int("sleeping", s.Sleeping),
		slog.Int("steps", s.Steps),
		slog.Int("skipped", s.Skipped),
		slog.Int("aborted", s.Aborted),
		slog.Int("snapped", s.Snapped),
		slog.Int("clamped", s.Clamped),
		slog.Int("slams", s.Slams),
		slog.Float64("wet_mean", s.WetMean),
		slog.Float64("wet_p10", s.WetP10),
		slog.Float64("wet_p50", s.WetP50),
		slog.Float64("wet_p90", s.WetP90),
		slog.Float64("lift_mean", s.LiftMean),
		slog.Float64("lift_p90", s.LiftP90),
		slog.Float64("torque_max", s.TorqueMax),
		slog.Float64("wetted_area_mean", s.WettedAreaMean),
		slog.Float64("draft_mean", s.DraftMean),
		slog.Float64("draft_std", s.DraftStd),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("memo_hit_rate", s.MemoHitRate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
