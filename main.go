package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pthm-cable/buoy/config"
	"github.com/pthm-cable/buoy/sim"
	"github.com/pthm-cable/buoy/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and snapshots")
	snapshots := flag.Bool("snapshots", false, "Write a snapshot whenever a body capsizes, sinks or settles (needs -output-dir)")
	restore := flag.String("restore", "", "Snapshot file to resume from")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	debug := flag.Bool("debug", false, "Log at debug level")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	s, err := sim.New(cfg, sim.Options{
		OutputDir:      *outputDir,
		StatsWindowSec: *statsWindow,
		LogStats:       *logStats,
		Snapshots:      *snapshots,
		MaxTicks:       int32(*maxTicks),
	})
	if err != nil {
		slog.Error("failed to build scene", "error", err)
		os.Exit(1)
	}

	if *restore != "" {
		snap, err := telemetry.LoadSnapshot(*restore)
		if err == nil {
			err = s.Restore(snap)
		}
		if err != nil {
			slog.Error("failed to restore snapshot", "path", *restore, "error", err)
			s.Close()
			os.Exit(1)
		}
		slog.Info("restored snapshot", "path", *restore, "tick", s.Tick())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting simulation",
		"config", *configPath,
		"bodies", len(cfg.Bodies),
		"max_ticks", *maxTicks,
		"output_dir", *outputDir,
	)

	for !s.Done() && ctx.Err() == nil {
		s.Step()
	}
	if ctx.Err() != nil {
		slog.Info("interrupted", "tick", s.Tick())
	} else {
		slog.Info("max ticks reached", "tick", s.Tick())
	}

	if err := s.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
		os.Exit(1)
	}
}
