// Command automatondemo hosts a single automaton engine, paints a glider
// onto it, and lets it run for a fixed number of 100ms polling intervals
// (or until the simulation stops on its own). It is a minimal
// harness exercising the engine package end to end — not a CLI surface
// for the engine itself, which never reads flags or environment
// variables on its own.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lifegrid/automaton/brush"
	"github.com/lifegrid/automaton/cell"
	"github.com/lifegrid/automaton/engine"
	"github.com/lifegrid/automaton/internal/config"
	"github.com/lifegrid/automaton/internal/obslog"
)

func main() {
	var (
		generations = flag.Int("generations", 50, "number of 100ms polling intervals to let the simulation run before exiting")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := obslog.New(obslog.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info("starting automaton demo",
		"blockWidth", cfg.BlockWidth,
		"blockHeight", cfg.BlockHeight,
		"workers", cfg.WorkerCount,
	)

	eng, err := engine.New(engine.Options{
		BlockWidth:      cfg.BlockWidth,
		BlockHeight:     cfg.BlockHeight,
		Workers:         cfg.WorkerCount,
		DeadProbability: cfg.DeadProbability,
		Notifier:        notifier{log: log},
		Logger:          log,
	})
	if err != nil {
		log.Error("failed to construct engine", "error", err)
		os.Exit(1)
	}

	area, err := eng.AllocateTo(64, 64)
	if err != nil {
		log.Error("failed to allocate world", "error", err)
		os.Exit(1)
	}
	log.Info("allocated world", "area", area)

	glider, err := brush.NewFromPattern([][]cell.State{
		{cell.Dead, cell.Alive, cell.Dead},
		{cell.Dead, cell.Dead, cell.Alive},
		{cell.Alive, cell.Alive, cell.Alive},
	})
	if err != nil {
		log.Error("failed to build glider brush", "error", err)
		os.Exit(1)
	}
	eng.Paint(glider, 0, 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng.Start()
	defer eng.Stop()

	for i := 0; i < *generations; i++ {
		select {
		case <-ctx.Done():
			log.Info("interrupted, shutting down")
			return
		case <-time.After(100 * time.Millisecond):
		}
		if eng.SchedulerState().String() == "Stopped" {
			break
		}
	}

	log.Info("demo finished", "generation", eng.Generation(), "liveCount", eng.LiveCount())
}

type notifier struct {
	log *obslog.Logger
}

func (n notifier) GenerationComputed(gen, live int) {
	n.log.Debug("generation computed", "generation", gen, "live", live)
}

func (n notifier) SimulationToggled(running bool) {
	n.log.Info("simulation toggled", "running", running)
}
