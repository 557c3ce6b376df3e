// Command seed pre-populates the load repositories: it generates synthetic
// random-layer images in process and pushes one per tag in the configured
// range, so pull-load has content to pull. No container engine required.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quayperf/regload/lib/config"
	"github.com/quayperf/regload/lib/logger"
	"github.com/quayperf/regload/lib/profile"
	"github.com/quayperf/regload/lib/registry"
	"github.com/quayperf/regload/lib/seed"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repoPath := ""
	if len(os.Args) > 1 {
		repoPath = os.Args[1]
	}
	targets, err := profile.Targets(cfg, repoPath)
	if err != nil {
		return err
	}

	for _, tgt := range targets {
		reg, err := registry.New(tgt.Registry(), cfg.Insecure)
		if err != nil {
			return err
		}
		if err := reg.Ping(ctx); err != nil {
			return err
		}

		seeder := seed.New(reg, seed.Options{
			Target:    tgt,
			Count:     cfg.SeedCount,
			Layers:    cfg.LayerCount,
			LayerSize: int64(cfg.LayerSize.Bytes()),
			Logger:    logger.WithSubsystem(log, "seed"),
		})

		pushed, err := seeder.Run(ctx)
		if err != nil {
			return err
		}

		tags, err := reg.ListTags(ctx, tgt.Repo)
		if err != nil {
			log.Warn("could not verify seeded tags", "repo", tgt.Repo, "error", err)
		} else {
			log.Info("repository seeded", "repo", tgt.Repo, "pushed", pushed, "tags", len(tags))
		}
	}
	return nil
}
