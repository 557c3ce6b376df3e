// Command pull-load generates registry pull load: C workers repeatedly pull
// a target repository's tags through the local container engine until the
// target hit count is reached or the process is interrupted.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/quayperf/regload/lib/config"
	"github.com/quayperf/regload/lib/driver"
	"github.com/quayperf/regload/lib/engine"
	"github.com/quayperf/regload/lib/loadgen"
	"github.com/quayperf/regload/lib/logger"
	regotel "github.com/quayperf/regload/lib/otel"
	"github.com/quayperf/regload/lib/profile"
	"github.com/quayperf/regload/lib/registry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pull-load terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := regotel.Setup(ctx, "regload-pull")
	if err != nil {
		log.Warn("metrics export disabled", "error", err)
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	repoPath := ""
	if len(os.Args) > 1 {
		repoPath = os.Args[1]
	}
	targets, err := profile.Targets(cfg, repoPath)
	if err != nil {
		return err
	}

	eng, err := engine.Detect(cfg.Engine, logger.WithSubsystem(log, "engine"))
	if err != nil {
		return err
	}
	log.Info("using container engine", "bin", eng.Name())

	reg, err := registry.New(targets[0].Registry(), cfg.Insecure)
	if err != nil {
		return err
	}
	if err := reg.Ping(ctx); err != nil {
		return err
	}

	metrics, err := regotel.NewLoadMetrics(otel.Meter("regload"))
	if err != nil {
		return err
	}

	ld, err := loadgen.New(loadgen.OperationFunc("pull", eng.Pull), loadgen.Options{
		Targets:     targets,
		Concurrency: cfg.Concurrency,
		TotalOps:    cfg.TargetHits,
		Delay:       cfg.Delay(),
		Logger:      logger.WithSubsystem(log, "loadgen"),
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	return driver.Drive(ctx, cfg, log, ld)
}
