// Command push-load generates registry push load: it builds one synthetic
// multi-layer image with the local container engine, then C workers
// repeatedly retag and push it across the target tag range.
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
		slog.Error("push-load terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := regotel.Setup(ctx, "regload-push")
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

	baseRef, cleanup, err := buildBaseImage(ctx, cfg, eng, targets[0].Repo, log)
	if err != nil {
		return err
	}
	defer cleanup()

	metrics, err := regotel.NewLoadMetrics(otel.Meter("regload"))
	if err != nil {
		return err
	}

	op := loadgen.OperationFunc("push", func(ctx context.Context, ref string) error {
		if err := eng.Tag(ctx, baseRef, ref); err != nil {
			return err
		}
		return eng.Push(ctx, ref)
	})

	ld, err := loadgen.New(op, loadgen.Options{
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

// buildBaseImage writes a synthetic build context and builds it once. Every
// push iteration retags this image, so the registry sees the same layers
// under many tags. Build failure is fatal: with no image there is no load.
func buildBaseImage(ctx context.Context, cfg *config.Config, eng *engine.Engine, repo string, log *slog.Logger) (string, func(), error) {
	dir, err := os.MkdirTemp("", "regload-build-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	if err := engine.WriteBuildContext(dir, cfg.LayerCount, int64(cfg.LayerSize.Bytes())); err != nil {
		cleanup()
		return "", nil, err
	}

	baseRef := repo + ":base"
	log.Info("building base image",
		"ref", baseRef,
		"layers", cfg.LayerCount,
		"layer_size", cfg.LayerSize.HumanReadable(),
	)
	if err := eng.Build(ctx, dir, baseRef); err != nil {
		cleanup()
		return "", nil, err
	}
	return baseRef, cleanup, nil
}
