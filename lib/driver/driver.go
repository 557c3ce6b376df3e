// Package driver runs one configured load run to completion, shared by the
// pull-load and push-load commands.
package driver

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quayperf/regload/lib/config"
	"github.com/quayperf/regload/lib/loadgen"
	"github.com/quayperf/regload/lib/logger"
	"github.com/quayperf/regload/lib/status"
)

// Drive starts the run, wires signal cancellation and the optional status
// server, waits for completion and logs the final report. Cancellation is an
// expected outcome and returns nil.
func Drive(ctx context.Context, cfg *config.Config, log *slog.Logger, ld *loadgen.Run) error {
	// The run gets its own root context: the in-flight engine processes are
	// killed by Cancel, not by the signal context unwinding first.
	if err := ld.Start(context.Background()); err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			log.Info("cancellation requested, terminating workers")
			ld.Cancel()
		case <-ld.Done():
		}
	}()

	srvCtx, srvCancel := context.WithCancel(context.Background())
	defer srvCancel()

	var grp errgroup.Group
	if cfg.StatusAddr != "" {
		srv := status.New(cfg.StatusAddr, ld, logger.WithSubsystem(log, "status"))
		grp.Go(func() error { return srv.Run(srvCtx) })
	}

	rep := ld.Wait()
	srvCancel()
	if err := grp.Wait(); err != nil {
		log.Warn("status server error", "error", err)
	}

	log.Info("run finished",
		"run_id", rep.RunID,
		"state", rep.State.String(),
		"attempted", rep.Attempted,
		"failed", rep.Failed,
		"elapsed", rep.Elapsed.Round(time.Millisecond).String(),
		"ops_per_second", rep.Throughput,
	)
	return nil
}
