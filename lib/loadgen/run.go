// Package loadgen implements the bounded-concurrency load driver: a fixed
// number of workers repeatedly invoking one unit of work against a set of
// image references until a target count is reached or the run is cancelled.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nrednav/cuid2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	regotel "github.com/quayperf/regload/lib/otel"
	"github.com/quayperf/regload/lib/target"
)

var ErrAlreadyStarted = errors.New("run already started")

// Operation is one unit of work executed repeatedly by every worker.
type Operation interface {
	Name() string
	Do(ctx context.Context, ref string) error
}

type opFunc struct {
	name string
	fn   func(ctx context.Context, ref string) error
}

func (o opFunc) Name() string { return o.name }

func (o opFunc) Do(ctx context.Context, ref string) error { return o.fn(ctx, ref) }

// OperationFunc adapts a plain function to an Operation.
func OperationFunc(name string, fn func(ctx context.Context, ref string) error) Operation {
	return opFunc{name: name, fn: fn}
}

// State is the lifecycle state of a Run. A run never returns to Running;
// a new Run must be created for a new invocation.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Options configures a Run.
type Options struct {
	// Targets are the repositories the workers cycle through. At least one.
	Targets []target.Target
	// Concurrency is the worker count C.
	Concurrency int
	// TotalOps is the global target operation count T (0 = unbounded).
	TotalOps int64
	// Delay is the optional per-iteration sleep.
	Delay time.Duration

	Logger  *slog.Logger
	Metrics *regotel.LoadMetrics
}

// PerWorkerLimit distributes a global target count across workers by ceiling
// division. Returns 0 (unlimited) when total is not positive.
func PerWorkerLimit(total int64, workers int) int64 {
	if total <= 0 || workers <= 0 {
		return 0
	}
	w := int64(workers)
	return (total + w - 1) / w
}

// Run is one invocation of the load driver spanning all workers.
type Run struct {
	id   string
	op   Operation
	opts Options

	state     atomic.Int32
	stop      atomic.Bool
	attempted atomic.Int64
	failed    atomic.Int64
	startNano atomic.Int64
	endNano   atomic.Int64

	cancel atomic.Pointer[context.CancelFunc]
	wg     sync.WaitGroup
	done   chan struct{}
}

// New validates options and creates an idle Run.
func New(op Operation, opts Options) (*Run, error) {
	if op == nil {
		return nil, errors.New("nil operation")
	}
	if len(opts.Targets) == 0 {
		return nil, errors.New("no targets")
	}
	if opts.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", opts.Concurrency)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Run{
		id:   cuid2.Generate(),
		op:   op,
		opts: opts,
		done: make(chan struct{}),
	}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// State returns the current lifecycle state.
func (r *Run) State() State { return State(r.state.Load()) }

// Done is closed once every worker has terminated.
func (r *Run) Done() <-chan struct{} { return r.done }

// Start spawns the workers and returns immediately. The context bounds the
// lifetime of every external process the workers spawn: cancelling it kills
// whatever operation is in flight.
func (r *Run) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel.Store(&cancel)
	r.startNano.Store(time.Now().UnixNano())

	limit := PerWorkerLimit(r.opts.TotalOps, r.opts.Concurrency)
	r.opts.Logger.Info("run started",
		"run_id", r.id,
		"operation", r.op.Name(),
		"concurrency", r.opts.Concurrency,
		"target_ops", r.opts.TotalOps,
		"per_worker_limit", limit,
	)

	for i := 0; i < r.opts.Concurrency; i++ {
		r.wg.Add(1)
		go r.worker(runCtx, i, limit)
	}

	go func() {
		r.wg.Wait()
		r.endNano.Store(time.Now().UnixNano())
		r.state.CompareAndSwap(int32(StateRunning), int32(StateCompleted))
		cancel()
		close(r.done)
	}()

	return nil
}

// Cancel sets the stop flag, kills every in-flight external process and waits
// for all workers to terminate. Safe to call more than once and after
// completion. There is no graceful drain.
func (r *Run) Cancel() {
	if r.state.CompareAndSwap(int32(StateIdle), int32(StateCancelled)) {
		close(r.done)
		return
	}

	r.stop.Store(true)
	r.state.CompareAndSwap(int32(StateRunning), int32(StateCancelled))
	if fn := r.cancel.Load(); fn != nil {
		(*fn)()
	}
	<-r.done
}

// Wait blocks until the run terminates and returns the final report.
func (r *Run) Wait() Report {
	<-r.done
	return r.report()
}

func (r *Run) worker(ctx context.Context, idx int, limit int64) {
	defer r.wg.Done()

	log := r.opts.Logger.With("run_id", r.id, "worker", idx)
	if m := r.opts.Metrics; m != nil {
		m.WorkersActive.Add(ctx, 1)
		defer m.WorkersActive.Add(context.WithoutCancel(ctx), -1)
	}

	attrs := metric.WithAttributes(attribute.String("operation", r.op.Name()))

	var count int64
	for {
		if r.stop.Load() || ctx.Err() != nil {
			return
		}
		if limit > 0 && count >= limit {
			return
		}

		tgt := r.opts.Targets[int(count%int64(len(r.opts.Targets)))]
		ref := tgt.Ref(count)

		start := time.Now()
		err := r.op.Do(ctx, ref)
		elapsed := time.Since(start)

		// Best effort: a failed operation still counts as attempted and the
		// loop proceeds to the next iteration.
		count++
		r.attempted.Add(1)
		if m := r.opts.Metrics; m != nil {
			m.OpsTotal.Add(ctx, 1, attrs)
			m.OpDuration.Record(ctx, elapsed.Seconds(), attrs)
		}
		if err != nil {
			r.failed.Add(1)
			if m := r.opts.Metrics; m != nil {
				m.OpFailures.Add(ctx, 1, attrs)
			}
			log.Debug("operation failed", "ref", ref, "error", err)
		}

		if d := r.opts.Delay; d > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
		}
	}
}
