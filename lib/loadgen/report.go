package loadgen

import "time"

// Report is the final accounting for a finished run.
type Report struct {
	RunID      string
	State      State
	Attempted  int64
	Failed     int64
	Elapsed    time.Duration
	Throughput float64 // attempted operations per second
}

// Snapshot is a point-in-time view of a run, served by the status endpoint.
type Snapshot struct {
	RunID       string  `json:"run_id"`
	Operation   string  `json:"operation"`
	State       string  `json:"state"`
	Concurrency int     `json:"concurrency"`
	TargetOps   int64   `json:"target_ops"`
	Attempted   int64   `json:"attempted"`
	Failed      int64   `json:"failed"`
	ElapsedSecs float64 `json:"elapsed_seconds"`
}

// Throughput computes operations per second, guarding against a zero or
// negative elapsed time.
func Throughput(ops int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(ops) / secs
}

func (r *Run) elapsed() time.Duration {
	start := r.startNano.Load()
	if start == 0 {
		return 0
	}
	end := r.endNano.Load()
	if end == 0 {
		end = time.Now().UnixNano()
	}
	return time.Duration(end - start)
}

func (r *Run) report() Report {
	attempted := r.attempted.Load()
	elapsed := r.elapsed()
	return Report{
		RunID:      r.id,
		State:      r.State(),
		Attempted:  attempted,
		Failed:     r.failed.Load(),
		Elapsed:    elapsed,
		Throughput: Throughput(attempted, elapsed),
	}
}

// Snapshot returns the current state of the run. Safe to call from other
// goroutines while the run is in flight.
func (r *Run) Snapshot() Snapshot {
	return Snapshot{
		RunID:       r.id,
		Operation:   r.op.Name(),
		State:       r.State().String(),
		Concurrency: r.opts.Concurrency,
		TargetOps:   r.opts.TotalOps,
		Attempted:   r.attempted.Load(),
		Failed:      r.failed.Load(),
		ElapsedSecs: r.elapsed().Seconds(),
	}
}
