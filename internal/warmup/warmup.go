// Package warmup runs the one-time, session-scoped initialization of
// the decision store and the embedding runtime. Both tasks run
// concurrently against a hard deadline; the outcome is written through
// the session cache's record so later hook processes in the same
// session can skip the work entirely.
package warmup

import (
	"context"
	"time"

	"github.com/mnemohq/mnemo/internal/logger"
	"github.com/mnemohq/mnemo/internal/session"
)

// Record keys written through the session cache. Later invocations
// read these to decide whether the subsystems are already warm.
const (
	KeyOK      = "MNEMO_WARMUP_OK"
	KeyTotalMs = "MNEMO_WARMUP_TOTAL_MS"
	KeyStoreMs = "MNEMO_WARMUP_DB_MS"
	KeyEmbedMs = "MNEMO_WARMUP_EMBED_MS"
	KeyAt      = "MNEMO_WARMUP_AT"
)

// Result is the outcome of one warmup attempt
type Result struct {
	Success  bool
	TimedOut bool
	// Reused is set when a fresh prior result short-circuited the run
	Reused  bool
	TotalMs int64
	StoreMs int64
	EmbedMs int64
	Err     string
}

// Task is one warmable subsystem
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Orchestrator races the warmup tasks against a deadline
type Orchestrator struct {
	cache     *session.Cache
	storeTask Task
	embedTask Task
	freshness time.Duration

	// now is swapped in tests
	now func() time.Time
}

// New creates an orchestrator. freshness is how long a persisted
// successful result counts as "already warm".
func New(cache *session.Cache, storeTask, embedTask Task, freshness time.Duration) *Orchestrator {
	if freshness <= 0 {
		freshness = 30 * time.Minute
	}
	return &Orchestrator{
		cache:     cache,
		storeTask: storeTask,
		embedTask: embedTask,
		freshness: freshness,
		now:       time.Now,
	}
}

type taskResult struct {
	name    string
	elapsed time.Duration
	err     error
}

// Run performs the warmup unless a fresh successful result is already
// persisted for this session. The two tasks always run concurrently;
// the worst case is bounded by the slower task, not their sum. If the
// deadline elapses first the result is marked timed out and any
// partial completions are discarded: the session proceeds degraded
// rather than blocking. A timed-out task is never forcibly aborted;
// its eventual completion is simply never read.
func (o *Orchestrator) Run(ctx context.Context, deadline time.Duration) *Result {
	if prior := o.freshResult(); prior != nil {
		logger.Debug().Msg("Reusing fresh warmup result from session record")
		return prior
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := o.now()
	results := make(chan taskResult, 2)
	for _, t := range []Task{o.storeTask, o.embedTask} {
		go func(t Task) {
			ts := time.Now()
			err := t.Run(ctx)
			results <- taskResult{name: t.Name, elapsed: time.Since(ts), err: err}
		}(t)
	}

	// Collect both completions off to the side so the deadline check
	// below stays authoritative: a task finishing just as the deadline
	// fires must not turn a timeout into a partial result.
	res := &Result{Success: true}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			tr := <-results
			if tr.err != nil {
				res.Success = false
				res.Err = tr.name + ": " + tr.err.Error()
				logger.Warn().Str("task", tr.name).Err(tr.err).Msg("Warmup task failed")
			}
			switch tr.name {
			case o.storeTask.Name:
				res.StoreMs = tr.elapsed.Milliseconds()
			case o.embedTask.Name:
				res.EmbedMs = tr.elapsed.Milliseconds()
			}
		}
	}()

	timedOut := false
	select {
	case <-done:
		// Tasks that unwound because the deadline expired count as a
		// timeout, not a task failure.
		timedOut = ctx.Err() != nil
	case <-ctx.Done():
		timedOut = true
	}
	if timedOut {
		// Deadline won the race: discard partials, report timeout.
		// The collector keeps draining so the task goroutines finish;
		// their late results are simply never read.
		res = &Result{TimedOut: true, Err: "warmup deadline elapsed"}
		res.TotalMs = time.Since(start).Milliseconds()
		o.persist(res)
		logger.Warn().
			Dur("deadline", deadline).
			Msg("Warmup timed out, session continues degraded")
		return res
	}

	res.TotalMs = time.Since(start).Milliseconds()
	o.persist(res)

	logger.Info().
		Bool("success", res.Success).
		Int64("total_ms", res.TotalMs).
		Int64("store_ms", res.StoreMs).
		Int64("embed_ms", res.EmbedMs).
		Msg("Warmup complete")

	return res
}

// freshResult returns the persisted result if it is successful and
// within the freshness window. Stale or failed results force a retry.
func (o *Orchestrator) freshResult() *Result {
	var ok bool
	if !o.cache.Get(KeyOK, &ok) || !ok {
		return nil
	}

	var at int64
	if !o.cache.Get(KeyAt, &at) {
		return nil
	}
	if o.now().Sub(time.Unix(at, 0)) > o.freshness {
		return nil
	}

	res := &Result{Success: true, Reused: true}
	o.cache.Get(KeyTotalMs, &res.TotalMs)
	o.cache.Get(KeyStoreMs, &res.StoreMs)
	o.cache.Get(KeyEmbedMs, &res.EmbedMs)
	return res
}

func (o *Orchestrator) persist(res *Result) {
	o.cache.Set(KeyOK, res.Success)
	o.cache.Set(KeyTotalMs, res.TotalMs)
	o.cache.Set(KeyStoreMs, res.StoreMs)
	o.cache.Set(KeyEmbedMs, res.EmbedMs)
	o.cache.Set(KeyAt, o.now().Unix())
}
