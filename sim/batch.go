package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/prefabs"
	"github.com/milk9111/wheelchair/script"
	"github.com/milk9111/wheelchair/telemetry"
	"github.com/panjf2000/ants/v2"
)

// Job is one headless run of a scenario against a spec.
type Job struct {
	Spec     prefabs.WheelchairSpec
	Scenario *script.Scenario
	Frames   int
	Dt       float64
}

type Result struct {
	Index    int
	RunID    string
	Scenario string
	Frames   int
	Final    telemetry.Snapshot
	Err      error
}

// RunBatch runs jobs on a pool of at most workers goroutines. Results keep the job
// order. A job's scenario is cloned, so the same compiled scenario may appear in many
// jobs.
func RunBatch(ctx context.Context, jobs []Job, workers int, log logging.Log) ([]Result, error) {
	log = logging.OrNop(log).Named("batch")
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers,
		ants.WithPreAlloc(true),
		ants.WithPanicHandler(func(p any) {
			log.Error("job panicked", logging.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("sim: create pool: %w", err)
	}
	defer pool.Release()

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		results[i] = Result{Index: i, Err: fmt.Errorf("sim: job %d did not finish", i)}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = runJob(ctx, i, job, log)
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("sim: submit job %d: %w", i, err)
		}
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Info("batch finished", logging.Int("jobs", len(jobs)), logging.Int("failed", failed))
	return results, ctx.Err()
}

func runJob(ctx context.Context, i int, job Job, log logging.Log) Result {
	res := Result{Index: i}

	var sc *script.Scenario
	if job.Scenario != nil {
		sc = job.Scenario.Clone()
		res.Scenario = sc.Name()
	}

	opts := Options{Spec: job.Spec, Dt: job.Dt, Log: log}
	if sc != nil {
		opts.Source = sc
	}
	s, err := New(opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.RunID = s.ID()
	if sc != nil {
		sc.SetState(s.State)
	}

	res.Frames, res.Err = s.Run(ctx, job.Frames)
	if res.Err == nil && sc != nil {
		res.Err = sc.Err()
	}
	res.Final = s.Snapshot()
	return res
}
