// Package scheduler splits a periodic system's bound tables into
// worker-sized jobs and drives them through a bounded pool, the way
// spec.md §5 describes run_job being handed out: "the scheduler partitions
// active tables into jobs and hands them to workers."
//
// Grounded on goarchive's internal/archiver/orchestrator.go, whose batch
// loop fetches a unit of work, hands it to a phase, and advances until
// nothing is left; here the "batch" is a contiguous row slice of one bound
// table and the "phase" is internal/ecs.RunJob. The worker pool itself
// uses sourcegraph/conc's pool.ErrorPool, present in the teacher's go.mod
// as an indirect dependency of its own dependency graph and promoted here
// to the direct concurrency primitive this module actually needs.
package scheduler

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/dbsmedya/goecs/internal/ecs"
	"github.com/dbsmedya/goecs/internal/logger"
	"github.com/dbsmedya/goecs/internal/runlock"
	"github.com/dbsmedya/goecs/internal/world"
)

// Plan partitions every table s is currently bound to into contiguous,
// chunkSize-row jobs, independent of one another: a table with 0 rows
// contributes no jobs, and a table whose row count does not divide evenly
// by chunkSize gets one shorter final job. chunkSize <= 0 is treated as
// "one job per table" (spec.md §4.6's job-run chunking contract puts no
// floor on chunk size, but zero rows per job would never terminate).
func Plan(w *world.World, s *ecs.System, param any, chunkSize int) []ecs.Job {
	var jobs []ecs.Job
	for _, desc := range s.Tables {
		rows := w.TableAt(desc.TableIndex).RowCount()
		if rows == 0 {
			continue
		}
		size := chunkSize
		if size <= 0 {
			size = rows
		}
		for start := 0; start < rows; start += size {
			count := size
			if start+count > rows {
				count = rows - start
			}
			jobs = append(jobs, ecs.Job{
				System:     s,
				TableIndex: desc.TableIndex,
				StartIndex: start,
				RowCount:   count,
				Param:      param,
			})
		}
	}
	return jobs
}

// Run executes every job Plan produces for s across a pool of at most
// workers goroutines, serializing access to any row range two jobs might
// share via an internal/runlock.RowLock. Jobs never actually overlap
// within a single Plan call (Plan partitions disjointly), but Run still
// acquires the lock around each job so a future caller driving the same
// table from two different Run calls concurrently (e.g. a periodic
// system's next tick starting before the previous one drains) cannot
// violate spec.md §5's no-overlap contract. workers <= 0 uses
// runtime.GOMAXPROCS(0) goroutines.
func Run(ctx context.Context, w *world.World, s *ecs.System, param any, lock *runlock.RowLock, log *logger.Logger, workers, chunkSize int) error {
	jobs := Plan(w, s, param, chunkSize)
	if len(jobs) == 0 {
		return nil
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	base := pool.New().WithMaxGoroutines(workers)
	p := base.WithErrors().WithContext(ctx).WithCancelOnError()

	for _, job := range jobs {
		job := job
		p.Go(func(ctx context.Context) error {
			r := runlock.Range{TableIndex: job.TableIndex, Start: job.StartIndex, End: job.StartIndex + job.RowCount}
			return lock.WithLock(ctx, r, runlock.TimeoutLong, func() error {
				log.WithSystem(s.ID).WithTable(fmt.Sprintf("%d", job.TableIndex)).Debugf("running job rows [%d, %d)", job.StartIndex, job.StartIndex+job.RowCount)
				ecs.RunJob(w, job)
				return nil
			})
		})
	}

	return p.Wait()
}
