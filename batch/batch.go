// Package batch processes many methods concurrently. A failure or panic
// while processing one method is recorded in that method's Result and
// never stops the others.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of work.
type Job[T any] struct {
	Name  string
	Input T
}

// Result is the outcome of one Job.
type Result[R any] struct {
	Name     string
	Value    R
	Err      error
	Duration time.Duration
}

type config struct {
	workers int
	logger  zerolog.Logger
}

// Option configures Run.
type Option func(*config)

// WithWorkers sets the number of concurrent workers. Values below one use
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithLogger sets the logger that receives per-job failures.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Run calls fn for every job and returns the results in job order. It
// returns early only when ctx is canceled; jobs not started by then get
// the context error.
func Run[T, R any](ctx context.Context, jobs []Job[T], fn func(context.Context, T) (R, error), opts ...Option) []Result[R] {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result[R], len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(cfg.workers)
	for i, job := range jobs {
		results[i].Name = job.Name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			start := time.Now()
			v, err := call(ctx, fn, job.Input)
			results[i].Value, results[i].Err = v, err
			results[i].Duration = time.Since(start)
			if err != nil {
				cfg.logger.Warn().Err(err).Str("method", job.Name).Msg("method failed")
			} else {
				cfg.logger.Debug().Str("method", job.Name).Dur("elapsed", results[i].Duration).Msg("method done")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func call[T, R any](ctx context.Context, fn func(context.Context, T) (R, error), in T) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, in)
}

// Failed returns the results whose Err is set.
func Failed[R any](results []Result[R]) []Result[R] {
	var out []Result[R]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
