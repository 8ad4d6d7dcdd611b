// Package worker resolves batches of viewports in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/tileindex/internal/tile"
)

// Resolver produces the tile indices for a single task.
type Resolver interface {
	Resolve(ctx context.Context, task Task) ([]tile.Index, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, task Task) ([]tile.Index, error)

// Resolve calls f(ctx, task).
func (f ResolverFunc) Resolve(ctx context.Context, task Task) ([]tile.Index, error) {
	return f(ctx, task)
}

// IndexResolver resolves a task with tile.ResolveIndices.
var IndexResolver = ResolverFunc(func(_ context.Context, task Task) ([]tile.Index, error) {
	return tile.ResolveIndices(task.Viewport, task.MaxZoom, task.MinZoom), nil
})

// Task represents a single viewport resolution.
type Task struct {
	ID       int
	Name     string
	Viewport tile.Viewport
	MaxZoom  tile.ZoomLimit
	MinZoom  tile.ZoomLimit
}

// Result represents the outcome of a task.
type Result struct {
	Task    Task
	Indices []tile.Index
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Resolver   Resolver // defaults to IndexResolver
	OnProgress ProgressFunc
}

// Pool manages parallel viewport resolution.
type Pool struct {
	workers    int
	resolver   Resolver
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = IndexResolver
	}

	return &Pool{
		workers:    workers,
		resolver:   resolver,
		onProgress: cfg.OnProgress,
	}
}

// Run resolves all tasks and returns one result per task in input order.
// It blocks until every task has a result. Once ctx is cancelled, tasks that
// have not started are reported with ctx.Err() without being resolved.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	next := make(chan int)

	var (
		mu        sync.Mutex
		completed int
		failed    int
	)
	report := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if r.Err != nil {
			failed++
		}
		if p.onProgress != nil {
			p.onProgress(completed, len(tasks), failed)
		}
	}

	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, len(tasks)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slot := range next {
				results[slot] = p.resolve(ctx, tasks[slot])
				report(results[slot])
			}
		}()
	}

	for slot := range tasks {
		next <- slot
	}
	close(next)
	wg.Wait()

	return results
}

func (p *Pool) resolve(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Err: err}
	}

	start := time.Now()
	indices, err := p.resolver.Resolve(ctx, task)
	return Result{
		Task:    task,
		Indices: indices,
		Err:     err,
		Elapsed: time.Since(start),
	}
}
