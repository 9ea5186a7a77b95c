package engine

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/xerrors"

	"strata/pkg/ops"
	"strata/pkg/value"
)

// Job is one evaluation of a shared program over its own frame.
type Job struct {
	Row   int
	Frame *ops.Frame
}

// Result is the outcome of a Job.
type Result struct {
	Row      int
	WorkerID int
	Value    value.Value
	Err      error
	Duration time.Duration
}

// PoolStats describes the work done by a WorkerPool.
type PoolStats struct {
	WorkerCount   int
	TotalJobs     int
	CompletedJobs int
	FailedJobs    int
	ActiveJobs    int
	TotalTime     time.Duration
	AverageTime   time.Duration
}

// WorkerPool evaluates one program tree on several goroutines at once. The tree
// and its sites are shared, so every worker sees and drives the same
// specialization state; frames are private to their job.
type WorkerPool struct {
	engine     *Engine
	program    ops.Node
	numWorkers int
	buffer     int

	jobQueue   chan *Job
	resultChan chan *Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started    atomic.Bool
	stopped    atomic.Bool
	activeJobs atomic.Int32

	stats      PoolStats
	statsMutex sync.RWMutex
}

// NewWorkerPool returns a pool for program. A non-positive numWorkers uses the
// configured worker count, or one worker per CPU.
func (e *Engine) NewWorkerPool(program ops.Node, numWorkers, buffer int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = e.config.Workers
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		engine:     e,
		program:    program,
		numWorkers: numWorkers,
		buffer:     buffer,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) error {
	if !wp.started.CompareAndSwap(false, true) {
		return xerrors.New("worker pool already started")
	}
	wp.ctx, wp.cancel = context.WithCancel(ctx)
	wp.jobQueue = make(chan *Job, wp.buffer)
	wp.resultChan = make(chan *Result, wp.buffer)
	wp.stats = PoolStats{WorkerCount: wp.numWorkers}

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run(i)
	}
	wp.engine.logger.Debug().Int("workers", wp.numWorkers).Msg("worker pool started")
	return nil
}

// Submit queues a job. It blocks while the queue is full.
func (wp *WorkerPool) Submit(job *Job) error {
	if !wp.started.Load() {
		return xerrors.New("worker pool not started")
	}
	if wp.stopped.Load() {
		return xerrors.New("worker pool stopped")
	}
	// counted before the send so a fast worker never sees it below zero
	wp.activeJobs.Add(1)
	select {
	case wp.jobQueue <- job:
		wp.statsMutex.Lock()
		wp.stats.TotalJobs++
		wp.statsMutex.Unlock()
		return nil
	case <-wp.ctx.Done():
		wp.activeJobs.Add(-1)
		return wp.ctx.Err()
	}
}

func (wp *WorkerPool) Results() <-chan *Result {
	return wp.resultChan
}

// Shutdown stops accepting jobs and waits for the workers to drain the queue.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	if !wp.stopped.CompareAndSwap(false, true) {
		return xerrors.New("worker pool already stopped")
	}
	close(wp.jobQueue)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		close(wp.resultChan)
		return nil
	case <-ctx.Done():
		wp.cancel()
		<-done
		return ctx.Err()
	}
}

func (wp *WorkerPool) HasActiveJobs() bool {
	return wp.activeJobs.Load() > 0
}

func (wp *WorkerPool) Stats() PoolStats {
	wp.statsMutex.RLock()
	defer wp.statsMutex.RUnlock()

	stats := wp.stats
	stats.ActiveJobs = int(wp.activeJobs.Load())
	return stats
}

func (wp *WorkerPool) run(id int) {
	defer wp.wg.Done()
	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			result := wp.process(id, job)

			wp.statsMutex.Lock()
			if result.Err == nil {
				wp.stats.CompletedJobs++
			} else {
				wp.stats.FailedJobs++
			}
			wp.stats.TotalTime += result.Duration
			wp.stats.AverageTime = wp.stats.TotalTime / time.Duration(wp.stats.CompletedJobs+wp.stats.FailedJobs)
			wp.statsMutex.Unlock()
			wp.activeJobs.Add(-1)

			select {
			case wp.resultChan <- result:
			case <-wp.ctx.Done():
				return
			}
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) process(id int, job *Job) *Result {
	start := time.Now()
	v, err := wp.program.Execute(wp.engine.realm, job.Frame)
	return &Result{
		Row:      job.Row,
		WorkerID: id,
		Value:    v,
		Err:      err,
		Duration: time.Since(start),
	}
}

// EvaluateRows runs program once per frame on a worker pool and returns the
// results in row order. Evaluation errors are reported per row.
func (e *Engine) EvaluateRows(ctx context.Context, program ops.Node, frames []*ops.Frame) ([]*Result, error) {
	pool := e.NewWorkerPool(program, 0, len(frames))
	if err := pool.Start(ctx); err != nil {
		return nil, err
	}

	submitErr := make(chan error, 1)
	go func() {
		for i, f := range frames {
			if err := pool.Submit(&Job{Row: i, Frame: f}); err != nil {
				submitErr <- err
				return
			}
		}
		submitErr <- nil
	}()

	results := make([]*Result, 0, len(frames))
	for len(results) < len(frames) {
		select {
		case r := <-pool.Results():
			results = append(results, r)
		case <-ctx.Done():
			<-submitErr
			_ = pool.Shutdown(context.Background())
			return nil, ctx.Err()
		}
	}
	if err := <-submitErr; err != nil {
		return nil, err
	}
	if err := pool.Shutdown(ctx); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Row < results[j].Row })
	stats := pool.Stats()
	e.logger.Debug().
		Int("rows", stats.TotalJobs).
		Int("failed", stats.FailedJobs).
		Dur("average", stats.AverageTime).
		Msg("rows evaluated")
	return results, nil
}
