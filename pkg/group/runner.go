package group

import (
	"context"
	"runtime"
	"sort"
	"sync"
)

// Pipeline is the work run for each group, e.g. (*Group).MakeEverything
type Pipeline func(g *Group, ctx context.Context, env Environment) (Report, error)

// Task is one group submitted to the runner
type Task struct {
	TaskID int // For deterministic ordering
	Group  *Group
}

// Result is the outcome of one task
type Result struct {
	TaskID int
	Report Report
	Error  error
}

// Runner processes groups in parallel. Each group is still culled
// sequentially by a single worker.
type Runner struct {
	taskQueue   chan Task
	resultQueue chan Result
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker runs the pipeline for the tasks it receives
type Worker struct {
	ID          int
	ctx         context.Context
	env         Environment
	pipeline    Pipeline
	sink        Sink
	taskQueue   chan Task
	resultQueue chan Result
}

// NewRunner creates a runner with numWorkers workers (NumCPU when <= 0) and
// room for maxTasks queued tasks. sink may be nil to skip committing.
func NewRunner(ctx context.Context, env Environment, pipeline Pipeline, sink Sink, numWorkers, maxTasks int) *Runner {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	r := &Runner{
		taskQueue:   make(chan Task, maxTasks),
		resultQueue: make(chan Result, maxTasks),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		r.workers = append(r.workers, &Worker{
			ID:          i,
			ctx:         ctx,
			env:         env,
			pipeline:    pipeline,
			sink:        sink,
			taskQueue:   r.taskQueue,
			resultQueue: r.resultQueue,
		})
	}
	return r
}

// Start begins all workers
func (r *Runner) Start() {
	for _, worker := range r.workers {
		r.wg.Add(1)
		go worker.run(&r.wg)
	}
}

// Stop waits for queued tasks to finish and closes the result queue
func (r *Runner) Stop() {
	close(r.taskQueue)
	r.wg.Wait()
	close(r.resultQueue)
}

// Submit queues a task
func (r *Runner) Submit(task Task) {
	r.taskQueue <- task
}

// GetResult retrieves a completed result
func (r *Runner) GetResult() (Result, bool) {
	result, ok := <-r.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers
func (r *Runner) NumWorkers() int {
	return r.numWorkers
}

func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		result := Result{TaskID: task.TaskID}
		if err := w.ctx.Err(); err != nil {
			result.Report = Report{Group: task.Group.Name}
			result.Error = err
			w.resultQueue <- result
			continue
		}

		result.Report, result.Error = w.pipeline(task.Group, w.ctx, w.env)
		if result.Error == nil && w.sink != nil {
			result.Error = task.Group.Commit(w.ctx, w.sink)
		}
		w.resultQueue <- result
	}
}

// RunAll runs pipeline for every group and commits the survivors to sink.
// Results come back in the order of groups.
func RunAll(ctx context.Context, env Environment, groups []*Group, pipeline Pipeline, sink Sink, numWorkers int) []Result {
	runner := NewRunner(ctx, env, pipeline, sink, numWorkers, len(groups))
	runner.Start()

	for i, g := range groups {
		runner.Submit(Task{TaskID: i, Group: g})
	}
	runner.Stop()

	results := make([]Result, 0, len(groups))
	for {
		result, ok := runner.GetResult()
		if !ok {
			break
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].TaskID < results[j].TaskID
	})
	return results
}
