// Package taskqueue runs side-effecting work on a single background worker
package taskqueue

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Task is a unit of deferred work
type Task interface {
	Name() string
	Run() error
}

type funcTask struct {
	name string
	fn   func() error
}

func (t *funcTask) Name() string { return t.name }
func (t *funcTask) Run() error   { return t.fn() }

// Func wraps fn as a Task
func Func(name string, fn func() error) Task {
	return &funcTask{name: name, fn: fn}
}

// Println returns a task that writes s and a newline to w
func Println(w io.Writer, s string) Task {
	return Func("println", func() error {
		_, err := fmt.Fprintln(w, s)
		return err
	})
}

type terminateTask struct{}

func (terminateTask) Name() string { return "terminate" }
func (terminateTask) Run() error   { return nil }

// Terminate returns a task that stops the worker once every task submitted
// before it has run. Tasks submitted after it are discarded.
func Terminate() Task {
	return terminateTask{}
}

type entry struct {
	id   string
	task Task
}

// Queue is an unbounded FIFO drained by one worker goroutine
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []entry
	closed  bool

	done chan struct{}
	log  zerolog.Logger
}

// New creates a queue and starts its worker
func New(log zerolog.Logger) *Queue {
	q := &Queue{
		done: make(chan struct{}),
		log:  log.With().Str("component", "taskqueue").Logger(),
	}
	q.cond = sync.NewCond(&q.mu)

	go q.run()

	return q
}

// Enqueue submits a task without blocking. It returns false once the queue
// has been closed or terminated.
func (q *Queue) Enqueue(task Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.pending = append(q.pending, entry{id: uuid.New().String(), task: task})
	if _, ok := task.(terminateTask); ok {
		q.closed = true
	}
	q.cond.Signal()
	return true
}

// Close stops accepting tasks. The worker drains what is queued and exits.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
}

// Done is closed when the worker has exited
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of tasks waiting to run
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		e, ok := q.next()
		if !ok {
			q.log.Debug().Msg("Queue closed, worker exiting")
			return
		}
		if _, stop := e.task.(terminateTask); stop {
			q.log.Debug().Str("task_id", e.id).Msg("Terminate received, worker exiting")
			return
		}
		q.execute(e)
	}
}

func (q *Queue) next() (entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return entry{}, false
	}

	e := q.pending[0]
	q.pending[0] = entry{}
	q.pending = q.pending[1:]
	return e, true
}

func (q *Queue) execute(e entry) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().
				Str("task", e.task.Name()).
				Str("task_id", e.id).
				Interface("panic", r).
				Msg("Task panicked")
		}
	}()

	if err := e.task.Run(); err != nil {
		q.log.Error().
			Err(err).
			Str("task", e.task.Name()).
			Str("task_id", e.id).
			Msg("Task failed")
		return
	}
	q.log.Debug().Str("task", e.task.Name()).Str("task_id", e.id).Msg("Task completed")
}
