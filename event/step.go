package event

import (
	"errors"
	"fmt"
	"iter"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Status is the result of advancing a cooperative generator by one step
type Status uint8

const (
	Pending Status = iota
	Done
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Step is a stepwise-resumable unit of work returned by a command
// Poll must not block; it is called once per timer tick until it reports Done or Failed
type Step interface {
	Poll() (Status, error)
}

// StepFunc adapts a function to the Step contract
type StepFunc func() (Status, error)

func (f StepFunc) Poll() (Status, error) { return f() }

// Iterate wraps a Go iterator as a Step; each yielded value is one step
// A non-nil yielded error fails the step, exhausting the iterator completes it
func Iterate(seq iter.Seq[error]) Step {
	next, stop := iter.Pull(seq)
	finished := false
	return StepFunc(func() (Status, error) {
		if finished {
			return Done, nil
		}
		err, ok := next()
		if !ok {
			finished = true
			stop()
			return Done, nil
		}
		if err != nil {
			finished = true
			stop()
			return Failed, err
		}
		return Pending, nil
	})
}

// ErrStepPanic wraps a panic recovered while polling a step
var ErrStepPanic = errors.New("step panicked")

type task struct {
	id   string
	name string
	step Step
}

// Runner owns the collection of live cooperative generators
// Single-threaded: only the main loop calls Add and Tick
type Runner struct {
	tasks []task
	log   *zap.SugaredLogger
}

func NewRunner(log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{log: log}
}

// Add registers a step and returns its handle
func (r *Runner) Add(name string, step Step) string {
	if step == nil {
		return ""
	}
	id := ulid.Make().String()
	r.tasks = append(r.tasks, task{id: id, name: name, step: step})
	return id
}

// Tick advances every live step by one poll, removing completed and failed ones
func (r *Runner) Tick() {
	if len(r.tasks) == 0 {
		return
	}
	// Steps added during this tick are first polled next tick
	live := r.tasks
	r.tasks = nil
	kept := live[:0]
	for _, t := range live {
		status, err := r.poll(t)
		switch status {
		case Pending:
			kept = append(kept, t)
		case Failed:
			r.log.Warnw("cooperative step failed", "task", t.name, "id", t.id, "error", err)
		}
	}
	r.tasks = append(kept, r.tasks...)
}

func (r *Runner) poll(t task) (status Status, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			status, err = Failed, fmt.Errorf("%w: %v", ErrStepPanic, rec)
		}
	}()
	return t.step.Poll()
}

// Len returns the number of live steps
func (r *Runner) Len() int {
	return len(r.tasks)
}

// Has reports whether the handle is still live
func (r *Runner) Has(id string) bool {
	for _, t := range r.tasks {
		if t.id == id {
			return true
		}
	}
	return false
}
