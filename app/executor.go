package app

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
)

// repeatExpression is never remembered as the last command
const repeatExpression = "repeat last command"

// ErrStepFailed is recorded for a step that failed without an error
var ErrStepFailed = errors.New("command step failed")

// Execute implements quasimode.Executor
func (c *Context) Execute(m command.Match) {
	if m.Name != repeatExpression {
		last := m
		c.last = &last
	}
	c.run(m)
}

// Repeat re-runs the previous command with its argument
func (c *Context) Repeat() bool {
	if c.last == nil {
		return false
	}
	c.run(*c.last)
	return true
}

func (c *Context) run(m command.Match) {
	var step event.Step
	ok := c.Net.Guard(m.Name, func() error {
		var err error
		step, err = m.Command.Run(c, m.Arg)
		return err
	})
	if !ok {
		c.Metrics.CommandRuns.WithLabelValues("failed").Inc()
		return
	}
	c.Metrics.CommandRuns.WithLabelValues("ok").Inc()
	if step != nil {
		c.spawn(m.Name, step)
	}
}

// spawn hands step to the bus runner, routing failures and panics into the safety net
func (c *Context) spawn(name string, step event.Step) string {
	c.Metrics.LiveSteps.Inc()
	return c.Bus.Spawn(name, event.StepFunc(func() (status event.Status, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				status, err = event.Failed, fmt.Errorf("%w: %v", ErrPanic, rec)
				c.Net.Record(name, err, debug.Stack())
			}
			if status != event.Pending {
				c.Metrics.LiveSteps.Dec()
			}
		}()
		status, err = step.Poll()
		if status == event.Failed {
			if err == nil {
				err = ErrStepFailed
			}
			c.Net.Record(name, err, nil)
		}
		return status, err
	}))
}
