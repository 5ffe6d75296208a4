package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/script"
	"github.com/lixenwraith/enso/webui"
)

// ErrLoopStopped is returned when the event loop ends without a quit
var ErrLoopStopped = errors.New("event loop stopped unexpectedly")

// Run starts the startup tasks and the settings server, then drives the event loop
// until Quit or ctx cancellation; services share the loop lifetime
func (c *Context) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancel = cancel

	c.startTasks()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := c.Bus.Run(gctx, c.Config.TickInterval, c.Wake)
		if gctx.Err() == nil {
			return fmt.Errorf("%w: %v", ErrLoopStopped, err)
		}
		return err
	})
	for _, svc := range c.services {
		g.Go(func() error { return svc(gctx) })
	}
	if c.Config.EnableWebUI {
		srv := webui.New(c.Config.WebUIAddr, c, c.Bus, c.Metrics, c.Log.Named("webui"))
		g.Go(func() error {
			if err := srv.Run(gctx); err != nil {
				// settings server failures do not stop the launcher
				c.Log.Warnw("settings server stopped", "addr", c.Config.WebUIAddr, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startTasks runs every command of the tasks file once in the background
func (c *Context) startTasks() {
	path := c.Config.TasksPath()
	f, err := script.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		c.ScriptFailed(path, err)
		return
	}
	for _, task := range f.Commands {
		if len(task.Body.Run) == 0 {
			continue
		}
		name := "task " + task.Name
		proc, err := c.Starter.Start(task.Body.Run, "")
		if err != nil {
			c.Net.Record(name, err, nil)
			continue
		}
		c.Log.Infow("startup task started", "task", task.Name)
		c.spawn(name, awaitTask(proc))
	}
}

func awaitTask(proc script.Process) event.Step {
	return event.StepFunc(func() (event.Status, error) {
		done, _, err := proc.Poll()
		switch {
		case !done:
			return event.Pending, nil
		case err != nil:
			return event.Failed, err
		default:
			return event.Done, nil
		}
	})
}
