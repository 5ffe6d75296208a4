package script

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/selection"
)

// scriptCommand runs a Spec through a Starter
type scriptCommand struct {
	spec    Spec
	desc    command.Descriptor
	starter Starter
}

func (c *scriptCommand) Describe() command.Descriptor { return c.desc }

func (c *scriptCommand) Run(api command.API, arg string) (event.Step, error) {
	b := c.spec.Body
	if b.Message != "" {
		api.DisplayMessage(b.Message)
		return nil, nil
	}

	var sel string
	if b.Stdin == "selection" || wantsSelection(b.Run) {
		d, err := api.GetSelection()
		if err != nil {
			return nil, err
		}
		sel = d.Text
	}
	stdin := ""
	if b.Stdin == "selection" {
		stdin = sel
	}

	proc, err := c.starter.Start(expand(b.Run, b.Arg, arg, sel), stdin)
	if err != nil {
		return nil, err
	}
	return c.await(api, proc), nil
}

// await polls proc once per tick and routes its output when it exits
func (c *scriptCommand) await(api command.API, proc Process) event.Step {
	return event.StepFunc(func() (event.Status, error) {
		done, out, err := proc.Poll()
		if !done {
			return event.Pending, nil
		}
		if err != nil {
			return event.Failed, fmt.Errorf("%s: %w", c.spec.Expression, err)
		}
		out = strings.TrimRight(out, "\r\n")
		switch c.spec.Body.Output {
		case OutputMessage:
			if out != "" {
				api.DisplayMessage("<p>" + message.Escape(out) + "</p>")
			}
		case OutputPaste:
			if out != "" {
				if _, err := api.SetSelection(selection.Dict{Text: out}); err != nil {
					return event.Failed, err
				}
			}
		}
		return event.Done, nil
	})
}
