package builtin

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/parameter"
	"github.com/lixenwraith/enso/selection"
)

const category = "enso"

// Host is the application surface the built-in commands reach
type Host interface {
	// Traceback returns the formatted last failure
	Traceback() (string, bool)
	CommandCount() int
	// SettingsAddr is empty when the settings server is off
	SettingsAddr() string
	Quit()
	// Repeat re-runs the previous command; false when nothing ran yet
	Repeat() bool
}

// Commands returns the built-in command set
func Commands(host Host, calc *Calculator) []command.Command {
	b := &builtins{host: host, calc: calc}
	return []command.Command{
		command.New(command.Descriptor{
			Expression:  "traceback",
			Description: "Inserts the details of the last error",
			Help:        "Use this after an error message tells you to.",
			Category:    category,
		}, b.traceback),
		command.New(command.Descriptor{
			Expression:  "help",
			Description: "Shows how to use " + parameter.AppName,
			Category:    category,
		}, b.help),
		command.New(command.Descriptor{
			Expression:  "enso about",
			Description: "Shows the version",
			Category:    category,
		}, b.about),
		command.New(command.Descriptor{
			Expression:  "quit enso",
			Description: "Exits " + parameter.AppName,
			Category:    category,
		}, b.quit),
		command.New(command.Descriptor{
			Expression:  "calculate {expression}",
			Description: "Evaluates an arithmetic expression, or the selected one",
			Help:        "Supports + - * / and parentheses; <command>ans</command> is the previous result.",
			Category:    category,
			Kind:        command.ArgArbitrary,
		}, b.calculate),
		command.New(command.Descriptor{
			Expression:  "repeat last command",
			Description: "Runs the previous command again",
			Category:    category,
		}, b.repeat),
	}
}

type builtins struct {
	host Host
	calc *Calculator
}

func (b *builtins) traceback(api command.API, _ string) (event.Step, error) {
	text, ok := b.host.Traceback()
	if !ok {
		api.DisplayMessage("<p>No traceback available.</p>")
		return nil, nil
	}
	if _, err := api.SetSelection(selection.Dict{Text: text}); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *builtins) help(api command.API, _ string) (event.Step, error) {
	content := fmt.Sprintf("<p>Hold the quasimode key and type one of %d commands.</p>", b.host.CommandCount())
	if addr := b.host.SettingsAddr(); addr != "" {
		content += fmt.Sprintf("<caption>Settings at http://%s</caption>", message.Escape(addr))
	}
	api.DisplayMessage(content)
	return nil, nil
}

func (b *builtins) about(api command.API, _ string) (event.Step, error) {
	api.DisplayMessage(fmt.Sprintf("<p>%s %s</p><caption>A linguistic command line</caption>",
		parameter.AppName, parameter.Version))
	return nil, nil
}

func (b *builtins) quit(api command.API, _ string) (event.Step, error) {
	b.host.Quit()
	return nil, nil
}

// calculate evaluates arg, or the selected text when arg is empty; the result replaces the selection
func (b *builtins) calculate(api command.API, arg string) (event.Step, error) {
	expr := strings.TrimSpace(arg)
	fromSelection := expr == ""
	if fromSelection {
		sel, err := api.GetSelection()
		if err != nil {
			return nil, err
		}
		expr = strings.TrimSpace(sel.Text)
	}
	if expr == "" {
		api.DisplayMessage("<p>Type or select an expression to calculate.</p>")
		return nil, nil
	}

	v, err := b.calc.Eval(expr)
	if err != nil {
		api.DisplayMessage(fmt.Sprintf("<p>Cannot calculate <command>%s</command>.</p><caption>%s</caption>",
			message.Escape(expr), message.Escape(err.Error())))
		return nil, nil
	}
	result := FormatNumber(v)
	api.Submit(message.Both(
		fmt.Sprintf("<p>%s = %s</p>", message.Escape(expr), result),
		fmt.Sprintf("<p>%s</p>", result),
		nil,
	))

	out := result
	if fromSelection {
		out = expr + " = " + result
	}
	if _, err := api.SetSelection(selection.Dict{Text: out}); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *builtins) repeat(api command.API, _ string) (event.Step, error) {
	if !b.host.Repeat() {
		api.DisplayMessage("<p>There is no command to repeat.</p>")
	}
	return nil, nil
}
