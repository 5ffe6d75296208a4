package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/selection"
)

var (
	ErrDuplicate  = errors.New("command already registered")
	ErrUnknown    = errors.New("command not registered")
	ErrExpression = errors.New("invalid command expression")
)

// ArgKind tags how a command accepts its argument
type ArgKind uint8

const (
	ArgNone ArgKind = iota
	ArgBounded
	ArgArbitrary
)

func (k ArgKind) String() string {
	switch k {
	case ArgNone:
		return "none"
	case ArgBounded:
		return "bounded"
	case ArgArbitrary:
		return "arbitrary"
	default:
		return fmt.Sprintf("ArgKind(%d)", k)
	}
}

// ArgSource publishes the current valid arguments of a bounded command
type ArgSource interface {
	Args() []string
}

// ArgSourceFunc adapts a function to ArgSource
type ArgSourceFunc func() []string

func (f ArgSourceFunc) Args() []string { return f() }

// StaticArgs is a fixed argument set
type StaticArgs []string

func (s StaticArgs) Args() []string { return s }

// Descriptor carries the metadata of a command
type Descriptor struct {
	Expression  string // "minimize" or "open {target}"
	Description string
	Help        string
	Category    string
	Kind        ArgKind
	Source      ArgSource // bounded commands only

	// OnQuasimodeStart runs on every session start while the command is registered
	OnQuasimodeStart func()
}

// API is the surface a running command sees
type API interface {
	GetSelection() (selection.Dict, error)
	SetSelection(sel selection.Dict) (bool, error)
	DisplayMessage(content string)
	Submit(msg *message.Message)
}

// Command is a runnable, described entry of the registry
// Run may return a non-nil step to continue work cooperatively on subsequent ticks
type Command interface {
	Describe() Descriptor
	Run(api API, arg string) (event.Step, error)
}

// RunFunc is the run entry point of a Func command
type RunFunc func(api API, arg string) (event.Step, error)

// Func is a Command built from a descriptor and a run function
type Func struct {
	Descriptor
	Fn RunFunc
}

// New returns a Func command
func New(d Descriptor, fn RunFunc) *Func {
	return &Func{Descriptor: d, Fn: fn}
}

func (f *Func) Describe() Descriptor { return f.Descriptor }

func (f *Func) Run(api API, arg string) (event.Step, error) {
	if f.Fn == nil {
		return nil, nil
	}
	return f.Fn(api, arg)
}

// Expression is the parsed form of a command expression
type Expression struct {
	Name   string // full text without the slot, "open" for "open {target}"
	Prefix string // literal text preceding the slot, "open "
	Slot   string // slot name, empty for bare commands
}

// HasSlot reports whether the expression is parameterized
func (e Expression) HasSlot() bool { return e.Slot != "" }

// ParseExpression validates and splits a command expression
// At most one slot is allowed and it must be the suffix
func ParseExpression(expr string) (Expression, error) {
	expr = strings.Join(strings.Fields(expr), " ")
	if expr == "" {
		return Expression{}, fmt.Errorf("%w: empty", ErrExpression)
	}
	open := strings.IndexByte(expr, '{')
	if open < 0 {
		if strings.ContainsRune(expr, '}') {
			return Expression{}, fmt.Errorf("%w: %q has unbalanced brace", ErrExpression, expr)
		}
		return Expression{Name: expr}, nil
	}
	if strings.Count(expr, "{") > 1 || strings.Count(expr, "}") != 1 {
		return Expression{}, fmt.Errorf("%w: %q has more than one slot", ErrExpression, expr)
	}
	if !strings.HasSuffix(expr, "}") {
		return Expression{}, fmt.Errorf("%w: %q slot must be the suffix", ErrExpression, expr)
	}
	prefix := expr[:open]
	slot := expr[open+1 : len(expr)-1]
	if slot == "" || strings.TrimSpace(prefix) == "" || !strings.HasSuffix(prefix, " ") {
		return Expression{}, fmt.Errorf("%w: %q", ErrExpression, expr)
	}
	return Expression{
		Name:   strings.TrimSpace(prefix),
		Prefix: prefix,
		Slot:   slot,
	}, nil
}
