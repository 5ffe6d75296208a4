package app

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/message"
)

// ErrPanic wraps a value recovered from a command or step
var ErrPanic = errors.New("command panicked")

// Traceback is the stored record of the last failure
type Traceback struct {
	Err    error
	Stack  string
	When   time.Time
	Source string
}

func (t Traceback) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v\n", t.Source, t.Err)
	fmt.Fprintf(&b, "at %s\n", t.When.Format(time.RFC3339))
	if t.Stack != "" {
		b.WriteString("\n")
		b.WriteString(t.Stack)
	}
	return b.String()
}

// SafetyNet keeps the last failure of command runs and script loads in a single slot
// and tells the user where to find it
type SafetyNet struct {
	clock  event.Clock
	submit func(*message.Message)
	log    *zap.SugaredLogger

	last *Traceback
}

func NewSafetyNet(clock event.Clock, submit func(*message.Message), log *zap.SugaredLogger) *SafetyNet {
	if clock == nil {
		clock = event.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SafetyNet{clock: clock, submit: submit, log: log}
}

// Guard runs fn, recording a returned error or a recovered panic; false means fn failed
func (n *SafetyNet) Guard(source string, fn func() error) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			n.Record(source, fmt.Errorf("%w: %v", ErrPanic, rec), debug.Stack())
			ok = false
		}
	}()
	if err := fn(); err != nil {
		n.Record(source, err, nil)
		return false
	}
	return true
}

// Record stores the failure and shows the standard error message
func (n *SafetyNet) Record(source string, err error, stack []byte) {
	n.keep(source, err, stack)
	n.notify(fmt.Sprintf("<p>An error occurred while running <command>%s</command>.</p>"+
		"<caption>Run <command>traceback</command> for details.</caption>", message.Escape(source)))
}

// RecordWith stores the failure and shows content instead of the standard message
func (n *SafetyNet) RecordWith(source string, err error, content string) {
	n.keep(source, err, nil)
	n.notify(content)
}

func (n *SafetyNet) keep(source string, err error, stack []byte) {
	n.log.Warnw("failure recorded", "source", source, "error", err)
	n.last = &Traceback{Err: err, Stack: string(stack), When: n.clock.Now(), Source: source}
}

func (n *SafetyNet) notify(content string) {
	if n.submit != nil {
		n.submit(message.Primary(content))
	}
}

// Last returns the stored failure
func (n *SafetyNet) Last() (Traceback, bool) {
	if n.last == nil {
		return Traceback{}, false
	}
	return *n.last, true
}

// Clear empties the slot
func (n *SafetyNet) Clear() { n.last = nil }
