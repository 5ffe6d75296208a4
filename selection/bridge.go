package selection

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/parameter"
)

// Timing bounds the waits performed by the bridge
type Timing struct {
	Read        time.Duration // copy wait in ordinary contexts
	LongRead    time.Duration // copy wait for file and HTML producers
	OpenTimeout time.Duration // total clipboard open retry budget
	OpenStep    time.Duration
	PollStep    time.Duration
	// Settle is slept after a delivered paste; zero means Read for eager clipboards and no wait otherwise
	Settle time.Duration
}

// DefaultTiming returns the built-in wait budgets
func DefaultTiming() Timing {
	return Timing{
		Read:        parameter.SelectionTimeout,
		LongRead:    parameter.SelectionFileTimeout,
		OpenTimeout: parameter.ClipboardOpenTimeout,
		OpenStep:    parameter.ClipboardOpenStep,
		PollStep:    parameter.SelectionPollStep,
	}
}

// Observer is notified of bounded waits that expired
type Observer interface {
	SelectionTimeout(op string)
}

// snapshot is the saved clipboard content of one bridge operation
type snapshot map[FormatID][]byte

// Bridge reads and writes the foreground selection through the clipboard, restoring
// the user's clipboard content around every operation
type Bridge struct {
	clip     Clipboard
	keys     Keystroker
	windows  WindowInspector
	contexts *ContextTable
	clock    event.Clock
	timing   Timing
	observer Observer
	log      *zap.SugaredLogger

	ids   map[Format]FormatID
	stack []snapshot
}

// Option configures a Bridge
type Option func(*Bridge)

func WithTiming(t Timing) Option             { return func(b *Bridge) { b.timing = t } }
func WithClock(c event.Clock) Option         { return func(b *Bridge) { b.clock = c } }
func WithContexts(t *ContextTable) Option    { return func(b *Bridge) { b.contexts = t } }
func WithObserver(o Observer) Option         { return func(b *Bridge) { b.observer = o } }
func WithLogger(l *zap.SugaredLogger) Option { return func(b *Bridge) { b.log = l } }

// NewBridge resolves the format table once and returns a ready bridge
// keys and windows may be nil: without a keystroker the clipboard itself is the selection
func NewBridge(clip Clipboard, keys Keystroker, windows WindowInspector, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		clip:     clip,
		keys:     keys,
		windows:  windows,
		contexts: NewContextTable(),
		clock:    event.SystemClock{},
		timing:   DefaultTiming(),
		log:      zap.NewNop().Sugar(),
		ids:      make(map[Format]FormatID),
	}
	for _, o := range opts {
		o(b)
	}
	for _, f := range append(append([]Format{}, snapshotFormats...), FormatFiles, FormatIgnore) {
		id, err := clip.RegisterFormat(string(f))
		if err != nil {
			return nil, fmt.Errorf("register clipboard format %s: %w", f, err)
		}
		b.ids[f] = id
	}
	return b, nil
}

// Contexts exposes the window class table for user extension
func (b *Bridge) Contexts() *ContextTable { return b.contexts }

// Depth returns the number of live snapshots; zero outside an operation
func (b *Bridge) Depth() int { return len(b.stack) }

func (b *Bridge) context() Context {
	if b.windows == nil {
		return b.contexts.Classify("")
	}
	class, err := b.windows.ForegroundClass()
	if err != nil {
		b.log.Warnw("foreground window identification failed", "error", err)
		return b.contexts.Classify("")
	}
	return b.contexts.Classify(class)
}

// Get returns the current selection of the foreground application
// A copy that does not land within the budget yields the empty Dict; only a busy clipboard is an error
func (b *Bridge) Get() (Dict, error) {
	if b.keys == nil {
		return b.readDirect()
	}
	ctx := b.context()
	if ctx.Unreadable {
		return Dict{}, nil
	}

	if err := b.push(); err != nil {
		return Dict{}, err
	}
	defer b.pop()

	if err := b.withOpen(b.clip.Empty); err != nil {
		return Dict{}, err
	}
	seq := b.clip.Sequence()
	if err := b.keys.Send(ctx.Copy...); err != nil {
		b.log.Warnw("copy keystroke failed", "context", ctx.Name, "error", err)
		return Dict{}, nil
	}

	budget := b.timing.Read
	if ctx.LongWait {
		budget = b.timing.LongRead
	}
	if !b.waitFor(budget, func() bool { return b.clip.Sequence() != seq }) {
		b.timedOut("get")
		return Dict{}, nil
	}

	var sel Dict
	err := b.withOpen(func() error {
		for _, f := range []Format{FormatText, FormatHTML, FormatFiles} {
			if data, ok := b.clip.Read(b.ids[f]); ok {
				sel.decode(f, data)
			}
		}
		return nil
	})
	return sel, err
}

func (b *Bridge) readDirect() (Dict, error) {
	var sel Dict
	err := b.withOpen(func() error {
		for _, f := range []Format{FormatText, FormatHTML, FormatFiles} {
			if data, ok := b.clip.Read(b.ids[f]); ok {
				sel.decode(f, data)
			}
		}
		return nil
	})
	return sel, err
}

// Set pastes sel into the foreground application and restores the clipboard afterwards
// It reports whether the host pulled at least one format
func (b *Bridge) Set(sel Dict) (bool, error) {
	formats := sel.Formats()
	if len(formats) == 0 {
		return false, nil
	}
	if b.keys == nil {
		return b.writeDirect(sel, formats)
	}
	ctx := b.context()
	if len(ctx.Paste) == 0 {
		return false, nil
	}

	if err := b.push(); err != nil {
		return false, err
	}
	defer b.pop()

	if ctx.CutBeforePaste && len(ctx.Cut) > 0 {
		b.cut(ctx)
	}

	delivered := 0
	ids := make([]FormatID, 0, len(formats)+1)
	byID := make(map[FormatID]Format, len(formats)+1)
	for _, f := range formats {
		ids = append(ids, b.ids[f])
		byID[b.ids[f]] = f
	}
	ids = append(ids, b.ids[FormatIgnore])
	render := func(id FormatID) []byte {
		f, ok := byID[id]
		if !ok {
			return nil
		}
		delivered++
		return sel.encode(f)
	}
	err := b.withOpen(func() error {
		if err := b.clip.Empty(); err != nil {
			return err
		}
		return b.clip.Defer(ids, render)
	})
	if err != nil {
		return false, err
	}

	if err := b.keys.Send(ctx.Paste...); err != nil {
		b.log.Warnw("paste keystroke failed", "context", ctx.Name, "error", err)
		return false, nil
	}
	if !b.waitFor(b.timing.Read, func() bool { return delivered > 0 }) {
		b.timedOut("set")
		return false, nil
	}
	if settle := b.settle(); settle > 0 {
		b.clock.Sleep(settle)
	}
	return true, nil
}

// cut removes the host selection and waits for the cut to reach the clipboard
func (b *Bridge) cut(ctx Context) {
	seq := b.clip.Sequence()
	if err := b.keys.Send(ctx.Cut...); err != nil {
		b.log.Warnw("cut keystroke failed", "context", ctx.Name, "error", err)
		return
	}
	if !b.waitFor(b.timing.Read, func() bool { return b.clip.Sequence() != seq }) {
		b.timedOut("cut")
	}
}

// settle is the wait between a delivered paste and the clipboard restore
// An eager clipboard cannot report the host pull, so the whole read budget is used
func (b *Bridge) settle() time.Duration {
	if b.timing.Settle > 0 {
		return b.timing.Settle
	}
	if e, ok := b.clip.(EagerRenderer); ok && e.RendersEagerly() {
		return b.timing.Read
	}
	return 0
}

func (b *Bridge) writeDirect(sel Dict, formats []Format) (bool, error) {
	err := b.withOpen(func() error {
		if err := b.clip.Empty(); err != nil {
			return err
		}
		for _, f := range formats {
			if err := b.clip.Write(b.ids[f], sel.encode(f)); err != nil {
				return err
			}
		}
		return nil
	})
	return err == nil, err
}

// push saves the whitelisted formats of the current clipboard
func (b *Bridge) push() error {
	snap := make(snapshot)
	err := b.withOpen(func() error {
		for _, f := range snapshotFormats {
			if data, ok := b.clip.Read(b.ids[f]); ok {
				snap[b.ids[f]] = data
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.stack = append(b.stack, snap)
	return nil
}

// pop restores the most recent snapshot, marking the write for history tools
func (b *Bridge) pop() {
	if len(b.stack) == 0 {
		return
	}
	snap := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	err := b.withOpen(func() error {
		if err := b.clip.Empty(); err != nil {
			return err
		}
		for _, f := range snapshotFormats {
			if data, ok := snap[b.ids[f]]; ok {
				if err := b.clip.Write(b.ids[f], data); err != nil {
					return err
				}
			}
		}
		return b.clip.Write(b.ids[FormatIgnore], nil)
	})
	if err != nil {
		b.log.Warnw("clipboard restore failed", "error", err)
	}
}

// withOpen runs fn with the clipboard held, retrying Open in steps up to the open budget
func (b *Bridge) withOpen(fn func() error) error {
	start := b.clock.Now()
	for {
		err := b.clip.Open()
		if err == nil {
			break
		}
		if !errors.Is(err, ErrClipboardBusy) {
			return err
		}
		if b.clock.Now().Sub(start) >= b.timing.OpenTimeout {
			b.log.Warnw("clipboard open retry budget exhausted", "budget", b.timing.OpenTimeout)
			return fmt.Errorf("open clipboard after %s: %w", b.timing.OpenTimeout, ErrClipboardBusy)
		}
		b.clock.Sleep(b.timing.OpenStep)
	}
	defer func() {
		if err := b.clip.Close(); err != nil {
			b.log.Warnw("clipboard close failed", "error", err)
		}
	}()
	return fn()
}

func (b *Bridge) waitFor(budget time.Duration, cond func() bool) bool {
	start := b.clock.Now()
	for !cond() {
		if b.clock.Now().Sub(start) >= budget {
			return false
		}
		b.clock.Sleep(b.timing.PollStep)
	}
	return true
}

func (b *Bridge) timedOut(op string) {
	b.log.Debugw("selection wait expired", "op", op)
	if b.observer != nil {
		b.observer.SelectionTimeout(op)
	}
}
