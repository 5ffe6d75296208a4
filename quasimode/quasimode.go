package quasimode

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/layout"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/parameter"
	"github.com/lixenwraith/enso/suggest"
)

// Renderer is the HUD sink
type Renderer interface {
	Draw(frame layout.Frame)
	Hide()
}

// NumLock reads and restores the keyboard NumLock state
type NumLock interface {
	NumLock() bool
	SetNumLock(on bool)
}

// Executor runs the winning command of a session
type Executor interface {
	Execute(m command.Match)
}

// Messenger receives user notifications
type Messenger interface {
	Submit(msg *message.Message)
}

// Config holds the quasimode options
type Config struct {
	StartKey  event.KeyCode
	EndKey    event.KeyCode
	CancelKey event.KeyCode
	Modal     bool

	SuggestionDelay         time.Duration
	TrailingSuggestionDelay time.Duration // used after a backspace shortens the typed text
	BadCommandMinChars      int
}

// DefaultConfig returns caps-lock / return / escape, modal
func DefaultConfig() Config {
	return Config{
		StartKey:                event.VKCapital,
		EndKey:                  event.VKReturn,
		CancelKey:               event.VKEscape,
		Modal:                   true,
		SuggestionDelay:         parameter.SuggestionDelay,
		TrailingSuggestionDelay: parameter.TrailingSuggestionDelay,
		BadCommandMinChars:      parameter.BadCommandMinChars,
	}
}

// Deps are the collaborators of a Quasimode
type Deps struct {
	Bus      *event.Bus
	Registry *command.Registry
	Index    *suggest.Index
	Layout   *layout.Layout
	Renderer Renderer
	Messages Messenger
	Executor Executor
	NumLock  NumLock
	Log      *zap.SugaredLogger
}

// Quasimode is the key and timer driven controller of a HUD session
type Quasimode struct {
	Deps
	cfg Config

	state State
	typed TypedState
	list  suggest.List

	shift      bool
	lastTyped  time.Time
	delay      time.Duration
	redraw     bool
	fullRedraw bool
	pending    bool

	numLockAtStart bool

	keyR     *event.FuncResponder
	someKeyR *event.FuncResponder
	timerR   *event.FuncResponder

	badCommandHooks []func(typed string)
}

// New creates the quasimode topics and subscribes to key input
func New(d Deps, cfg Config) (*Quasimode, error) {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	q := &Quasimode{Deps: d, cfg: cfg}
	q.keyR = event.NewResponder(q.onKey)
	q.someKeyR = event.NewResponder(q.onSomeKey)
	q.timerR = event.NewResponder(func(ev event.Event) { q.onTick(ev.At) })

	for _, t := range []event.Topic{event.TopicStartQuasimode, event.TopicEndQuasimode} {
		if !d.Bus.HasTopic(t) {
			if err := d.Bus.CreateTopic(t); err != nil {
				return nil, err
			}
		}
	}
	if err := d.Bus.Subscribe(event.TopicKey, q.keyR); err != nil {
		return nil, err
	}
	if err := d.Bus.Subscribe(event.TopicSomeKey, q.someKeyR); err != nil {
		return nil, err
	}
	return q, nil
}

// SetConfig applies new options; takes effect from the next key event
func (q *Quasimode) SetConfig(cfg Config) { q.cfg = cfg }

// Config returns the current options
func (q *Quasimode) Config() Config { return q.cfg }

// OnBadCommand registers a hook run when a session ends on unknown text
func (q *Quasimode) OnBadCommand(fn func(typed string)) {
	q.badCommandHooks = append(q.badCommandHooks, fn)
}

// State returns the lifecycle state
func (q *Quasimode) State() State { return q.state }

// Typed returns the live input buffer
func (q *Quasimode) Typed() *TypedState { return &q.typed }

// List returns the current suggestion snapshot
func (q *Quasimode) List() suggest.List { return q.list }

// Close unsubscribes every responder
func (q *Quasimode) Close() {
	q.Bus.Unsubscribe(q.keyR)
	q.Bus.Unsubscribe(q.someKeyR)
	q.Bus.Unsubscribe(q.timerR)
}

func (q *Quasimode) onSomeKey(ev event.Event) {
	if me, ok := ev.Payload.(event.ModifierEvent); ok && me.Code.IsShift() {
		q.shift = me.Down
	}
}

func (q *Quasimode) onKey(ev event.Event) {
	ke, ok := ev.Payload.(event.KeyEvent)
	if !ok {
		return
	}
	switch ke.Kind {
	case event.KeyQuasimodeStart:
		switch {
		case q.state == StateIdle:
			q.start()
		case q.cfg.Modal:
			q.end()
		}
	case event.KeyQuasimodeEnd:
		if q.state == StateIdle {
			return
		}
		// in sticky mode releasing the trigger does not end the session
		if q.cfg.Modal && ke.Code == q.cfg.StartKey {
			return
		}
		q.end()
	case event.KeyQuasimodeCancel:
		if q.state != StateIdle {
			q.cancel()
		}
	case event.KeyDown:
		if ke.Code.IsShift() {
			q.shift = true
			return
		}
		if q.state != StateIdle {
			q.onKeyDown(ke.Code, ev.At)
		}
	case event.KeyUp:
		if ke.Code.IsShift() {
			q.shift = false
		}
	}
}

func (q *Quasimode) start() {
	q.Log.Debugw("quasimode start")
	if err := q.Bus.Publish(event.TopicStartQuasimode, nil); err != nil {
		q.Log.Warnw("publish start", "error", err)
	}
	q.typed.Clear()
	q.list = nil
	q.pending = false
	q.fullRedraw = false
	q.redraw = true
	if q.NumLock != nil {
		q.numLockAtStart = q.NumLock.NumLock()
	}
	if err := q.Bus.Subscribe(event.TopicTimer, q.timerR); err != nil {
		q.Log.Warnw("subscribe timer", "error", err)
	}
	q.state = StateWaitingToRedraw
}

func (q *Quasimode) onKeyDown(code event.KeyCode, at time.Time) {
	delay := q.cfg.SuggestionDelay
	switch code {
	case event.VKBack:
		q.typed.Backspace()
		delay = q.cfg.TrailingSuggestionDelay
	case event.VKTab:
		q.autotype()
	case event.VKReturn:
		if q.cfg.EndKey == event.VKReturn {
			return
		}
		q.autotype()
	case event.VKEscape:
		if q.cfg.CancelKey == event.VKEscape {
			return
		}
		q.typed.Clear()
	case event.VKUp, event.VKDown:
		delta := 1
		if code == event.VKUp {
			delta = -1
		}
		q.refreshIfDirty()
		q.typed.active = q.list.Rotate(q.typed.active, delta)
		q.fullRedraw = true
		q.redraw = true
		q.state = StateWaitingToRedraw
		return
	default:
		r, ok := charFor(code, q.shift)
		if !ok {
			return
		}
		q.typed.Append(r)
	}
	q.lastTyped = at
	q.delay = delay
	q.redraw = true
	q.state = StateWaitingToRedraw
}

// autotype replaces the typed text with the active suggestion
func (q *Quasimode) autotype() {
	q.refreshIfDirty()
	if q.typed.active >= len(q.list) {
		return
	}
	s := q.list[q.typed.active]
	if s.IsEmpty() {
		return
	}
	q.typed.Set(s.Text())
}

func (q *Quasimode) refreshIfDirty() {
	if !q.typed.dirty {
		return
	}
	q.typed.dirty = false
	q.list = q.Index.Snapshot(q.typed.Text())
	if q.typed.active >= len(q.list) {
		q.typed.active = 0
	}
}

func (q *Quasimode) onTick(now time.Time) {
	if q.state == StateIdle {
		return
	}
	switch {
	case q.redraw:
		q.refreshIfDirty()
		q.redraw = false
		if q.fullRedraw || q.typed.Len() == 0 {
			q.fullRedraw = false
			q.pending = false
		} else {
			q.pending = true
		}
		q.draw()
	case q.pending && now.Sub(q.lastTyped) >= q.delay:
		q.pending = false
		q.draw()
	}
	if !q.pending && !q.redraw {
		q.state = StateActive
	}
}

func (q *Quasimode) draw() {
	if q.Renderer == nil || q.Layout == nil {
		return
	}
	q.Renderer.Draw(q.Layout.Compose(layout.Input{
		Description:        q.description(),
		List:               q.list,
		Active:             q.typed.active,
		SuggestionsPending: q.pending,
	}))
}

// description returns the description line markup
func (q *Quasimode) description() string {
	if q.typed.Len() == 0 {
		return message.Escape(parameter.WelcomeText)
	}
	text := q.activeText()
	if text == "" {
		return message.Escape(parameter.NoMatchText)
	}
	d, ok := q.Registry.Describe(text)
	if !ok || d.Description == "" {
		return message.Escape(parameter.NoMatchText)
	}
	return message.Escape(d.Description)
}

func (q *Quasimode) activeText() string {
	if q.typed.active < len(q.list) {
		return q.list[q.typed.active].Text()
	}
	return ""
}

func (q *Quasimode) cancel() {
	q.Log.Debugw("quasimode cancel", "typed", q.typed.Text())
	q.typed.Clear()
	q.list = nil
	q.finish(true)
}

func (q *Quasimode) end() {
	q.finish(false)
}

func (q *Quasimode) finish(cancelled bool) {
	if q.Renderer != nil {
		q.Renderer.Hide()
	}
	if !cancelled {
		q.execute()
	}
	q.typed.Clear()
	q.typed.dirty = false
	q.list = nil
	q.redraw = false
	q.pending = false
	q.state = StateIdle

	q.Bus.Unsubscribe(q.timerR)
	if q.NumLock != nil && q.NumLock.NumLock() != q.numLockAtStart {
		q.NumLock.SetNumLock(q.numLockAtStart)
	}
	if err := q.Bus.Publish(event.TopicEndQuasimode, event.EndQuasimode{Cancelled: cancelled}); err != nil {
		q.Log.Warnw("publish end", "error", err)
	}
}

func (q *Quasimode) execute() {
	q.refreshIfDirty()
	typed := q.typed.Text()
	if typed == "" {
		return
	}
	text := q.activeText()
	if text == "" {
		text = typed
	}
	if m, ok := q.Registry.Lookup(text); ok {
		q.Log.Debugw("quasimode execute", "command", m.Name, "arg", m.Arg)
		if q.Executor != nil {
			q.Executor.Execute(m)
		}
		return
	}
	if q.typed.Len() > q.cfg.BadCommandMinChars {
		q.badCommand(typed)
	}
}

func (q *Quasimode) badCommand(typed string) {
	msg := &message.Message{
		Primary: true,
		Content: fmt.Sprintf("<p><command>%s</command> is not a command.</p>", message.Escape(typed)),
	}
	if near, ok := q.Index.Nearest(typed); ok {
		msg.Caption = fmt.Sprintf("<p>Did you mean <command>%s</command>?</p>", message.Escape(near.Text()))
	}
	if q.Messages != nil {
		q.Messages.Submit(msg)
	}
	for _, h := range q.badCommandHooks {
		h(typed)
	}
}
