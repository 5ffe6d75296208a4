package quasimode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/layout"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/parameter"
	"github.com/lixenwraith/enso/suggest"
)

type fakeRenderer struct {
	frames []layout.Frame
	hides  int
}

func (r *fakeRenderer) Draw(f layout.Frame) { r.frames = append(r.frames, f) }
func (r *fakeRenderer) Hide()               { r.hides++ }

func (r *fakeRenderer) last() layout.Frame { return r.frames[len(r.frames)-1] }

type fakeExecutor struct{ runs []command.Match }

func (e *fakeExecutor) Execute(m command.Match) { e.runs = append(e.runs, m) }

type fakeMessages struct{ msgs []*message.Message }

func (m *fakeMessages) Submit(msg *message.Message) { m.msgs = append(m.msgs, msg) }

type fakeNumLock struct{ on bool }

func (n *fakeNumLock) NumLock() bool      { return n.on }
func (n *fakeNumLock) SetNumLock(on bool) { n.on = on }

type harness struct {
	t        *testing.T
	q        *Quasimode
	bus      *event.Bus
	clock    *event.ManualClock
	reg      *command.Registry
	renderer *fakeRenderer
	exec     *fakeExecutor
	msgs     *fakeMessages
	numLock  *fakeNumLock
}

func newHarness(t *testing.T, modal bool, cmds ...command.Command) *harness {
	t.Helper()
	clock := event.NewManualClock(time.Unix(1000, 0))
	bus := event.NewBus(clock, nil)
	reg := command.NewRegistry(nil)
	for _, c := range cmds {
		require.NoError(t, reg.Register(c))
	}
	h := &harness{
		t:        t,
		bus:      bus,
		clock:    clock,
		reg:      reg,
		renderer: &fakeRenderer{},
		exec:     &fakeExecutor{},
		msgs:     &fakeMessages{},
		numLock:  &fakeNumLock{},
	}
	cfg := DefaultConfig()
	cfg.Modal = modal
	q, err := New(Deps{
		Bus:      bus,
		Registry: reg,
		Index:    suggest.NewIndex(reg, parameter.MinAutocompleteChars, parameter.MaxSuggestions),
		Layout:   layout.New(layout.CellMeasurer{}, layout.CellStyles(), layout.Palette{}, 200),
		Renderer: h.renderer,
		Messages: h.msgs,
		Executor: h.exec,
		NumLock:  h.numLock,
	}, cfg)
	require.NoError(t, err)
	h.q = q
	return h
}

func bare(name string) *command.Func {
	return command.New(command.Descriptor{Expression: name, Description: "does " + name}, nil)
}

func (h *harness) key(kind event.KeyKind, code event.KeyCode) {
	h.bus.HandleKey(event.KeyEvent{Kind: kind, Code: code})
}

func (h *harness) start() { h.key(event.KeyQuasimodeStart, event.VKCapital) }

func (h *harness) release() { h.key(event.KeyQuasimodeEnd, event.VKCapital) }

func (h *harness) typeText(s string) {
	for _, r := range s {
		code, shift, ok := KeyForRune(r)
		require.True(h.t, ok, "no key for %q", r)
		if shift {
			h.bus.HandleSomeKey(event.ModifierEvent{Code: event.VKShift, Down: true})
		}
		h.key(event.KeyDown, code)
		if shift {
			h.bus.HandleSomeKey(event.ModifierEvent{Code: event.VKShift, Down: false})
		}
	}
}

func (h *harness) tick(d time.Duration) {
	h.clock.Advance(d)
	h.bus.Pump()
}

func TestQuasimode_AutocompletePrefixAndRotate(t *testing.T) {
	minimize, minimizeAll := bare("minimize"), bare("minimize all")
	h := newHarness(t, false, minimize, minimizeAll)

	h.start()
	assert.Equal(t, StateWaitingToRedraw, h.q.State())
	h.typeText("mi")
	h.tick(parameter.TickInterval)

	list := h.q.List()
	require.Len(t, list, 2)
	assert.Equal(t, "minimize", list[0].Text())
	assert.Equal(t, "minimize all", list[1].Text())

	h.key(event.KeyDown, event.VKUp)
	assert.Equal(t, 1, h.q.Typed().Active())

	h.release()
	require.Len(t, h.exec.runs, 1)
	assert.Same(t, minimizeAll, h.exec.runs[0].Command)
	assert.Equal(t, StateIdle, h.q.State())
}

func TestQuasimode_ParameterizedFactory(t *testing.T) {
	open := command.New(command.Descriptor{
		Expression: "open {target}",
		Kind:       command.ArgBounded,
		Source:     command.StaticArgs{"mail", "music"},
	}, nil)
	h := newHarness(t, false, open)

	h.start()
	h.typeText("open ma")
	h.tick(parameter.TickInterval)
	assert.Equal(t, "open mail", h.q.List()[0].Text())

	h.release()
	require.Len(t, h.exec.runs, 1)
	assert.Same(t, open, h.exec.runs[0].Command)
	assert.Equal(t, "mail", h.exec.runs[0].Arg)
}

func TestQuasimode_EquivalenceClass(t *testing.T) {
	foo := bare("foo @")
	h := newHarness(t, false, foo)
	h.start()
	h.typeText("foo 2")
	h.release()
	require.Len(t, h.exec.runs, 1)
	assert.Same(t, foo, h.exec.runs[0].Command)
}

func TestQuasimode_BadCommand(t *testing.T) {
	h := newHarness(t, false, bare("help"))
	var hooked []string
	h.q.OnBadCommand(func(typed string) { hooked = append(hooked, typed) })

	h.start()
	h.typeText("xyzzy")
	h.release()

	assert.Empty(t, h.exec.runs)
	require.Len(t, h.msgs.msgs, 1)
	msg := h.msgs.msgs[0]
	assert.True(t, msg.Primary)
	assert.Equal(t, "xyzzy is not a command.", message.Text(msg.Content))
	assert.Equal(t, "Did you mean help?", message.Text(msg.Caption))
	assert.Equal(t, []string{"xyzzy"}, hooked)
}

func TestQuasimode_ShortBadCommandIsSilent(t *testing.T) {
	h := newHarness(t, false, bare("help"))
	h.start()
	h.typeText("zq")
	h.release()
	assert.Empty(t, h.msgs.msgs)
}

func TestQuasimode_Cancel(t *testing.T) {
	h := newHarness(t, false, bare("help"))
	h.start()
	h.typeText("help")
	h.key(event.KeyQuasimodeCancel, event.VKEscape)

	assert.Empty(t, h.exec.runs)
	assert.Empty(t, h.msgs.msgs)
	assert.Zero(t, h.q.Typed().Len())
	assert.Equal(t, StateIdle, h.q.State())
	assert.Equal(t, 1, h.renderer.hides)
}

func TestQuasimode_EndUnsubscribesTimerAndRestoresNumLock(t *testing.T) {
	h := newHarness(t, false, bare("help"))
	h.numLock.on = true
	h.start()
	assert.True(t, h.bus.IsSubscribed(event.TopicTimer, h.q.timerR))
	h.numLock.on = false
	h.typeText("help")
	h.release()

	assert.False(t, h.bus.IsSubscribed(event.TopicTimer, h.q.timerR))
	assert.True(t, h.numLock.on)
	assert.Zero(t, h.q.Typed().Len())
}

func TestQuasimode_TopicsPublished(t *testing.T) {
	h := newHarness(t, false, bare("help"))
	var seen []string
	require.NoError(t, h.bus.Subscribe(event.TopicStartQuasimode, event.NewResponder(func(event.Event) { seen = append(seen, "start") })))
	require.NoError(t, h.bus.Subscribe(event.TopicEndQuasimode, event.NewResponder(func(ev event.Event) {
		end := ev.Payload.(event.EndQuasimode)
		if end.Cancelled {
			seen = append(seen, "cancel")
			return
		}
		seen = append(seen, "end")
	})))
	h.start()
	h.release()
	h.start()
	h.key(event.KeyQuasimodeCancel, event.VKEscape)
	assert.Equal(t, []string{"start", "end", "start", "cancel"}, seen)
}

func TestQuasimode_ModalEndsOnSecondPress(t *testing.T) {
	help := bare("help")
	h := newHarness(t, true, help)
	h.start()
	h.typeText("help")
	h.release()
	assert.NotEqual(t, StateIdle, h.q.State(), "sticky session survives release")
	assert.Empty(t, h.exec.runs)

	h.start()
	assert.Equal(t, StateIdle, h.q.State())
	require.Len(t, h.exec.runs, 1)

	h.start()
	h.typeText("help")
	h.key(event.KeyQuasimodeEnd, event.VKReturn)
	assert.Equal(t, StateIdle, h.q.State())
	assert.Len(t, h.exec.runs, 2)
}

func TestQuasimode_SpringLoadedSuggestions(t *testing.T) {
	h := newHarness(t, false, bare("minimize"), bare("minimize all"))
	h.start()
	h.tick(parameter.TickInterval)
	require.Len(t, h.renderer.frames, 1)
	assert.Len(t, h.renderer.last().Lines, 1, "empty input shows only the welcome line")

	h.typeText("mi")
	h.tick(parameter.TickInterval)
	require.Len(t, h.renderer.frames, 2)
	assert.Len(t, h.renderer.last().Lines, 2, "suggestions wait for the delay")
	assert.Equal(t, StateWaitingToRedraw, h.q.State())

	h.tick(parameter.SuggestionDelay / 2)
	assert.Len(t, h.renderer.frames, 2)

	h.tick(parameter.SuggestionDelay)
	require.Len(t, h.renderer.frames, 3)
	assert.Len(t, h.renderer.last().Lines, 3)
	assert.Equal(t, StateActive, h.q.State())

	h.typeText("n")
	h.key(event.KeyDown, event.VKDown)
	h.tick(parameter.TickInterval)
	assert.Len(t, h.renderer.last().Lines, 3, "rotation draws the full list immediately")
}

func TestQuasimode_BackspaceToEmptyShowsWelcome(t *testing.T) {
	h := newHarness(t, false, bare("help"))
	h.start()
	h.typeText("h")
	h.tick(parameter.TickInterval)
	assert.Equal(t, "does help", layout.Plain(h.renderer.last().Lines[0].Markup))

	h.key(event.KeyDown, event.VKBack)
	h.tick(parameter.TickInterval)
	assert.Equal(t, parameter.WelcomeText, layout.Plain(h.renderer.last().Lines[0].Markup))
	h.key(event.KeyDown, event.VKBack)
	assert.Zero(t, h.q.Typed().Len())
}

func TestQuasimode_TabAutotypes(t *testing.T) {
	h := newHarness(t, false, bare("minimize"))
	h.start()
	h.typeText("mi")
	h.key(event.KeyDown, event.VKTab)
	assert.Equal(t, "minimize", h.q.Typed().Text())
}

func TestQuasimode_ShiftedCharacters(t *testing.T) {
	h := newHarness(t, false)
	h.start()
	h.typeText("A!")
	assert.Equal(t, "A!", h.q.Typed().Text())
	h.key(event.KeyDown, event.VKF1)
	assert.Equal(t, "A!", h.q.Typed().Text(), "keys outside the whitelist are ignored")
}

func TestTypedState_CollapsesWhitespace(t *testing.T) {
	var ts TypedState
	for _, r := range "  a  b " {
		ts.Append(r)
	}
	assert.Equal(t, "a b ", ts.Text())
	ts.Set("x   y")
	assert.Equal(t, "x y", ts.Text())
}

func TestQuasimode_BackspaceUsesTrailingDelay(t *testing.T) {
	h := newHarness(t, false, bare("minimize"), bare("minimize all"))
	cfg := h.q.Config()
	cfg.TrailingSuggestionDelay = 50 * time.Millisecond
	h.q.SetConfig(cfg)

	h.start()
	h.typeText("mini")
	h.tick(parameter.TickInterval)
	h.tick(parameter.SuggestionDelay)
	require.Len(t, h.renderer.last().Lines, 3)
	frames := len(h.renderer.frames)

	h.key(event.KeyDown, event.VKBack)
	h.tick(parameter.TickInterval)
	require.Len(t, h.renderer.frames, frames+1)
	assert.Len(t, h.renderer.last().Lines, 2, "suggestions wait for the trailing delay")

	h.tick(cfg.TrailingSuggestionDelay)
	require.Len(t, h.renderer.frames, frames+2, "trailing delay is shorter than the typing delay")
	assert.Len(t, h.renderer.last().Lines, 3)
	assert.Equal(t, StateActive, h.q.State())
}

func TestQuasimode_TypedEmptyWhenEndPublished(t *testing.T) {
	help := bare("help")
	h := newHarness(t, false, help)
	typedAtEnd := -1
	var stateAtEnd State
	require.NoError(t, h.bus.Subscribe(event.TopicEndQuasimode, event.NewResponder(func(event.Event) {
		typedAtEnd = h.q.Typed().Len()
		stateAtEnd = h.q.State()
	})))

	h.start()
	h.typeText("help")
	h.release()

	require.Len(t, h.exec.runs, 1, "the typed command still runs")
	assert.Equal(t, "help", h.exec.runs[0].Name)
	assert.Zero(t, typedAtEnd)
	assert.Equal(t, StateIdle, stateAtEnd)
	assert.Empty(t, h.q.List())
}
