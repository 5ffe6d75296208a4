package terminal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/layout"
	"github.com/lixenwraith/enso/message"
)

type posted struct {
	topic   event.Topic
	payload any
}

type recorder struct {
	mu    sync.Mutex
	posts []posted
	calls []func()
}

func (r *recorder) Post(topic event.Topic, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, posted{topic, payload})
}

func (r *recorder) Call(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fn)
}

func (r *recorder) snapshot() []posted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]posted(nil), r.posts...)
}

var testKeys = Bindings{Start: event.VKCapital, End: event.VKReturn, Cancel: event.VKEscape}

func newSim(t *testing.T, w, h int) (*Screen, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("")
	palette, err := layout.PaletteByName(layout.DefaultTheme)
	require.NoError(t, err)
	s := NewWith(sim, testKeys, palette, nil)
	require.NoError(t, s.Init())
	sim.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s, sim
}

func row(sim tcell.SimulationScreen, y int) string {
	w, _ := sim.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := sim.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestKeyTranslation(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want []posted
	}{
		{
			name: "ctrl space starts",
			ev:   tcell.NewEventKey(tcell.KeyCtrlSpace, 0, tcell.ModCtrl),
			want: []posted{{event.TopicKey, event.KeyEvent{Kind: event.KeyQuasimodeStart, Code: event.VKCapital}}},
		},
		{
			name: "enter ends",
			ev:   tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
			want: []posted{{event.TopicKey, event.KeyEvent{Kind: event.KeyQuasimodeEnd, Code: event.VKReturn}}},
		},
		{
			name: "escape cancels",
			ev:   tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
			want: []posted{{event.TopicKey, event.KeyEvent{Kind: event.KeyQuasimodeCancel, Code: event.VKEscape}}},
		},
		{
			name: "lower case letter",
			ev:   tcell.NewEventKey(tcell.KeyRune, 'g', tcell.ModNone),
			want: []posted{
				{event.TopicKey, event.KeyEvent{Kind: event.KeyDown, Code: event.VKA + 6}},
				{event.TopicKey, event.KeyEvent{Kind: event.KeyUp, Code: event.VKA + 6}},
			},
		},
		{
			name: "shifted character wraps in shift",
			ev:   tcell.NewEventKey(tcell.KeyRune, '?', tcell.ModNone),
			want: []posted{
				{event.TopicSomeKey, event.ModifierEvent{Code: event.VKShift, Down: true}},
				{event.TopicKey, event.KeyEvent{Kind: event.KeyDown, Code: event.VKOEM2}},
				{event.TopicKey, event.KeyEvent{Kind: event.KeyUp, Code: event.VKOEM2}},
				{event.TopicSomeKey, event.ModifierEvent{Code: event.VKShift, Down: false}},
			},
		},
		{
			name: "backspace",
			ev:   tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone),
			want: []posted{
				{event.TopicKey, event.KeyEvent{Kind: event.KeyDown, Code: event.VKBack}},
				{event.TopicKey, event.KeyEvent{Kind: event.KeyUp, Code: event.VKBack}},
			},
		},
		{
			name: "unmapped rune dropped",
			ev:   tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSim(t, 40, 10)
			rec := &recorder{}
			s.handle(tt.ev, rec)
			assert.Equal(t, tt.want, rec.snapshot())
		})
	}
}

func TestInterruptAndWake(t *testing.T) {
	s, _ := newSim(t, 40, 10)
	interrupted := false
	s.OnInterrupt(func() { interrupted = true })

	s.handle(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), &recorder{})
	assert.True(t, interrupted)

	select {
	case <-s.Wake():
	default:
		t.Fatal("expected a wake signal")
	}
}

func TestMouseEvents(t *testing.T) {
	s, _ := newSim(t, 40, 10)
	rec := &recorder{}
	s.handle(tcell.NewEventMouse(3, 4, tcell.ButtonNone, tcell.ModNone), rec)
	s.handle(tcell.NewEventMouse(5, 6, tcell.Button1, tcell.ModNone), rec)

	assert.Equal(t, []posted{
		{event.TopicMouseMove, event.MouseEvent{X: 3, Y: 4}},
		{event.TopicDismissal, event.MouseEvent{X: 5, Y: 6, Button: 1}},
	}, rec.snapshot())
}

func TestResizeRepaintsOnLoop(t *testing.T) {
	s, _ := newSim(t, 40, 10)
	rec := &recorder{}
	s.handle(tcell.NewEventResize(50, 12), rec)
	require.Len(t, rec.calls, 1)
	rec.calls[0]()
}

func TestDrawFrame(t *testing.T) {
	s, sim := newSim(t, 40, 10)
	l := layout.New(layout.CellMeasurer{}, layout.CellStyles(), s.palette, 40)
	s.Draw(l.Compose(layout.Input{Description: "open a file"}))

	assert.True(t, strings.HasPrefix(row(sim, 0), " open a file"))

	s.Hide()
	assert.Equal(t, strings.Repeat(" ", 40), row(sim, 0))
}

func TestDrawFrameClipsToScreen(t *testing.T) {
	s, sim := newSim(t, 10, 4)
	l := layout.New(layout.CellMeasurer{}, layout.CellStyles(), s.palette, 80)
	s.Draw(l.Compose(layout.Input{Description: "a description far wider than the screen"}))

	assert.Equal(t, " a descri◗", row(sim, 0))
}

func TestPrimaryMessage(t *testing.T) {
	s, sim := newSim(t, 30, 9)
	msg := message.Primary("<p>Hello <b>there</b></p>")

	s.PrimaryChanged(msg, message.PrimaryVisible)
	assert.Contains(t, row(sim, 4), "Hello there")

	s.PrimaryChanged(msg, message.PrimaryFading)
	assert.Contains(t, row(sim, 4), "Hello there")

	s.PrimaryChanged(msg, message.PrimaryHidden)
	assert.NotContains(t, row(sim, 4), "Hello")
}

func TestMiniStack(t *testing.T) {
	s, sim := newSim(t, 30, 6)
	first := message.Mini("first", "", nil)
	second := message.Mini("second", "hover caption", nil)

	s.MinisChanged([]message.MiniView{{Message: first}, {Message: second}})
	assert.True(t, strings.HasSuffix(row(sim, 5), "second "))
	assert.True(t, strings.HasSuffix(row(sim, 4), "first "))

	s.MinisChanged([]message.MiniView{{Message: first}, {Message: second, Hovered: true}})
	assert.True(t, strings.HasSuffix(row(sim, 5), "hover caption "))
}

func TestRunStopsOnCancel(t *testing.T) {
	s, sim := newSim(t, 20, 5)
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, rec) }()

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}

func TestSetMouseToggles(t *testing.T) {
	s, _ := newSim(t, 20, 5)
	s.SetMouse(true)
	assert.True(t, s.mouse)
	s.SetMouse(false)
	assert.False(t, s.mouse)
}
