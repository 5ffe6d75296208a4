package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/event"
)

type recordingDisplay struct {
	states []PrimaryState
	stacks [][]MiniView
}

func (d *recordingDisplay) PrimaryChanged(_ *Message, s PrimaryState) { d.states = append(d.states, s) }
func (d *recordingDisplay) MinisChanged(v []MiniView)                 { d.stacks = append(d.stacks, v) }

func newTestManager() (*Manager, *event.Bus, *event.ManualClock, *recordingDisplay) {
	clock := event.NewManualClock(time.Unix(100, 0))
	bus := event.NewBus(clock, nil)
	disp := &recordingDisplay{}
	return NewManager(bus, clock, disp, nil), bus, clock, disp
}

func TestManager_PrimaryGracePeriod(t *testing.T) {
	m, bus, clock, disp := newTestManager()
	m.Submit(Primary("<p>hello</p>"))
	require.NotNil(t, m.Primary())
	assert.Equal(t, 1, bus.Responders(event.TopicDismissal))

	clock.Advance(DefaultTiming().Grace / 2)
	bus.HandleKey(event.KeyEvent{Kind: event.KeyDown, Code: event.VKA})
	assert.NotNil(t, m.Primary(), "dismissal inside the grace period is ignored")

	clock.Advance(DefaultTiming().Grace)
	bus.HandleKey(event.KeyEvent{Kind: event.KeyDown, Code: event.VKA})
	assert.Nil(t, m.Primary())
	assert.NotNil(t, m.Fading())
	assert.Zero(t, bus.Responders(event.TopicDismissal))

	clock.Advance(DefaultTiming().FadeOut)
	bus.Pump()
	assert.Nil(t, m.Fading())
	assert.Equal(t, []PrimaryState{PrimaryVisible, PrimaryFading, PrimaryHidden}, disp.states)
	assert.Zero(t, bus.Responders(event.TopicTimer), "idle manager leaves the timer")
}

func TestManager_ReplacePrimaryFadesPrevious(t *testing.T) {
	m, _, _, disp := newTestManager()
	first := Primary("one")
	m.Submit(first)
	m.Submit(Primary("two"))
	assert.Equal(t, first, m.Fading())
	assert.Equal(t, "two", m.Primary().Content)
	assert.Equal(t, []PrimaryState{PrimaryVisible, PrimaryFading, PrimaryVisible}, disp.states)
}

func TestManager_PrimaryAndMiniMovesToStack(t *testing.T) {
	m, bus, clock, _ := newTestManager()
	var released []string
	m.OnRelease(func(msg *Message) { released = append(released, msg.ID) })

	done := false
	msg := Both("working", "a long task", func() bool { return done })
	m.Submit(msg)
	assert.Empty(t, m.Minis())

	clock.Advance(time.Second)
	m.OnDismissal()
	require.Len(t, m.Minis(), 1)

	clock.Advance(time.Second)
	bus.Pump()
	assert.Empty(t, released, "still on the mini stack")

	done = true
	clock.Advance(time.Second)
	bus.Pump()
	assert.Empty(t, m.Minis())
	clock.Advance(DefaultTiming().Slide)
	bus.Pump()
	assert.Equal(t, []string{msg.ID}, released)
}

func TestManager_MiniHover(t *testing.T) {
	m, _, _, disp := newTestManager()
	msg := Mini("toast", "caption", nil)
	m.Submit(msg)
	m.Hover(msg.ID)
	last := disp.stacks[len(disp.stacks)-1]
	require.Len(t, last, 1)
	assert.True(t, last[0].Hovered)

	m.Unhover()
	last = disp.stacks[len(disp.stacks)-1]
	assert.False(t, last[0].Hovered)
}

func TestManager_StackOverflowSlidesOldest(t *testing.T) {
	m, _, _, _ := newTestManager()
	m.SetTiming(Timing{Grace: 0, FadeOut: 0, Poll: 0, Slide: 0, MaxMiniStack: 2})
	for _, c := range []string{"a", "b", "c"} {
		m.Submit(Mini(c, "", nil))
	}
	minis := m.Minis()
	require.Len(t, minis, 2)
	assert.Equal(t, "b", minis[0].Content)
}

func TestManager_NeitherIsReleasedImmediately(t *testing.T) {
	m, _, _, _ := newTestManager()
	released := 0
	m.OnRelease(func(*Message) { released++ })
	m.Submit(&Message{Content: "nothing"})
	assert.Equal(t, 1, released)
}

func TestText(t *testing.T) {
	assert.Equal(t, "xyzzy is not a command.", Text("<p><command>xyzzy</command> is not a command.</p>"))
	assert.Equal(t, "a < b", Text("a &lt; b"))
}
