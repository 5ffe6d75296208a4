package message

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/parameter"
)

// PrimaryState is the lifecycle of the overlay window
type PrimaryState uint8

const (
	PrimaryVisible PrimaryState = iota
	PrimaryFading
	PrimaryHidden
)

// MiniView is one entry of the rendered mini stack
type MiniView struct {
	Message *Message
	Hovered bool
	Sliding bool
}

// Display renders message state; calls arrive on the main loop
type Display interface {
	PrimaryChanged(m *Message, state PrimaryState)
	MinisChanged(stack []MiniView)
}

// Chime is notified when a message first becomes visible
type Chime interface {
	MessageShown(m *Message)
}

// Subscriber is the part of the bus the manager needs to follow input and time
type Subscriber interface {
	Subscribe(topic event.Topic, r event.Responder) error
	Unsubscribe(r event.Responder)
}

// Timing configures the manager's pacing
type Timing struct {
	Grace        time.Duration
	FadeOut      time.Duration
	Poll         time.Duration
	Slide        time.Duration
	MaxMiniStack int
}

// DefaultTiming returns the built-in pacing
func DefaultTiming() Timing {
	return Timing{
		Grace:        parameter.PrimaryGrace,
		FadeOut:      parameter.PrimaryFadeOut,
		Poll:         parameter.MiniPollInterval,
		Slide:        parameter.MiniSlideDuration,
		MaxMiniStack: parameter.MaxMiniMessages,
	}
}

type sliding struct {
	msg *Message
	at  time.Time
}

// Manager owns the primary overlay and the mini stack
//
// A primary message honours dismissal only after its grace period; dismissal fades it
// and, for messages also flagged mini, appends it to the stack. Mini members are
// polled on the timer and slide out once finished
type Manager struct {
	bus     Subscriber
	clock   event.Clock
	display Display
	chime   Chime
	timing  Timing
	log     *zap.SugaredLogger

	primary   *Message
	primaryAt time.Time
	fading    *Message
	fadeAt    time.Time

	minis    []*Message
	leaving  []sliding
	hoverID  string
	lastPoll time.Time

	onRelease func(*Message)

	dismissR *event.FuncResponder
	timerR   *event.FuncResponder
	watching bool
	ticking  bool
}

// NewManager returns a manager that follows bus input and time on demand
func NewManager(bus Subscriber, clock event.Clock, display Display, log *zap.SugaredLogger) *Manager {
	if clock == nil {
		clock = event.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Manager{
		bus:     bus,
		clock:   clock,
		display: display,
		timing:  DefaultTiming(),
		log:     log,
	}
	m.dismissR = event.NewResponder(func(event.Event) { m.OnDismissal() })
	m.timerR = event.NewResponder(func(event.Event) { m.Tick() })
	return m
}

// SetTiming replaces the pacing
func (m *Manager) SetTiming(t Timing) { m.timing = t }

// SetChime installs the audible cue
func (m *Manager) SetChime(c Chime) { m.chime = c }

// OnRelease installs a hook run once a message has completed every display it was flagged for
func (m *Manager) OnRelease(fn func(*Message)) { m.onRelease = fn }

// Submit dispatches msg by its flags
func (m *Manager) Submit(msg *Message) {
	if msg == nil {
		return
	}
	msg.ensureID()
	m.log.Debugw("message submitted", "id", msg.ID, "primary", msg.Primary, "mini", msg.Mini, "text", Text(msg.Content))

	switch {
	case msg.Primary:
		if m.primary != nil {
			m.beginFade()
		}
		m.primary = msg
		m.primaryAt = m.clock.Now()
		m.notifyPrimary(msg, PrimaryVisible)
		m.watchDismissal(true)
		m.tick(true)
		if m.chime != nil {
			m.chime.MessageShown(msg)
		}
	case msg.Mini:
		m.pushMini(msg)
		if m.chime != nil {
			m.chime.MessageShown(msg)
		}
	default:
		m.release(msg)
	}
}

// OnDismissal starts the primary fade once the grace period has elapsed
func (m *Manager) OnDismissal() {
	if m.primary == nil {
		return
	}
	if m.clock.Now().Sub(m.primaryAt) < m.timing.Grace {
		return
	}
	m.beginFade()
}

func (m *Manager) beginFade() {
	msg := m.primary
	m.primary = nil
	m.watchDismissal(false)

	if m.fading != nil {
		m.finishFade()
	}
	m.fading = msg
	m.fadeAt = m.clock.Now()
	m.notifyPrimary(msg, PrimaryFading)
	if msg.Mini {
		m.pushMini(msg)
	}
	m.tick(true)
}

func (m *Manager) finishFade() {
	msg := m.fading
	m.fading = nil
	m.notifyPrimary(msg, PrimaryHidden)
	if !msg.Mini {
		m.release(msg)
	}
}

func (m *Manager) pushMini(msg *Message) {
	m.minis = append(m.minis, msg)
	if over := len(m.minis) - m.timing.MaxMiniStack; m.timing.MaxMiniStack > 0 && over > 0 {
		for _, old := range m.minis[:over] {
			m.leaving = append(m.leaving, sliding{msg: old, at: m.clock.Now()})
		}
		m.minis = slices.Clone(m.minis[over:])
	}
	m.notifyMinis()
	m.tick(true)
}

// Tick advances fades and polls mini predicates
func (m *Manager) Tick() {
	now := m.clock.Now()
	if m.fading != nil && now.Sub(m.fadeAt) >= m.timing.FadeOut {
		m.finishFade()
	}

	changed := false
	if now.Sub(m.lastPoll) >= m.timing.Poll {
		m.lastPoll = now
		kept := m.minis[:0]
		for _, msg := range m.minis {
			if msg.finished() {
				m.leaving = append(m.leaving, sliding{msg: msg, at: now})
				changed = true
				continue
			}
			kept = append(kept, msg)
		}
		clear(m.minis[len(kept):])
		m.minis = kept
	}

	remaining := m.leaving[:0]
	for _, s := range m.leaving {
		if now.Sub(s.at) >= m.timing.Slide {
			if s.msg.ID == m.hoverID {
				m.hoverID = ""
			}
			m.release(s.msg)
			changed = true
			continue
		}
		remaining = append(remaining, s)
	}
	clear(m.leaving[len(remaining):])
	m.leaving = remaining

	if changed {
		m.notifyMinis()
	}
	if m.idle() {
		m.tick(false)
	}
}

func (m *Manager) idle() bool {
	return m.primary == nil && m.fading == nil && len(m.minis) == 0 && len(m.leaving) == 0
}

// Hover suppresses the mini message id and reveals its caption
func (m *Manager) Hover(id string) {
	if m.hoverID == id {
		return
	}
	m.hoverID = id
	m.notifyMinis()
}

// Unhover restores every mini message
func (m *Manager) Unhover() {
	m.Hover("")
}

// Primary returns the visible overlay message or nil
func (m *Manager) Primary() *Message { return m.primary }

// Fading returns the message currently fading out or nil
func (m *Manager) Fading() *Message { return m.fading }

// Minis returns the current stack, oldest first
func (m *Manager) Minis() []*Message { return slices.Clone(m.minis) }

// Stack returns the rendered view of the mini stack
func (m *Manager) Stack() []MiniView {
	views := make([]MiniView, 0, len(m.minis)+len(m.leaving))
	for _, s := range m.leaving {
		views = append(views, MiniView{Message: s.msg, Sliding: true})
	}
	for _, msg := range m.minis {
		views = append(views, MiniView{Message: msg, Hovered: msg.ID == m.hoverID})
	}
	return views
}

func (m *Manager) notifyPrimary(msg *Message, state PrimaryState) {
	if m.display != nil {
		m.display.PrimaryChanged(msg, state)
	}
}

func (m *Manager) notifyMinis() {
	if m.display != nil {
		m.display.MinisChanged(m.Stack())
	}
}

func (m *Manager) release(msg *Message) {
	m.log.Debugw("message released", "id", msg.ID)
	if m.onRelease != nil {
		m.onRelease(msg)
	}
}

func (m *Manager) watchDismissal(on bool) {
	if m.bus == nil || on == m.watching {
		return
	}
	m.watching = on
	if on {
		if err := m.bus.Subscribe(event.TopicDismissal, m.dismissR); err != nil {
			m.log.Warnw("subscribe dismissal", "error", err)
		}
		return
	}
	m.bus.Unsubscribe(m.dismissR)
}

func (m *Manager) tick(on bool) {
	if m.bus == nil || on == m.ticking {
		return
	}
	m.ticking = on
	if on {
		if err := m.bus.Subscribe(event.TopicTimer, m.timerR); err != nil {
			m.log.Warnw("subscribe timer", "error", err)
		}
		return
	}
	m.bus.Unsubscribe(m.timerR)
}
