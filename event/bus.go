package event

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/parameter"
)

var (
	// ErrUnknownTopic is returned when subscribing or publishing to a topic that was never created
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrTopicExists is returned when creating a topic that already exists
	ErrTopicExists = errors.New("topic already exists")
)

// Responder receives events from subscribed topics
// Implementations must be comparable (pointer receivers) so they can be unsubscribed
type Responder interface {
	Respond(ev Event)
}

// FuncResponder adapts a function to Responder with pointer identity
type FuncResponder struct {
	fn func(Event)
}

// NewResponder wraps fn; keep the returned pointer to unsubscribe later
func NewResponder(fn func(Event)) *FuncResponder {
	return &FuncResponder{fn: fn}
}

func (r *FuncResponder) Respond(ev Event) { r.fn(ev) }

// Bus is the single-threaded responder table and dispatcher
//
// Architecture:
//   - Responders on a topic run in subscription order
//   - A responder appears at most once per topic
//   - Cross-thread producers use Post; everything else runs on the main loop
//   - Pump runs one tick: queued input first, then timer, then idle
type Bus struct {
	topics map[Topic][]Responder

	queue  *Queue
	runner *Runner
	clock  Clock
	log    *zap.SugaredLogger

	// Mouse capture is requested from the provider only while someone listens
	mouseWanted   bool
	onMouseWanted func(bool)

	idleInterval time.Duration
	lastInput    time.Time
	idleFired    bool

	ticks uint64
}

// NewBus creates a bus with the built-in topics
func NewBus(clock Clock, log *zap.SugaredLogger) *Bus {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	b := &Bus{
		topics:       make(map[Topic][]Responder, len(builtinTopics)+2),
		queue:        NewQueue(),
		runner:       NewRunner(log),
		clock:        clock,
		log:          log,
		idleInterval: parameter.IdleInterval,
		lastInput:    clock.Now(),
	}
	for _, t := range builtinTopics {
		b.topics[t] = nil
	}
	return b
}

// SetIdleInterval configures the input quiet period before idle fires
func (b *Bus) SetIdleInterval(d time.Duration) {
	if d > 0 {
		b.idleInterval = d
	}
}

// OnMouseWanted installs the provider hook toggled when mouse capture need changes
func (b *Bus) OnMouseWanted(fn func(bool)) {
	b.onMouseWanted = fn
	if fn != nil {
		fn(b.mouseWanted)
	}
}

// CreateTopic adds a dynamic topic
func (b *Bus) CreateTopic(name Topic) error {
	if _, ok := b.topics[name]; ok {
		return fmt.Errorf("%w: %s", ErrTopicExists, name)
	}
	b.topics[name] = nil
	return nil
}

// HasTopic reports whether the topic exists
func (b *Bus) HasTopic(name Topic) bool {
	_, ok := b.topics[name]
	return ok
}

// Subscribe adds r to topic; idempotent per (topic, responder)
func (b *Bus) Subscribe(topic Topic, r Responder) error {
	list, ok := b.topics[topic]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if slices.Contains(list, r) {
		return nil
	}
	b.topics[topic] = append(list, r)
	b.refreshMouse()
	return nil
}

// Unsubscribe removes r from every topic
func (b *Bus) Unsubscribe(r Responder) {
	for topic, list := range b.topics {
		if i := slices.Index(list, r); i >= 0 {
			b.topics[topic] = slices.Delete(slices.Clone(list), i, i+1)
		}
	}
	b.refreshMouse()
}

// IsSubscribed reports whether r is on topic
func (b *Bus) IsSubscribed(topic Topic, r Responder) bool {
	return slices.Contains(b.topics[topic], r)
}

// Responders returns the number of responders on topic
func (b *Bus) Responders(topic Topic) int {
	return len(b.topics[topic])
}

// Publish invokes every responder of topic synchronously in subscription order
// A panicking responder is logged and skipped
func (b *Bus) Publish(topic Topic, payload any) error {
	list, ok := b.topics[topic]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if len(list) == 0 {
		return nil
	}
	ev := Event{Topic: topic, Payload: payload, At: b.clock.Now()}
	// Snapshot so responders may (un)subscribe while being dispatched
	for _, r := range slices.Clone(list) {
		b.dispatch(r, ev)
	}
	return nil
}

func (b *Bus) dispatch(r Responder, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Warnw("responder raised", "topic", ev.Topic, "panic", rec)
		}
	}()
	r.Respond(ev)
}

// Post enqueues an event from any goroutine; it is published during the next Pump
func (b *Bus) Post(topic Topic, payload any) {
	b.queue.Push(Event{Topic: topic, Payload: payload, At: b.clock.Now()})
}

// Call schedules fn to run on the main loop during the next Pump
func (b *Bus) Call(fn func()) {
	b.queue.Push(Event{Payload: Func(fn), At: b.clock.Now()})
}

// Spawn hands a cooperative step to the runner, advanced on every timer tick
func (b *Bus) Spawn(name string, step Step) string {
	return b.runner.Add(name, step)
}

// Runner exposes the cooperative generator collection
func (b *Bus) Runner() *Runner {
	return b.runner
}

// Clock returns the bus time source
func (b *Bus) Clock() Clock {
	return b.clock
}

// HandleKey routes a key event: key topic then dismissal
func (b *Bus) HandleKey(ke KeyEvent) {
	b.noteInput()
	_ = b.Publish(TopicKey, ke)
	_ = b.Publish(TopicDismissal, ke)
}

// HandleSomeKey routes a modifier or non-quasimodal key
func (b *Bus) HandleSomeKey(me ModifierEvent) {
	b.noteInput()
	_ = b.Publish(TopicSomeKey, me)
}

// HandleMouseMove routes pointer motion: mousemove then dismissal
func (b *Bus) HandleMouseMove(me MouseEvent) {
	b.noteInput()
	_ = b.Publish(TopicMouseMove, me)
	_ = b.Publish(TopicDismissal, me)
}

// HandleMouseButton routes a button press as a dismissal
func (b *Bus) HandleMouseButton(me MouseEvent) {
	b.noteInput()
	_ = b.Publish(TopicDismissal, me)
}

// Pump runs one loop iteration: queued events, timer responders, cooperative steps, idle check
func (b *Bus) Pump() {
	for _, ev := range b.queue.Drain() {
		b.deliver(ev)
	}

	b.ticks++
	_ = b.Publish(TopicTimer, b.ticks)
	b.runner.Tick()

	now := b.clock.Now()
	if !b.idleFired && now.Sub(b.lastInput) >= b.idleInterval {
		b.idleFired = true
		_ = b.Publish(TopicIdle, now.Sub(b.lastInput))
	}
}

// Ticks returns the number of completed pumps
func (b *Bus) Ticks() uint64 {
	return b.ticks
}

func (b *Bus) deliver(ev Event) {
	switch p := ev.Payload.(type) {
	case Func:
		defer func() {
			if rec := recover(); rec != nil {
				b.log.Warnw("posted call raised", "panic", rec)
			}
		}()
		p()
		return
	case KeyEvent:
		if ev.Topic == TopicKey {
			b.HandleKey(p)
			return
		}
	case ModifierEvent:
		if ev.Topic == TopicSomeKey {
			b.HandleSomeKey(p)
			return
		}
	case MouseEvent:
		switch {
		case ev.Topic == TopicMouseMove:
			b.HandleMouseMove(p)
			return
		case ev.Topic == TopicDismissal:
			b.HandleMouseButton(p)
			return
		}
	}
	if err := b.Publish(ev.Topic, ev.Payload); err != nil {
		b.log.Warnw("dropping posted event", "topic", ev.Topic, "error", err)
	}
}

func (b *Bus) noteInput() {
	b.lastInput = b.clock.Now()
	b.idleFired = false
}

func (b *Bus) refreshMouse() {
	wanted := len(b.topics[TopicMouseMove])+len(b.topics[TopicDismissal]) > 0
	if wanted == b.mouseWanted {
		return
	}
	b.mouseWanted = wanted
	if b.onMouseWanted != nil {
		b.onMouseWanted(wanted)
	}
}

// MouseWanted reports whether mouse events should be captured
func (b *Bus) MouseWanted() bool {
	return b.mouseWanted
}
