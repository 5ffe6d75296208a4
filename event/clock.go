package event

import (
	"sync"
	"time"
)

// Clock supplies time to the loop and to bounded waits
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock provides the real system time with monotonic clock readings
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock provides a controllable time source for testing
// Sleep advances the clock instead of blocking
type ManualClock struct {
	mu          sync.RWMutex
	currentTime time.Time
	onSleep     func(d time.Duration)
}

// NewManualClock creates a manual clock with the given start time
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{currentTime: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// Sleep advances the clock by d and runs the sleep hook if one is set
func (m *ManualClock) Sleep(d time.Duration) {
	m.Advance(d)
	m.mu.RLock()
	hook := m.onSleep
	m.mu.RUnlock()
	if hook != nil {
		hook(d)
	}
}

// OnSleep installs a hook run after every Sleep, letting tests simulate other applications
func (m *ManualClock) OnSleep(fn func(d time.Duration)) {
	m.mu.Lock()
	m.onSleep = fn
	m.mu.Unlock()
}

// Advance moves the clock forward by d
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.currentTime = m.currentTime.Add(d)
	m.mu.Unlock()
}

// Set replaces the current time
func (m *ManualClock) Set(t time.Time) {
	m.mu.Lock()
	m.currentTime = t
	m.mu.Unlock()
}
