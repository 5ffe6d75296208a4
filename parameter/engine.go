package parameter

import "time"

// Event Loop & Scheduler Timing
const (
	// TickInterval is the main loop timer resolution
	TickInterval = 10 * time.Millisecond

	// IdleInterval is the input quiet period before the idle topic fires
	IdleInterval = 5 * time.Minute

	// ProviderThreadBacklog is the channel depth between the native poller and the queue
	ProviderThreadBacklog = 256
)

// Event Queue Limits
const (
	// EventQueueSize is the fixed capacity of the cross-thread event ring buffer
	EventQueueSize = 1024

	// EventBufferMask is the bitmask for fast modulo operations (1024 - 1)
	EventBufferMask = 1023
)
