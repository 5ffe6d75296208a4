package event

import (
	"context"
	"time"

	"github.com/lixenwraith/enso/parameter"
)

// Run drives Pump on a fixed tick until ctx is cancelled
// Wake receives a signal from providers to pump early after posting input
func (b *Bus) Run(ctx context.Context, interval time.Duration, wake <-chan struct{}) error {
	if interval <= 0 {
		interval = parameter.TickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Pump()
		case <-wake:
			// Input is delivered immediately; timer responders still run once per tick
			for _, ev := range b.queue.Drain() {
				b.deliver(ev)
			}
		}
	}
}
