package stage

import (
	"sync"
	"time"

	"github.com/auracorp/aurastudio/config"
)

// Update is one coalesced progress observation for a running stage.
type Update struct {
	Percent   float64
	Message   string
	Heartbeat bool
}

// Sink receives coalesced progress updates; the runner adapts it into the
// event stream. Sink implementations must not block on slow consumers.
type Sink interface {
	Report(u Update)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Update)

func (f SinkFunc) Report(u Update) { f(u) }

// CoalescingSink drops updates that arrive within config.ProgressCoalesceInterval
// of the last forwarded update, except the final 100% update, which always
// passes through.
type CoalescingSink struct {
	next Sink

	mu   sync.Mutex
	last time.Time
}

func NewCoalescingSink(next Sink) *CoalescingSink {
	return &CoalescingSink{next: next}
}

func (c *CoalescingSink) Report(u Update) {
	c.mu.Lock()
	now := config.Clock.GetTime()
	force := u.Percent >= 100 || u.Heartbeat
	if !force && now.Sub(c.last) < config.ProgressCoalesceInterval {
		c.mu.Unlock()
		return
	}
	c.last = now
	c.mu.Unlock()
	c.next.Report(u)
}
