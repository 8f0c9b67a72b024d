package monitor

import (
	"time"

	"github.com/seopulse/shield/pkg/domain/events"
)

// eventRing is a fixed-size circular buffer of event types. Pushing onto a
// full ring evicts the oldest entry.
type eventRing struct {
	buf  []events.Type
	head int
	size int
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{buf: make([]events.Type, capacity)}
}

func (r *eventRing) push(t events.Type) {
	r.buf[(r.head+r.size)%len(r.buf)] = t
	if r.size < len(r.buf) {
		r.size++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

func (r *eventRing) len() int {
	return r.size
}

// lastN returns up to n of the most recent entries, oldest first.
func (r *eventRing) lastN(n int) []events.Type {
	if n > r.size {
		n = r.size
	}
	out := make([]events.Type, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.head+r.size-n+i)%len(r.buf)]
	}
	return out
}

// ipActivityRecord tracks one source IP. eventCount is monotonic and only
// disappears with the record itself; lastSeen only moves forward.
type ipActivityRecord struct {
	eventCount int64
	lastSeen   time.Time
	recent     *eventRing
}

// failedLoginRecord is keyed by sourceIP+identity.
type failedLoginRecord struct {
	count       int64
	lastAttempt time.Time
}

// rateLimitRecord is keyed by sourceIP.
type rateLimitRecord struct {
	count         int64
	lastViolation time.Time
}
