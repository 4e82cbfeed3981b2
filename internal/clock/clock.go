package clock

import (
	"sync"
	"time"
)

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}

// Monotonic never returns a time earlier than one it already returned,
// even if the wall clock steps backwards.
type Monotonic struct {
	mu     sync.Mutex
	source func() time.Time
	last   time.Time
}

// NewMonotonic wraps source; a nil source means time.Now.
func NewMonotonic(source func() time.Time) *Monotonic {
	if source == nil {
		source = time.Now
	}
	return &Monotonic{source: source}
}

func (m *Monotonic) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.source().Round(0)
	if now.Before(m.last) {
		now = m.last
	}
	m.last = now
	return now
}
