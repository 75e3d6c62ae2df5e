package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen rejects calls while the breaker is open.
	ErrOpen = errors.New("breaker open")
	// ErrProbeLimit rejects calls beyond the half-open probe budget.
	ErrProbeLimit = errors.New("breaker probe limit reached")
)

// Settings tunes a Breaker. Zero values pick the defaults.
type Settings struct {
	TripAfter  uint32        // consecutive failures that open the breaker
	ProbeLimit uint32        // concurrent probes allowed while half-open
	Cooldown   time.Duration // open duration before probing resumes
}

// Breaker is a consecutive-failure circuit breaker for one backend kind.
type Breaker struct {
	name       string
	tripAfter  uint32
	probeLimit uint32
	cooldown   time.Duration

	mu       sync.Mutex
	state    State
	failures uint32
	inflight uint32
	openedAt time.Time
	gen      uint64
}

// New creates a breaker with the given settings.
func New(name string, s Settings) *Breaker {
	b := &Breaker{
		name:       name,
		tripAfter:  s.TripAfter,
		probeLimit: s.ProbeLimit,
		cooldown:   s.Cooldown,
	}
	if b.tripAfter == 0 {
		b.tripAfter = 5
	}
	if b.probeLimit == 0 {
		b.probeLimit = 1
	}
	if b.cooldown == 0 {
		b.cooldown = 30 * time.Second
	}
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State reports the current position, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current(time.Now())
}

// Do runs fn under the breaker. The returned error is fn's own, or
// ErrOpen / ErrProbeLimit when the call was rejected without running.
func (b *Breaker) Do(fn func() error) error {
	gen, err := b.admit(time.Now())
	if err != nil {
		return err
	}

	err = fn()
	b.settle(gen, err == nil, time.Now())
	return err
}

func (b *Breaker) admit(now time.Time) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.current(now) {
	case Open:
		return 0, ErrOpen
	case HalfOpen:
		if b.inflight >= b.probeLimit {
			return 0, ErrProbeLimit
		}
	}
	b.inflight++
	return b.gen, nil
}

func (b *Breaker) settle(gen uint64, ok bool, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen {
		// The breaker moved on while this call was in flight.
		return
	}
	if b.inflight > 0 {
		b.inflight--
	}

	if ok {
		if b.state != Closed {
			b.shift(Closed, now)
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.tripAfter {
		b.shift(Open, now)
	}
}

// current resolves Open into HalfOpen once the cooldown has passed.
// Callers hold b.mu.
func (b *Breaker) current(now time.Time) State {
	if b.state == Open && now.Sub(b.openedAt) >= b.cooldown {
		b.shift(HalfOpen, now)
	}
	return b.state
}

func (b *Breaker) shift(to State, now time.Time) {
	b.state = to
	b.gen++
	b.failures = 0
	b.inflight = 0
	if to == Open {
		b.openedAt = now
	}
}
