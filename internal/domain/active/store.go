// Package active holds the process-wide active tab selection.
//
// The active tab id is a single scalar observed by many independent
// consumers. Writes commit synchronously, but subscriber callbacks run on
// a dedicated dispatcher goroutine, never on the writer's stack: a write
// made during a render pass therefore cannot re-enter a subscriber while
// the surrounding UI is mid-update. Rapid consecutive writes may coalesce;
// subscribers always converge on the latest committed value and are never
// shown values out of order.
package active

import "sync"

// HomeTab is the sentinel meaning no session or workspace is selected
const HomeTab = "home"

type subscriber struct {
	id int
	fn func(string)
}

// Store is the single owner of the active tab id.
type Store struct {
	mu     sync.RWMutex
	value  string
	subs   []subscriber
	nextID int

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// last value handed to subscribers, owned by the dispatcher
	notified string
}

// NewStore creates a store pointing at the home sentinel and starts its
// dispatcher.
func NewStore() *Store {
	s := &Store{
		value:    HomeTab,
		notified: HomeTab,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// Get returns the latest committed value. Always synchronous.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set commits a new active tab id and schedules notification. Writing the
// current value is a no-op.
func (s *Store) Set(tabID string) {
	s.mu.Lock()
	if s.value == tabID {
		s.mu.Unlock()
		return
	}
	s.value = tabID
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers a callback for value changes and returns a cancel
// function. The callback runs on the dispatcher goroutine; it is not
// invoked for the value current at subscription time.
func (s *Store) Subscribe(fn func(tabID string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeActive registers a derived-boolean subscription for one tab id:
// the callback fires only when "tabID is the active tab" flips.
func (s *Store) SubscribeActive(tabID string, fn func(active bool)) func() {
	s.mu.RLock()
	last := s.value == tabID
	s.mu.RUnlock()

	var mu sync.Mutex
	return s.Subscribe(func(value string) {
		now := value == tabID
		mu.Lock()
		changed := now != last
		last = now
		mu.Unlock()
		if changed {
			fn(now)
		}
	})
}

// Close stops the dispatcher. Pending notifications may be dropped.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Store) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.RLock()
		value := s.value
		subs := make([]subscriber, len(s.subs))
		copy(subs, s.subs)
		s.mu.RUnlock()

		if value == s.notified {
			continue
		}
		s.notified = value

		for _, sub := range subs {
			sub.fn(value)
		}
	}
}
