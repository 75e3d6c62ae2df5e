// Package taborder maintains the persisted, user-reorderable sequence of
// top-level tab ids (orphan sessions and workspaces).
//
// The stored order is never trusted verbatim: the live tab set can change
// independently between a write and a read (a session dies externally, a
// workspace dissolves), so every query reconciles the stored order against
// the live set. Reads never mutate the stored order.
package taborder

import "sync"

// Position places a dragged tab relative to its target
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// Store persists the user-arranged order across restarts
type Store interface {
	LoadOrder() ([]string, error)
	SaveOrder(order []string) error
}

// EffectiveOrder reconciles a stored order against the live tab set:
// stored ids no longer live are dropped, live ids not yet stored are
// appended in discovery order. Idempotent, and a pure function of its
// inputs.
func EffectiveOrder(stored, live []string) []string {
	liveSet := make(map[string]bool, len(live))
	for _, id := range live {
		liveSet[id] = true
	}

	out := make([]string, 0, len(live))
	seen := make(map[string]bool, len(live))
	for _, id := range stored {
		if liveSet[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, id := range live {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// Reorder moves draggedID immediately before or after targetID within the
// effective order. Dragging a tab onto itself, or naming an id outside the
// live set, returns the unchanged effective order and false.
func Reorder(stored, live []string, draggedID, targetID string, pos Position) ([]string, bool) {
	order := EffectiveOrder(stored, live)

	if draggedID == targetID {
		return order, false
	}
	liveSet := make(map[string]bool, len(live))
	for _, id := range live {
		liveSet[id] = true
	}
	if !liveSet[draggedID] || !liveSet[targetID] {
		return order, false
	}

	// Remove the dragged id, then find the target in the shortened list
	// so the insertion index accounts for the shift.
	without := make([]string, 0, len(order))
	for _, id := range order {
		if id != draggedID {
			without = append(without, id)
		}
	}

	targetIdx := -1
	for i, id := range without {
		if id == targetID {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return order, false
	}

	insertAt := targetIdx
	if pos == After {
		insertAt = targetIdx + 1
	}

	result := make([]string, 0, len(order))
	result = append(result, without[:insertAt]...)
	result = append(result, draggedID)
	result = append(result, without[insertAt:]...)
	return result, true
}

// Manager binds the pure order functions to a persistence store.
type Manager struct {
	mu    sync.Mutex
	store Store
}

// NewManager creates a tab order manager backed by the given store
func NewManager(store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{store: store}
}

// Effective returns the reconciled order for the current live set.
// A store read failure degrades to discovery order rather than failing
// the query.
func (m *Manager) Effective(live []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.store.LoadOrder()
	if err != nil {
		stored = nil
	}
	return EffectiveOrder(stored, live)
}

// Reorder applies a drag-reorder and persists the result on success.
func (m *Manager) Reorder(live []string, draggedID, targetID string, pos Position) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.store.LoadOrder()
	if err != nil {
		stored = nil
	}

	result, moved := Reorder(stored, live, draggedID, targetID, pos)
	if !moved {
		return result, false
	}
	if err := m.store.SaveOrder(result); err != nil {
		// The in-memory result is still authoritative for this query;
		// the next read reconciles from whatever the store kept.
		return result, true
	}
	return result, true
}

// Replace persists a new stored order verbatim, used when restoring a
// snapshot. Staleness against the live set is corrected on the next read.
func (m *Manager) Replace(order []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.SaveOrder(append([]string(nil), order...))
}

// MemoryStore is an in-process Store used as a fallback and in tests
type MemoryStore struct {
	mu    sync.Mutex
	order []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadOrder returns the stored order
func (s *MemoryStore) LoadOrder() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...), nil
}

// SaveOrder replaces the stored order
func (s *MemoryStore) SaveOrder(order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append([]string(nil), order...)
	return nil
}
