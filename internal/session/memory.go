package session

import "sync"

// MemoryHub is an in-process stand-in for a shared localStorage area. Every
// [MemoryStore] created from the same hub reads and writes the same session
// and is notified of changes made through the other stores.
type MemoryHub struct {
	mu      sync.Mutex
	current Session
	stores  []*MemoryStore
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{}
}

// NewStore creates a store handle attached to the hub. Each handle behaves
// like one browser tab: its own writes do not trigger its own subscribers.
func (h *MemoryHub) NewStore() *MemoryStore {
	h.mu.Lock()
	defer h.mu.Unlock()

	store := &MemoryStore{hub: h}
	h.stores = append(h.stores, store)
	return store
}

// write replaces the session and notifies every handle except the writer.
func (h *MemoryHub) write(writer *MemoryStore, s Session) {
	h.mu.Lock()
	h.current = s
	others := make([]*MemoryStore, 0, len(h.stores))
	for _, store := range h.stores {
		if store != writer {
			others = append(others, store)
		}
	}
	h.mu.Unlock()

	for _, store := range others {
		store.notify(s)
	}
}

func (h *MemoryHub) read() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// MemoryStore implements [Store] on top of a [MemoryHub].
type MemoryStore struct {
	hub *MemoryHub

	mu   sync.Mutex
	subs map[int]func(Session)
	next int
}

// NewMemoryStore creates a standalone in-memory store on a private hub.
// Useful for tests and embedded consumers that have no cross-tab concerns.
func NewMemoryStore() *MemoryStore {
	return NewMemoryHub().NewStore()
}

// Get returns the current session.
func (m *MemoryStore) Get() Session {
	return m.hub.read()
}

// Set replaces the session. Partial sessions are rejected.
func (m *MemoryStore) Set(s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.hub.write(m, s)
	return nil
}

// Clear removes the session.
func (m *MemoryStore) Clear() error {
	m.hub.write(m, Session{})
	return nil
}

// Subscribe registers fn for changes made through other handles on the hub.
func (m *MemoryStore) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs == nil {
		m.subs = make(map[int]func(Session))
	}
	id := m.next
	m.next++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *MemoryStore) notify(s Session) {
	m.mu.Lock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
