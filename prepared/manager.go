package prepared

import (
	"sync"

	"github.com/gogpu/gsg/driver"
)

// Entry is the record kept for a prepared resource.
type Entry struct {
	Handle driver.Handle
	// Source is the ID of the source object, zero for sourceless resources
	// such as queries.
	Source uint64
	// Modified is the source's modification counter at upload time.
	Modified uint64
	// Object is the source object itself.
	Object any
}

type slot struct {
	entry Entry
	gen   uint32
	live  bool
}

type table struct {
	slots    []slot
	free     []uint32
	bySource map[uint64]uint32
	live     int
}

// Manager holds one table per resource kind.
//
// Manager is safe for concurrent use. Table mutation is expected from one
// owner goroutine; other goroutines read or Stage.
type Manager struct {
	mu     sync.RWMutex
	tables [NumKinds]table

	stageMu sync.Mutex
	staged  []Request
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	m := &Manager{}
	for i := range m.tables {
		m.tables[i].bySource = make(map[uint64]uint32)
	}
	return m
}

// Lookup finds the live context prepared for source.
func (m *Manager) Lookup(kind Kind, source uint64) (Context, Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := &m.tables[kind]
	idx, ok := t.bySource[source]
	if !ok || source == 0 {
		return Context{}, Entry{}, false
	}
	s := t.slots[idx]
	return Context{kind: kind, index: idx, gen: s.gen}, s.entry, true
}

// Register records a new resource and returns its context. A live entry
// for the same non-zero source is overwritten in place.
func (m *Manager) Register(kind Kind, e Entry) Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &m.tables[kind]
	if e.Source != 0 {
		if idx, ok := t.bySource[e.Source]; ok {
			t.slots[idx].entry = e
			return Context{kind: kind, index: idx, gen: t.slots[idx].gen}
		}
	}

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot{})
	}
	s := &t.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.entry = e
	s.live = true
	t.live++
	if e.Source != 0 {
		t.bySource[e.Source] = idx
	}
	return Context{kind: kind, index: idx, gen: s.gen}
}

// resolve returns the live slot for ctx. Caller must hold m.mu.
func (m *Manager) resolve(ctx Context) *slot {
	if !ctx.Valid() || ctx.kind >= NumKinds {
		return nil
	}
	t := &m.tables[ctx.kind]
	if int(ctx.index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[ctx.index]
	if !s.live || s.gen != ctx.gen {
		return nil
	}
	return s
}

// Get returns the entry of a live context.
func (m *Manager) Get(ctx Context) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.resolve(ctx)
	if s == nil {
		return Entry{}, false
	}
	return s.entry, true
}

// Handle returns the backend handle of ctx, or driver.InvalidHandle.
func (m *Manager) Handle(ctx Context) driver.Handle {
	e, _ := m.Get(ctx)
	return e.Handle
}

// Update swaps the handle of a live context after a re-upload and returns
// the previous handle.
func (m *Manager) Update(ctx Context, h driver.Handle, modified uint64) (driver.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.resolve(ctx)
	if s == nil {
		return driver.InvalidHandle, false
	}
	old := s.entry.Handle
	s.entry.Handle = h
	s.entry.Modified = modified
	return old, true
}

// Release frees the slot of ctx and returns its entry. Stale and repeated
// releases return false and change nothing.
func (m *Manager) Release(ctx Context) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.resolve(ctx)
	if s == nil {
		return Entry{}, false
	}
	e := s.entry
	m.free(ctx.kind, ctx.index)
	return e, true
}

// free recycles a slot. Caller must hold m.mu.
func (m *Manager) free(kind Kind, idx uint32) {
	t := &m.tables[kind]
	s := &t.slots[idx]
	if s.entry.Source != 0 {
		if cur, ok := t.bySource[s.entry.Source]; ok && cur == idx {
			delete(t.bySource, s.entry.Source)
		}
	}
	s.entry = Entry{}
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	t.free = append(t.free, idx)
	t.live--
}

// Drain releases every context of kind and returns their entries.
func (m *Manager) Drain(kind Kind) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &m.tables[kind]
	var out []Entry
	for i := range t.slots {
		if t.slots[i].live {
			out = append(out, t.slots[i].entry)
			m.free(kind, uint32(i))
		}
	}
	return out
}

// Len returns the number of live contexts of kind.
func (m *Manager) Len(kind Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.tables[kind].live
}

// Snapshot returns the live contexts of kind in slot order.
func (m *Manager) Snapshot(kind Kind) []Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := &m.tables[kind]
	out := make([]Context, 0, t.live)
	for i, s := range t.slots {
		if s.live {
			out = append(out, Context{kind: kind, index: uint32(i), gen: s.gen})
		}
	}
	return out
}
