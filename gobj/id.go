package gobj

import "sync/atomic"

// nextID hands out object IDs. Zero is never issued.
var nextID atomic.Uint64

func newID() uint64 {
	return nextID.Add(1)
}

// counter is an embeddable modification counter.
// It starts at 1 so that a zero value means "never prepared".
type counter struct {
	n atomic.Uint64
}

// Modified returns the current modification counter.
func (m *counter) Modified() uint64 {
	return m.n.Load() + 1
}

// MarkModified bumps the counter, forcing a re-upload on next preparation.
func (m *counter) MarkModified() {
	m.n.Add(1)
}
