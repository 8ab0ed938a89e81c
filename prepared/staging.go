package prepared

// Op is a staged operation.
type Op uint8

const (
	OpPrepare Op = iota
	OpRelease
)

// Request is a prepare or release deferred to the owner goroutine.
// Prepare requests carry Object; release requests carry Context.
type Request struct {
	Op      Op
	Object  any
	Context Context
}

// Stage queues r. It may be called from any goroutine.
func (m *Manager) Stage(r Request) {
	m.stageMu.Lock()
	m.staged = append(m.staged, r)
	m.stageMu.Unlock()
}

// TakeStaged removes and returns all queued requests in submission order.
func (m *Manager) TakeStaged() []Request {
	m.stageMu.Lock()
	defer m.stageMu.Unlock()

	out := m.staged
	m.staged = nil
	return out
}

// StagedLen returns the number of queued requests.
func (m *Manager) StagedLen() int {
	m.stageMu.Lock()
	defer m.stageMu.Unlock()

	return len(m.staged)
}
