package stats

import (
	"fmt"
	"sync"

	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
)

// Event names a counted occurrence.
type Event string

// Guardian events.
const (
	StateChange        Event = "state-change"
	TransformChange    Event = "transform-change"
	Draw               Event = "draw"
	Vertices           Event = "vertices"
	MungerHit          Event = "munger-hit"
	MungerMiss         Event = "munger-miss"
	Frame              Event = "frame"
	Scene              Event = "scene"
	Reset              Event = "reset"
	ResetFailure       Event = "reset-failure"
	ProtocolViolation  Event = "protocol-violation"
	LightsDropped      Event = "lights-dropped"
	ClipPlanesDropped  Event = "clip-planes-dropped"
	MalformedPrimitive Event = "malformed-primitive"
	PrepareFailure     Event = "prepare-failure"
	StaleRelease       Event = "stale-release"
)

// IssueEvent names the issue of one state slot.
func IssueEvent(s state.Slot) Event { return Event("issue-" + s.String()) }

// PrepareEvent names the preparation of one resource kind.
func PrepareEvent(k prepared.Kind) Event { return Event("prepare-" + k.String()) }

// ReleaseEvent names the release of one resource kind.
func ReleaseEvent(k prepared.Kind) Event { return Event("release-" + k.String()) }

// Sink receives guardian statistics. Implementations must be safe for
// concurrent use.
type Sink interface {
	// Count adds n occurrences of event.
	Count(event Event, n int)
	// SetResources reports the number of live resources of a kind.
	SetResources(kind prepared.Kind, n int)
}

// Nop is a Sink that discards everything.
type Nop struct{}

func (Nop) Count(Event, int)                {}
func (Nop) SetResources(prepared.Kind, int) {}

// Counts is a Sink that accumulates counts in memory. It is meant for
// tests and tools that read totals after a run.
type Counts struct {
	mu        sync.Mutex
	events    map[Event]int
	resources map[prepared.Kind]int
}

// NewCounts returns an empty Counts.
func NewCounts() *Counts {
	return &Counts{
		events:    make(map[Event]int),
		resources: make(map[prepared.Kind]int),
	}
}

// Count implements Sink.
func (c *Counts) Count(event Event, n int) {
	c.mu.Lock()
	c.events[event] += n
	c.mu.Unlock()
}

// SetResources implements Sink.
func (c *Counts) SetResources(kind prepared.Kind, n int) {
	c.mu.Lock()
	c.resources[kind] = n
	c.mu.Unlock()
}

// Get returns the total for event.
func (c *Counts) Get(event Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[event]
}

// Resources returns the last reported live count for kind.
func (c *Counts) Resources(kind prepared.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resources[kind]
}

// String formats the non-zero totals for logs.
func (c *Counts) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d events, %d resource kinds", len(c.events), len(c.resources))
}
