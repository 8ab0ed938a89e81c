package stats

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
)

func TestEventNames(t *testing.T) {
	if got := IssueEvent(state.SlotDepthWrite); got != "issue-depth-write" {
		t.Errorf("IssueEvent = %q", got)
	}
	if got := PrepareEvent(prepared.KindTexture); got != "prepare-texture" {
		t.Errorf("PrepareEvent = %q", got)
	}
	if got := ReleaseEvent(prepared.KindVertexBuffer); got != "release-vertex-buffer" {
		t.Errorf("ReleaseEvent = %q", got)
	}
}

func TestNop(t *testing.T) {
	var s Sink = Nop{}
	s.Count(Draw, 1)
	s.SetResources(prepared.KindTexture, 3)
}

func TestCounts(t *testing.T) {
	c := NewCounts()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Count(Draw, 2)
		}()
	}
	wg.Wait()
	c.SetResources(prepared.KindShader, 5)

	if c.Get(Draw) != 8 {
		t.Errorf("Get(Draw) = %d, want 8", c.Get(Draw))
	}
	if c.Resources(prepared.KindShader) != 5 {
		t.Errorf("Resources = %d, want 5", c.Resources(prepared.KindShader))
	}
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("NewPrometheus() error = %v", err)
	}
	p.Count(StateChange, 3)
	p.Count(StateChange, 1)
	p.SetResources(prepared.KindGeom, 2)

	if got := testutil.ToFloat64(p.Events().WithLabelValues(string(StateChange))); got != 4 {
		t.Errorf("state-change = %v, want 4", got)
	}
	if got := testutil.ToFloat64(p.Resources().WithLabelValues("geom")); got != 2 {
		t.Errorf("geom resources = %v, want 2", got)
	}

	again, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("second NewPrometheus() error = %v", err)
	}
	again.Count(StateChange, 1)
	if got := testutil.ToFloat64(p.Events().WithLabelValues(string(StateChange))); got != 5 {
		t.Errorf("shared collector = %v, want 5", got)
	}
}
