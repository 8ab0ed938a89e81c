package gsg

import (
	"errors"
	"testing"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/prepared"
)

func TestOcclusionQuery_RoundTrip(t *testing.T) {
	g, b := newTestGuardian(t)
	b.SetQueryResult(42, false)
	openScene(t, g)

	if !g.BeginOcclusionQuery() {
		t.Fatalf("BeginOcclusionQuery: %v", g.LastError())
	}
	if !g.OcclusionQueryOpen() {
		t.Fatal("query not open")
	}
	ctx := g.EndOcclusionQuery()
	if !ctx.Valid() || ctx.Kind() != prepared.KindQuery {
		t.Fatalf("EndOcclusionQuery = %v", ctx)
	}

	if _, ready := g.OcclusionQueryResult(ctx, false); ready {
		t.Error("pending result reported ready")
	}
	samples, ready := g.OcclusionQueryResult(ctx, true)
	if !ready || samples != 42 {
		t.Errorf("result = %d, %v; want 42, true", samples, ready)
	}

	if !g.ReleaseOcclusionQuery(ctx) {
		t.Fatal("ReleaseOcclusionQuery failed")
	}
	if g.ReleaseOcclusionQuery(ctx) {
		t.Error("double release succeeded")
	}
	if _, ready := g.OcclusionQueryResult(ctx, true); ready {
		t.Error("released query still answers")
	}
	if !errors.Is(g.LastError(), ErrNotPrepared) {
		t.Errorf("LastError = %v, want ErrNotPrepared", g.LastError())
	}
	if b.Live() != 0 {
		t.Errorf("live = %d", b.Live())
	}
}

func TestOcclusionQuery_Nested(t *testing.T) {
	g, _ := newTestGuardian(t)
	openScene(t, g)
	g.BeginOcclusionQuery()
	if g.BeginOcclusionQuery() {
		t.Fatal("second open query allowed")
	}
	if !errors.Is(g.LastError(), ErrProtocol) {
		t.Errorf("LastError = %v, want ErrProtocol", g.LastError())
	}
}

func TestOcclusionQuery_OutsideScene(t *testing.T) {
	g, b := newTestGuardian(t)
	g.BeginFrame()
	b.ClearCalls()
	if g.BeginOcclusionQuery() {
		t.Fatal("query opened outside a scene")
	}
	if g.EndOcclusionQuery().Valid() {
		t.Error("EndOcclusionQuery without an open query returned a context")
	}
	if len(b.Calls()) != 0 {
		t.Errorf("calls = %v", b.Ops())
	}
}

func TestOcclusionQuery_Unsupported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SupportOcclusionQuery = false
	g, b := newTestGuardian(t, WithConfig(cfg))
	openScene(t, g)
	if g.BeginOcclusionQuery() {
		t.Fatal("query opened without support")
	}
	if !errors.Is(g.LastError(), driver.ErrUnsupported) {
		t.Errorf("LastError = %v, want ErrUnsupported", g.LastError())
	}
	if b.Count(recording.OpBeginOcclusionQuery) != 0 {
		t.Error("backend asked for an unsupported query")
	}
}

func TestOcclusionQuery_OpenQueryProtected(t *testing.T) {
	g, _ := newTestGuardian(t)
	openScene(t, g)
	g.BeginOcclusionQuery()
	open := g.query
	if _, ready := g.OcclusionQueryResult(open, true); ready {
		t.Error("open query answered")
	}
	if g.ReleaseOcclusionQuery(open) {
		t.Error("open query released")
	}
	if !g.OcclusionQueryOpen() {
		t.Error("query closed by a refused release")
	}
}

func TestOcclusionQuery_EndFailure(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	g.BeginOcclusionQuery()
	b.FailNext(recording.OpEndOcclusionQuery, errors.New("query lost"))
	if g.EndOcclusionQuery().Valid() {
		t.Fatal("failed query returned a context")
	}
	if g.OcclusionQueryOpen() {
		t.Error("failed query left open")
	}
	if g.PreparedCount(prepared.KindQuery) != 0 || b.Live() != 0 {
		t.Error("failed query not released")
	}
}
