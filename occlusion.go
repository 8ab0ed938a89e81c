package gsg

import (
	"fmt"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/prepared"
)

// BeginOcclusionQuery starts counting the samples that pass the depth test.
// At most one query is open at a time. It returns false when the backend
// has no occlusion queries.
func (g *Guardian) BeginOcclusionQuery() bool {
	if !g.ready() {
		return false
	}
	if g.phase != phaseScene && g.phase != phasePrimitives {
		return g.violation("BeginOcclusionQuery")
	}
	if g.queryOpen {
		return g.violation("BeginOcclusionQuery")
	}
	if !g.caps.SupportsOcclusionQuery() {
		g.lastErr = fmt.Errorf("gsg: occlusion query: %w", driver.ErrUnsupported)
		g.logger().Debug("gsg: occlusion queries unsupported")
		return false
	}
	h, err := g.backend.BeginOcclusionQuery()
	if err != nil {
		g.absorb("BeginOcclusionQuery", err)
		return false
	}
	g.query = g.resources.Register(prepared.KindQuery, prepared.Entry{Handle: h})
	g.queryOpen = true
	return true
}

// EndOcclusionQuery ends the open query and returns its context, to be
// polled with OcclusionQueryResult and freed with ReleaseOcclusionQuery.
func (g *Guardian) EndOcclusionQuery() prepared.Context {
	if !g.queryOpen {
		g.violation("EndOcclusionQuery")
		return prepared.Context{}
	}
	ctx := g.query
	g.query = prepared.Context{}
	g.queryOpen = false
	if err := g.backend.EndOcclusionQuery(g.resources.Handle(ctx)); err != nil {
		g.absorb("EndOcclusionQuery", err)
		g.release(prepared.KindQuery, ctx)
		return prepared.Context{}
	}
	return ctx
}

// OcclusionQueryOpen reports whether a query is open.
func (g *Guardian) OcclusionQueryOpen() bool { return g.queryOpen }

// OcclusionQueryResult returns the sample count of a finished query. ready
// is false while the result is pending and wait is false.
func (g *Guardian) OcclusionQueryResult(ctx prepared.Context, wait bool) (samples int, ready bool) {
	if ctx.Kind() != prepared.KindQuery || (g.queryOpen && ctx == g.query) {
		return 0, false
	}
	e, ok := g.resources.Get(ctx)
	if !ok {
		g.lastErr = fmt.Errorf("%w: %s", ErrNotPrepared, ctx)
		return 0, false
	}
	samples, ready, err := g.backend.OcclusionQueryResult(e.Handle, wait)
	if err != nil {
		g.absorb("OcclusionQueryResult", err)
		return 0, false
	}
	return samples, ready
}

// ReleaseOcclusionQuery frees a finished query.
func (g *Guardian) ReleaseOcclusionQuery(ctx prepared.Context) bool {
	if g.queryOpen && ctx == g.query {
		return g.violation("ReleaseOcclusionQuery")
	}
	return g.release(prepared.KindQuery, ctx)
}
