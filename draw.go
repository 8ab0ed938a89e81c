package gsg

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/stats"
)

// BeginDrawPrimitives binds vertex data for the Draw calls that follow.
// data defaults to geom's data and munger to the cached munger of the
// current target state. force is for one-off submissions: the munger is
// built outside the cache, and an array whose vertex buffer cannot be
// prepared is drawn from client memory instead of failing the call.
func (g *Guardian) BeginDrawPrimitives(geom *gobj.Geom, munger driver.Munger, data *gobj.VertexData, force bool) bool {
	if !g.ready() {
		return false
	}
	if g.phase != phaseScene {
		return g.violation("BeginDrawPrimitives")
	}
	if data == nil && geom != nil {
		data = geom.Data
	}
	if data == nil {
		g.lastErr = fmt.Errorf("%w: no vertex data", ErrMalformedPrimitive)
		g.sink.Count(stats.MalformedPrimitive, 1)
		g.logger().Warn("gsg: draw without vertex data")
		return false
	}
	switch {
	case munger != nil:
	case force:
		munger = g.makeGeomMunger(g.target)
	default:
		munger = g.GetGeomMunger(g.target)
	}
	data = munger.MungeData(data)

	rows := data.Rows()
	if limit := g.caps.MaxVerticesPerArray(); limit > 0 && rows > limit {
		g.lastErr = fmt.Errorf("%w: %d vertices, max %d", ErrMalformedPrimitive, rows, limit)
		g.logger().Warn("gsg: vertex data too large", "rows", rows, "max", limit)
		return false
	}

	buffers := make([]driver.Handle, len(data.Arrays))
	if g.caps.SupportsVertexBuffers() {
		for i, a := range data.Arrays {
			ctx := g.PrepareVertexBuffer(a)
			if !ctx.Valid() {
				if !force {
					g.lastErr = fmt.Errorf("%w: vertex array %d: %v", ErrNotPrepared, i, g.lastErr)
					g.logger().Warn("gsg: vertex buffer unavailable", "array", i, "err", g.lastErr)
					return false
				}
				continue
			}
			buffers[i] = g.resources.Handle(ctx)
		}
	}

	if err := g.backend.BeginDrawPrimitives(data, buffers); err != nil {
		g.issueFailed("BeginDrawPrimitives", err)
		return false
	}
	g.draw = drawState{data: data, munger: munger, rows: rows}
	g.phase = phasePrimitives
	return true
}

// DrawTriangles draws an independent triangle list.
func (g *Guardian) DrawTriangles(p *gobj.Primitive, force bool) bool {
	return g.drawPrimitive("DrawTriangles", gobj.Triangles, p, force)
}

// DrawTristrips draws triangle strips.
func (g *Guardian) DrawTristrips(p *gobj.Primitive, force bool) bool {
	return g.drawPrimitive("DrawTristrips", gobj.TriStrips, p, force)
}

// DrawTrifans draws triangle fans.
func (g *Guardian) DrawTrifans(p *gobj.Primitive, force bool) bool {
	return g.drawPrimitive("DrawTrifans", gobj.TriFans, p, force)
}

// DrawLines draws an independent line list.
func (g *Guardian) DrawLines(p *gobj.Primitive, force bool) bool {
	return g.drawPrimitive("DrawLines", gobj.Lines, p, force)
}

// DrawLinestrips draws line strips.
func (g *Guardian) DrawLinestrips(p *gobj.Primitive, force bool) bool {
	return g.drawPrimitive("DrawLinestrips", gobj.LineStrips, p, force)
}

// DrawPoints draws points.
func (g *Guardian) DrawPoints(p *gobj.Primitive, force bool) bool {
	return g.drawPrimitive("DrawPoints", gobj.Points, p, force)
}

// Draw dispatches p to the Draw method for its kind.
func (g *Guardian) Draw(p *gobj.Primitive, force bool) bool {
	kind := gobj.Triangles
	if p != nil {
		kind = p.Kind
	}
	return g.drawPrimitive("Draw", kind, p, force)
}

func (g *Guardian) drawPrimitive(op string, kind gobj.PrimitiveKind, p *gobj.Primitive, force bool) bool {
	if !g.ready() {
		return false
	}
	if g.phase != phasePrimitives {
		return g.violation(op)
	}
	if p == nil {
		return g.malformed(op, fmt.Errorf("nil primitive"))
	}
	if p.Kind != kind {
		return g.malformed(op, fmt.Errorf("%s primitive", p.Kind))
	}
	if err := p.Validate(g.draw.rows); err != nil {
		return g.malformed(op, err)
	}
	if limit := g.caps.MaxVerticesPerPrimitive(); limit > 0 && p.VertexCount() > limit {
		g.lastErr = fmt.Errorf("%w: %d vertices, max %d", ErrMalformedPrimitive, p.VertexCount(), limit)
		g.logger().Warn("gsg: primitive too large", "op", op, "vertices", p.VertexCount(), "max", limit)
		return false
	}

	mp := g.draw.munger.MungePrimitive(p)
	if mp.Indexed() && mp.IndexFormat() == gputypes.IndexFormatUint32 &&
		!g.caps.GeomRendering().Has(driver.GRIndex32) {
		g.lastErr = fmt.Errorf("%w: 32-bit indices", driver.ErrUnsupported)
		g.logger().Warn("gsg: backend lacks 32-bit indices", "op", op)
		return false
	}

	ib := driver.InvalidHandle
	if mp.Indexed() && g.caps.SupportsIndexBuffers() {
		ctx := g.PrepareIndexBuffer(mp)
		switch {
		case ctx.Valid():
			ib = g.resources.Handle(ctx)
		case !force:
			g.lastErr = fmt.Errorf("%w: index buffer: %v", ErrNotPrepared, g.lastErr)
			g.logger().Warn("gsg: index buffer unavailable", "op", op, "err", g.lastErr)
			return false
		}
	}

	if err := g.backend.DrawPrimitive(mp, ib); err != nil {
		g.issueFailed(op, err)
		return false
	}
	g.sink.Count(stats.Draw, 1)
	g.sink.Count(stats.Vertices, mp.VertexCount())
	return true
}

func (g *Guardian) malformed(op string, err error) bool {
	g.lastErr = fmt.Errorf("%w: %s: %v", ErrMalformedPrimitive, op, err)
	g.sink.Count(stats.MalformedPrimitive, 1)
	g.logger().Warn("gsg: malformed primitive", "op", op, "err", err)
	return false
}

// EndDrawPrimitives releases the vertex data bound by BeginDrawPrimitives.
func (g *Guardian) EndDrawPrimitives() bool {
	if g.phase != phasePrimitives {
		return g.violation("EndDrawPrimitives")
	}
	g.draw = drawState{}
	g.phase = phaseScene
	if err := g.backend.EndDrawPrimitives(); err != nil {
		g.absorb("EndDrawPrimitives", err)
		return false
	}
	return true
}
