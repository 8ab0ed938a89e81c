package gsg

import (
	"errors"
	"fmt"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
)

// prepare returns the live context of source, creating or re-uploading the
// backend object when there is none or the source was modified since. A
// re-upload keeps the context and swaps the handle.
func (g *Guardian) prepare(kind prepared.Kind, source, modified uint64, obj any, create func() (driver.Handle, error)) prepared.Context {
	if !g.valid {
		g.lastErr = ErrInvalid
		return prepared.Context{}
	}
	if !g.settle() {
		return prepared.Context{}
	}
	ctx, e, ok := g.resources.Lookup(kind, source)
	if ok && e.Modified == modified {
		return ctx
	}

	h, err := create()
	if err != nil {
		g.prepareFailed(kind, err)
		return prepared.Context{}
	}
	g.sink.Count(stats.PrepareEvent(kind), 1)

	if ok {
		old, _ := g.resources.Update(ctx, h, modified)
		if old != h {
			g.releaseHandle(kind, old)
		}
		g.invalidateKind(kind)
		return ctx
	}
	return g.resources.Register(kind, prepared.Entry{
		Handle:   h,
		Source:   source,
		Modified: modified,
		Object:   obj,
	})
}

func (g *Guardian) prepareFailed(kind prepared.Kind, err error) {
	g.lastErr = fmt.Errorf("gsg: prepare %s: %w", kind, err)
	g.sink.Count(stats.PrepareFailure, 1)
	switch {
	case errors.Is(err, driver.ErrDeviceLost):
		g.needsReset = true
		g.logger().Warn("gsg: device lost", "op", "prepare "+kind.String())
	case errors.Is(err, driver.ErrUnsupported):
		g.logger().Debug("gsg: prepare unsupported", "kind", kind.String(), "err", err)
	default:
		g.logger().Warn("gsg: prepare failed", "kind", kind.String(), "err", err)
	}
}

func (g *Guardian) releaseHandle(kind prepared.Kind, h driver.Handle) {
	if !h.Valid() {
		return
	}
	switch kind {
	case prepared.KindTexture:
		g.backend.ReleaseTexture(h)
	case prepared.KindGeom:
		g.backend.ReleaseGeom(h)
	case prepared.KindShader:
		g.backend.ReleaseShader(h)
	case prepared.KindVertexBuffer:
		g.backend.ReleaseVertexBuffer(h)
	case prepared.KindIndexBuffer:
		g.backend.ReleaseIndexBuffer(h)
	case prepared.KindQuery:
		g.backend.ReleaseOcclusionQuery(h)
	}
}

// invalidateKind marks state that may reference a changed resource of kind
// for re-issue.
func (g *Guardian) invalidateKind(kind prepared.Kind) {
	switch kind {
	case prepared.KindTexture:
		g.slotValid &^= state.SlotTexture.Bit()
		g.effTextureValid = false
	case prepared.KindShader:
		g.slotValid &^= state.SlotShader.Bit()
	}
}

// PrepareTexture uploads tex, conformed to the backend's limits, and
// returns its context. It returns the null context when the texture cannot
// be held by the backend.
func (g *Guardian) PrepareTexture(tex *gobj.Texture) prepared.Context {
	if tex == nil {
		return prepared.Context{}
	}
	return g.prepare(prepared.KindTexture, tex.ID(), tex.Modified(), tex, func() (driver.Handle, error) {
		up, err := g.conformTexture(tex)
		if err != nil {
			return driver.InvalidHandle, err
		}
		return g.backend.PrepareTexture(up)
	})
}

// PrepareShader prepares sh. Shaders needing a higher shader model than the
// current one are refused.
func (g *Guardian) PrepareShader(sh *gobj.Shader) prepared.Context {
	if sh == nil {
		return prepared.Context{}
	}
	return g.prepare(prepared.KindShader, sh.ID(), sh.Modified(), sh, func() (driver.Handle, error) {
		if sh.RequiredModel > g.caps.ShaderModel() {
			return driver.InvalidHandle, fmt.Errorf("%w: %q needs %s, have %s",
				ErrShaderModel, sh.Name, sh.RequiredModel, g.caps.ShaderModel())
		}
		return g.backend.PrepareShader(sh)
	})
}

// PrepareGeom prepares a retained form of geom. Backends without one fail
// softly.
func (g *Guardian) PrepareGeom(geom *gobj.Geom) prepared.Context {
	if geom == nil {
		return prepared.Context{}
	}
	return g.prepare(prepared.KindGeom, geom.ID(), geom.Modified(), geom, func() (driver.Handle, error) {
		return g.backend.PrepareGeom(geom)
	})
}

// PrepareVertexBuffer uploads a into a vertex buffer.
func (g *Guardian) PrepareVertexBuffer(a *gobj.VertexArray) prepared.Context {
	if a == nil {
		return prepared.Context{}
	}
	if !g.caps.SupportsVertexBuffers() {
		g.lastErr = fmt.Errorf("gsg: prepare %s: %w", prepared.KindVertexBuffer, driver.ErrUnsupported)
		return prepared.Context{}
	}
	return g.prepare(prepared.KindVertexBuffer, a.ID(), a.Modified(), a, func() (driver.Handle, error) {
		return g.backend.PrepareVertexBuffer(a)
	})
}

// PrepareIndexBuffer uploads the indices of p. Sequential primitives have
// no index buffer and get the null context.
func (g *Guardian) PrepareIndexBuffer(p *gobj.Primitive) prepared.Context {
	if p == nil || !p.Indexed() {
		return prepared.Context{}
	}
	if !g.caps.SupportsIndexBuffers() {
		g.lastErr = fmt.Errorf("gsg: prepare %s: %w", prepared.KindIndexBuffer, driver.ErrUnsupported)
		return prepared.Context{}
	}
	return g.prepare(prepared.KindIndexBuffer, p.ID(), p.Modified(), p, func() (driver.Handle, error) {
		return g.backend.PrepareIndexBuffer(p)
	})
}

// release frees ctx. Null, foreign-kind and stale contexts are ignored and
// reported as false.
func (g *Guardian) release(kind prepared.Kind, ctx prepared.Context) bool {
	if !ctx.Valid() {
		return false
	}
	if ctx.Kind() != kind {
		g.logger().Warn("gsg: release of wrong kind", "want", kind.String(), "context", ctx.String())
		return false
	}
	e, ok := g.resources.Release(ctx)
	if !ok {
		g.sink.Count(stats.StaleRelease, 1)
		g.logger().Debug("gsg: stale release ignored", "context", ctx.String())
		return false
	}
	g.releaseHandle(kind, e.Handle)
	g.invalidateKind(kind)
	g.sink.Count(stats.ReleaseEvent(kind), 1)
	return true
}

func (g *Guardian) ReleaseTexture(ctx prepared.Context) bool {
	return g.release(prepared.KindTexture, ctx)
}

func (g *Guardian) ReleaseShader(ctx prepared.Context) bool {
	return g.release(prepared.KindShader, ctx)
}

func (g *Guardian) ReleaseGeom(ctx prepared.Context) bool {
	return g.release(prepared.KindGeom, ctx)
}

func (g *Guardian) ReleaseVertexBuffer(ctx prepared.Context) bool {
	return g.release(prepared.KindVertexBuffer, ctx)
}

func (g *Guardian) ReleaseIndexBuffer(ctx prepared.Context) bool {
	return g.release(prepared.KindIndexBuffer, ctx)
}

// releaseKind frees every live resource of kind.
func (g *Guardian) releaseKind(kind prepared.Kind) int {
	entries := g.resources.Drain(kind)
	for _, e := range entries {
		g.releaseHandle(kind, e.Handle)
	}
	if len(entries) > 0 {
		g.invalidateKind(kind)
		g.sink.Count(stats.ReleaseEvent(kind), len(entries))
	}
	return len(entries)
}

func (g *Guardian) ReleaseAllTextures() int      { return g.releaseKind(prepared.KindTexture) }
func (g *Guardian) ReleaseAllShaders() int       { return g.releaseKind(prepared.KindShader) }
func (g *Guardian) ReleaseAllGeoms() int         { return g.releaseKind(prepared.KindGeom) }
func (g *Guardian) ReleaseAllVertexBuffers() int { return g.releaseKind(prepared.KindVertexBuffer) }
func (g *Guardian) ReleaseAllIndexBuffers() int  { return g.releaseKind(prepared.KindIndexBuffer) }

// ReleaseAll frees every prepared resource, including finished occlusion
// queries, and returns how many were freed.
func (g *Guardian) ReleaseAll() int { return g.releaseAll() }

func (g *Guardian) releaseAll() int {
	var n int
	for k := prepared.Kind(0); k < prepared.NumKinds; k++ {
		n += g.releaseKind(k)
	}
	g.queryOpen = false
	g.query = prepared.Context{}
	return n
}

// IsPrepared reports whether ctx is live.
func (g *Guardian) IsPrepared(ctx prepared.Context) bool {
	_, ok := g.resources.Get(ctx)
	return ok
}

// PreparedCount returns the number of live resources of kind.
func (g *Guardian) PreparedCount(kind prepared.Kind) int { return g.resources.Len(kind) }

// TraversePreparedTextures calls fn for each live texture context until fn
// returns false. fn may release the context it is given.
func (g *Guardian) TraversePreparedTextures(fn func(ctx prepared.Context) bool) {
	for _, ctx := range g.resources.Snapshot(prepared.KindTexture) {
		if !g.IsPrepared(ctx) {
			continue
		}
		if !fn(ctx) {
			return
		}
	}
}

// PreparedTexture returns the texture ctx was prepared from.
func (g *Guardian) PreparedTexture(ctx prepared.Context) (*gobj.Texture, bool) {
	if ctx.Kind() != prepared.KindTexture {
		return nil, false
	}
	e, ok := g.resources.Get(ctx)
	if !ok {
		return nil, false
	}
	tex, ok := e.Object.(*gobj.Texture)
	return tex, ok
}

// ExtractTextureData reads the prepared copy of tex back into tex.
func (g *Guardian) ExtractTextureData(tex *gobj.Texture) bool {
	if tex == nil {
		return false
	}
	ctx, e, ok := g.resources.Lookup(prepared.KindTexture, tex.ID())
	if !ok {
		g.lastErr = fmt.Errorf("%w: texture %q", ErrNotPrepared, tex.Name())
		return false
	}
	img, err := g.backend.ExtractTextureData(e.Handle)
	if err != nil {
		g.absorb("ExtractTextureData", err)
		return false
	}
	tex.StoreImage(img)
	g.resources.Update(ctx, e.Handle, tex.Modified())
	return true
}

// QueuePrepare asks for obj to be prepared at the next BeginFrame or
// ApplyStaged. obj must be a *gobj.Texture, *gobj.Shader, *gobj.Geom,
// *gobj.VertexArray or *gobj.Primitive. It may be called from any
// goroutine.
func (g *Guardian) QueuePrepare(obj any) bool {
	switch obj.(type) {
	case *gobj.Texture, *gobj.Shader, *gobj.Geom, *gobj.VertexArray, *gobj.Primitive:
	default:
		return false
	}
	g.resources.Stage(prepared.Request{Op: prepared.OpPrepare, Object: obj})
	return true
}

// QueueRelease asks for ctx to be released at the next BeginFrame or
// ApplyStaged. It may be called from any goroutine.
func (g *Guardian) QueueRelease(ctx prepared.Context) {
	if ctx.Valid() {
		g.resources.Stage(prepared.Request{Op: prepared.OpRelease, Context: ctx})
	}
}

// ApplyStaged performs queued prepare and release requests in submission
// order and returns how many were taken from the queue.
func (g *Guardian) ApplyStaged() int {
	reqs := g.resources.TakeStaged()
	for _, r := range reqs {
		switch r.Op {
		case prepared.OpPrepare:
			g.prepareObject(r.Object)
		case prepared.OpRelease:
			g.release(r.Context.Kind(), r.Context)
		}
	}
	if len(reqs) > 0 {
		g.logger().Debug("gsg: staged requests applied", "count", len(reqs))
	}
	return len(reqs)
}

func (g *Guardian) prepareObject(obj any) prepared.Context {
	switch o := obj.(type) {
	case *gobj.Texture:
		return g.PrepareTexture(o)
	case *gobj.Shader:
		return g.PrepareShader(o)
	case *gobj.Geom:
		return g.PrepareGeom(o)
	case *gobj.VertexArray:
		return g.PrepareVertexBuffer(o)
	case *gobj.Primitive:
		return g.PrepareIndexBuffer(o)
	default:
		return prepared.Context{}
	}
}
