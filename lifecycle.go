package gsg

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
	"github.com/gogpu/gsg/view"
)

// BeginFrame opens a frame. A pending reset runs first and staged
// prepare/release requests are applied. It returns false when the guardian
// is inactive or invalid, the reset failed, or a frame is already open.
func (g *Guardian) BeginFrame() bool {
	if !g.usable() {
		return false
	}
	if g.phase != phaseInactive {
		return g.violation("BeginFrame")
	}
	if !g.ResetIfNew() {
		return false
	}
	g.ApplyStaged()
	if err := g.backend.BeginFrame(); err != nil {
		g.absorb("BeginFrame", err)
		return false
	}
	g.phase = phaseFrame
	g.sink.Count(stats.Frame, 1)
	return true
}

// EndFrame closes the frame and reports resource table sizes to the
// statistics sink.
func (g *Guardian) EndFrame() bool {
	if g.phase != phaseFrame {
		return g.violation("EndFrame")
	}
	g.phase = phaseInactive
	g.scene = nil
	for k := prepared.Kind(0); k < prepared.NumKinds; k++ {
		g.sink.SetResources(k, g.resources.Len(k))
	}
	if err := g.backend.EndFrame(); err != nil {
		g.absorb("EndFrame", err)
		return false
	}
	return true
}

// SetScene installs the scene about to be rendered: it computes the
// projection for the lens, prepares the display region and loads the
// projection into the backend. Only valid between BeginFrame and
// BeginScene.
func (g *Guardian) SetScene(setup *view.SceneSetup) bool {
	if !g.ready() {
		return false
	}
	if g.phase != phaseFrame {
		return g.violation("SetScene")
	}
	if setup == nil || setup.Lens == nil || setup.Region == nil {
		g.lastErr = ErrInvalidScene
		g.logger().Warn("gsg: incomplete scene setup")
		return false
	}
	if err := setup.Lens.Validate(); err != nil {
		g.lastErr = err
		g.logger().Warn("gsg: unusable lens", "err", err)
		return false
	}
	proj, ok := g.backend.CalcProjectionMat(setup.Lens, setup.Channel)
	if !ok {
		g.lastErr = view.ErrDegenerateLens
		g.logger().Warn("gsg: backend rejected lens")
		return false
	}
	if err := g.backend.PrepareDisplayRegion(setup.Region, setup.Channel); err != nil {
		g.absorb("PrepareDisplayRegion", err)
		return false
	}
	if err := g.backend.PrepareLens(proj); err != nil {
		g.absorb("PrepareLens", err)
		return false
	}

	g.scene = setup
	g.projection = proj
	g.viewXform = setup.ViewTransform()
	g.baseTarget = nil
	g.target = nil
	g.xformValid = false
	g.slotValid &^= state.SlotLight.Bit() | state.SlotClipPlane.Bit()
	return true
}

// Scene returns the current scene, or nil.
func (g *Guardian) Scene() *view.SceneSetup { return g.scene }

// Projection returns the projection computed by the last SetScene.
func (g *Guardian) Projection() mgl32.Mat4 { return g.projection }

// BeginScene opens the scene installed by SetScene.
func (g *Guardian) BeginScene() bool {
	if !g.ready() {
		return false
	}
	if g.phase != phaseFrame || g.scene == nil {
		return g.violation("BeginScene")
	}
	if err := g.backend.BeginScene(); err != nil {
		g.absorb("BeginScene", err)
		return false
	}
	g.phase = phaseScene
	g.sink.Count(stats.Scene, 1)
	return true
}

// EndScene closes the scene. An occlusion query left open is ended and
// released, since nobody holds its context.
func (g *Guardian) EndScene() bool {
	if g.phase != phaseScene {
		return g.violation("EndScene")
	}
	if g.queryOpen {
		g.logger().Warn("gsg: occlusion query open at end of scene", "query", g.query.String())
		if ctx := g.EndOcclusionQuery(); ctx.Valid() {
			g.ReleaseOcclusionQuery(ctx)
		}
	}
	g.phase = phaseFrame
	if err := g.backend.EndScene(); err != nil {
		g.absorb("EndScene", err)
		return false
	}
	return true
}

// SetColorClearValue sets the color used by Clear.
func (g *Guardian) SetColorClearValue(c mgl32.Vec4) { g.clearColor = c }

// SetDepthClearValue sets the depth used by Clear.
func (g *Guardian) SetDepthClearValue(d float32) { g.clearDepth = d }

// SetStencilClearValue sets the stencil value used by Clear.
func (g *Guardian) SetStencilClearValue(s uint32) { g.clearStencil = s }

func (g *Guardian) ColorClearValue() mgl32.Vec4 { return g.clearColor }
func (g *Guardian) DepthClearValue() float32    { return g.clearDepth }
func (g *Guardian) StencilClearValue() uint32   { return g.clearStencil }

// Clear clears the selected buffers with the guardian's clear values.
func (g *Guardian) Clear(mask view.ClearMask) bool {
	return g.clear("Clear", driver.ClearRequest{
		Mask:    mask,
		Color:   g.clearColor,
		Depth:   g.clearDepth,
		Stencil: g.clearStencil,
	})
}

// ClearRegion clears with the buffers and values c carries, typically a
// display region.
func (g *Guardian) ClearRegion(c view.Clearable) bool {
	return g.clear("ClearRegion", driver.ClearRequest{
		Mask:    c.ClearMask(),
		Color:   c.ClearColorValue(),
		Depth:   c.ClearDepthValue(),
		Stencil: c.ClearStencilValue(),
	})
}

func (g *Guardian) clear(op string, req driver.ClearRequest) bool {
	if !g.ready() {
		return false
	}
	if g.phase != phaseFrame && g.phase != phaseScene {
		return g.violation(op)
	}
	if req.Mask == 0 {
		return true
	}
	if err := g.backend.Clear(req); err != nil {
		g.absorb(op, err)
		return false
	}
	return true
}
