package gsg

import (
	"math"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
)

// SetStateAndTransform makes rs and the model transform ts current. The
// scene's initial state is composed under rs, then only the slots whose
// fingerprint differs from what the backend last accepted are issued, in
// slot order, after the transform.
//
// On a backend failure the slots issued so far stay applied, the rest stay
// dirty, the guardian schedules a reset and false is returned.
func (g *Guardian) SetStateAndTransform(rs *state.RenderState, ts *state.TransformState) bool {
	if !g.ready() {
		return false
	}
	if g.phase != phaseScene {
		return g.violation("SetStateAndTransform")
	}
	g.baseTarget = g.composer.Compose(g.scene.InitialState, rs)
	g.modelXform = ts
	return g.applyTarget()
}

// TargetState returns the state last requested, including any decal
// override. It is nil before the first SetStateAndTransform of a scene.
func (g *Guardian) TargetState() *state.RenderState { return g.target }

// EffectiveTexture returns the texture stages last issued to the backend.
func (g *Guardian) EffectiveTexture() []driver.TextureBinding {
	out := make([]driver.TextureBinding, len(g.effTexture))
	copy(out, g.effTexture)
	return out
}

// composeTarget rebuilds the target from the base target and the decal
// override.
func (g *Guardian) composeTarget() *state.RenderState {
	target := g.baseTarget
	if g.decal != nil {
		target = g.composer.Compose(target, g.decal)
	}
	g.target = target
	return target
}

// applyTarget issues the difference between the backend state and the
// base target with the decal override on top.
func (g *Guardian) applyTarget() bool {
	target := g.composeTarget()

	mv := g.csTransform.Compose(g.viewXform.Compose(g.modelXform))
	if !g.xformValid || g.xformFP != mv.Fingerprint() {
		if err := g.backend.IssueTransform(mv.Mat()); err != nil {
			g.issueFailed("transform", err)
			return false
		}
		g.xformFP = mv.Fingerprint()
		g.xformValid = true
		g.sink.Count(stats.TransformChange, 1)
	}

	caps := g.caps.raw()
	route := driver.RouteColorScale(caps, target.ColorScale(), driver.StageFree(caps, target))
	dirty := g.dirtySlots(target, route)
	if dirty == 0 {
		return true
	}

	for slot := state.Slot(0); slot < state.NumSlots; slot++ {
		if !dirty.Has(slot) {
			continue
		}
		if err := g.issueSlot(slot, target, route); err != nil {
			g.issueFailed(slot.String(), err)
			return false
		}
		g.slotFP[slot] = target.SlotFingerprint(slot)
		g.slotValid |= slot.Bit()
		g.sink.Count(stats.IssueEvent(slot), 1)
	}
	g.route = route
	g.sink.Count(stats.StateChange, 1)
	return true
}

// dirtySlots returns the slots that must be issued to reach target,
// including slots that depend on a changed slot.
func (g *Guardian) dirtySlots(target *state.RenderState, route driver.ColorScaleRoute) state.Mask {
	var dirty state.Mask
	for slot := state.Slot(0); slot < state.NumSlots; slot++ {
		if !g.slotValid.Has(slot) || g.slotFP[slot] != target.SlotFingerprint(slot) {
			dirty |= slot.Bit()
		}
	}

	// A texture change can take or free the stage used for alpha scale.
	if dirty.Has(state.SlotTexture) {
		dirty |= state.SlotColorScale.Bit()
	}
	viaLighting := route.ViaLighting || g.route.ViaLighting
	viaTexture := route.ViaTexture || g.route.ViaTexture
	if viaLighting && (dirty.Has(state.SlotColor) || dirty.Has(state.SlotColorScale)) {
		dirty |= state.SlotLight.Bit()
	}
	if viaTexture && dirty.Has(state.SlotColorScale) {
		dirty |= state.SlotTexture.Bit()
	}
	if dirty.Has(state.SlotMaterial) {
		dirty |= state.SlotLight.Bit()
	}
	// Re-uploaded textures keep their slot fingerprint.
	if !g.effTextureValid || g.effTextureKey != effectiveTextureKey(target, route) {
		dirty |= state.SlotTexture.Bit()
	}
	return dirty
}

func (g *Guardian) issueSlot(slot state.Slot, target *state.RenderState, route driver.ColorScaleRoute) error {
	switch slot {
	case state.SlotColor:
		return g.backend.IssueColor(target.Color())
	case state.SlotColorScale:
		return g.backend.IssueColorScale(route.Issued)
	case state.SlotTexture:
		return g.backend.IssueTexture(g.determineEffectiveTexture(target, route))
	case state.SlotClipPlane:
		return g.bindClipPlanes(target.ClipPlanes())
	case state.SlotMaterial:
		return g.backend.IssueMaterial(target.Material())
	case state.SlotLight:
		return g.bindLights(target.Lights(), route)
	case state.SlotStencil:
		return g.backend.IssueAttrib(g.clampStencil(target.Get(slot).(state.StencilAttrib)))
	case state.SlotShader:
		return g.issueShader(target.Shader())
	default:
		return g.backend.IssueAttrib(target.Get(slot))
	}
}

// issueFailed records a rejected state call. Whatever the backend holds now
// is unknown past the failed slot, so the guardian resets at the next frame.
func (g *Guardian) issueFailed(op string, err error) {
	g.absorb("issue "+op, err)
	g.needsReset = true
}

// determineEffectiveTexture resolves the texture slot of target to the
// stages the backend can bind: the first MaxTextureStages stages in sort
// order whose texture prepares, plus the alpha-scale stage when alpha scale
// is routed through a texture unit.
func (g *Guardian) determineEffectiveTexture(target *state.RenderState, route driver.ColorScaleRoute) []driver.TextureBinding {
	stages := target.Texture().Stages
	key := effectiveTextureKey(target, route)
	if g.effTextureValid && g.effTextureKey == key {
		return g.effTexture
	}

	if limit := g.caps.MaxTextureStages(); len(stages) > limit {
		g.logger().Debug("gsg: texture stages truncated", "stages", len(stages), "max", limit)
		stages = stages[:limit]
	}
	out := make([]driver.TextureBinding, 0, len(stages)+1)
	for _, st := range stages {
		if st.Texture == nil || st.Mode == state.TexModulateConstant {
			out = append(out, driver.TextureBinding{Stage: st})
			continue
		}
		ctx := g.PrepareTexture(st.Texture)
		if !ctx.Valid() {
			g.logger().Debug("gsg: texture stage dropped", "stage", st.Name, "texture", st.Texture.Name())
			continue
		}
		out = append(out, driver.TextureBinding{Stage: st, Handle: g.resources.Handle(ctx)})
	}
	if route.ViaTexture {
		out = append(out, driver.TextureBinding{Stage: state.AlphaScaleStage(route.TextureAlpha)})
	}

	g.effTexture = out
	g.effTextureKey = key
	g.effTextureValid = true
	return out
}

func effectiveTextureKey(target *state.RenderState, route driver.ColorScaleRoute) uint64 {
	return state.Combine(
		target.SlotFingerprint(state.SlotTexture),
		uint64(math.Float32bits(route.TextureAlpha)),
		texturesVersion(target.Texture().Stages),
	)
}

func texturesVersion(stages []state.TextureStage) uint64 {
	var v uint64
	for _, st := range stages {
		if st.Texture != nil {
			v += st.Texture.Modified()
		}
	}
	return v
}

// clampStencil removes stencil features the backend lacks: two-sided
// stencil collapses to the front face, wrapping ops saturate.
func (g *Guardian) clampStencil(a state.StencilAttrib) state.StencilAttrib {
	if a.TwoSided && !g.caps.SupportsTwoSidedStencil() {
		a.TwoSided = false
		a.Back = state.StencilFace{}
	}
	if !g.caps.SupportsStencilWrap() {
		a.Front = saturateFace(a.Front)
		a.Back = saturateFace(a.Back)
	}
	return a
}

func saturateFace(f state.StencilFace) state.StencilFace {
	f.Fail = saturateOp(f.Fail)
	f.DepthFail = saturateOp(f.DepthFail)
	f.Pass = saturateOp(f.Pass)
	return f
}

func saturateOp(op state.StencilOp) state.StencilOp {
	switch op {
	case state.StencilIncrementWrap:
		return state.StencilIncrement
	case state.StencilDecrementWrap:
		return state.StencilDecrement
	default:
		return op
	}
}

// issueShader binds a prepared shader, or the fixed-function path when the
// attribute names no shader or the shader cannot be prepared.
func (g *Guardian) issueShader(a state.ShaderAttrib) error {
	if a.Shader == nil {
		return g.backend.IssueShader(driver.InvalidHandle, nil)
	}
	ctx := g.PrepareShader(a.Shader)
	if !ctx.Valid() {
		return g.backend.IssueShader(driver.InvalidHandle, nil)
	}
	return g.backend.IssueShader(g.resources.Handle(ctx), a.Shader)
}

// SetShaderModel overrides the detected shader model. It fails for models
// above what the backend reported as its maximum.
func (g *Guardian) SetShaderModel(m gobj.ShaderModel) bool {
	if !g.valid {
		g.lastErr = ErrInvalid
		return false
	}
	if !g.settle() {
		return false
	}
	if m > g.caps.MaxShaderModel() {
		g.logger().Warn("gsg: shader model above backend maximum",
			"model", m.String(), "max", g.caps.MaxShaderModel().String())
		return false
	}
	c := g.caps.raw().Clone()
	c.ShaderModel = m
	g.caps = newCapabilities(c)
	g.mungers.Clear()
	g.slotValid &^= state.SlotShader.Bit()
	return true
}
