package gsg

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/state"
)

// DepthOffsetDecals reports whether decals are drawn with a depth offset
// instead of the three-pass depth-write/color-write sequence.
func (g *Guardian) DepthOffsetDecals() bool {
	return g.cfg.DepthOffsetDecals && g.caps.SupportsDepthOffset()
}

// BeginDecalBaseFirst starts a decal group and returns the override used
// for the first pass of the base geometry. The override is issued at once
// over the current state and composed over every state set until
// FinishDecal.
func (g *Guardian) BeginDecalBaseFirst() *state.RenderState {
	if g.DepthOffsetDecals() {
		return g.setDecal("BeginDecalBaseFirst", state.Empty())
	}
	return g.setDecal("BeginDecalBaseFirst", state.New(state.DepthWriteAttrib{Enabled: false}))
}

// BeginDecalNested returns the override for the decals layered on the base.
func (g *Guardian) BeginDecalNested() *state.RenderState {
	if g.DepthOffsetDecals() {
		return g.setDecal("BeginDecalNested", state.New(state.DepthOffsetAttrib{Offset: 1}))
	}
	return g.setDecal("BeginDecalNested", state.New(state.DepthWriteAttrib{Enabled: false}))
}

// BeginDecalBaseSecond returns the override for the second pass of the
// base, which only restores depth. It returns nil when no second pass is
// needed.
func (g *Guardian) BeginDecalBaseSecond() *state.RenderState {
	if g.DepthOffsetDecals() {
		if g.decalPhase() && g.decal != nil {
			g.decal = nil
			g.applyDecal()
		}
		return nil
	}
	return g.setDecal("BeginDecalBaseSecond", state.New(state.ColorWriteAttrib{Mask: gputypes.ColorWriteMaskNone}))
}

// FinishDecal drops the override and re-issues the slots it covered from
// the state set before it. Inside a primitive batch the restored state
// takes effect from the next Draw call.
func (g *Guardian) FinishDecal() bool {
	if !g.decalPhase() {
		return g.violation("FinishDecal")
	}
	g.decal = nil
	return g.applyDecal()
}

// applyDecal brings the backend in line with the current override once a
// state has been set in this scene. With a reset pending only the target is
// rebuilt; the reset re-issues everything.
func (g *Guardian) applyDecal() bool {
	if g.baseTarget == nil {
		return true
	}
	if !g.ready() {
		g.composeTarget()
		return true
	}
	return g.applyTarget()
}

// DecalOverride returns the active decal override, or nil.
func (g *Guardian) DecalOverride() *state.RenderState { return g.decal }

func (g *Guardian) decalPhase() bool {
	return g.phase == phaseScene || g.phase == phasePrimitives
}

func (g *Guardian) setDecal(op string, rs *state.RenderState) *state.RenderState {
	if !g.decalPhase() {
		g.violation(op)
		return nil
	}
	g.decal = rs
	g.applyDecal()
	return rs
}
