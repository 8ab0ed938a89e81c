package gsg

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/state"
)

func TestDecal_ThreePass(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	if g.DepthOffsetDecals() {
		t.Fatal("depth-offset decals are off by default")
	}

	base := g.BeginDecalBaseFirst()
	if w := base.Get(state.SlotDepthWrite).(state.DepthWriteAttrib); w.Enabled {
		t.Error("first base pass must not write depth")
	}
	g.SetStateAndTransform(state.Empty(), state.Identity())
	if w := g.TargetState().Get(state.SlotDepthWrite).(state.DepthWriteAttrib); w.Enabled {
		t.Error("override not composed over the requested state")
	}

	if n := g.BeginDecalNested(); n.Get(state.SlotDepthWrite).(state.DepthWriteAttrib).Enabled {
		t.Error("decals must not write depth")
	}
	second := g.BeginDecalBaseSecond()
	if second == nil {
		t.Fatal("three-pass decals need a second base pass")
	}
	if m := second.Get(state.SlotColorWrite).(state.ColorWriteAttrib); m.Mask != gputypes.ColorWriteMaskNone {
		t.Errorf("second base pass color mask = %v, want none", m.Mask)
	}

	b.ClearCalls()
	if !g.FinishDecal() {
		t.Fatalf("FinishDecal: %v", g.LastError())
	}
	if g.DecalOverride() != nil {
		t.Error("override kept after FinishDecal")
	}
	if w := g.TargetState().Get(state.SlotDepthWrite).(state.DepthWriteAttrib); !w.Enabled {
		t.Error("FinishDecal must restore the requested state")
	}
	if b.Count(recording.OpIssueAttrib) == 0 {
		t.Error("FinishDecal issued nothing")
	}
}

func TestDecal_DepthOffset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DepthOffsetDecals = true
	g, _ := newTestGuardian(t, WithConfig(cfg))
	openScene(t, g)
	if !g.DepthOffsetDecals() {
		t.Fatal("depth-offset decals not enabled")
	}
	if base := g.BeginDecalBaseFirst(); base.Present() != 0 {
		t.Errorf("base override = %v, want empty", base)
	}
	nested := g.BeginDecalNested()
	if o := nested.Get(state.SlotDepthOffset).(state.DepthOffsetAttrib); o.Offset != 1 {
		t.Errorf("decal offset = %d, want 1", o.Offset)
	}
	if g.BeginDecalBaseSecond() != nil {
		t.Error("depth-offset decals need no second base pass")
	}
	if g.DecalOverride() != nil {
		t.Error("override kept when no second pass is drawn")
	}
	g.FinishDecal()
}

func TestDecal_WithoutDepthOffsetSupport(t *testing.T) {
	caps := recording.FullCaps()
	caps.SupportsDepthOffset = false
	cfg := DefaultConfig()
	cfg.DepthOffsetDecals = true
	g, _ := newTestGuardianCaps(t, caps, WithConfig(cfg))
	if g.DepthOffsetDecals() {
		t.Error("depth-offset decals enabled on a backend without depth offset")
	}
}

func TestDecal_OutsideScene(t *testing.T) {
	g, _ := newTestGuardian(t)
	if g.BeginDecalBaseFirst() != nil {
		t.Error("decal started outside a scene")
	}
	if g.FinishDecal() {
		t.Error("FinishDecal outside a scene succeeded")
	}
}

func TestDecal_InsidePrimitiveBatch(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	if !g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Fatalf("SetStateAndTransform: %v", g.LastError())
	}
	if !g.BeginDrawPrimitives(nil, nil, testData(t, 3), false) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}

	b.ClearCalls()
	g.BeginDecalBaseFirst()
	if b.Count(recording.OpIssueAttrib) == 0 {
		t.Error("decal override never reached the backend")
	}
	if w := g.TargetState().Get(state.SlotDepthWrite).(state.DepthWriteAttrib); w.Enabled {
		t.Error("target keeps depth writes under the decal override")
	}

	b.ClearCalls()
	if !g.FinishDecal() {
		t.Fatalf("FinishDecal: %v", g.LastError())
	}
	if b.Count(recording.OpIssueAttrib) == 0 {
		t.Error("FinishDecal issued nothing inside the batch")
	}
	if w := g.TargetState().Get(state.SlotDepthWrite).(state.DepthWriteAttrib); !w.Enabled {
		t.Error("FinishDecal must restore depth writes")
	}
	if !g.EndDrawPrimitives() {
		t.Fatalf("EndDrawPrimitives: %v", g.LastError())
	}

	// Nothing is left to restore for the next batch.
	b.ClearCalls()
	if !g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Fatalf("SetStateAndTransform: %v", g.LastError())
	}
	if b.Count(recording.OpIssueAttrib) != 0 {
		t.Errorf("calls = %v, want the state already in place", b.Ops())
	}
}
