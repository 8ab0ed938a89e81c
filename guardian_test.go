package gsg

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
	"github.com/gogpu/gsg/view"
)

func TestNew_NilBackend(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrConfig) {
		t.Errorf("New(nil) error = %v, want ErrConfig", err)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = -1
	if _, err := New(recording.New(), WithConfig(cfg)); !errors.Is(err, ErrConfig) {
		t.Errorf("New error = %v, want ErrConfig", err)
	}
}

func TestNew_InitialReset(t *testing.T) {
	g, b := newTestGuardian(t)
	if n := b.Count(recording.OpReset); n != 1 {
		t.Errorf("resets = %d, want 1", n)
	}
	if !g.IsActive() || !g.IsValid() {
		t.Error("new guardian must be active and valid")
	}
	if g.NeedsReset() {
		t.Error("new guardian must not need a reset")
	}
	if got := g.Capabilities().MaxLights(); got != 8 {
		t.Errorf("MaxLights = %d, want 8", got)
	}
}

func TestNew_FailedReset(t *testing.T) {
	b := recording.New()
	b.FailNext(recording.OpReset, errors.New("no device"))
	if _, err := New(b); err == nil {
		t.Fatal("New must fail when the initial reset fails")
	}
}

func TestCapabilities_ClampedByConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 2
	cfg.MaxTextureStages = 1
	cfg.SupportOcclusionQuery = false
	g, _ := newTestGuardian(t, WithConfig(cfg))

	c := g.Capabilities()
	if c.MaxLights() != 2 {
		t.Errorf("MaxLights = %d, want 2", c.MaxLights())
	}
	if c.MaxTextureStages() != 1 {
		t.Errorf("MaxTextureStages = %d, want 1", c.MaxTextureStages())
	}
	if c.SupportsOcclusionQuery() {
		t.Error("occlusion queries must be disabled by config")
	}
	if c.MaxClipPlanes() != 6 {
		t.Errorf("MaxClipPlanes = %d, want unclamped 6", c.MaxClipPlanes())
	}
}

func TestReset_RoundTrip(t *testing.T) {
	g, b := newTestGuardian(t)
	g.MarkNew()
	if !g.NeedsReset() {
		t.Fatal("MarkNew must request a reset")
	}
	if !g.BeginFrame() {
		t.Fatalf("BeginFrame: %v", g.LastError())
	}
	if n := b.Count(recording.OpReset); n != 2 {
		t.Errorf("resets = %d, want 2", n)
	}
	if g.NeedsReset() {
		t.Error("NeedsReset after reset")
	}
	if !g.EndFrame() {
		t.Fatal("EndFrame failed")
	}
	if !g.BeginFrame() {
		t.Fatal("second BeginFrame failed")
	}
	if n := b.Count(recording.OpReset); n != 2 {
		t.Errorf("resets = %d after a clean frame, want 2", n)
	}
}

func TestReset_InsideFrame(t *testing.T) {
	g, _ := newTestGuardian(t)
	if !g.BeginFrame() {
		t.Fatal("BeginFrame failed")
	}
	if g.Reset() {
		t.Error("Reset inside a frame must fail")
	}
	if !errors.Is(g.LastError(), ErrProtocol) {
		t.Errorf("LastError = %v, want ErrProtocol", g.LastError())
	}
}

func TestReset_FailureDeactivates(t *testing.T) {
	counts := stats.NewCounts()
	g, b := newTestGuardian(t, WithStatsSink(counts))
	b.FailNext(recording.OpReset, driver.ErrDeviceLost)
	if g.Reset() {
		t.Fatal("Reset must report the failure")
	}
	if g.IsValid() || g.IsActive() {
		t.Error("a failed reset must deactivate the guardian")
	}
	if g.BeginFrame() {
		t.Error("BeginFrame after a failed reset must fail")
	}
	if !errors.Is(g.LastError(), ErrInvalid) {
		t.Errorf("LastError = %v, want ErrInvalid", g.LastError())
	}
	if counts.Get(stats.ResetFailure) != 1 {
		t.Errorf("reset failures = %d, want 1", counts.Get(stats.ResetFailure))
	}
	g.SetActive(true)
	if g.IsActive() {
		t.Error("SetActive must not revive an invalid guardian")
	}
}

func TestSetActive(t *testing.T) {
	g, b := newTestGuardian(t)
	g.SetActive(false)
	b.ClearCalls()
	if g.BeginFrame() {
		t.Error("BeginFrame on an inactive guardian must fail")
	}
	if !errors.Is(g.LastError(), ErrInactive) {
		t.Errorf("LastError = %v, want ErrInactive", g.LastError())
	}
	if len(b.Calls()) != 0 {
		t.Errorf("inactive guardian made backend calls: %v", b.Ops())
	}
	g.SetActive(true)
	if !g.BeginFrame() {
		t.Errorf("BeginFrame after reactivation: %v", g.LastError())
	}
}

func TestPanicDeactivate(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	g.PanicDeactivate()
	g.PanicDeactivate()

	b.ClearCalls()
	if g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Error("state call after PanicDeactivate must fail")
	}
	if g.BeginFrame() {
		t.Error("BeginFrame after PanicDeactivate must fail")
	}
	if len(b.Calls()) != 0 {
		t.Errorf("backend calls after PanicDeactivate: %v", b.Ops())
	}
}

func TestClose_ReleasesEverything(t *testing.T) {
	g, b := newTestGuardian(t)
	g.PrepareTexture(testTexture("a", 4, 4))
	g.PrepareShader(gobj.NewShader("s", "src"))
	g.PrepareVertexBuffer(testData(t, 3).Arrays[0])
	if b.Live() != 3 {
		t.Fatalf("live = %d, want 3", b.Live())
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.Live() != 0 {
		t.Errorf("live after Close = %d, want 0", b.Live())
	}
	if g.IsValid() {
		t.Error("guardian valid after Close")
	}
}

func TestStrictProtocol(t *testing.T) {
	g, _ := newTestGuardian(t, WithStrictProtocol(true))
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrProtocol) {
			t.Errorf("recover() = %v, want ErrProtocol panic", r)
		}
	}()
	g.EndFrame()
}

func TestCoordinateSystem(t *testing.T) {
	g, _ := newTestGuardian(t)
	if g.CoordinateSystem() != view.CSZupRight {
		t.Fatalf("CoordinateSystem = %v, want zup-right", g.CoordinateSystem())
	}

	// z-up content into a y-up backend: +y (forward) becomes -z.
	p := g.CSTransform().XformPoint(mgl32.Vec3{0, 1, 0})
	if !p.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("forward converts to %v, want (0, 0, -1)", p)
	}
	back := g.InvCSTransform().XformPoint(p)
	if !back.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("inverse gives %v", back)
	}
	if d := g.ComputeDistanceTo(mgl32.Vec3{3, 5, 7}); d != 5 {
		t.Errorf("ComputeDistanceTo = %v, want 5", d)
	}

	g.SetCoordinateSystem(view.CSYupRight)
	if !g.CSTransform().IsIdentity() {
		t.Error("matching coordinate systems must convert with the identity")
	}
	if d := g.ComputeDistanceTo(mgl32.Vec3{3, 5, 7}); d != -7 {
		t.Errorf("y-up ComputeDistanceTo = %v, want -7", d)
	}
}

func TestSetShaderModel(t *testing.T) {
	caps := recording.FullCaps()
	caps.ShaderModel = gobj.SM20
	caps.MaxShaderModel = gobj.SM30
	g, _ := newTestGuardianCaps(t, caps)

	if !g.SetShaderModel(gobj.SM30) {
		t.Fatal("SetShaderModel(SM30) failed")
	}
	if g.Capabilities().ShaderModel() != gobj.SM30 {
		t.Errorf("ShaderModel = %v, want sm-3.0", g.Capabilities().ShaderModel())
	}
	if g.SetShaderModel(gobj.SM40) {
		t.Error("SetShaderModel above the maximum must fail")
	}
}

func TestNoAutoDetectShaderModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoDetectShaderModel = false
	g, _ := newTestGuardian(t, WithConfig(cfg))
	if g.Capabilities().ShaderModel() != gobj.SM00 {
		t.Errorf("ShaderModel = %v, want sm-0.0", g.Capabilities().ShaderModel())
	}
	if !g.SetShaderModel(gobj.SM40) {
		t.Error("manual override up to the backend maximum must work")
	}
}

func TestMarkNew_ResetsBeforeStateChange(t *testing.T) {
	tests := []struct {
		name string
		call func(g *Guardian) bool
	}{
		{"PrepareTexture", func(g *Guardian) bool { return g.PrepareTexture(testTexture("a", 2, 2)).Valid() }},
		{"PrepareVertexBuffer", func(g *Guardian) bool { return g.PrepareVertexBuffer(testData(t, 3).Arrays[0]).Valid() }},
		{"SetGamma", func(g *Guardian) bool { return g.SetGamma(2) }},
		{"SetShaderModel", func(g *Guardian) bool { return g.SetShaderModel(gobj.SM20) }},
		{"SetCoordinateSystem", func(g *Guardian) bool { g.SetCoordinateSystem(view.CSYupRight); return true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, b := newTestGuardian(t)
			g.MarkNew()
			b.ClearCalls()
			if !tt.call(g) {
				t.Fatalf("%s failed: %v", tt.name, g.LastError())
			}
			if n := b.Count(recording.OpReset); n != 1 {
				t.Errorf("resets = %d, want 1", n)
			}
			if calls := b.Ops(); len(calls) > 1 && calls[0] != recording.OpReset {
				t.Errorf("first call = %v, want the reset", calls[0])
			}
			if g.NeedsReset() {
				t.Error("NeedsReset after the call")
			}
		})
	}
}

func TestMarkNew_InsideScene(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	if !g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Fatalf("SetStateAndTransform: %v", g.LastError())
	}
	g.MarkNew()
	b.ClearCalls()
	if g.SetStateAndTransform(state.Empty(), state.MakePos(mgl32.Vec3{1, 0, 0})) {
		t.Error("state call issued against stale state")
	}
	if !errors.Is(g.LastError(), ErrNeedsReset) {
		t.Errorf("LastError = %v, want ErrNeedsReset", g.LastError())
	}
	if g.PrepareTexture(testTexture("a", 2, 2)).Valid() {
		t.Error("prepare succeeded inside a frame with a reset pending")
	}
	if len(b.Calls()) != 0 {
		t.Errorf("calls = %v, want none", b.Ops())
	}

	closeScene(t, g)
	if !g.BeginFrame() {
		t.Fatalf("BeginFrame: %v", g.LastError())
	}
	if n := b.Count(recording.OpReset); n != 1 {
		t.Errorf("resets = %d, want 1", n)
	}
}
