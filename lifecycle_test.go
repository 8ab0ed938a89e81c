package gsg

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
	"github.com/gogpu/gsg/view"
)

func TestLifecycle_FullFrame(t *testing.T) {
	g, b := newTestGuardian(t)
	b.ClearCalls()

	openScene(t, g)
	if !g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Fatalf("SetStateAndTransform: %v", g.LastError())
	}
	data := testData(t, 3)
	if !g.BeginDrawPrimitives(nil, nil, data, true) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}
	if !g.DrawTriangles(gobj.NewSequential(gobj.Triangles, 0, 3), true) {
		t.Fatalf("DrawTriangles: %v", g.LastError())
	}
	if !g.EndDrawPrimitives() {
		t.Fatal("EndDrawPrimitives failed")
	}
	closeScene(t, g)

	var bracket []recording.Op
	for _, op := range ops(b) {
		switch op {
		case recording.OpBeginFrame, recording.OpBeginScene, recording.OpBeginDrawPrimitives,
			recording.OpDrawPrimitive, recording.OpEndDrawPrimitives, recording.OpEndScene,
			recording.OpEndFrame:
			bracket = append(bracket, op)
		}
	}
	want := []recording.Op{
		recording.OpBeginFrame,
		recording.OpBeginScene,
		recording.OpBeginDrawPrimitives,
		recording.OpDrawPrimitive,
		recording.OpEndDrawPrimitives,
		recording.OpEndScene,
		recording.OpEndFrame,
	}
	if !reflect.DeepEqual(bracket, want) {
		t.Errorf("bracketing = %v, want %v", bracket, want)
	}
}

func TestLifecycle_OutOfOrder(t *testing.T) {
	tests := []struct {
		name string
		call func(g *Guardian) bool
	}{
		{"draw before begin", func(g *Guardian) bool {
			return g.DrawTriangles(gobj.NewSequential(gobj.Triangles, 0, 3), true)
		}},
		{"begin draw outside scene", func(g *Guardian) bool {
			return g.BeginDrawPrimitives(nil, nil, nil, true)
		}},
		{"state outside scene", func(g *Guardian) bool {
			return g.SetStateAndTransform(state.Empty(), state.Identity())
		}},
		{"begin scene outside frame", func(g *Guardian) bool { return g.BeginScene() }},
		{"end scene outside scene", func(g *Guardian) bool { return g.EndScene() }},
		{"end frame outside frame", func(g *Guardian) bool { return g.EndFrame() }},
		{"end draw outside primitives", func(g *Guardian) bool { return g.EndDrawPrimitives() }},
		{"set scene outside frame", func(g *Guardian) bool { return g.SetScene(testScene()) }},
		{"clear outside frame", func(g *Guardian) bool { return g.Clear(view.ClearAll) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := stats.NewCounts()
			g, b := newTestGuardian(t, WithStatsSink(counts))
			b.ClearCalls()
			if tt.call(g) {
				t.Fatal("call succeeded out of order")
			}
			if !errors.Is(g.LastError(), ErrProtocol) {
				t.Errorf("LastError = %v, want ErrProtocol", g.LastError())
			}
			if len(b.Calls()) != 0 {
				t.Errorf("backend calls = %v, want none", b.Ops())
			}
			if counts.Get(stats.ProtocolViolation) != 1 {
				t.Errorf("violations = %d, want 1", counts.Get(stats.ProtocolViolation))
			}
		})
	}
}

func TestLifecycle_DoubleBeginFrame(t *testing.T) {
	g, _ := newTestGuardian(t)
	if !g.BeginFrame() {
		t.Fatal("BeginFrame failed")
	}
	if g.BeginFrame() {
		t.Error("nested BeginFrame must fail")
	}
}

func TestLifecycle_BeginSceneNeedsScene(t *testing.T) {
	g, _ := newTestGuardian(t)
	g.BeginFrame()
	if g.BeginScene() {
		t.Error("BeginScene without SetScene must fail")
	}
}

func TestSetScene_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		setup *view.SceneSetup
	}{
		{"nil", nil},
		{"no lens", &view.SceneSetup{Region: view.NewDisplayRegion(4, 4)}},
		{"no region", &view.SceneSetup{Lens: view.NewPerspective(60, 1, 1, 10)}},
		{"degenerate lens", &view.SceneSetup{
			Lens:   view.NewPerspective(60, 1, 5, 5),
			Region: view.NewDisplayRegion(4, 4),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGuardian(t)
			g.BeginFrame()
			if g.SetScene(tt.setup) {
				t.Fatal("SetScene accepted a bad setup")
			}
			if g.BeginScene() {
				t.Error("BeginScene after a rejected setup must fail")
			}
		})
	}
}

func TestSetScene_Projection(t *testing.T) {
	g, b := newTestGuardian(t)
	g.BeginFrame()
	setup := testScene()
	if !g.SetScene(setup) {
		t.Fatalf("SetScene: %v", g.LastError())
	}
	want, err := setup.Lens.ProjectionMat(view.StereoMono)
	if err != nil {
		t.Fatalf("ProjectionMat: %v", err)
	}
	if g.Projection() != want {
		t.Error("Projection does not match the lens")
	}
	lens := b.Filter(recording.OpPrepareLens)
	if len(lens) != 1 || lens[0].Value.(mgl32.Mat4) != want {
		t.Errorf("PrepareLens calls = %v", lens)
	}
	if g.Scene() != setup {
		t.Error("Scene does not return the installed setup")
	}
}

func TestClear(t *testing.T) {
	g, b := newTestGuardian(t)
	g.SetColorClearValue(mgl32.Vec4{0.1, 0.2, 0.3, 1})
	g.SetDepthClearValue(0.5)
	g.SetStencilClearValue(7)
	g.BeginFrame()
	if !g.Clear(view.ClearColor | view.ClearDepth) {
		t.Fatalf("Clear: %v", g.LastError())
	}
	calls := b.Filter(recording.OpClear)
	if len(calls) != 1 {
		t.Fatalf("Clear calls = %d, want 1", len(calls))
	}
	req := calls[0].Value.(driver.ClearRequest)
	want := driver.ClearRequest{
		Mask:    view.ClearColor | view.ClearDepth,
		Color:   mgl32.Vec4{0.1, 0.2, 0.3, 1},
		Depth:   0.5,
		Stencil: 7,
	}
	if req != want {
		t.Errorf("ClearRequest = %+v, want %+v", req, want)
	}

	region := view.NewDisplayRegion(8, 8)
	region.Clear = view.ClearAll
	region.ClearColor = mgl32.Vec4{1, 0, 0, 1}
	if !g.ClearRegion(region) {
		t.Fatal("ClearRegion failed")
	}
	calls = b.Filter(recording.OpClear)
	if got := calls[len(calls)-1].Value.(driver.ClearRequest); got.Color != region.ClearColor || got.Mask != view.ClearAll {
		t.Errorf("region clear = %+v", got)
	}

	b.ClearCalls()
	if !g.Clear(0) || b.Count(recording.OpClear) != 0 {
		t.Error("empty clear mask must succeed without a backend call")
	}
}

func TestDeviceLost_MidFrame(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	b.FailNext(recording.OpIssueTransform, driver.ErrDeviceLost)
	if g.SetStateAndTransform(state.Empty(), state.MakePos(mgl32.Vec3{1, 2, 3})) {
		t.Fatal("state call must report the device loss")
	}
	if !g.NeedsReset() {
		t.Fatal("device loss must schedule a reset")
	}

	b.ClearCalls()
	if g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Error("state calls must fail until the reset")
	}
	if !errors.Is(g.LastError(), ErrNeedsReset) {
		t.Errorf("LastError = %v, want ErrNeedsReset", g.LastError())
	}
	if b.Count(recording.OpIssueTransform) != 0 {
		t.Error("state reached the backend while a reset was pending")
	}

	closeScene(t, g)
	if !g.BeginFrame() {
		t.Fatalf("BeginFrame: %v", g.LastError())
	}
	if b.Count(recording.OpReset) != 1 {
		t.Errorf("resets at frame boundary = %d, want 1", b.Count(recording.OpReset))
	}
	if g.NeedsReset() {
		t.Error("NeedsReset after the boundary reset")
	}
}

func TestEndScene_ClosesQuery(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	if !g.BeginOcclusionQuery() {
		t.Fatalf("BeginOcclusionQuery: %v", g.LastError())
	}
	closeScene(t, g)
	if g.OcclusionQueryOpen() {
		t.Error("query still open after EndScene")
	}
	if b.Count(recording.OpEndOcclusionQuery) != 1 {
		t.Error("EndScene must end the open query")
	}
	if g.PreparedCount(prepared.KindQuery) != 0 || b.Count(recording.OpReleaseQuery) != 1 {
		t.Errorf("queries left = %d, releases = %d; want the abandoned query freed",
			g.PreparedCount(prepared.KindQuery), b.Count(recording.OpReleaseQuery))
	}
}

func TestBeginFrame_AppliesStaged(t *testing.T) {
	g, b := newTestGuardian(t)
	tex := testTexture("staged", 4, 4)
	if !g.QueuePrepare(tex) {
		t.Fatal("QueuePrepare rejected a texture")
	}
	if b.Count(recording.OpPrepareTexture) != 0 {
		t.Fatal("QueuePrepare must not prepare immediately")
	}
	g.BeginFrame()
	if b.Count(recording.OpPrepareTexture) != 1 {
		t.Errorf("prepares after BeginFrame = %d, want 1", b.Count(recording.OpPrepareTexture))
	}
}

func TestEndFrame_ReportsResources(t *testing.T) {
	counts := stats.NewCounts()
	g, _ := newTestGuardian(t, WithStatsSink(counts))
	g.PrepareTexture(testTexture("a", 2, 2))
	g.PrepareTexture(testTexture("b", 2, 2))
	g.BeginFrame()
	g.EndFrame()
	if counts.Get(stats.Frame) != 1 {
		t.Errorf("frames = %d, want 1", counts.Get(stats.Frame))
	}
	if n := counts.Resources(prepared.KindTexture); n != 2 {
		t.Errorf("texture gauge = %d, want 2", n)
	}
}
