package gsg

import (
	"errors"
	"testing"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
)

// beginDraw opens a scene with the empty state and binds rows of data.
func beginDraw(t *testing.T, g *Guardian, rows int) {
	t.Helper()
	openScene(t, g)
	if !g.SetStateAndTransform(state.Empty(), state.Identity()) {
		t.Fatalf("SetStateAndTransform: %v", g.LastError())
	}
	if !g.BeginDrawPrimitives(nil, nil, testData(t, rows), false) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}
}

func TestDraw_Kinds(t *testing.T) {
	tests := []struct {
		name string
		draw func(g *Guardian, p *gobj.Primitive, force bool) bool
		prim *gobj.Primitive
	}{
		{"triangles", (*Guardian).DrawTriangles, gobj.NewSequential(gobj.Triangles, 0, 6)},
		{"tristrips", (*Guardian).DrawTristrips, gobj.NewSequential(gobj.TriStrips, 0, 5)},
		{"trifans", (*Guardian).DrawTrifans, gobj.NewIndexed(gobj.TriFans, []uint32{0, 1, 2, 3})},
		{"lines", (*Guardian).DrawLines, gobj.NewSequential(gobj.Lines, 0, 4)},
		{"linestrips", (*Guardian).DrawLinestrips, gobj.NewSequential(gobj.LineStrips, 0, 3)},
		{"points", (*Guardian).DrawPoints, gobj.NewSequential(gobj.Points, 0, 6)},
		{"dispatch", (*Guardian).Draw, gobj.NewIndexed(gobj.Triangles, []uint32{0, 1, 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := stats.NewCounts()
			g, b := newTestGuardian(t, WithStatsSink(counts))
			beginDraw(t, g, 6)
			if !tt.draw(g, tt.prim, false) {
				t.Fatalf("draw: %v", g.LastError())
			}
			if b.Count(recording.OpDrawPrimitive) != 1 {
				t.Errorf("DrawPrimitive calls = %d, want 1", b.Count(recording.OpDrawPrimitive))
			}
			if counts.Get(stats.Draw) != 1 || counts.Get(stats.Vertices) != tt.prim.VertexCount() {
				t.Errorf("draws = %d vertices = %d", counts.Get(stats.Draw), counts.Get(stats.Vertices))
			}
		})
	}
}

func TestDraw_Malformed(t *testing.T) {
	tests := []struct {
		name string
		draw func(g *Guardian) bool
	}{
		{"nil", func(g *Guardian) bool { return g.DrawTriangles(nil, false) }},
		{"kind mismatch", func(g *Guardian) bool {
			return g.DrawTriangles(gobj.NewSequential(gobj.Lines, 0, 2), false)
		}},
		{"index out of range", func(g *Guardian) bool {
			return g.DrawTriangles(gobj.NewIndexed(gobj.Triangles, []uint32{0, 1, 9}), false)
		}},
		{"partial triangle", func(g *Guardian) bool {
			return g.DrawTriangles(gobj.NewSequential(gobj.Triangles, 0, 4), false)
		}},
		{"short strip", func(g *Guardian) bool {
			return g.DrawTristrips(gobj.NewSequential(gobj.TriStrips, 0, 2), false)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := stats.NewCounts()
			g, b := newTestGuardian(t, WithStatsSink(counts))
			beginDraw(t, g, 4)
			if tt.draw(g) {
				t.Fatal("malformed primitive drawn")
			}
			if !errors.Is(g.LastError(), ErrMalformedPrimitive) {
				t.Errorf("LastError = %v, want ErrMalformedPrimitive", g.LastError())
			}
			if counts.Get(stats.MalformedPrimitive) != 1 {
				t.Errorf("malformed count = %d", counts.Get(stats.MalformedPrimitive))
			}
			if b.Count(recording.OpDrawPrimitive) != 0 {
				t.Error("malformed primitive reached the backend")
			}
			// The batch stays open for the next primitive.
			if !g.DrawPoints(gobj.NewSequential(gobj.Points, 0, 1), false) {
				t.Errorf("draw after malformed primitive: %v", g.LastError())
			}
		})
	}
}

func TestBeginDraw_NoData(t *testing.T) {
	g, _ := newTestGuardian(t)
	openScene(t, g)
	if g.BeginDrawPrimitives(nil, nil, nil, true) {
		t.Fatal("BeginDrawPrimitives without data succeeded")
	}
	if !errors.Is(g.LastError(), ErrMalformedPrimitive) {
		t.Errorf("LastError = %v", g.LastError())
	}
}

func TestBeginDraw_GeomData(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	data := testData(t, 3)
	geom := gobj.NewGeom("tri", data, gobj.NewSequential(gobj.Triangles, 0, 3))
	if !g.BeginDrawPrimitives(geom, nil, nil, false) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}
	calls := b.Filter(recording.OpBeginDrawPrimitives)
	if len(calls) != 1 || calls[0].Value.(*gobj.VertexData) != data {
		t.Error("geom data was not bound")
	}
	if !g.Draw(geom.Primitives[0], false) {
		t.Errorf("Draw: %v", g.LastError())
	}
}

func TestBeginDraw_VertexBuffers(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	data := testData(t, 3)
	g.BeginDrawPrimitives(nil, nil, data, false)
	if b.Count(recording.OpPrepareVertexBuffer) != 1 {
		t.Errorf("vertex buffers prepared = %d, want 1", b.Count(recording.OpPrepareVertexBuffer))
	}
	g.EndDrawPrimitives()
	g.BeginDrawPrimitives(nil, nil, data, false)
	if b.Count(recording.OpPrepareVertexBuffer) != 1 {
		t.Error("unchanged vertex array must not be prepared again")
	}
}

func TestBeginDraw_BufferFailure(t *testing.T) {
	tests := []struct {
		force bool
		want  bool
	}{
		{force: false, want: false},
		{force: true, want: true},
	}
	for _, tt := range tests {
		g, b := newTestGuardian(t)
		openScene(t, g)
		b.FailNext(recording.OpPrepareVertexBuffer, errors.New("out of memory"))
		if got := g.BeginDrawPrimitives(nil, nil, testData(t, 3), tt.force); got != tt.want {
			t.Errorf("force=%v: BeginDrawPrimitives = %v, want %v", tt.force, got, tt.want)
		}
	}
}

func TestBeginDraw_TooManyVertices(t *testing.T) {
	caps := recording.FullCaps()
	caps.MaxVerticesPerArray = 4
	g, b := newTestGuardianCaps(t, caps)
	openScene(t, g)
	if g.BeginDrawPrimitives(nil, nil, testData(t, 5), true) {
		t.Fatal("oversized vertex data accepted")
	}
	if b.Count(recording.OpBeginDrawPrimitives) != 0 {
		t.Error("oversized data reached the backend")
	}
}

func TestDraw_Index32Unsupported(t *testing.T) {
	caps := recording.FullCaps()
	caps.GeomRendering &^= driver.GRIndex32
	caps.MaxVerticesPerArray = 1 << 20
	g, b := newTestGuardianCaps(t, caps)
	beginDraw(t, g, 0x10001)
	p := gobj.NewIndexed(gobj.Triangles, []uint32{0, 1, 0x10000})
	if g.DrawTriangles(p, true) {
		t.Fatal("32-bit indices drawn without support")
	}
	if !errors.Is(g.LastError(), driver.ErrUnsupported) {
		t.Errorf("LastError = %v", g.LastError())
	}
	if b.Count(recording.OpDrawPrimitive) != 0 {
		t.Error("primitive reached the backend")
	}
}

func TestDraw_IndexBuffer(t *testing.T) {
	g, b := newTestGuardian(t)
	beginDraw(t, g, 3)
	p := gobj.NewIndexed(gobj.Triangles, []uint32{0, 1, 2})
	g.DrawTriangles(p, false)
	g.DrawTriangles(p, false)
	if n := b.Count(recording.OpPrepareIndexBuffer); n != 1 {
		t.Errorf("index buffers prepared = %d, want 1", n)
	}
	draws := b.Filter(recording.OpDrawPrimitive)
	if len(draws) != 2 || !draws[0].Handle.Valid() || draws[0].Handle != draws[1].Handle {
		t.Errorf("draws = %v, want both with the same index buffer", draws)
	}

	// Index buffer failure falls back to client memory only when forced.
	b.FailNext(recording.OpPrepareIndexBuffer, errors.New("no memory"))
	if g.DrawTriangles(gobj.NewIndexed(gobj.Triangles, []uint32{2, 1, 0}), false) {
		t.Error("unforced draw succeeded without an index buffer")
	}
	b.FailNext(recording.OpPrepareIndexBuffer, errors.New("no memory"))
	if !g.DrawTriangles(gobj.NewIndexed(gobj.Triangles, []uint32{1, 2, 0}), true) {
		t.Errorf("forced draw failed: %v", g.LastError())
	}
}

func TestDraw_BackendFailure(t *testing.T) {
	g, b := newTestGuardian(t)
	beginDraw(t, g, 3)
	b.FailNext(recording.OpDrawPrimitive, driver.ErrDeviceLost)
	if g.DrawTriangles(gobj.NewSequential(gobj.Triangles, 0, 3), false) {
		t.Fatal("draw succeeded despite the backend error")
	}
	if !g.NeedsReset() {
		t.Error("device loss while drawing must schedule a reset")
	}
}

func TestDraw_ExplicitMunger(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	g.SetStateAndTransform(state.Empty(), state.Identity())
	b.ClearCalls()
	if !g.BeginDrawPrimitives(nil, fixedMunger{fp: 1}, testData(t, 3), false) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}
	if g.MungerCount() != 0 {
		t.Error("an explicit munger must bypass the munger cache")
	}
}

func TestBeginDraw_ForceBypassesMungerCache(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	g.SetStateAndTransform(state.Empty(), state.Identity())
	before := g.MungerCount()
	if !g.BeginDrawPrimitives(nil, nil, testData(t, 3), true) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}
	if g.MungerCount() != before {
		t.Errorf("MungerCount = %d, want %d after a forced batch", g.MungerCount(), before)
	}
	if !g.DrawTriangles(gobj.NewSequential(gobj.Triangles, 0, 3), false) {
		t.Errorf("DrawTriangles: %v", g.LastError())
	}
	g.EndDrawPrimitives()

	if !g.BeginDrawPrimitives(nil, nil, testData(t, 3), false) {
		t.Fatalf("BeginDrawPrimitives: %v", g.LastError())
	}
	if g.MungerCount() != before+1 {
		t.Errorf("MungerCount = %d, want %d after an unforced batch", g.MungerCount(), before+1)
	}
	if b.Count(recording.OpDrawPrimitive) != 1 {
		t.Errorf("draws = %d, want 1", b.Count(recording.OpDrawPrimitive))
	}
}

func TestBeginDraw_BufferFailureRecordsError(t *testing.T) {
	g, b := newTestGuardian(t)
	openScene(t, g)
	b.FailNext(recording.OpPrepareVertexBuffer, errors.New("out of memory"))
	if g.BeginDrawPrimitives(nil, nil, testData(t, 3), false) {
		t.Fatal("BeginDrawPrimitives succeeded without a vertex buffer")
	}
	if !errors.Is(g.LastError(), ErrNotPrepared) {
		t.Errorf("LastError = %v, want ErrNotPrepared", g.LastError())
	}
}
