package gsg

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/view"
)

// newTestGuardian returns a guardian over a recording backend with full
// capabilities. The guardian is closed when the test ends.
func newTestGuardian(t *testing.T, opts ...Option) (*Guardian, *recording.Backend) {
	t.Helper()
	return newTestGuardianWith(t, recording.New(), opts...)
}

func newTestGuardianCaps(t *testing.T, caps driver.Caps, opts ...Option) (*Guardian, *recording.Backend) {
	t.Helper()
	return newTestGuardianWith(t, recording.New(recording.WithCaps(caps)), opts...)
}

func newTestGuardianWith(t *testing.T, b *recording.Backend, opts ...Option) (*Guardian, *recording.Backend) {
	t.Helper()
	g, err := New(b, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g, b
}

func testScene() *view.SceneSetup {
	return &view.SceneSetup{
		Lens:            view.NewPerspective(60, 1, 0.1, 100),
		Region:          view.NewDisplayRegion(64, 64),
		CameraTransform: state.Identity(),
	}
}

// openScene drives g from Inactive into an open scene.
func openScene(t *testing.T, g *Guardian) {
	t.Helper()
	if !g.BeginFrame() {
		t.Fatalf("BeginFrame: %v", g.LastError())
	}
	if !g.SetScene(testScene()) {
		t.Fatalf("SetScene: %v", g.LastError())
	}
	if !g.BeginScene() {
		t.Fatalf("BeginScene: %v", g.LastError())
	}
}

// closeScene unwinds an open scene back to Inactive.
func closeScene(t *testing.T, g *Guardian) {
	t.Helper()
	if !g.EndScene() {
		t.Fatalf("EndScene: %v", g.LastError())
	}
	if !g.EndFrame() {
		t.Fatalf("EndFrame: %v", g.LastError())
	}
}

func testData(t *testing.T, rows int) *gobj.VertexData {
	t.Helper()
	f, err := gobj.NewArrayFormat(
		gobj.Column{Name: gobj.ColumnVertex, Format: gputypes.VertexFormatFloat32x3},
		gobj.Column{Name: gobj.ColumnColor, Format: gputypes.VertexFormatFloat32x4},
	)
	if err != nil {
		t.Fatalf("NewArrayFormat: %v", err)
	}
	a := gobj.NewVertexArray(f, rows)
	for i := 0; i < rows; i++ {
		a.WriteVec4(i, 1, mgl32.Vec4{1, 1, 1, 1})
	}
	return gobj.NewVertexData("test", a)
}

func testTexture(name string, w, h int) *gobj.Texture {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return gobj.NewTexture(name, img)
}

func pointLight(name string, x float32) state.PointLight {
	return state.PointLight{
		Name:        name,
		Color:       mgl32.Vec4{1, 1, 1, 1},
		Position:    mgl32.Vec3{x, 0, 0},
		Attenuation: mgl32.Vec3{1, 0, 0},
	}
}

// lightsOf returns a state holding the given lights.
func lightsOf(lights ...state.Light) *state.RenderState {
	return state.New(state.LightAttrib{Lights: lights})
}

func ops(b *recording.Backend) []recording.Op { return b.Ops() }
