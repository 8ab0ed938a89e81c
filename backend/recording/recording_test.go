package recording

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/view"
)

func TestRecordingBackendName(t *testing.T) {
	b := New()
	if b.Name() != "recording" {
		t.Errorf("Name() = %q, want %q", b.Name(), "recording")
	}
}

func TestRecordingBackendReset(t *testing.T) {
	custom := driver.DefaultCaps()
	custom.MaxLights = 3
	b := New(WithCaps(custom))

	var caps driver.Caps
	if err := b.Reset(&caps); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if caps.MaxLights != 3 {
		t.Errorf("MaxLights = %d, want 3", caps.MaxLights)
	}
	if b.Count(OpReset) != 1 {
		t.Errorf("Count(Reset) = %d, want 1", b.Count(OpReset))
	}
}

func TestRecordingBackendFailNext(t *testing.T) {
	b := New()
	b.FailNext(OpBeginFrame, driver.ErrDeviceLost)

	if err := b.BeginFrame(); !errors.Is(err, driver.ErrDeviceLost) {
		t.Errorf("first BeginFrame() error = %v, want ErrDeviceLost", err)
	}
	if err := b.BeginFrame(); err != nil {
		t.Errorf("second BeginFrame() error = %v, want nil", err)
	}
	if b.Count(OpBeginFrame) != 2 {
		t.Errorf("failed calls must still be recorded")
	}
}

func TestRecordingBackendResources(t *testing.T) {
	b := New()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	tex := gobj.NewTexture("t", img)

	h, err := b.PrepareTexture(&driver.TextureUpload{Texture: tex, Image: img})
	if err != nil || !h.Valid() {
		t.Fatalf("PrepareTexture() = %d, %v", h, err)
	}
	if b.Live() != 1 {
		t.Errorf("Live() = %d, want 1", b.Live())
	}

	out, err := b.ExtractTextureData(h)
	if err != nil {
		t.Fatalf("ExtractTextureData() error = %v", err)
	}
	if got := out.RGBAAt(1, 1); got.R != 255 {
		t.Errorf("extracted pixel = %v", got)
	}

	b.ReleaseTexture(h)
	if b.Live() != 0 {
		t.Errorf("Live() after release = %d", b.Live())
	}
	if _, err := b.ExtractTextureData(h); !errors.Is(err, driver.ErrInvalidHandle) {
		t.Errorf("ExtractTextureData(released) error = %v", err)
	}
}

func TestRecordingBackendQueries(t *testing.T) {
	b := New()
	h, err := b.BeginOcclusionQuery()
	if err != nil {
		t.Fatalf("BeginOcclusionQuery() error = %v", err)
	}
	if err := b.EndOcclusionQuery(h); err != nil {
		t.Fatalf("EndOcclusionQuery() error = %v", err)
	}

	b.SetQueryResult(42, false)
	if _, ready, _ := b.OcclusionQueryResult(h, false); ready {
		t.Error("pending result reported ready")
	}
	n, ready, err := b.OcclusionQueryResult(h, true)
	if err != nil || !ready || n != 42 {
		t.Errorf("OcclusionQueryResult(wait) = %d, %v, %v", n, ready, err)
	}
}

func TestRecordingBackendSlotCalls(t *testing.T) {
	b := New()
	l := state.PointLight{Name: "p", Color: mgl32.Vec4{1, 1, 1, 1}}
	if err := b.BindLight(2, l, mgl32.Ident4(), mgl32.Vec4{1, 1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	calls := b.Filter(OpBindLight)
	if len(calls) != 1 || calls[0].Slot != 2 {
		t.Errorf("BindLight calls = %+v", calls)
	}
	if b.Calls()[0].Value.(state.PointLight).Name != "p" {
		t.Error("light not recorded as value")
	}
}

func TestRecordingBackendProjection(t *testing.T) {
	b := New()
	if _, ok := b.CalcProjectionMat(view.NewPerspective(45, 1, 1, 10), view.StereoMono); !ok {
		t.Error("valid lens rejected")
	}
	if _, ok := b.CalcProjectionMat(view.NewPerspective(0, 1, 1, 10), view.StereoMono); ok {
		t.Error("degenerate lens accepted")
	}
}

func TestFullCaps(t *testing.T) {
	c := FullCaps()
	if !c.GeomRendering.Has(driver.GRTriangleStrip | driver.GRTriangleFan) {
		t.Error("full caps must render strips and fans")
	}
	if !c.SupportsCompression(gobj.CompressionDXT5) {
		t.Error("full caps must accept DXT5")
	}
	if c.ColorScaleViaLighting || c.AlphaScaleViaTexture {
		t.Error("color-scale routes must be opt-in")
	}
}
