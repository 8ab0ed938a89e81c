package gsg

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/view"
)

func TestCapabilities_Snapshot(t *testing.T) {
	b := recording.New()
	g, _ := newTestGuardianWith(t, b)
	before := g.Capabilities()

	caps := recording.FullCaps()
	caps.MaxLights = 2
	b.SetCaps(caps)
	if g.Capabilities().MaxLights() != 8 {
		t.Error("capabilities changed before a reset")
	}
	g.Reset()
	if g.Capabilities().MaxLights() != 2 {
		t.Errorf("MaxLights after reset = %d, want 2", g.Capabilities().MaxLights())
	}
	if before.MaxLights() != 8 {
		t.Error("an old snapshot changed")
	}
}

func TestCapabilities_Accessors(t *testing.T) {
	g, _ := newTestGuardian(t)
	c := g.Capabilities()
	tests := []struct {
		name string
		got  bool
	}{
		{"3d textures", c.Supports3DTexture()},
		{"cube maps", c.SupportsCubeMap()},
		{"non-pow2", c.SupportsTexNonPow2()},
		{"stencil wrap", c.SupportsStencilWrap()},
		{"two-sided stencil", c.SupportsTwoSidedStencil()},
		{"occlusion query", c.SupportsOcclusionQuery()},
		{"vertex buffers", c.SupportsVertexBuffers()},
		{"index buffers", c.SupportsIndexBuffers()},
		{"basic shaders", c.SupportsBasicShaders()},
		{"dxt5", c.SupportsCompressedTextureFormat(gobj.CompressionDXT5)},
		{"bgra8", c.SupportsTextureFormat(gputypes.TextureFormatBGRA8Unorm)},
		{"index32", c.GeomRendering().Has(driver.GRIndex32)},
	}
	for _, tt := range tests {
		if !tt.got {
			t.Errorf("%s not reported", tt.name)
		}
	}
	if c.SupportsCompressedTextureFormat(gobj.CompressionETC2) {
		t.Error("etc2 reported")
	}
	if c.ShaderModel() != gobj.SM40 || c.MaxShaderModel() != gobj.SM40 {
		t.Errorf("shader models = %v/%v", c.ShaderModel(), c.MaxShaderModel())
	}
	formats := c.TextureFormats()
	if len(formats) != 2 || formats[0] > formats[1] {
		t.Errorf("TextureFormats = %v, want two in ascending order", formats)
	}
}

func TestClampCaps(t *testing.T) {
	c := recording.FullCaps()
	c.ShaderModel = gobj.SM30
	c.MaxShaderModel = gobj.SM20
	c.InternalCoordinateSystem = view.CSDefault
	c.TextureFormats = nil
	c.ColorScaleViaLighting = true

	cfg := DefaultConfig()
	cfg.MaxTextureDimension = 1024
	cfg.MaxLights = 16
	cfg.ColorScaleViaLighting = false
	clampCaps(&c, cfg)

	if c.MaxTextureDimension != 1024 {
		t.Errorf("MaxTextureDimension = %d, want 1024", c.MaxTextureDimension)
	}
	if c.MaxLights != 8 {
		t.Errorf("MaxLights = %d; config must only lower limits", c.MaxLights)
	}
	if c.ColorScaleViaLighting {
		t.Error("config did not disable color scale via lighting")
	}
	if c.MaxShaderModel != gobj.SM30 {
		t.Errorf("MaxShaderModel = %v, want raised to the detected model", c.MaxShaderModel)
	}
	if c.InternalCoordinateSystem != view.CSYupRight {
		t.Errorf("InternalCoordinateSystem = %v", c.InternalCoordinateSystem)
	}
	if c.TextureFormats == nil || !c.TextureFormats.Contains(gputypes.TextureFormatRGBA8Unorm) {
		t.Error("missing texture formats not defaulted")
	}
}
