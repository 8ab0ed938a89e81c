package driver

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/view"
)

// GeomRendering is a bitmask of primitive features a backend renders
// natively. Anything missing is decomposed by the munger.
type GeomRendering uint32

const (
	GRTriangleStrip GeomRendering = 1 << iota
	GRTriangleFan
	GRLineStrip
	GRPoint
	GRIndex32
	GRWideLine
)

// Has reports whether every bit of o is set.
func (g GeomRendering) Has(o GeomRendering) bool { return g&o == o }

// Caps is what a backend reports about itself during Reset.
// The guardian clamps it by configuration and freezes it until the next
// reset.
type Caps struct {
	PrefersTriangleStrips   bool
	MaxVerticesPerArray     int
	MaxVerticesPerPrimitive int

	MaxTextureStages      int
	MaxTextureDimension   int
	Max3DTextureDimension int
	MaxCubeMapDimension   int

	SupportsTextureCombine     bool
	SupportsTextureSavedResult bool
	SupportsTextureDot3        bool
	Supports3DTexture          bool
	SupportsCubeMap            bool
	SupportsTexNonPow2         bool
	SupportsCompressedTexture  bool

	// CompressedTextureFormats is a bitmask of gobj.CompressionMode bits.
	CompressedTextureFormats uint32

	// TextureFormats lists the upload formats the backend accepts.
	TextureFormats mapset.Set[gputypes.TextureFormat]

	MaxLights                 int
	MaxClipPlanes             int
	MaxVertexTransforms       int
	MaxVertexTransformIndices int

	CopyTextureInverted     bool
	SupportsMultisample     bool
	SupportsGenerateMipmap  bool
	SupportsRenderTexture   bool
	SupportsDepthTexture    bool
	SupportsDepthStencil    bool
	SupportsShadowFilter    bool
	SupportsBasicShaders    bool
	SupportsStencilWrap     bool
	SupportsTwoSidedStencil bool
	SupportsOcclusionQuery  bool
	SupportsVertexBuffers   bool
	SupportsIndexBuffers    bool
	SupportsDepthOffset     bool

	// SupportsColorScale reports a hardware path for IssueColorScale.
	// Without it the munger bakes the scale into vertex colors.
	SupportsColorScale bool

	// ShaderModel is the auto-detected model; MaxShaderModel bounds
	// manual overrides.
	ShaderModel    gobj.ShaderModel
	MaxShaderModel gobj.ShaderModel

	GeomRendering GeomRendering

	ColorScaleViaLighting bool
	AlphaScaleViaTexture  bool

	InternalCoordinateSystem view.CoordinateSystem
}

// DefaultCaps returns the conservative capabilities a backend starts from.
func DefaultCaps() Caps {
	return Caps{
		MaxVerticesPerArray:      1 << 16,
		MaxVerticesPerPrimitive:  1 << 16,
		MaxTextureStages:         1,
		MaxTextureDimension:      256,
		TextureFormats:           mapset.NewSet(gputypes.TextureFormatRGBA8Unorm),
		GeomRendering:            GRPoint,
		InternalCoordinateSystem: view.CSYupRight,
	}
}

// SupportsTextureFormat reports whether f can be uploaded as is.
func (c *Caps) SupportsTextureFormat(f gputypes.TextureFormat) bool {
	return c.TextureFormats != nil && c.TextureFormats.Contains(f)
}

// SupportsCompression reports whether mode can be uploaded compressed.
// CompressionDefault and CompressionOff never need support.
func (c *Caps) SupportsCompression(mode gobj.CompressionMode) bool {
	switch mode {
	case gobj.CompressionDefault, gobj.CompressionOff:
		return true
	case gobj.CompressionOn:
		return c.SupportsCompressedTexture && c.CompressedTextureFormats != 0
	default:
		return c.SupportsCompressedTexture && c.CompressedTextureFormats&mode.Bit() != 0
	}
}

// Clone returns a deep copy.
func (c Caps) Clone() Caps {
	if c.TextureFormats != nil {
		c.TextureFormats = c.TextureFormats.Clone()
	}
	return c
}
