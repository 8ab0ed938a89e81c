package state

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/gobj"
)

// Attrib is one rendering attribute. Each attribute type occupies exactly
// one Slot of a RenderState. Attributes are values and never mutated once
// placed in a state.
type Attrib interface {
	Slot() Slot
	writeHash(h *hasher)
}

// Hash returns the fingerprint of an attribute. Equal attributes hash
// equal; the slot is mixed in so attributes of different slots never
// share a fingerprint.
func Hash(a Attrib) uint64 {
	h := newHasher()
	h.u64(uint64(a.Slot()))
	a.writeHash(h)
	return h.sum()
}

// ColorMode selects where the vertex color comes from.
type ColorMode uint8

const (
	ColorVertex ColorMode = iota // per-vertex color column
	ColorFlat                    // one color for the whole geom
	ColorOff                     // white
)

// ColorAttrib is the color slot.
type ColorAttrib struct {
	Mode  ColorMode
	Color mgl32.Vec4
}

func (ColorAttrib) Slot() Slot { return SlotColor }
func (a ColorAttrib) writeHash(h *hasher) {
	h.u64(uint64(a.Mode))
	if a.Mode == ColorFlat {
		h.vec4(a.Color)
	}
}

// ColorScaleAttrib multiplies the final color.
type ColorScaleAttrib struct {
	Scale mgl32.Vec4
}

func (ColorScaleAttrib) Slot() Slot            { return SlotColorScale }
func (a ColorScaleAttrib) writeHash(h *hasher) { h.vec4(a.Scale) }

// IsIdentity reports whether the scale is (1,1,1,1).
func (a ColorScaleAttrib) IsIdentity() bool {
	return a.Scale == mgl32.Vec4{1, 1, 1, 1}
}

// HasRGBScale reports whether any of r, g, b differs from one.
func (a ColorScaleAttrib) HasRGBScale() bool {
	return a.Scale[0] != 1 || a.Scale[1] != 1 || a.Scale[2] != 1
}

// HasAlphaScale reports whether alpha differs from one.
func (a ColorScaleAttrib) HasAlphaScale() bool { return a.Scale[3] != 1 }

// Material describes surface lighting response.
type Material struct {
	Ambient   mgl32.Vec4
	Diffuse   mgl32.Vec4
	Specular  mgl32.Vec4
	Emission  mgl32.Vec4
	Shininess float32
	TwoSided  bool
}

// MaterialAttrib is the material slot. A nil Material means none.
type MaterialAttrib struct {
	Material *Material
}

func (MaterialAttrib) Slot() Slot { return SlotMaterial }
func (a MaterialAttrib) writeHash(h *hasher) {
	m := a.Material
	h.bool(m != nil)
	if m == nil {
		return
	}
	h.vec4(m.Ambient)
	h.vec4(m.Diffuse)
	h.vec4(m.Specular)
	h.vec4(m.Emission)
	h.f32(m.Shininess)
	h.bool(m.TwoSided)
}

// AlphaTestAttrib discards fragments failing Compare against Reference.
type AlphaTestAttrib struct {
	Compare   gputypes.CompareFunction
	Reference float32
}

func (AlphaTestAttrib) Slot() Slot { return SlotAlphaTest }
func (a AlphaTestAttrib) writeHash(h *hasher) {
	h.u64(uint64(a.Compare))
	h.f32(a.Reference)
}

// DepthTestAttrib is the depth comparison.
type DepthTestAttrib struct {
	Compare gputypes.CompareFunction
}

func (DepthTestAttrib) Slot() Slot            { return SlotDepthTest }
func (a DepthTestAttrib) writeHash(h *hasher) { h.u64(uint64(a.Compare)) }

// DepthWriteAttrib toggles depth buffer writes.
type DepthWriteAttrib struct {
	Enabled bool
}

func (DepthWriteAttrib) Slot() Slot            { return SlotDepthWrite }
func (a DepthWriteAttrib) writeHash(h *hasher) { h.bool(a.Enabled) }

// DepthOffsetAttrib biases depth values toward the camera by Offset units.
type DepthOffsetAttrib struct {
	Offset int
}

func (DepthOffsetAttrib) Slot() Slot            { return SlotDepthOffset }
func (a DepthOffsetAttrib) writeHash(h *hasher) { h.i64(int64(a.Offset)) }

// StencilOp is a stencil buffer update operation.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrement
	StencilDecrement
	StencilInvert
	StencilIncrementWrap
	StencilDecrementWrap
)

// Wraps reports whether the op needs wrapping stencil arithmetic.
func (op StencilOp) Wraps() bool {
	return op == StencilIncrementWrap || op == StencilDecrementWrap
}

// StencilFace is the stencil configuration for one face orientation.
type StencilFace struct {
	Compare   gputypes.CompareFunction
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
}

func (f StencilFace) writeHash(h *hasher) {
	h.u64(uint64(f.Compare))
	h.u64(uint64(f.Fail))
	h.u64(uint64(f.DepthFail))
	h.u64(uint64(f.Pass))
}

// StencilAttrib is the stencil slot. Back is used only when TwoSided is set.
type StencilAttrib struct {
	Enabled   bool
	TwoSided  bool
	Front     StencilFace
	Back      StencilFace
	Reference uint32
	ReadMask  uint32
	WriteMask uint32
}

func (StencilAttrib) Slot() Slot { return SlotStencil }
func (a StencilAttrib) writeHash(h *hasher) {
	h.bool(a.Enabled)
	if !a.Enabled {
		return
	}
	h.bool(a.TwoSided)
	a.Front.writeHash(h)
	if a.TwoSided {
		a.Back.writeHash(h)
	}
	h.u64(uint64(a.Reference))
	h.u64(uint64(a.ReadMask))
	h.u64(uint64(a.WriteMask))
}

// BlendComponent is the blend equation for color or alpha.
type BlendComponent struct {
	Src gputypes.BlendFactor
	Dst gputypes.BlendFactor
	Op  gputypes.BlendOperation
}

// BlendAttrib is the blend slot.
type BlendAttrib struct {
	Enabled bool
	Color   BlendComponent
	Alpha   BlendComponent
}

func (BlendAttrib) Slot() Slot { return SlotBlend }
func (a BlendAttrib) writeHash(h *hasher) {
	h.bool(a.Enabled)
	if !a.Enabled {
		return
	}
	for _, c := range [2]BlendComponent{a.Color, a.Alpha} {
		h.u64(uint64(c.Src))
		h.u64(uint64(c.Dst))
		h.u64(uint64(c.Op))
	}
}

// AlphaBlend returns the conventional source-over blend.
func AlphaBlend() BlendAttrib {
	c := BlendComponent{
		Src: gputypes.BlendFactorSrcAlpha,
		Dst: gputypes.BlendFactorOneMinusSrcAlpha,
		Op:  gputypes.BlendOperationAdd,
	}
	return BlendAttrib{Enabled: true, Color: c, Alpha: c}
}

// ColorWriteAttrib masks color channel writes.
type ColorWriteAttrib struct {
	Mask gputypes.ColorWriteMask
}

func (ColorWriteAttrib) Slot() Slot            { return SlotColorWrite }
func (a ColorWriteAttrib) writeHash(h *hasher) { h.u64(uint64(a.Mask)) }

// CullFaceAttrib selects which faces are culled.
type CullFaceAttrib struct {
	Mode gputypes.CullMode
}

func (CullFaceAttrib) Slot() Slot            { return SlotCullFace }
func (a CullFaceAttrib) writeHash(h *hasher) { h.u64(uint64(a.Mode)) }

// RenderMode is how polygons are rasterized.
type RenderMode uint8

const (
	RenderFilled RenderMode = iota
	RenderWireframe
	RenderPoint
)

// RenderModeAttrib is the render mode slot.
type RenderModeAttrib struct {
	Mode      RenderMode
	Thickness float32
}

func (RenderModeAttrib) Slot() Slot { return SlotRenderMode }
func (a RenderModeAttrib) writeHash(h *hasher) {
	h.u64(uint64(a.Mode))
	h.f32(a.Thickness)
}

// FogMode is the fog falloff curve.
type FogMode uint8

const (
	FogLinear FogMode = iota
	FogExponential
	FogExponentialSquared
)

// FogAttrib is the fog slot.
type FogAttrib struct {
	Enabled bool
	Mode    FogMode
	Color   mgl32.Vec4
	Start   float32
	End     float32
	Density float32
}

func (FogAttrib) Slot() Slot { return SlotFog }
func (a FogAttrib) writeHash(h *hasher) {
	h.bool(a.Enabled)
	if !a.Enabled {
		return
	}
	h.u64(uint64(a.Mode))
	h.vec4(a.Color)
	h.f32(a.Start)
	h.f32(a.End)
	h.f32(a.Density)
}

// ShaderAttrib binds a shader program. A nil Shader selects the backend's
// fixed-function path.
type ShaderAttrib struct {
	Shader *gobj.Shader
}

func (ShaderAttrib) Slot() Slot { return SlotShader }
func (a ShaderAttrib) writeHash(h *hasher) {
	if a.Shader == nil {
		h.u64(0)
		return
	}
	h.u64(a.Shader.ID())
}

// Default returns the attribute a slot takes when a state leaves it unset.
func Default(s Slot) Attrib {
	switch s {
	case SlotColor:
		return ColorAttrib{Mode: ColorVertex}
	case SlotColorScale:
		return ColorScaleAttrib{Scale: mgl32.Vec4{1, 1, 1, 1}}
	case SlotTexture:
		return TextureAttrib{}
	case SlotClipPlane:
		return ClipPlaneAttrib{}
	case SlotMaterial:
		return MaterialAttrib{}
	case SlotLight:
		return LightAttrib{}
	case SlotAlphaTest:
		return AlphaTestAttrib{Compare: gputypes.CompareFunctionAlways}
	case SlotDepthTest:
		return DepthTestAttrib{Compare: gputypes.CompareFunctionLess}
	case SlotDepthWrite:
		return DepthWriteAttrib{Enabled: true}
	case SlotDepthOffset:
		return DepthOffsetAttrib{}
	case SlotStencil:
		return StencilAttrib{}
	case SlotBlend:
		return BlendAttrib{}
	case SlotColorWrite:
		return ColorWriteAttrib{Mask: gputypes.ColorWriteMaskAll}
	case SlotCullFace:
		return CullFaceAttrib{Mode: gputypes.CullModeBack}
	case SlotRenderMode:
		return RenderModeAttrib{Mode: RenderFilled, Thickness: 1}
	case SlotFog:
		return FogAttrib{}
	case SlotShader:
		return ShaderAttrib{}
	default:
		return nil
	}
}

var defaultAttribs, defaultHashes = makeDefaults()

func makeDefaults() (attribs [NumSlots]Attrib, hashes [NumSlots]uint64) {
	for s := Slot(0); s < NumSlots; s++ {
		attribs[s] = Default(s)
		hashes[s] = Hash(attribs[s])
	}
	return attribs, hashes
}
