package gsg

import (
	"sort"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/view"
)

// Capabilities is a read-only snapshot of what the backend supports after
// configuration clamps. A new snapshot replaces it at every reset.
type Capabilities struct {
	c driver.Caps
}

func newCapabilities(c driver.Caps) *Capabilities {
	return &Capabilities{c: c.Clone()}
}

// raw returns the underlying caps. Callers must not modify them.
func (c *Capabilities) raw() *driver.Caps { return &c.c }

func (c *Capabilities) PrefersTriangleStrips() bool  { return c.c.PrefersTriangleStrips }
func (c *Capabilities) MaxVerticesPerArray() int     { return c.c.MaxVerticesPerArray }
func (c *Capabilities) MaxVerticesPerPrimitive() int { return c.c.MaxVerticesPerPrimitive }
func (c *Capabilities) MaxTextureStages() int        { return c.c.MaxTextureStages }
func (c *Capabilities) MaxTextureDimension() int     { return c.c.MaxTextureDimension }
func (c *Capabilities) Max3DTextureDimension() int   { return c.c.Max3DTextureDimension }
func (c *Capabilities) MaxCubeMapDimension() int     { return c.c.MaxCubeMapDimension }
func (c *Capabilities) SupportsTextureCombine() bool { return c.c.SupportsTextureCombine }
func (c *Capabilities) SupportsTextureDot3() bool    { return c.c.SupportsTextureDot3 }
func (c *Capabilities) Supports3DTexture() bool      { return c.c.Supports3DTexture }
func (c *Capabilities) SupportsCubeMap() bool        { return c.c.SupportsCubeMap }
func (c *Capabilities) SupportsTexNonPow2() bool     { return c.c.SupportsTexNonPow2 }
func (c *Capabilities) SupportsCompressedTexture() bool {
	return c.c.SupportsCompressedTexture
}
func (c *Capabilities) SupportsTextureSavedResult() bool {
	return c.c.SupportsTextureSavedResult
}

// CompressionMask returns the supported gobj.CompressionMode bits.
func (c *Capabilities) CompressionMask() uint32 { return c.c.CompressedTextureFormats }

// SupportsCompressedTextureFormat reports whether mode can be uploaded.
func (c *Capabilities) SupportsCompressedTextureFormat(mode gobj.CompressionMode) bool {
	return c.c.SupportsCompression(mode)
}

// SupportsTextureFormat reports whether f can be uploaded without
// conversion.
func (c *Capabilities) SupportsTextureFormat(f gputypes.TextureFormat) bool {
	return c.c.SupportsTextureFormat(f)
}

// TextureFormats returns the supported upload formats in ascending order.
func (c *Capabilities) TextureFormats() []gputypes.TextureFormat {
	if c.c.TextureFormats == nil {
		return nil
	}
	out := c.c.TextureFormats.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Capabilities) MaxLights() int                 { return c.c.MaxLights }
func (c *Capabilities) MaxClipPlanes() int             { return c.c.MaxClipPlanes }
func (c *Capabilities) MaxVertexTransforms() int       { return c.c.MaxVertexTransforms }
func (c *Capabilities) MaxVertexTransformIndices() int { return c.c.MaxVertexTransformIndices }
func (c *Capabilities) CopyTextureInverted() bool      { return c.c.CopyTextureInverted }
func (c *Capabilities) SupportsMultisample() bool      { return c.c.SupportsMultisample }
func (c *Capabilities) SupportsGenerateMipmap() bool   { return c.c.SupportsGenerateMipmap }
func (c *Capabilities) SupportsRenderTexture() bool    { return c.c.SupportsRenderTexture }
func (c *Capabilities) SupportsDepthTexture() bool     { return c.c.SupportsDepthTexture }
func (c *Capabilities) SupportsDepthStencil() bool     { return c.c.SupportsDepthStencil }
func (c *Capabilities) SupportsShadowFilter() bool     { return c.c.SupportsShadowFilter }
func (c *Capabilities) SupportsBasicShaders() bool     { return c.c.SupportsBasicShaders }
func (c *Capabilities) SupportsStencilWrap() bool      { return c.c.SupportsStencilWrap }
func (c *Capabilities) SupportsTwoSidedStencil() bool  { return c.c.SupportsTwoSidedStencil }
func (c *Capabilities) SupportsOcclusionQuery() bool   { return c.c.SupportsOcclusionQuery }
func (c *Capabilities) SupportsVertexBuffers() bool    { return c.c.SupportsVertexBuffers }
func (c *Capabilities) SupportsIndexBuffers() bool     { return c.c.SupportsIndexBuffers }
func (c *Capabilities) SupportsDepthOffset() bool      { return c.c.SupportsDepthOffset }
func (c *Capabilities) SupportsColorScale() bool       { return c.c.SupportsColorScale }

// ShaderModel returns the active shader model.
func (c *Capabilities) ShaderModel() gobj.ShaderModel { return c.c.ShaderModel }

// MaxShaderModel returns the highest model SetShaderModel accepts.
func (c *Capabilities) MaxShaderModel() gobj.ShaderModel { return c.c.MaxShaderModel }

// GeomRendering returns the primitive features rendered natively.
func (c *Capabilities) GeomRendering() driver.GeomRendering { return c.c.GeomRendering }

// ColorScaleViaLighting reports whether rgb color scale is applied by
// scaling light colors.
func (c *Capabilities) ColorScaleViaLighting() bool { return c.c.ColorScaleViaLighting }

// AlphaScaleViaTexture reports whether alpha scale is applied by an extra
// texture stage.
func (c *Capabilities) AlphaScaleViaTexture() bool { return c.c.AlphaScaleViaTexture }

// InternalCoordinateSystem returns the backend's native axis convention.
func (c *Capabilities) InternalCoordinateSystem() view.CoordinateSystem {
	return c.c.InternalCoordinateSystem
}

// clampCaps applies configuration limits to what the backend reported.
func clampCaps(c *driver.Caps, cfg Config) {
	clamp := func(v *int, limit int) {
		if limit > 0 && limit < *v {
			*v = limit
		}
	}
	clamp(&c.MaxLights, cfg.MaxLights)
	clamp(&c.MaxClipPlanes, cfg.MaxClipPlanes)
	clamp(&c.MaxTextureStages, cfg.MaxTextureStages)
	clamp(&c.MaxTextureDimension, cfg.MaxTextureDimension)

	c.SupportsOcclusionQuery = c.SupportsOcclusionQuery && cfg.SupportOcclusionQuery
	c.ColorScaleViaLighting = c.ColorScaleViaLighting && cfg.ColorScaleViaLighting
	c.AlphaScaleViaTexture = c.AlphaScaleViaTexture && cfg.AlphaScaleViaTexture

	if c.MaxShaderModel < c.ShaderModel {
		c.MaxShaderModel = c.ShaderModel
	}
	if !cfg.AutoDetectShaderModel {
		c.ShaderModel = gobj.SM00
	}
	if c.InternalCoordinateSystem == view.CSDefault {
		c.InternalCoordinateSystem = view.CSYupRight
	}
	if c.TextureFormats == nil {
		c.TextureFormats = driver.DefaultCaps().TextureFormats
	}
}
