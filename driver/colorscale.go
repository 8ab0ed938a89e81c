package driver

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/state"
)

// ColorScaleRoute splits a color scale across the paths that apply it.
// Each component travels exactly one path; unused paths hold ones.
type ColorScaleRoute struct {
	// Lighting scales light and ambient colors (rgb only).
	Lighting mgl32.Vec4
	// TextureAlpha is the alpha carried by an extra texture stage.
	TextureAlpha float32
	// Issued goes to IssueColorScale.
	Issued mgl32.Vec4
	// Baked is multiplied into vertex colors by the munger.
	Baked mgl32.Vec4

	ViaLighting bool
	ViaTexture  bool
}

var ones = mgl32.Vec4{1, 1, 1, 1}

// RouteColorScale decides how scale reaches the screen. stageFree reports
// whether a texture stage is left for the alpha-scale stage.
func RouteColorScale(caps *Caps, scale state.ColorScaleAttrib, stageFree bool) ColorScaleRoute {
	r := ColorScaleRoute{Lighting: ones, TextureAlpha: 1, Issued: ones, Baked: ones}
	s := scale.Scale

	if scale.HasRGBScale() {
		switch {
		case caps.ColorScaleViaLighting:
			r.ViaLighting = true
			r.Lighting = mgl32.Vec4{s[0], s[1], s[2], 1}
		case caps.SupportsColorScale:
			r.Issued[0], r.Issued[1], r.Issued[2] = s[0], s[1], s[2]
		default:
			r.Baked[0], r.Baked[1], r.Baked[2] = s[0], s[1], s[2]
		}
	}
	if scale.HasAlphaScale() {
		switch {
		case caps.AlphaScaleViaTexture && stageFree:
			r.ViaTexture = true
			r.TextureAlpha = s[3]
		case caps.SupportsColorScale:
			r.Issued[3] = s[3]
		default:
			r.Baked[3] = s[3]
		}
	}
	return r
}

// NeedsBake reports whether the munger must touch vertex colors.
func (r ColorScaleRoute) NeedsBake() bool { return r.Baked != ones }

// StageFree reports whether rs leaves a texture stage unused under caps.
func StageFree(caps *Caps, rs *state.RenderState) bool {
	return len(rs.Texture().Stages) < caps.MaxTextureStages
}
