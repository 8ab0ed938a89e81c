package state

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/gobj"
)

// TextureMode is how a stage combines with the previous result.
type TextureMode uint8

const (
	TexModulate TextureMode = iota
	TexReplace
	TexDecal
	TexAdd
	TexBlend
	// TexModulateConstant multiplies by the stage's constant Color and
	// samples no texture. Used to route alpha scale through the texture unit.
	TexModulateConstant
)

// AlphaScaleStageName names the synthetic stage carrying alpha scale.
const AlphaScaleStageName = "__alpha_scale"

// TextureStage is one texture unit binding.
type TextureStage struct {
	Name    string
	Sort    int
	Texture *gobj.Texture
	Mode    TextureMode
	Color   mgl32.Vec4
}

func (s TextureStage) writeHash(h *hasher) {
	h.str(s.Name)
	h.i64(int64(s.Sort))
	if s.Texture != nil {
		h.u64(s.Texture.ID())
	} else {
		h.u64(0)
	}
	h.u64(uint64(s.Mode))
	h.vec4(s.Color)
}

// AlphaScaleStage returns the constant stage that multiplies alpha by a.
func AlphaScaleStage(a float32) TextureStage {
	return TextureStage{
		Name:  AlphaScaleStageName,
		Sort:  1 << 30,
		Mode:  TexModulateConstant,
		Color: mgl32.Vec4{1, 1, 1, a},
	}
}

// TextureAttrib is the set of active texture stages, kept sorted by Sort
// then Name.
type TextureAttrib struct {
	Stages []TextureStage
}

// NewTextureAttrib sorts a copy of stages into issue order.
func NewTextureAttrib(stages ...TextureStage) TextureAttrib {
	s := make([]TextureStage, len(stages))
	copy(s, stages)
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Sort != s[j].Sort {
			return s[i].Sort < s[j].Sort
		}
		return s[i].Name < s[j].Name
	})
	return TextureAttrib{Stages: s}
}

func (TextureAttrib) Slot() Slot { return SlotTexture }
func (a TextureAttrib) writeHash(h *hasher) {
	h.u64(uint64(len(a.Stages)))
	for _, s := range a.Stages {
		s.writeHash(h)
	}
}
