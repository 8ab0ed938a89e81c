package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
)

// fixedState mirrors the fixed-function state a guardian issued. Slots
// that change the pipeline live in pipe; the rest is uploaded per draw in
// the uniform block.
type fixedState struct {
	projection mgl32.Mat4
	modelView  mgl32.Mat4

	color    state.ColorAttrib
	scale    mgl32.Vec4
	material *state.Material
	alpha    state.AlphaTestAttrib
	fog      state.FogAttrib

	lighting   bool
	ambient    mgl32.Vec4
	lightColor [maxLights]mgl32.Vec4
	lightVec   [maxLights]mgl32.Vec4
	lightOn    [maxLights]bool

	clipping bool
	planes   [maxClipPlanes]mgl32.Vec4
	planeOn  [maxClipPlanes]bool

	textures []driver.TextureBinding
	shader   driver.Handle
	program  *gobj.Shader

	pipe pipelineState
}

func newFixedState() fixedState {
	return fixedState{
		projection: mgl32.Ident4(),
		modelView:  mgl32.Ident4(),
		color:      state.Default(state.SlotColor).(state.ColorAttrib),
		scale:      mgl32.Vec4{1, 1, 1, 1},
		alpha:      state.Default(state.SlotAlphaTest).(state.AlphaTestAttrib),
		pipe:       defaultPipelineState(),
	}
}

// IssueTransform implements driver.StateIssuer.
func (b *Backend) IssueTransform(modelView mgl32.Mat4) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.modelView = modelView
	return nil
}

// IssueColor implements driver.StateIssuer.
func (b *Backend) IssueColor(a state.ColorAttrib) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.color = a
	return nil
}

// IssueColorScale implements driver.StateIssuer.
func (b *Backend) IssueColorScale(scale mgl32.Vec4) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.scale = scale
	return nil
}

// IssueTexture implements driver.StateIssuer. Every bound handle must be
// a prepared texture.
func (b *Backend) IssueTexture(stages []driver.TextureBinding) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range stages {
		if s.Handle.Valid() && b.res.get(s.Handle, kindTexture) == nil {
			return fmt.Errorf("%w: texture stage %q", driver.ErrInvalidHandle, s.Stage.Name)
		}
	}
	b.fixed.textures = append(b.fixed.textures[:0], stages...)
	return nil
}

// IssueMaterial implements driver.StateIssuer.
func (b *Backend) IssueMaterial(a state.MaterialAttrib) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.material = a.Material
	return nil
}

// IssueShader implements driver.StateIssuer. An invalid handle selects the
// fixed-function shader.
func (b *Backend) IssueShader(h driver.Handle, sh *gobj.Shader) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.Valid() && b.res.get(h, kindShader) == nil {
		return driver.ErrInvalidHandle
	}
	b.fixed.shader, b.fixed.program = h, sh
	return nil
}

// IssueAttrib implements driver.StateIssuer.
func (b *Backend) IssueAttrib(a state.Attrib) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch v := a.(type) {
	case state.AlphaTestAttrib:
		b.fixed.alpha = v
	case state.FogAttrib:
		b.fixed.fog = v
	default:
		if !b.fixed.pipe.apply(a) {
			return fmt.Errorf("%w: attribute %T", driver.ErrUnsupported, a)
		}
	}
	return nil
}

// EnableLighting implements driver.LightBinder.
func (b *Backend) EnableLighting(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.lighting = on
	return nil
}

// SetAmbientLight implements driver.LightBinder.
func (b *Backend) SetAmbientLight(color mgl32.Vec4) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.ambient = color
	return nil
}

// BindLight implements driver.LightBinder. Positions and directions are
// stored in eye space: w is 1 for positional lights and 0 for directional
// ones.
func (b *Backend) BindLight(slot int, light state.Light, viewMat mgl32.Mat4, scale mgl32.Vec4) error {
	if slot < 0 || slot >= maxLights {
		return fmt.Errorf("%w: light slot %d", driver.ErrUnsupported, slot)
	}
	var vec mgl32.Vec4
	switch l := light.(type) {
	case state.PointLight:
		vec = viewMat.Mul4x1(l.Position.Vec4(1))
	case state.SpotLight:
		vec = viewMat.Mul4x1(l.Position.Vec4(1))
	case state.DirectionalLight:
		vec = viewMat.Mul4x1(l.Direction.Vec4(0))
	default:
		return fmt.Errorf("%w: light %T", driver.ErrUnsupported, light)
	}
	c := light.LightColor()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.lightColor[slot] = mgl32.Vec4{c[0] * scale[0], c[1] * scale[1], c[2] * scale[2], c[3] * scale[3]}
	b.fixed.lightVec[slot] = vec
	return nil
}

// EnableLight implements driver.LightBinder.
func (b *Backend) EnableLight(slot int, on bool) error {
	if slot < 0 || slot >= maxLights {
		return fmt.Errorf("%w: light slot %d", driver.ErrUnsupported, slot)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.lightOn[slot] = on
	return nil
}

// EnableClipPlanes implements driver.LightBinder.
func (b *Backend) EnableClipPlanes(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.clipping = on
	return nil
}

// BindClipPlane implements driver.LightBinder. The plane is transformed to
// eye space by the inverse transpose of viewMat.
func (b *Backend) BindClipPlane(slot int, plane state.ClipPlane, viewMat mgl32.Mat4) error {
	if slot < 0 || slot >= maxClipPlanes {
		return fmt.Errorf("%w: clip plane slot %d", driver.ErrUnsupported, slot)
	}
	eye := viewMat.Inv().Transpose().Mul4x1(plane.Plane)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.planes[slot] = eye
	return nil
}

// EnableClipPlane implements driver.LightBinder.
func (b *Backend) EnableClipPlane(slot int, on bool) error {
	if slot < 0 || slot >= maxClipPlanes {
		return fmt.Errorf("%w: clip plane slot %d", driver.ErrUnsupported, slot)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.planeOn[slot] = on
	return nil
}

// Uniform block layout, matching FixedState in shaders/fixed.wgsl.
const (
	offMVP        = 0
	offModelView  = 64
	offColor      = 128
	offScale      = 144
	offAmbient    = 160
	offFogColor   = 176
	offParams     = 192
	offCounts     = 208
	offLightColor = 224
	offLightVec   = offLightColor + maxLights*16
	offClipPlane  = offLightVec + maxLights*16

	uniformBlockSize = offClipPlane + maxClipPlanes*16
)

// encode writes the uniform block for the current state into dst.
// Disabled lights and planes are compacted to the front.
func (f *fixedState) encode(dst []byte) {
	put := func(off int, v ...float32) {
		for i, x := range v {
			binary.LittleEndian.PutUint32(dst[off+i*4:], math.Float32bits(x))
		}
	}
	mvp := f.projection.Mul4(f.modelView)
	put(offMVP, mvp[:]...)
	put(offModelView, f.modelView[:]...)

	color := mgl32.Vec4{1, 1, 1, 1}
	if f.color.Mode == state.ColorFlat {
		color = f.color.Color
	}
	put(offColor, color[:]...)
	put(offScale, f.scale[:]...)
	put(offAmbient, f.ambient[:]...)
	put(offFogColor, f.fog.Color[:]...)
	put(offParams, f.alpha.Reference, f.fog.Start, f.fog.End, f.fog.Density)

	lights := 0
	for i := range f.lightOn {
		if !f.lightOn[i] {
			continue
		}
		put(offLightColor+lights*16, f.lightColor[i][:]...)
		put(offLightVec+lights*16, f.lightVec[i][:]...)
		lights++
	}
	planes := 0
	for i := range f.planeOn {
		if !f.clipping || !f.planeOn[i] {
			continue
		}
		put(offClipPlane+planes*16, f.planes[i][:]...)
		planes++
	}
	put(offCounts, float32(lights), float32(planes), boolf(f.fog.Enabled), boolf(f.lighting))
}

func boolf(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
