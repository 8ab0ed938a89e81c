package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/prepared"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/view"
)

// Rows of the shared grid mesh.
const gridSize = 8

// scene is a grid mesh drawn many times under a handful of render states,
// which is the pattern the state cache exists for.
type scene struct {
	objects int
	data    *gobj.VertexData
	strips  *gobj.Primitive
	fan     *gobj.Primitive
	lines   *gobj.Primitive
	texture *gobj.Texture
	states  []*state.RenderState
	setup   *view.SceneSetup
}

func newScene(objects, lights int) (*scene, error) {
	if objects <= 0 {
		return nil, errors.New("objects must be positive")
	}
	data, err := gridData()
	if err != nil {
		return nil, err
	}

	var ls []state.Light
	for i := 0; i < lights; i++ {
		a := float64(i) / float64(max(lights, 1)) * 2 * math.Pi
		ls = append(ls, state.PointLight{
			Name:        fmt.Sprintf("light-%d", i),
			Color:       mgl32.Vec4{1, 0.9, 0.8, 1},
			Position:    mgl32.Vec3{float32(math.Cos(a)) * 10, float32(math.Sin(a)) * 10, 5},
			Attenuation: mgl32.Vec3{1, 0, 0},
		})
	}
	ls = append(ls, state.AmbientLight{Name: "ambient", Color: mgl32.Vec4{0.2, 0.2, 0.2, 1}})
	lit := state.LightAttrib{Lights: ls}

	tex := checkerTexture(64)
	region := view.NewDisplayRegion(640, 480)
	region.Clear = view.ClearColor | view.ClearDepth
	region.ClearColor = mgl32.Vec4{0.1, 0.1, 0.15, 1}
	sc := &scene{
		objects: objects,
		data:    data,
		strips:  gridStrips(),
		fan:     gobj.NewSequential(gobj.TriFans, 0, gridSize),
		lines:   gobj.NewSequential(gobj.LineStrips, 0, gridSize*gridSize),
		texture: tex,
		states: []*state.RenderState{
			state.New(lit),
			state.New(lit, state.NewTextureAttrib(state.TextureStage{Name: "base", Texture: tex})),
			state.New(state.AlphaBlend(), state.DepthWriteAttrib{Enabled: false}),
			state.New(state.ColorAttrib{Mode: state.ColorFlat, Color: mgl32.Vec4{0.2, 0.6, 1, 1}},
				state.ColorScaleAttrib{Scale: mgl32.Vec4{1, 1, 1, 0.5}}),
			state.New(state.RenderModeAttrib{Mode: state.RenderWireframe, Thickness: 1},
				state.CullFaceAttrib{Mode: gputypes.CullModeNone}),
		},
		setup: &view.SceneSetup{
			Lens:            view.NewPerspective(60, 4.0/3.0, 0.5, 500),
			Region:          region,
			CameraTransform: state.MakePos(mgl32.Vec3{0, -40, 10}),
		},
	}
	return sc, nil
}

// prepare uploads the shared geometry and texture ahead of the first frame.
func (sc *scene) prepare(g *gsg.Guardian) error {
	for _, a := range sc.data.Arrays {
		g.QueuePrepare(a)
	}
	g.QueuePrepare(sc.strips)
	g.QueuePrepare(sc.texture)
	g.ApplyStaged()
	for _, k := range []prepared.Kind{prepared.KindVertexBuffer, prepared.KindIndexBuffer, prepared.KindTexture} {
		if g.PreparedCount(k) == 0 {
			return fmt.Errorf("prepare %s: %w", k, guardianErr(g))
		}
	}
	return nil
}

// guardianErr returns the error behind a failed guardian call.
func guardianErr(g *gsg.Guardian) error {
	if err := g.LastError(); err != nil {
		return err
	}
	return errors.New("guardian refused the call")
}

func (sc *scene) renderFrame(g *gsg.Guardian, frame int) error {
	if !g.BeginFrame() || !g.SetScene(sc.setup) || !g.BeginScene() {
		return guardianErr(g)
	}
	if !g.ClearRegion(sc.setup.Region) {
		return guardianErr(g)
	}
	for i := 0; i < sc.objects; i++ {
		rs := sc.states[(i/8)%len(sc.states)]
		x := float32(i%20)*3 - 30
		y := float32(i/20) * 3
		ts := state.MakeMat(mgl32.Translate3D(x, y, 0).Mul4(mgl32.HomogRotate3DZ(float32(frame) * 0.01)))
		if !g.SetStateAndTransform(rs, ts) {
			return guardianErr(g)
		}
		if !g.BeginDrawPrimitives(nil, nil, sc.data, false) {
			return guardianErr(g)
		}
		ok := g.DrawTristrips(sc.strips, false)
		if ok && i%5 == 0 {
			ok = g.DrawTrifans(sc.fan, false)
		}
		if ok && i%7 == 0 {
			ok = g.DrawLinestrips(sc.lines, false)
		}
		if !g.EndDrawPrimitives() || !ok {
			return guardianErr(g)
		}
	}
	if !g.EndScene() || !g.EndFrame() {
		return guardianErr(g)
	}
	return nil
}

// gridData is a gridSize x gridSize vertex grid with per-vertex colors.
func gridData() (*gobj.VertexData, error) {
	f, err := gobj.NewArrayFormat(
		gobj.Column{Name: gobj.ColumnVertex, Format: gputypes.VertexFormatFloat32x3},
		gobj.Column{Name: gobj.ColumnNormal, Format: gputypes.VertexFormatFloat32x3},
		gobj.Column{Name: gobj.ColumnColor, Format: gputypes.VertexFormatFloat32x4},
		gobj.Column{Name: gobj.ColumnTexcoord, Format: gputypes.VertexFormatFloat32x2},
	)
	if err != nil {
		return nil, err
	}
	a := gobj.NewVertexArray(f, gridSize*gridSize)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			row := y*gridSize + x
			u, v := float32(x)/(gridSize-1), float32(y)/(gridSize-1)
			a.WriteVec4(row, 0, mgl32.Vec4{u*2 - 1, v*2 - 1, 0, 1})
			a.WriteVec4(row, 1, mgl32.Vec4{0, 0, 1, 0})
			a.WriteVec4(row, 2, mgl32.Vec4{u, v, 1 - u, 1})
			a.WriteVec4(row, 3, mgl32.Vec4{u, v, 0, 0})
		}
	}
	return gobj.NewVertexData("grid", a), nil
}

// gridStrips covers the grid with one triangle strip per row of cells.
func gridStrips() *gobj.Primitive {
	var indices []uint32
	var ends []int
	for y := 0; y < gridSize-1; y++ {
		for x := 0; x < gridSize; x++ {
			indices = append(indices, uint32((y+1)*gridSize+x), uint32(y*gridSize+x))
		}
		ends = append(ends, len(indices))
	}
	return gobj.NewIndexed(gobj.TriStrips, indices, ends...)
}

func checkerTexture(size int) *gobj.Texture {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{0x20, 0x20, 0x20, 0xff}
			if (x/8+y/8)%2 == 0 {
				c = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return gobj.NewTexture("checker", img)
}
