package recording

import (
	"image"
	"image/draw"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/backend"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/view"
)

func init() {
	backend.Register(backend.BackendRecording, func() driver.Backend { return New() })
}

// Op names a recorded backend call.
type Op string

// Recorded operations, one per driver.Backend method.
const (
	OpReset                Op = "Reset"
	OpClose                Op = "Close"
	OpBeginFrame           Op = "BeginFrame"
	OpEndFrame             Op = "EndFrame"
	OpBeginScene           Op = "BeginScene"
	OpEndScene             Op = "EndScene"
	OpClear                Op = "Clear"
	OpPrepareDisplayRegion Op = "PrepareDisplayRegion"
	OpCalcProjectionMat    Op = "CalcProjectionMat"
	OpPrepareLens          Op = "PrepareLens"
	OpSetGammaTable        Op = "SetGammaTable"
	OpPrepareTexture       Op = "PrepareTexture"
	OpReleaseTexture       Op = "ReleaseTexture"
	OpExtractTextureData   Op = "ExtractTextureData"
	OpPrepareShader        Op = "PrepareShader"
	OpReleaseShader        Op = "ReleaseShader"
	OpPrepareGeom          Op = "PrepareGeom"
	OpReleaseGeom          Op = "ReleaseGeom"
	OpPrepareVertexBuffer  Op = "PrepareVertexBuffer"
	OpReleaseVertexBuffer  Op = "ReleaseVertexBuffer"
	OpPrepareIndexBuffer   Op = "PrepareIndexBuffer"
	OpReleaseIndexBuffer   Op = "ReleaseIndexBuffer"
	OpBeginOcclusionQuery  Op = "BeginOcclusionQuery"
	OpEndOcclusionQuery    Op = "EndOcclusionQuery"
	OpOcclusionResult      Op = "OcclusionQueryResult"
	OpReleaseQuery         Op = "ReleaseOcclusionQuery"
	OpIssueTransform       Op = "IssueTransform"
	OpIssueColor           Op = "IssueColor"
	OpIssueColorScale      Op = "IssueColorScale"
	OpIssueTexture         Op = "IssueTexture"
	OpIssueMaterial        Op = "IssueMaterial"
	OpIssueShader          Op = "IssueShader"
	OpIssueAttrib          Op = "IssueAttrib"
	OpEnableLighting       Op = "EnableLighting"
	OpSetAmbientLight      Op = "SetAmbientLight"
	OpBindLight            Op = "BindLight"
	OpEnableLight          Op = "EnableLight"
	OpEnableClipPlanes     Op = "EnableClipPlanes"
	OpBindClipPlane        Op = "BindClipPlane"
	OpEnableClipPlane      Op = "EnableClipPlane"
	OpMakeGeomMunger       Op = "MakeGeomMunger"
	OpBeginDrawPrimitives  Op = "BeginDrawPrimitives"
	OpDrawPrimitive        Op = "DrawPrimitive"
	OpEndDrawPrimitives    Op = "EndDrawPrimitives"
)

// Call is one recorded backend call.
type Call struct {
	Op Op
	// Handle is the handle the call created or referenced, if any.
	Handle driver.Handle
	// Slot is the light or clip-plane slot for slot calls, else -1.
	Slot int
	// Value is the main argument: an attribute, a matrix, a light, a bool.
	Value any
}

// Backend is a driver.Backend that records calls.
//
// Backend is safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	caps   driver.Caps
	munger driver.Munger
	calls  []Call
	fail   map[Op]error

	nextHandle driver.Handle
	live       map[driver.Handle]Op
	textures   map[driver.Handle]*image.RGBA
	gamma      []uint16

	querySamples int
	queryReady   bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithCaps sets the capabilities reported on Reset.
func WithCaps(c driver.Caps) Option {
	return func(b *Backend) { b.caps = c.Clone() }
}

// WithMunger makes MakeGeomMunger return m instead of nil.
func WithMunger(m driver.Munger) Option {
	return func(b *Backend) { b.munger = m }
}

// New creates a recording backend reporting FullCaps unless configured.
func New(opts ...Option) *Backend {
	b := &Backend{
		caps:       FullCaps(),
		fail:       make(map[Op]error),
		live:       make(map[driver.Handle]Op),
		textures:   make(map[driver.Handle]*image.RGBA),
		queryReady: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FullCaps returns capabilities of a capable modern device with every
// optional path enabled except the color-scale routes through lighting
// and texture.
func FullCaps() driver.Caps {
	c := driver.DefaultCaps()
	c.PrefersTriangleStrips = false
	c.MaxTextureStages = 4
	c.MaxTextureDimension = 4096
	c.Max3DTextureDimension = 256
	c.MaxCubeMapDimension = 1024
	c.SupportsTextureCombine = true
	c.SupportsTextureSavedResult = true
	c.SupportsTextureDot3 = true
	c.Supports3DTexture = true
	c.SupportsCubeMap = true
	c.SupportsTexNonPow2 = true
	c.SupportsCompressedTexture = true
	c.CompressedTextureFormats = gobj.CompressionDXT1.Bit() | gobj.CompressionDXT5.Bit()
	c.TextureFormats.Add(gputypes.TextureFormatBGRA8Unorm)
	c.MaxLights = 8
	c.MaxClipPlanes = 6
	c.MaxVertexTransforms = 4
	c.MaxVertexTransformIndices = 256
	c.SupportsMultisample = true
	c.SupportsGenerateMipmap = true
	c.SupportsRenderTexture = true
	c.SupportsDepthTexture = true
	c.SupportsDepthStencil = true
	c.SupportsShadowFilter = true
	c.SupportsBasicShaders = true
	c.SupportsStencilWrap = true
	c.SupportsTwoSidedStencil = true
	c.SupportsOcclusionQuery = true
	c.SupportsVertexBuffers = true
	c.SupportsIndexBuffers = true
	c.SupportsDepthOffset = true
	c.SupportsColorScale = true
	c.ShaderModel = gobj.SM40
	c.MaxShaderModel = gobj.SM40
	c.GeomRendering = driver.GRTriangleStrip | driver.GRTriangleFan | driver.GRLineStrip |
		driver.GRPoint | driver.GRIndex32 | driver.GRWideLine
	return c
}

// SetCaps replaces the capabilities reported by the next Reset.
func (b *Backend) SetCaps(c driver.Caps) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.caps = c.Clone()
}

// FailNext makes the next call of op return err. The call is still recorded.
func (b *Backend) FailNext(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[op] = err
}

// SetQueryResult sets what OcclusionQueryResult reports.
func (b *Backend) SetQueryResult(samples int, ready bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.querySamples, b.queryReady = samples, ready
}

// Calls returns a copy of the recorded calls.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// Ops returns the recorded operation names in order.
func (b *Backend) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Op, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.Op
	}
	return out
}

// Count returns how many times op was called.
func (b *Backend) Count(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the recorded calls of op.
func (b *Backend) Filter(op Op) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ClearCalls forgets the recorded calls.
func (b *Backend) ClearCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Live returns the number of handles created and not yet released.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// GammaTable returns the last gamma table loaded.
func (b *Backend) GammaTable() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gamma
}

// record appends a call and returns the injected error for op, if any.
// Caller must hold b.mu.
func (b *Backend) record(op Op, h driver.Handle, slot int, v any) error {
	b.calls = append(b.calls, Call{Op: op, Handle: h, Slot: slot, Value: v})
	if err, ok := b.fail[op]; ok {
		delete(b.fail, op)
		return err
	}
	return nil
}

func (b *Backend) call(op Op, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record(op, driver.InvalidHandle, -1, v)
}

func (b *Backend) create(op Op, v any) (driver.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(op, driver.InvalidHandle, -1, v); err != nil {
		return driver.InvalidHandle, err
	}
	b.nextHandle++
	h := b.nextHandle
	b.live[h] = op
	b.calls[len(b.calls)-1].Handle = h
	return h, nil
}

func (b *Backend) release(op Op, h driver.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.record(op, h, -1, nil)
	delete(b.live, h)
	delete(b.textures, h)
}

func (b *Backend) slotCall(op Op, slot int, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record(op, driver.InvalidHandle, slot, v)
}

// Name implements driver.Device.
func (b *Backend) Name() string { return backend.BackendRecording }

// Reset implements driver.Device.
func (b *Backend) Reset(caps *driver.Caps) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpReset, driver.InvalidHandle, -1, nil); err != nil {
		return err
	}
	*caps = b.caps.Clone()
	return nil
}

// Close implements driver.Device.
func (b *Backend) Close() error { return b.call(OpClose, nil) }

func (b *Backend) BeginFrame() error { return b.call(OpBeginFrame, nil) }
func (b *Backend) EndFrame() error   { return b.call(OpEndFrame, nil) }
func (b *Backend) BeginScene() error { return b.call(OpBeginScene, nil) }
func (b *Backend) EndScene() error   { return b.call(OpEndScene, nil) }

// Clear implements driver.Frames.
func (b *Backend) Clear(req driver.ClearRequest) error { return b.call(OpClear, req) }

// PrepareDisplayRegion implements driver.Frames.
func (b *Backend) PrepareDisplayRegion(region *view.DisplayRegion, ch view.StereoChannel) error {
	return b.call(OpPrepareDisplayRegion, region)
}

// CalcProjectionMat implements driver.Frames using the lens's own
// convention.
func (b *Backend) CalcProjectionMat(lens *view.Lens, ch view.StereoChannel) (mgl32.Mat4, bool) {
	if err := b.call(OpCalcProjectionMat, lens); err != nil {
		return mgl32.Mat4{}, false
	}
	proj, err := lens.ProjectionMat(ch)
	if err != nil {
		return mgl32.Mat4{}, false
	}
	return proj, true
}

// PrepareLens implements driver.Frames.
func (b *Backend) PrepareLens(proj mgl32.Mat4) error { return b.call(OpPrepareLens, proj) }

// SetGammaTable implements driver.Frames.
func (b *Backend) SetGammaTable(table []uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpSetGammaTable, driver.InvalidHandle, -1, len(table)); err != nil {
		return err
	}
	b.gamma = append([]uint16(nil), table...)
	return nil
}

// PrepareTexture implements driver.Resources. The uploaded image is kept
// for ExtractTextureData.
func (b *Backend) PrepareTexture(up *driver.TextureUpload) (driver.Handle, error) {
	h, err := b.create(OpPrepareTexture, up)
	if err != nil {
		return h, err
	}
	img := image.NewRGBA(up.Image.Bounds())
	draw.Draw(img, img.Bounds(), up.Image, up.Image.Bounds().Min, draw.Src)
	b.mu.Lock()
	b.textures[h] = img
	b.mu.Unlock()
	return h, nil
}

func (b *Backend) ReleaseTexture(h driver.Handle) { b.release(OpReleaseTexture, h) }

// ExtractTextureData implements driver.Resources.
func (b *Backend) ExtractTextureData(h driver.Handle) (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpExtractTextureData, h, -1, nil); err != nil {
		return nil, err
	}
	img, ok := b.textures[h]
	if !ok {
		return nil, driver.ErrInvalidHandle
	}
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out, nil
}

func (b *Backend) PrepareShader(sh *gobj.Shader) (driver.Handle, error) {
	return b.create(OpPrepareShader, sh)
}

func (b *Backend) ReleaseShader(h driver.Handle) { b.release(OpReleaseShader, h) }

func (b *Backend) PrepareGeom(g *gobj.Geom) (driver.Handle, error) {
	return b.create(OpPrepareGeom, g)
}

func (b *Backend) ReleaseGeom(h driver.Handle) { b.release(OpReleaseGeom, h) }

func (b *Backend) PrepareVertexBuffer(a *gobj.VertexArray) (driver.Handle, error) {
	return b.create(OpPrepareVertexBuffer, a)
}

func (b *Backend) ReleaseVertexBuffer(h driver.Handle) { b.release(OpReleaseVertexBuffer, h) }

func (b *Backend) PrepareIndexBuffer(p *gobj.Primitive) (driver.Handle, error) {
	return b.create(OpPrepareIndexBuffer, p)
}

func (b *Backend) ReleaseIndexBuffer(h driver.Handle) { b.release(OpReleaseIndexBuffer, h) }

// BeginOcclusionQuery implements driver.Queries.
func (b *Backend) BeginOcclusionQuery() (driver.Handle, error) {
	return b.create(OpBeginOcclusionQuery, nil)
}

// EndOcclusionQuery implements driver.Queries.
func (b *Backend) EndOcclusionQuery(h driver.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record(OpEndOcclusionQuery, h, -1, nil)
}

// OcclusionQueryResult implements driver.Queries. A pending result becomes
// ready when wait is true.
func (b *Backend) OcclusionQueryResult(h driver.Handle, wait bool) (int, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpOcclusionResult, h, -1, wait); err != nil {
		return 0, false, err
	}
	if _, ok := b.live[h]; !ok {
		return 0, false, driver.ErrInvalidHandle
	}
	if !b.queryReady && !wait {
		return 0, false, nil
	}
	return b.querySamples, true, nil
}

func (b *Backend) ReleaseOcclusionQuery(h driver.Handle) { b.release(OpReleaseQuery, h) }

func (b *Backend) IssueTransform(m mgl32.Mat4) error          { return b.call(OpIssueTransform, m) }
func (b *Backend) IssueColor(a state.ColorAttrib) error       { return b.call(OpIssueColor, a) }
func (b *Backend) IssueColorScale(s mgl32.Vec4) error         { return b.call(OpIssueColorScale, s) }
func (b *Backend) IssueMaterial(a state.MaterialAttrib) error { return b.call(OpIssueMaterial, a) }
func (b *Backend) IssueAttrib(a state.Attrib) error           { return b.call(OpIssueAttrib, a) }

// IssueTexture implements driver.StateIssuer.
func (b *Backend) IssueTexture(stages []driver.TextureBinding) error {
	return b.call(OpIssueTexture, append([]driver.TextureBinding(nil), stages...))
}

// IssueShader implements driver.StateIssuer.
func (b *Backend) IssueShader(h driver.Handle, sh *gobj.Shader) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record(OpIssueShader, h, -1, sh)
}

func (b *Backend) EnableLighting(on bool) error        { return b.call(OpEnableLighting, on) }
func (b *Backend) SetAmbientLight(c mgl32.Vec4) error  { return b.call(OpSetAmbientLight, c) }
func (b *Backend) EnableClipPlanes(on bool) error      { return b.call(OpEnableClipPlanes, on) }
func (b *Backend) EnableLight(slot int, on bool) error { return b.slotCall(OpEnableLight, slot, on) }
func (b *Backend) EnableClipPlane(slot int, on bool) error {
	return b.slotCall(OpEnableClipPlane, slot, on)
}

// BindLight implements driver.LightBinder.
func (b *Backend) BindLight(slot int, l state.Light, viewMat mgl32.Mat4, scale mgl32.Vec4) error {
	return b.slotCall(OpBindLight, slot, l)
}

// BindClipPlane implements driver.LightBinder.
func (b *Backend) BindClipPlane(slot int, p state.ClipPlane, viewMat mgl32.Mat4) error {
	return b.slotCall(OpBindClipPlane, slot, p)
}

// MakeGeomMunger implements driver.Drawer.
func (b *Backend) MakeGeomMunger(rs *state.RenderState, caps *driver.Caps) driver.Munger {
	_ = b.call(OpMakeGeomMunger, rs)
	return b.munger
}

// BeginDrawPrimitives implements driver.Drawer.
func (b *Backend) BeginDrawPrimitives(data *gobj.VertexData, buffers []driver.Handle) error {
	return b.call(OpBeginDrawPrimitives, data)
}

// DrawPrimitive implements driver.Drawer.
func (b *Backend) DrawPrimitive(p *gobj.Primitive, ib driver.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record(OpDrawPrimitive, ib, -1, p)
}

// EndDrawPrimitives implements driver.Drawer.
func (b *Backend) EndDrawPrimitives() error { return b.call(OpEndDrawPrimitives, nil) }

var _ driver.Backend = (*Backend)(nil)
