package driver

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/view"
)

// Handle is an opaque backend resource identifier. Zero is invalid.
type Handle uint64

// InvalidHandle is the zero handle.
const InvalidHandle Handle = 0

// Valid reports whether h is non-zero.
func (h Handle) Valid() bool { return h != InvalidHandle }

// Backend errors.
var (
	// ErrDeviceLost means the device must be reset before further use.
	// Any backend call may return it (possibly wrapped).
	ErrDeviceLost = errors.New("driver: device lost")

	// ErrUnsupported means the backend does not implement the request.
	ErrUnsupported = errors.New("driver: unsupported")

	// ErrInvalidHandle is returned for a handle the backend does not own.
	ErrInvalidHandle = errors.New("driver: invalid handle")
)

// ClearRequest asks the backend to clear buffers of the current target.
type ClearRequest struct {
	Mask    view.ClearMask
	Color   mgl32.Vec4
	Depth   float32
	Stencil uint32
}

// TextureUpload is a texture conformed to the backend's capabilities.
type TextureUpload struct {
	Texture  *gobj.Texture
	Image    *image.RGBA
	Format   gputypes.TextureFormat
	Compress gobj.CompressionMode
	Mipmaps  bool
}

// TextureBinding is a texture stage resolved to a backend handle.
// Handle is invalid for constant stages that sample no texture.
type TextureBinding struct {
	Stage  state.TextureStage
	Handle Handle
}

// Device covers device lifetime.
type Device interface {
	// Name returns the backend name.
	Name() string

	// Reset (re)initializes the device and fills caps. Every cached
	// device state is forgotten; the guardian re-issues everything.
	Reset(caps *Caps) error

	// Close releases the device. Resources must already be released.
	Close() error
}

// Frames covers frame and scene bracketing and per-scene setup.
type Frames interface {
	BeginFrame() error
	EndFrame() error
	BeginScene() error
	EndScene() error

	Clear(req ClearRequest) error
	PrepareDisplayRegion(region *view.DisplayRegion, ch view.StereoChannel) error

	// CalcProjectionMat converts a lens to the backend's projection
	// convention. ok is false when the lens cannot be used.
	CalcProjectionMat(lens *view.Lens, ch view.StereoChannel) (proj mgl32.Mat4, ok bool)
	PrepareLens(proj mgl32.Mat4) error

	// SetGammaTable loads a 256-entry ramp. ErrUnsupported when the
	// output has no gamma ramp.
	SetGammaTable(table []uint16) error
}

// Resources covers preparation and release of backend objects.
// Release of an unknown handle is ignored.
type Resources interface {
	PrepareTexture(up *TextureUpload) (Handle, error)
	ReleaseTexture(h Handle)
	ExtractTextureData(h Handle) (*image.RGBA, error)

	PrepareShader(sh *gobj.Shader) (Handle, error)
	ReleaseShader(h Handle)

	// PrepareGeom builds a retained representation of a whole geom.
	// Backends without one return ErrUnsupported.
	PrepareGeom(g *gobj.Geom) (Handle, error)
	ReleaseGeom(h Handle)

	PrepareVertexBuffer(a *gobj.VertexArray) (Handle, error)
	ReleaseVertexBuffer(h Handle)

	PrepareIndexBuffer(p *gobj.Primitive) (Handle, error)
	ReleaseIndexBuffer(h Handle)
}

// Queries covers occlusion queries.
type Queries interface {
	BeginOcclusionQuery() (Handle, error)
	EndOcclusionQuery(h Handle) error
	// OcclusionQueryResult returns the number of samples that passed.
	// ready is false while the result is pending and wait is false.
	OcclusionQueryResult(h Handle, wait bool) (samples int, ready bool, err error)
	ReleaseOcclusionQuery(h Handle)
}

// StateIssuer applies individual state slots.
type StateIssuer interface {
	// IssueTransform loads the model-view matrix in the backend's
	// internal coordinate system.
	IssueTransform(modelView mgl32.Mat4) error
	IssueColor(a state.ColorAttrib) error
	IssueColorScale(scale mgl32.Vec4) error
	IssueTexture(stages []TextureBinding) error
	IssueMaterial(a state.MaterialAttrib) error
	IssueShader(h Handle, sh *gobj.Shader) error

	// IssueAttrib applies any slot without a dedicated method: alpha
	// test, depth test, depth write, depth offset, stencil, blend, color
	// write, cull face, render mode and fog.
	IssueAttrib(a state.Attrib) error
}

// LightBinder drives fixed light and clip-plane slots.
type LightBinder interface {
	EnableLighting(on bool) error
	SetAmbientLight(color mgl32.Vec4) error
	// BindLight loads light into slot. view is the world-to-eye matrix and
	// scale multiplies the light color.
	BindLight(slot int, light state.Light, view mgl32.Mat4, scale mgl32.Vec4) error
	EnableLight(slot int, on bool) error

	EnableClipPlanes(on bool) error
	BindClipPlane(slot int, plane state.ClipPlane, view mgl32.Mat4) error
	EnableClipPlane(slot int, on bool) error
}

// Drawer submits geometry.
type Drawer interface {
	// MakeGeomMunger returns a munger for rs, or nil to use the
	// StandardMunger.
	MakeGeomMunger(rs *state.RenderState, caps *Caps) Munger

	// BeginDrawPrimitives binds munged vertex data. buffers holds one
	// entry per array; an invalid handle means the array is drawn from
	// client memory.
	BeginDrawPrimitives(data *gobj.VertexData, buffers []Handle) error
	// DrawPrimitive draws one primitive. ib is invalid for sequential
	// primitives or when indices come from client memory.
	DrawPrimitive(p *gobj.Primitive, ib Handle) error
	EndDrawPrimitives() error
}

// Backend is the complete downstream contract of a guardian.
type Backend interface {
	Device
	Frames
	Resources
	Queries
	StateIssuer
	LightBinder
	Drawer
}
