package view

import "github.com/go-gl/mathgl/mgl32"

// ClearMask selects the buffers a clear touches.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// Has reports whether every bit of o is set in m.
func (m ClearMask) Has(o ClearMask) bool { return m&o == o }

// Clearable is anything that knows which buffers to clear and with what.
type Clearable interface {
	ClearMask() ClearMask
	ClearColorValue() mgl32.Vec4
	ClearDepthValue() float32
	ClearStencilValue() uint32
}

// DisplayRegion is a pixel rectangle of the render target together with
// its own clear settings.
type DisplayRegion struct {
	X, Y          int
	Width, Height int

	Scissor bool

	Clear        ClearMask
	ClearColor   mgl32.Vec4
	ClearDepth   float32
	ClearStencil uint32
}

// NewDisplayRegion returns a region covering width x height with depth
// cleared to 1.
func NewDisplayRegion(width, height int) *DisplayRegion {
	return &DisplayRegion{Width: width, Height: height, ClearDepth: 1}
}

// Aspect returns width / height, or 1 for an empty region.
func (r *DisplayRegion) Aspect() float32 {
	if r.Height == 0 {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}

// Empty reports whether the region covers no pixels.
func (r *DisplayRegion) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r *DisplayRegion) ClearMask() ClearMask        { return r.Clear }
func (r *DisplayRegion) ClearColorValue() mgl32.Vec4 { return r.ClearColor }
func (r *DisplayRegion) ClearDepthValue() float32    { return r.ClearDepth }
func (r *DisplayRegion) ClearStencilValue() uint32   { return r.ClearStencil }
