package native

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/view"
)

// depthRemap maps OpenGL clip depth [-1, 1] onto WebGPU's [0, 1].
var depthRemap = mgl32.Translate3D(0, 0, 0.5).Mul4(mgl32.Scale3D(1, 1, 0.5))

// frameState is the command encoder of the open frame and the render pass
// of the open scene.
type frameState struct {
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder

	// clear is applied by the load ops of the next pass.
	clear *driver.ClearRequest

	region  image.Rectangle
	scissor bool

	// transient buffers hold client-memory geometry until the frame is
	// submitted.
	transient []hal.Buffer
}

// BeginFrame implements driver.Frames.
func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return ErrNotInitialized
	}
	if b.frame.encoder != nil {
		b.abandonFrame()
	}
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gsg_encoder"})
	if err != nil {
		return deviceErr("create command encoder", err)
	}
	if err := encoder.BeginEncoding("gsg_frame"); err != nil {
		encoder.Destroy()
		return deviceErr("begin encoding", err)
	}
	b.frame.encoder = encoder
	b.uniforms.reset()
	return nil
}

// EndFrame implements driver.Frames. The frame is submitted and waited
// for, so transient buffers can be destroyed right away.
func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame.encoder == nil {
		return ErrNoPass
	}
	b.endPass()
	encoder := b.frame.encoder
	b.frame.encoder = nil
	defer encoder.Destroy()
	defer b.dropTransient()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return deviceErr("end encoding", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if err := b.uniforms.flush(); err != nil {
		return err
	}
	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return deviceErr("submit", err)
	}
	if err := b.device.WaitIdle(); err != nil {
		return deviceErr("wait idle", err)
	}
	return nil
}

// BeginScene implements driver.Frames.
func (b *Backend) BeginScene() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame.encoder == nil {
		return ErrNoPass
	}
	b.beginPass()
	return nil
}

// EndScene implements driver.Frames.
func (b *Backend) EndScene() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endPass()
	return nil
}

// Clear implements driver.Frames. Clears become load ops: inside a scene
// the pass is restarted, otherwise the next pass clears. A clear always
// covers the whole target.
func (b *Backend) Clear(req driver.ClearRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame.encoder == nil {
		return ErrNoPass
	}
	if prev := b.frame.clear; prev != nil {
		merged := *prev
		merged.Mask |= req.Mask
		if req.Mask.Has(view.ClearColor) {
			merged.Color = req.Color
		}
		if req.Mask.Has(view.ClearDepth) {
			merged.Depth = req.Depth
		}
		if req.Mask.Has(view.ClearStencil) {
			merged.Stencil = req.Stencil
		}
		req = merged
	}
	b.frame.clear = &req
	if b.frame.pass != nil {
		b.endPass()
		b.beginPass()
	}
	return nil
}

// PrepareDisplayRegion implements driver.Frames. The region is clamped to
// the target.
func (b *Backend) PrepareDisplayRegion(region *view.DisplayRegion, _ view.StereoChannel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target == nil {
		return ErrNotInitialized
	}
	r := b.target.bounds(image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height))
	if r.Empty() {
		return ErrInvalidDimensions
	}
	b.frame.region = r
	b.frame.scissor = region.Scissor
	if b.frame.pass != nil {
		b.applyRegion()
	}
	return nil
}

// CalcProjectionMat implements driver.Frames, converting the lens
// projection to WebGPU's depth range.
func (b *Backend) CalcProjectionMat(lens *view.Lens, ch view.StereoChannel) (mgl32.Mat4, bool) {
	proj, err := lens.ProjectionMat(ch)
	if err != nil {
		return mgl32.Mat4{}, false
	}
	return depthRemap.Mul4(proj), true
}

// PrepareLens implements driver.Frames.
func (b *Backend) PrepareLens(proj mgl32.Mat4) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixed.projection = proj
	return nil
}

// SetGammaTable implements driver.Frames. An offscreen target has no
// gamma ramp.
func (b *Backend) SetGammaTable([]uint16) error { return driver.ErrUnsupported }

// BeginOcclusionQuery implements driver.Queries. HAL render passes do not
// expose occlusion queries.
func (b *Backend) BeginOcclusionQuery() (driver.Handle, error) {
	return driver.InvalidHandle, driver.ErrUnsupported
}

func (b *Backend) EndOcclusionQuery(driver.Handle) error { return driver.ErrInvalidHandle }

func (b *Backend) OcclusionQueryResult(driver.Handle, bool) (int, bool, error) {
	return 0, false, driver.ErrInvalidHandle
}

func (b *Backend) ReleaseOcclusionQuery(driver.Handle) {}

// beginPass opens a render pass on the target, consuming the pending
// clear. Caller must hold b.mu.
func (b *Backend) beginPass() {
	t := b.target
	color := hal.RenderPassColorAttachment{
		View:    t.colorView,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	depth := &hal.RenderPassDepthStencilAttachment{
		View:           t.depthView,
		DepthLoadOp:    gputypes.LoadOpLoad,
		DepthStoreOp:   gputypes.StoreOpStore,
		StencilLoadOp:  gputypes.LoadOpLoad,
		StencilStoreOp: gputypes.StoreOpStore,
	}
	if c := b.frame.clear; c != nil {
		if c.Mask.Has(view.ClearColor) {
			color.LoadOp = gputypes.LoadOpClear
			color.ClearValue = gputypes.Color{
				R: float64(c.Color[0]), G: float64(c.Color[1]),
				B: float64(c.Color[2]), A: float64(c.Color[3]),
			}
		}
		if c.Mask.Has(view.ClearDepth) {
			depth.DepthLoadOp = gputypes.LoadOpClear
			depth.DepthClearValue = c.Depth
		}
		if c.Mask.Has(view.ClearStencil) {
			depth.StencilLoadOp = gputypes.LoadOpClear
			depth.StencilClearValue = c.Stencil
		}
		b.frame.clear = nil
	}

	b.frame.pass = b.frame.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:                  "gsg_scene",
		ColorAttachments:       []hal.RenderPassColorAttachment{color},
		DepthStencilAttachment: depth,
	})
	b.draw.bound = nil
	b.applyRegion()
}

// applyRegion sets viewport and scissor from the display region, or the
// whole target when none was prepared. Caller must hold b.mu.
func (b *Backend) applyRegion() {
	r := b.frame.region
	if r.Empty() {
		r = image.Rect(0, 0, int(b.target.width), int(b.target.height))
	}
	b.frame.pass.SetViewport(float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 0, 1)
	if b.frame.scissor {
		b.frame.pass.SetScissorRect(uint32(r.Min.X), uint32(r.Min.Y), uint32(r.Dx()), uint32(r.Dy()))
	} else {
		b.frame.pass.SetScissorRect(0, 0, b.target.width, b.target.height)
	}
}

func (b *Backend) endPass() {
	if b.frame.pass != nil {
		b.frame.pass.End()
		b.frame.pass = nil
	}
}

// abandonFrame discards an unsubmitted frame. Caller must hold b.mu.
func (b *Backend) abandonFrame() {
	b.endPass()
	if b.frame.encoder != nil {
		b.frame.encoder.DiscardEncoding()
		b.frame.encoder.Destroy()
		b.frame.encoder = nil
	}
	b.dropTransient()
	b.frame = frameState{}
}

func (b *Backend) dropTransient() {
	for _, buf := range b.frame.transient {
		b.device.DestroyBuffer(buf)
	}
	b.frame.transient = b.frame.transient[:0]
}
