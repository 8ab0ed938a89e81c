package native

import (
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gsg/backend"
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/view"
)

func init() {
	backend.Register(backend.BackendNoop, func() driver.Backend { return NewNoop() })
	backend.Register(backend.BackendNative, func() driver.Backend {
		api := firstDeviceAPI()
		if api == nil {
			return nil
		}
		return New(api)
	})
}

// Default offscreen target size.
const (
	DefaultTargetWidth  = 640
	DefaultTargetHeight = 480
)

// Fixed slot counts of the uniform block.
const (
	maxLights     = 8
	maxClipPlanes = 6
)

// Backend is a driver.Backend rendering through a gogpu/wgpu HAL device
// into an offscreen color and depth-stencil target.
//
// Backend is safe for concurrent use; a guardian drives it from one
// goroutine.
type Backend struct {
	mu sync.Mutex

	api    hal.Backend
	logger *slog.Logger
	width  uint32
	height uint32

	instance hal.Instance
	adapter  hal.ExposedAdapter
	device   hal.Device
	queue    hal.Queue

	fixedModule hal.ShaderModule
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipelines   *pipelineCache
	target      *renderTarget
	uniforms    *uniformRing
	res         *resourceTable

	frame frameState
	fixed fixedState
	draw  drawState
}

// Option configures a Backend.
type Option func(*Backend)

// WithTargetSize sets the size of the offscreen render target.
func WithTargetSize(width, height int) Option {
	return func(b *Backend) {
		if width > 0 && height > 0 {
			b.width, b.height = uint32(width), uint32(height)
		}
	}
}

// WithLogger sets the logger for device events. By default nothing is
// logged.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a backend on the first adapter of api. The device is opened
// by the first Reset.
func New(api hal.Backend, opts ...Option) *Backend {
	b := &Backend{
		api:       api,
		logger:    slog.New(slog.DiscardHandler),
		width:     DefaultTargetWidth,
		height:    DefaultTargetHeight,
		pipelines: newPipelineCache(),
		res:       newResourceTable(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewNoop creates a backend on the headless noop HAL device.
func NewNoop(opts ...Option) *Backend {
	return New(noop.API{}, opts...)
}

// firstDeviceAPI returns the first registered HAL backend that talks to a
// device, or nil. The noop and software backends register as BackendEmpty.
func firstDeviceAPI() hal.Backend {
	for _, v := range hal.AvailableBackends() {
		if v == gputypes.BackendEmpty {
			continue
		}
		if api, ok := hal.GetBackend(v); ok {
			return api
		}
	}
	return nil
}

// Name implements driver.Device.
func (b *Backend) Name() string {
	if b.api != nil && b.api.Variant() == gputypes.BackendEmpty {
		return backend.BackendNoop
	}
	return backend.BackendNative
}

// AdapterInfo returns the adapter the device was opened on. It is zero
// before the first Reset.
func (b *Backend) AdapterInfo() gputypes.AdapterInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapter.Info
}

// PipelineStats returns pipeline cache hits and misses.
func (b *Backend) PipelineStats() (hits, misses uint64) {
	return b.pipelines.Stats()
}

// Reset implements driver.Device. The device is opened on first use and
// kept afterwards, so prepared resources stay valid across resets. Cached
// pass and fixed-function state is forgotten.
func (b *Backend) Reset(caps *driver.Caps) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		if err := b.open(); err != nil {
			b.closeDevice()
			return err
		}
		b.logger.Info("native: device opened",
			"adapter", b.adapter.Info.Name, "backend", b.adapter.Info.Backend.String())
	}
	b.abandonFrame()
	b.fixed = newFixedState()
	b.draw = drawState{}
	*caps = b.capabilities()
	return nil
}

// open creates the instance, device and the objects every draw needs.
// Caller must hold b.mu.
func (b *Backend) open() error {
	instance, err := b.api.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsAll})
	if err != nil {
		return deviceErr("create instance", err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return ErrNoAdapter
	}
	b.adapter = adapters[0]

	opened, err := b.adapter.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return deviceErr("open device", err)
	}
	b.device, b.queue = opened.Device, opened.Queue

	if b.fixedModule, err = createShaderModule(b.device, "gsg_fixed", fixedShaderWGSL); err != nil {
		return err
	}
	if err := b.createLayouts(); err != nil {
		return err
	}
	if b.target, err = newRenderTarget(b.device, b.width, b.height); err != nil {
		return err
	}
	b.uniforms = newUniformRing(b.device, b.queue, b.bindLayout)
	return nil
}

// createLayouts builds the bind group layout of the fixed uniform block and
// the pipeline layout shared by every pipeline. Caller must hold b.mu.
func (b *Backend) createLayouts() error {
	var err error
	b.bindLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "gsg_fixed_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStagesVertexFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type:             gputypes.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   uniformBlockSize,
			},
		}},
	})
	if err != nil {
		return deviceErr("create bind group layout", err)
	}
	b.pipeLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gsg_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return deviceErr("create pipeline layout", err)
	}
	return nil
}

// capabilities reports what the device and the fixed shader support.
// Caller must hold b.mu.
func (b *Backend) capabilities() driver.Caps {
	limits := b.adapter.Capabilities.Limits
	c := driver.DefaultCaps()

	c.MaxVerticesPerArray = 1 << 20
	c.MaxVerticesPerPrimitive = 1 << 20
	c.MaxTextureStages = int(min(limits.MaxSampledTexturesPerShaderStage, 4))
	c.MaxTextureDimension = int(limits.MaxTextureDimension2D)
	c.SupportsTexNonPow2 = true
	for _, f := range []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm} {
		if b.adapter.Adapter.TextureFormatCapabilities(f).Flags&hal.TextureFormatCapabilitySampled != 0 {
			c.TextureFormats.Add(f)
		}
	}

	c.MaxLights = maxLights
	c.MaxClipPlanes = maxClipPlanes
	c.SupportsRenderTexture = true
	c.SupportsDepthTexture = true
	c.SupportsDepthStencil = true
	c.SupportsBasicShaders = true
	c.SupportsStencilWrap = true
	c.SupportsTwoSidedStencil = true
	c.SupportsVertexBuffers = true
	c.SupportsIndexBuffers = true
	c.SupportsDepthOffset = true
	c.SupportsColorScale = true
	c.ShaderModel = gobj.SM40
	c.MaxShaderModel = gobj.SM40

	// No triangle fans or wide lines in WebGPU; the munger decomposes them.
	c.GeomRendering = driver.GRTriangleStrip | driver.GRLineStrip | driver.GRPoint | driver.GRIndex32
	c.InternalCoordinateSystem = view.CSYupRight
	return c
}

// Close implements driver.Device.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abandonFrame()
	b.closeDevice()
	return nil
}

// closeDevice destroys everything created by open, newest first.
// Caller must hold b.mu.
func (b *Backend) closeDevice() {
	if b.device != nil {
		_ = b.device.WaitIdle()
		b.res.destroyAll(b.device)
		b.pipelines.destroy(b.device)
		if b.uniforms != nil {
			b.uniforms.destroy()
			b.uniforms = nil
		}
		if b.target != nil {
			b.target.destroy(b.device)
			b.target = nil
		}
		if b.pipeLayout != nil {
			b.device.DestroyPipelineLayout(b.pipeLayout)
			b.pipeLayout = nil
		}
		if b.bindLayout != nil {
			b.device.DestroyBindGroupLayout(b.bindLayout)
			b.bindLayout = nil
		}
		if b.fixedModule != nil {
			b.device.DestroyShaderModule(b.fixedModule)
			b.fixedModule = nil
		}
		b.device.Destroy()
		b.device, b.queue = nil, nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

var _ driver.Backend = (*Backend)(nil)
