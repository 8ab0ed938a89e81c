package native

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsg/state"
)

// pipelineState holds the slots WebGPU bakes into a render pipeline.
type pipelineState struct {
	depthCompare gputypes.CompareFunction
	depthWrite   bool
	depthOffset  int
	stencil      state.StencilAttrib
	blend        state.BlendAttrib
	writeMask    gputypes.ColorWriteMask
	cull         gputypes.CullMode
	mode         state.RenderMode
}

func defaultPipelineState() pipelineState {
	var p pipelineState
	for _, s := range []state.Slot{
		state.SlotDepthTest, state.SlotDepthWrite, state.SlotDepthOffset, state.SlotStencil,
		state.SlotBlend, state.SlotColorWrite, state.SlotCullFace, state.SlotRenderMode,
	} {
		p.apply(state.Default(s))
	}
	return p
}

// apply stores a pipeline slot. It reports false for other slots.
func (p *pipelineState) apply(a state.Attrib) bool {
	switch v := a.(type) {
	case state.DepthTestAttrib:
		p.depthCompare = v.Compare
	case state.DepthWriteAttrib:
		p.depthWrite = v.Enabled
	case state.DepthOffsetAttrib:
		p.depthOffset = v.Offset
	case state.StencilAttrib:
		p.stencil = v
	case state.BlendAttrib:
		p.blend = v
	case state.ColorWriteAttrib:
		p.writeMask = v.Mask
	case state.CullFaceAttrib:
		p.cull = v.Mode
	case state.RenderModeAttrib:
		// Wireframe has no WebGPU equivalent and renders filled.
		p.mode = v.Mode
	default:
		return false
	}
	return true
}

// pipelineKey is everything that selects a render pipeline.
type pipelineKey struct {
	state       pipelineState
	topology    gputypes.PrimitiveTopology
	stripFormat gputypes.IndexFormat
	layouts     []gputypes.VertexBufferLayout
	module      hal.ShaderModule
	moduleID    uint64
	vertexEntry string
	fragEntry   string
}

// hash fingerprints the key with xxhash.
func (k *pipelineKey) hash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	u := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	b := func(v bool) {
		if v {
			u(1)
		} else {
			u(0)
		}
	}
	s := &k.state
	u(uint64(s.depthCompare))
	b(s.depthWrite)
	u(uint64(int64(s.depthOffset)))
	b(s.stencil.Enabled)
	if s.stencil.Enabled {
		b(s.stencil.TwoSided)
		for _, f := range [2]state.StencilFace{s.stencil.Front, s.stencil.Back} {
			u(uint64(f.Compare))
			u(uint64(f.Fail)<<16 | uint64(f.DepthFail)<<8 | uint64(f.Pass))
		}
		u(uint64(s.stencil.ReadMask)<<32 | uint64(s.stencil.WriteMask))
	}
	b(s.blend.Enabled)
	if s.blend.Enabled {
		for _, c := range [2]state.BlendComponent{s.blend.Color, s.blend.Alpha} {
			u(uint64(c.Src)<<32 | uint64(c.Dst)<<16 | uint64(c.Op))
		}
	}
	u(uint64(s.writeMask))
	u(uint64(s.cull))
	u(uint64(s.mode))

	u(uint64(k.topology))
	u(uint64(k.stripFormat))
	for _, l := range k.layouts {
		u(l.ArrayStride)
		for _, a := range l.Attributes {
			u(uint64(a.Format)<<40 | uint64(a.ShaderLocation)<<32 | a.Offset)
		}
		u(^uint64(0))
	}
	u(k.moduleID)
	_, _ = d.WriteString(k.vertexEntry)
	_, _ = d.WriteString(k.fragEntry)
	return d.Sum64()
}

// descriptor builds the HAL render pipeline descriptor for the key.
func (k *pipelineKey) descriptor(layout hal.PipelineLayout) *hal.RenderPipelineDescriptor {
	s := &k.state

	var blend *gputypes.BlendState
	if s.blend.Enabled {
		blend = &gputypes.BlendState{
			Color: blendComponent(s.blend.Color),
			Alpha: blendComponent(s.blend.Alpha),
		}
	}

	front, back := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}, hal.StencilFaceState{}
	var readMask, writeMask uint32
	if s.stencil.Enabled {
		front = stencilFace(s.stencil.Front)
		readMask, writeMask = s.stencil.ReadMask, s.stencil.WriteMask
	}
	back = front
	if s.stencil.Enabled && s.stencil.TwoSided {
		back = stencilFace(s.stencil.Back)
	}

	prim := gputypes.PrimitiveState{
		Topology:  k.topology,
		FrontFace: gputypes.FrontFaceCCW,
		CullMode:  s.cull,
	}
	if k.stripFormat != 0 {
		f := k.stripFormat
		prim.StripIndexFormat = &f
	}

	return &hal.RenderPipelineDescriptor{
		Label:  "gsg_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     k.module,
			EntryPoint: k.vertexEntry,
			Buffers:    k.layouts,
		},
		Primitive: prim,
		DepthStencil: &hal.DepthStencilState{
			Format:            targetDepthFormat,
			DepthWriteEnabled: s.depthWrite,
			DepthCompare:      s.depthCompare,
			StencilFront:      front,
			StencilBack:       back,
			StencilReadMask:   readMask,
			StencilWriteMask:  writeMask,
			DepthBias:         int32(-s.depthOffset),
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     k.module,
			EntryPoint: k.fragEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    targetColorFormat,
				Blend:     blend,
				WriteMask: s.writeMask,
			}},
		},
	}
}

func blendComponent(c state.BlendComponent) gputypes.BlendComponent {
	return gputypes.BlendComponent{SrcFactor: c.Src, DstFactor: c.Dst, Operation: c.Op}
}

func stencilFace(f state.StencilFace) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     f.Compare,
		FailOp:      stencilOp(f.Fail),
		DepthFailOp: stencilOp(f.DepthFail),
		PassOp:      stencilOp(f.Pass),
	}
}

func stencilOp(op state.StencilOp) hal.StencilOperation {
	switch op {
	case state.StencilZero:
		return hal.StencilOperationZero
	case state.StencilReplace:
		return hal.StencilOperationReplace
	case state.StencilIncrement:
		return hal.StencilOperationIncrementClamp
	case state.StencilDecrement:
		return hal.StencilOperationDecrementClamp
	case state.StencilInvert:
		return hal.StencilOperationInvert
	case state.StencilIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case state.StencilDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

// pipelineCache caches render pipelines by key hash.
//
// pipelineCache is safe for concurrent use. It uses RWMutex with
// double-check locking for efficient reads and safe writes.
type pipelineCache struct {
	mu        sync.RWMutex
	pipelines map[uint64]hal.RenderPipeline

	hits   uint64
	misses uint64
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{pipelines: make(map[uint64]hal.RenderPipeline)}
}

// getOrCreate returns the cached pipeline for key or creates one.
func (c *pipelineCache) getOrCreate(device hal.Device, layout hal.PipelineLayout, key *pipelineKey) (hal.RenderPipeline, error) {
	h := key.hash()

	// Fast path: read lock
	c.mu.RLock()
	if p, ok := c.pipelines[h]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	c.mu.RUnlock()

	// Slow path: write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[h]; ok {
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	p, err := device.CreateRenderPipeline(key.descriptor(layout))
	if err != nil {
		return nil, deviceErr("create render pipeline", err)
	}
	c.pipelines[h] = p
	atomic.AddUint64(&c.misses, 1)
	return p, nil
}

// Stats returns cache hits and misses.
func (c *pipelineCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// destroy releases every cached pipeline.
func (c *pipelineCache) destroy(device hal.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h, p := range c.pipelines {
		device.DestroyRenderPipeline(p)
		delete(c.pipelines, h)
	}
}
