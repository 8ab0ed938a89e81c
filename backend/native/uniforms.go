package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// uniformStride is uniformBlockSize rounded up to the dynamic offset
	// alignment.
	uniformStride = (uniformBlockSize + 255) &^ 255

	segmentBlocks = 256
)

// uniformSegment is one uniform buffer with its bind group. Blocks are
// staged in shadow and written once per frame.
type uniformSegment struct {
	buffer hal.Buffer
	group  hal.BindGroup
	shadow []byte
	used   int
}

// uniformRing hands out one uniform block per draw. Segments are added as a
// frame needs them and reused by later frames.
type uniformRing struct {
	device hal.Device
	queue  hal.Queue
	layout hal.BindGroupLayout

	segs []*uniformSegment
	cur  int
}

func newUniformRing(device hal.Device, queue hal.Queue, layout hal.BindGroupLayout) *uniformRing {
	return &uniformRing{device: device, queue: queue, layout: layout}
}

func (r *uniformRing) newSegment() (*uniformSegment, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gsg_uniforms",
		Size:  segmentBlocks * uniformStride,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, deviceErr("create uniform buffer", err)
	}
	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "gsg_uniforms",
		Layout: r.layout,
		Entries: []gputypes.BindGroupEntry{{
			Binding: 0,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Size:   uniformBlockSize,
			},
		}},
	})
	if err != nil {
		r.device.DestroyBuffer(buf)
		return nil, deviceErr("create uniform bind group", err)
	}
	return &uniformSegment{
		buffer: buf,
		group:  group,
		shadow: make([]byte, segmentBlocks*uniformStride),
	}, nil
}

// alloc reserves a block, lets fill write it and returns the bind group and
// dynamic offset to draw with.
func (r *uniformRing) alloc(fill func([]byte)) (hal.BindGroup, uint32, error) {
	for r.cur < len(r.segs) && r.segs[r.cur].used == segmentBlocks {
		r.cur++
	}
	if r.cur == len(r.segs) {
		s, err := r.newSegment()
		if err != nil {
			return nil, 0, err
		}
		r.segs = append(r.segs, s)
	}
	s := r.segs[r.cur]
	off := s.used * uniformStride
	block := s.shadow[off : off+uniformBlockSize]
	clear(block)
	fill(block)
	s.used++
	return s.group, uint32(off), nil
}

// flush writes the blocks used this frame to their buffers.
func (r *uniformRing) flush() error {
	for _, s := range r.segs {
		if s.used == 0 {
			continue
		}
		if err := r.queue.WriteBuffer(s.buffer, 0, s.shadow[:s.used*uniformStride]); err != nil {
			return deviceErr("write uniforms", err)
		}
	}
	return nil
}

func (r *uniformRing) reset() {
	for _, s := range r.segs {
		s.used = 0
	}
	r.cur = 0
}

func (r *uniformRing) destroy() {
	for _, s := range r.segs {
		r.device.DestroyBindGroup(s.group)
		r.device.DestroyBuffer(s.buffer)
	}
	r.segs, r.cur = nil, 0
}
