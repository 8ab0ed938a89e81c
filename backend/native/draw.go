package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/state"
)

// Shader input locations of the well-known vertex columns.
var columnLocations = map[string]uint32{
	gobj.ColumnVertex:   0,
	gobj.ColumnColor:    1,
	gobj.ColumnNormal:   2,
	gobj.ColumnTexcoord: 3,
}

// drawState is the vertex data bound between BeginDrawPrimitives and
// EndDrawPrimitives.
type drawState struct {
	data     *gobj.VertexData
	buffers  []hal.Buffer
	layouts  []gputypes.VertexBufferLayout
	hasColor bool

	// bound is the pipeline last set on the open pass.
	bound hal.RenderPipeline
}

// MakeGeomMunger implements driver.Drawer. The standard munger covers
// everything this backend needs.
func (b *Backend) MakeGeomMunger(*state.RenderState, *driver.Caps) driver.Munger { return nil }

// BeginDrawPrimitives implements driver.Drawer. Arrays without a prepared
// buffer are uploaded into buffers that live until the frame is submitted.
func (b *Backend) BeginDrawPrimitives(data *gobj.VertexData, handles []driver.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame.pass == nil {
		return ErrNoPass
	}

	d := drawState{data: data, bound: b.draw.bound}
	for i, a := range data.Arrays {
		var buf hal.Buffer
		if i < len(handles) && handles[i].Valid() {
			r := b.res.get(handles[i], kindVertexBuffer)
			if r == nil {
				return fmt.Errorf("%w: vertex buffer %d", driver.ErrInvalidHandle, uint64(handles[i]))
			}
			buf = r.buffer
		} else {
			var err error
			buf, err = b.uploadBuffer("gsg_client_vertices", a.Bytes(), gputypes.BufferUsageVertex)
			if err != nil {
				return err
			}
			b.frame.transient = append(b.frame.transient, buf)
		}
		d.buffers = append(d.buffers, buf)

		format := a.Format()
		layout := gputypes.VertexBufferLayout{
			ArrayStride: uint64(format.Stride),
			StepMode:    gputypes.VertexStepModeVertex,
		}
		for _, c := range format.Columns {
			loc, ok := columnLocations[c.Name]
			if !ok {
				continue
			}
			layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
				Format:         c.Format,
				Offset:         uint64(c.Offset),
				ShaderLocation: loc,
			})
			if c.Name == gobj.ColumnColor {
				d.hasColor = true
			}
		}
		d.layouts = append(d.layouts, layout)
	}
	b.draw = d
	return nil
}

// DrawPrimitive implements driver.Drawer. Fans must be decomposed by the
// munger; WebGPU has no fan topology.
func (b *Backend) DrawPrimitive(p *gobj.Primitive, ib driver.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	pass := b.frame.pass
	if pass == nil {
		return ErrNoPass
	}
	if b.draw.data == nil {
		return fmt.Errorf("%w: no vertex data bound", ErrNoPass)
	}
	topology, err := primitiveTopology(p.Kind)
	if err != nil {
		return err
	}
	if b.fixed.pipe.mode == state.RenderPoint {
		topology = gputypes.PrimitiveTopologyPointList
	}

	key, err := b.pipelineKey(topology, p)
	if err != nil {
		return err
	}
	pipeline, err := b.pipelines.getOrCreate(b.device, b.pipeLayout, key)
	if err != nil {
		return err
	}
	if pipeline != b.draw.bound {
		pass.SetPipeline(pipeline)
		b.draw.bound = pipeline
	}

	group, offset, err := b.uniforms.alloc(b.fixed.encode)
	if err != nil {
		return err
	}
	pass.SetBindGroup(0, group, []uint32{offset})
	if b.fixed.pipe.stencil.Enabled {
		pass.SetStencilReference(b.fixed.pipe.stencil.Reference)
	}
	for slot, buf := range b.draw.buffers {
		pass.SetVertexBuffer(uint32(slot), buf, 0)
	}

	runs := primitiveRuns(p, topology)
	if !p.Indexed() {
		for _, r := range runs {
			pass.Draw(uint32(r[1]-r[0]), 1, uint32(p.FirstVertex+r[0]), 0)
		}
		return nil
	}

	var (
		buf    hal.Buffer
		format gputypes.IndexFormat
	)
	if ib.Valid() {
		r := b.res.get(ib, kindIndexBuffer)
		if r == nil {
			return fmt.Errorf("%w: index buffer %d", driver.ErrInvalidHandle, uint64(ib))
		}
		buf, format = r.buffer, r.format
	} else {
		format = p.IndexFormat()
		buf, err = b.uploadBuffer("gsg_client_indices", p.IndexBytes(), gputypes.BufferUsageIndex)
		if err != nil {
			return err
		}
		b.frame.transient = append(b.frame.transient, buf)
	}
	pass.SetIndexBuffer(buf, format, 0)
	for _, r := range runs {
		pass.DrawIndexed(uint32(r[1]-r[0]), 1, uint32(r[0]), 0, 0)
	}
	return nil
}

// EndDrawPrimitives implements driver.Drawer.
func (b *Backend) EndDrawPrimitives() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draw = drawState{bound: b.draw.bound}
	return nil
}

// pipelineKey selects the shader and vertex layout for a draw. Caller must
// hold b.mu.
func (b *Backend) pipelineKey(topology gputypes.PrimitiveTopology, p *gobj.Primitive) (*pipelineKey, error) {
	key := &pipelineKey{
		state:    b.fixed.pipe,
		topology: topology,
		layouts:  b.draw.layouts,
	}
	if p.Indexed() && stripTopology(topology) {
		key.stripFormat = p.IndexFormat()
	}
	if h := b.fixed.shader; h.Valid() {
		r := b.res.get(h, kindShader)
		if r == nil {
			return nil, fmt.Errorf("%w: shader %d", driver.ErrInvalidHandle, uint64(h))
		}
		key.module, key.moduleID = r.module, uint64(h)
		key.vertexEntry, key.fragEntry = r.shader.VertexEntry, r.shader.FragmentEntry
		return key, nil
	}
	key.module, key.fragEntry = b.fixedModule, entryFragment
	if b.draw.hasColor {
		key.vertexEntry = entryVertexColor
	} else {
		key.vertexEntry = entryVertexFlat
	}
	return key, nil
}

func primitiveTopology(kind gobj.PrimitiveKind) (gputypes.PrimitiveTopology, error) {
	switch kind {
	case gobj.Triangles:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case gobj.TriStrips:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	case gobj.Lines:
		return gputypes.PrimitiveTopologyLineList, nil
	case gobj.LineStrips:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case gobj.Points:
		return gputypes.PrimitiveTopologyPointList, nil
	default:
		return 0, fmt.Errorf("%w: %s", driver.ErrUnsupported, kind)
	}
}

func stripTopology(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyTriangleStrip || t == gputypes.PrimitiveTopologyLineStrip
}

// primitiveRuns returns the [start, end) draw ranges of p. Each strip run
// is a separate draw; list topologies draw in one call.
func primitiveRuns(p *gobj.Primitive, topology gputypes.PrimitiveTopology) [][2]int {
	n := p.VertexCount()
	if len(p.Ends) == 0 || !stripTopology(topology) {
		return [][2]int{{0, n}}
	}
	out := make([][2]int, 0, len(p.Ends))
	start := 0
	for _, end := range p.Ends {
		out = append(out, [2]int{start, end})
		start = end
	}
	return out
}
