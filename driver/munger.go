package driver

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gsg/gobj"
	"github.com/gogpu/gsg/internal/cache"
	"github.com/gogpu/gsg/state"
)

// Munger converts geometry into a form the backend can draw under a
// particular render state. Munging the same source twice returns the same
// result object until the source is modified.
type Munger interface {
	// Fingerprint identifies the conversion. Two mungers with equal
	// fingerprints produce identical output.
	Fingerprint() uint64
	MungeData(data *gobj.VertexData) *gobj.VertexData
	MungePrimitive(p *gobj.Primitive) *gobj.Primitive
}

// MungerFingerprint keys the munger for rs on a backend with caps.
func MungerFingerprint(rs *state.RenderState, caps *Caps) uint64 {
	var flags uint64
	if caps.SupportsColorScale {
		flags |= 1
	}
	if caps.ColorScaleViaLighting {
		flags |= 2
	}
	if caps.AlphaScaleViaTexture {
		flags |= 4
	}
	if StageFree(caps, rs) {
		flags |= 8
	}
	return state.Combine(state.MungerKey(rs), uint64(caps.GeomRendering), flags)
}

// mungedCacheSize bounds the per-munger memo of converted objects.
const mungedCacheSize = 128

type munged[T any] struct {
	version uint64
	out     T
}

// StandardMunger applies flat and off color modes, bakes any color scale
// the backend cannot apply into vertex colors, and decomposes composite
// primitives the backend cannot render natively.
type StandardMunger struct {
	fp       uint64
	mode     state.ColorMode
	flat     mgl32.Vec4
	scale    mgl32.Vec4
	bake     bool
	rendered GeomRendering

	data  *cache.Cache[uint64, munged[*gobj.VertexData]]
	prims *cache.Cache[uint64, munged[*gobj.Primitive]]
}

// NewStandardMunger builds the munger for rs on a backend with caps.
func NewStandardMunger(rs *state.RenderState, caps *Caps) *StandardMunger {
	color := rs.Color()
	route := RouteColorScale(caps, rs.ColorScale(), StageFree(caps, rs))
	return &StandardMunger{
		fp:       MungerFingerprint(rs, caps),
		mode:     color.Mode,
		flat:     color.Color,
		scale:    route.Baked,
		bake:     route.NeedsBake(),
		rendered: caps.GeomRendering,
		data:     cache.New[uint64, munged[*gobj.VertexData]](mungedCacheSize),
		prims:    cache.New[uint64, munged[*gobj.Primitive]](mungedCacheSize),
	}
}

// Fingerprint implements Munger.
func (m *StandardMunger) Fingerprint() uint64 { return m.fp }

// TouchesColor reports whether MungeData rewrites vertex colors.
func (m *StandardMunger) TouchesColor() bool {
	return m.mode != state.ColorVertex || m.bake
}

// MungeData implements Munger. Data that needs no color rewrite is
// returned as is.
func (m *StandardMunger) MungeData(data *gobj.VertexData) *gobj.VertexData {
	if data == nil || !m.TouchesColor() {
		return data
	}
	ver := data.Version()
	if e, ok := m.data.Get(data.ID()); ok && e.version == ver {
		return e.out
	}
	out := m.recolor(data)
	m.data.Set(data.ID(), munged[*gobj.VertexData]{version: ver, out: out})
	return out
}

// MungePrimitive implements Munger.
func (m *StandardMunger) MungePrimitive(p *gobj.Primitive) *gobj.Primitive {
	if p == nil || !m.needsDecompose(p.Kind) {
		return p
	}
	ver := p.Modified()
	if e, ok := m.prims.Get(p.ID()); ok && e.version == ver {
		return e.out
	}
	out := p.Decompose()
	m.prims.Set(p.ID(), munged[*gobj.Primitive]{version: ver, out: out})
	return out
}

// CacheStats returns combined hit and miss counts of the munged-object memo.
func (m *StandardMunger) CacheStats() (hits, misses uint64) {
	d, p := m.data.Stats(), m.prims.Stats()
	return d.Hits + p.Hits, d.Misses + p.Misses
}

func (m *StandardMunger) needsDecompose(k gobj.PrimitiveKind) bool {
	switch k {
	case gobj.TriStrips:
		return !m.rendered.Has(GRTriangleStrip)
	case gobj.TriFans:
		return !m.rendered.Has(GRTriangleFan)
	case gobj.LineStrips:
		return !m.rendered.Has(GRLineStrip)
	default:
		return false
	}
}

func (m *StandardMunger) recolor(src *gobj.VertexData) *gobj.VertexData {
	out := src.Clone()
	ai, ci, ok := out.FindColumn(gobj.ColumnColor)
	if !ok {
		f, err := gobj.NewArrayFormat(gobj.Column{Name: gobj.ColumnColor, Format: gputypes.VertexFormatFloat32x4})
		if err != nil {
			return src
		}
		out.Arrays = append(out.Arrays, gobj.NewVertexArray(f, out.Rows()))
		ai, ci = len(out.Arrays)-1, 0
	}
	arr := out.Arrays[ai]
	for row := 0; row < arr.Rows(); row++ {
		var c mgl32.Vec4
		switch {
		case m.mode == state.ColorFlat:
			c = m.flat
		case m.mode == state.ColorOff || !ok:
			c = mgl32.Vec4{1, 1, 1, 1}
		default:
			c = arr.ReadVec4(row, ci)
		}
		for i := range c {
			c[i] *= m.scale[i]
		}
		arr.WriteVec4(row, ci, c)
	}
	return out
}
