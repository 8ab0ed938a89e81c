package gobj

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// PrimitiveKind is the topology of a primitive.
type PrimitiveKind uint8

const (
	Triangles PrimitiveKind = iota
	TriStrips
	TriFans
	Lines
	LineStrips
	Points
)

// String returns the kind name.
func (k PrimitiveKind) String() string {
	switch k {
	case Triangles:
		return "triangles"
	case TriStrips:
		return "tristrips"
	case TriFans:
		return "trifans"
	case Lines:
		return "lines"
	case LineStrips:
		return "linestrips"
	case Points:
		return "points"
	default:
		return "unknown"
	}
}

// IsComposite reports whether the kind is made of variable-length runs.
func (k PrimitiveKind) IsComposite() bool {
	return k == TriStrips || k == TriFans || k == LineStrips
}

// minRun is the smallest useful run length for a kind.
func (k PrimitiveKind) minRun() int {
	switch k {
	case TriStrips, TriFans:
		return 3
	case LineStrips:
		return 2
	default:
		return 1
	}
}

// ErrMalformedPrimitive is returned by Validate.
var ErrMalformedPrimitive = errors.New("gobj: malformed primitive")

// Primitive is a run of vertex references with a topology.
//
// An indexed primitive lists vertices in Indices. A non-indexed one covers
// NumVertices consecutive rows starting at FirstVertex. Composite kinds
// split the vertex sequence into runs; Ends holds the exclusive end of each
// run, and a nil Ends means a single run.
type Primitive struct {
	counter

	id          uint64
	Kind        PrimitiveKind
	Indices     []uint32
	FirstVertex int
	NumVertices int
	Ends        []int
}

// NewIndexed creates an indexed primitive.
func NewIndexed(kind PrimitiveKind, indices []uint32, ends ...int) *Primitive {
	return &Primitive{id: newID(), Kind: kind, Indices: indices, Ends: ends}
}

// NewSequential creates a non-indexed primitive over consecutive rows.
func NewSequential(kind PrimitiveKind, first, count int, ends ...int) *Primitive {
	return &Primitive{id: newID(), Kind: kind, FirstVertex: first, NumVertices: count, Ends: ends}
}

// ID returns the primitive's unique identifier.
func (p *Primitive) ID() uint64 { return p.id }

// Indexed reports whether the primitive carries an index list.
func (p *Primitive) Indexed() bool { return p.Indices != nil }

// VertexCount returns the number of vertex references.
func (p *Primitive) VertexCount() int {
	if p.Indexed() {
		return len(p.Indices)
	}
	return p.NumVertices
}

// Vertex returns the row referenced by position i.
func (p *Primitive) Vertex(i int) uint32 {
	if p.Indexed() {
		return p.Indices[i]
	}
	return uint32(p.FirstVertex + i)
}

// IndexFormat returns the narrowest index format that fits the indices.
func (p *Primitive) IndexFormat() gputypes.IndexFormat {
	for _, v := range p.Indices {
		if v > 0xffff {
			return gputypes.IndexFormatUint32
		}
	}
	return gputypes.IndexFormatUint16
}

// IndexBytes serializes the indices in IndexFormat, little-endian.
func (p *Primitive) IndexBytes() []byte {
	if p.IndexFormat() == gputypes.IndexFormatUint32 {
		out := make([]byte, len(p.Indices)*4)
		for i, v := range p.Indices {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		return out
	}
	out := make([]byte, len(p.Indices)*2)
	for i, v := range p.Indices {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// runs returns the [start, end) bounds of each run.
func (p *Primitive) runs() [][2]int {
	n := p.VertexCount()
	if len(p.Ends) == 0 {
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

// Validate checks the primitive against a vertex table of rows rows.
func (p *Primitive) Validate(rows int) error {
	n := p.VertexCount()
	if n == 0 {
		return fmt.Errorf("%w: %s has no vertices", ErrMalformedPrimitive, p.Kind)
	}
	switch p.Kind {
	case Triangles:
		if n%3 != 0 {
			return fmt.Errorf("%w: triangles with %d vertices", ErrMalformedPrimitive, n)
		}
	case Lines:
		if n%2 != 0 {
			return fmt.Errorf("%w: lines with %d vertices", ErrMalformedPrimitive, n)
		}
	case Points:
	case TriStrips, TriFans, LineStrips:
		prev := 0
		for _, end := range p.Ends {
			if end <= prev || end > n {
				return fmt.Errorf("%w: %s run end %d out of order", ErrMalformedPrimitive, p.Kind, end)
			}
			prev = end
		}
		if len(p.Ends) > 0 && prev != n {
			return fmt.Errorf("%w: %s runs cover %d of %d vertices", ErrMalformedPrimitive, p.Kind, prev, n)
		}
		for _, r := range p.runs() {
			if r[1]-r[0] < p.Kind.minRun() {
				return fmt.Errorf("%w: %s run of %d vertices", ErrMalformedPrimitive, p.Kind, r[1]-r[0])
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedPrimitive, p.Kind)
	}
	if !p.Kind.IsComposite() && len(p.Ends) > 0 {
		return fmt.Errorf("%w: %s cannot have runs", ErrMalformedPrimitive, p.Kind)
	}
	if !p.Indexed() {
		if p.FirstVertex < 0 || p.FirstVertex+n > rows {
			return fmt.Errorf("%w: vertices [%d,%d) outside %d rows", ErrMalformedPrimitive, p.FirstVertex, p.FirstVertex+n, rows)
		}
		return nil
	}
	for _, v := range p.Indices {
		if int(v) >= rows {
			return fmt.Errorf("%w: index %d outside %d rows", ErrMalformedPrimitive, v, rows)
		}
	}
	return nil
}

// Decompose rewrites a composite primitive as the equivalent list kind
// (triangle or line list). List kinds are returned unchanged.
// Strip winding is preserved by swapping every other triangle.
func (p *Primitive) Decompose() *Primitive {
	var out []uint32
	var kind PrimitiveKind
	switch p.Kind {
	case TriStrips:
		kind = Triangles
		for _, r := range p.runs() {
			for i := r[0]; i+2 < r[1]; i++ {
				a, b, c := p.Vertex(i), p.Vertex(i+1), p.Vertex(i+2)
				if (i-r[0])%2 == 1 {
					a, b = b, a
				}
				out = append(out, a, b, c)
			}
		}
	case TriFans:
		kind = Triangles
		for _, r := range p.runs() {
			hub := p.Vertex(r[0])
			for i := r[0] + 1; i+1 < r[1]; i++ {
				out = append(out, hub, p.Vertex(i), p.Vertex(i+1))
			}
		}
	case LineStrips:
		kind = Lines
		for _, r := range p.runs() {
			for i := r[0]; i+1 < r[1]; i++ {
				out = append(out, p.Vertex(i), p.Vertex(i+1))
			}
		}
	default:
		return p
	}
	if out == nil {
		out = []uint32{}
	}
	return NewIndexed(kind, out)
}
