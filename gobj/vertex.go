package gobj

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// Well-known column names.
const (
	ColumnVertex   = "vertex"
	ColumnNormal   = "normal"
	ColumnColor    = "color"
	ColumnTexcoord = "texcoord"
)

// ErrUnsupportedVertexFormat is returned for vertex formats outside the float32 family.
var ErrUnsupportedVertexFormat = errors.New("gobj: unsupported vertex format")

// Column describes one attribute inside an interleaved array.
type Column struct {
	Name   string
	Format gputypes.VertexFormat
	Offset uint32
}

// Components returns the number of float32 components in the column.
func (c Column) Components() int {
	switch c.Format {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	case gputypes.VertexFormatFloat32x4:
		return 4
	default:
		return 0
	}
}

// ArrayFormat is the layout of one interleaved vertex array.
type ArrayFormat struct {
	Columns []Column
	Stride  uint32
}

// NewArrayFormat packs the given columns tightly in order, assigning offsets.
func NewArrayFormat(columns ...Column) (*ArrayFormat, error) {
	f := &ArrayFormat{Columns: make([]Column, len(columns))}
	for i, c := range columns {
		n := c.Components()
		if n == 0 {
			return nil, fmt.Errorf("%w: column %q", ErrUnsupportedVertexFormat, c.Name)
		}
		c.Offset = f.Stride
		f.Columns[i] = c
		f.Stride += uint32(n) * 4
	}
	return f, nil
}

// Column returns the index of the named column, or -1.
func (f *ArrayFormat) Column(name string) int {
	for i, c := range f.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// VertexArray is a block of interleaved vertex rows.
// It is not safe for concurrent mutation.
type VertexArray struct {
	counter

	id     uint64
	format *ArrayFormat
	data   []byte
}

// NewVertexArray allocates rows zeroed rows of the given format.
func NewVertexArray(format *ArrayFormat, rows int) *VertexArray {
	return &VertexArray{
		id:     newID(),
		format: format,
		data:   make([]byte, rows*int(format.Stride)),
	}
}

// ID returns the array's unique identifier.
func (a *VertexArray) ID() uint64 { return a.id }

// Format returns the array layout.
func (a *VertexArray) Format() *ArrayFormat { return a.format }

// Rows returns the number of vertex rows.
func (a *VertexArray) Rows() int {
	if a.format.Stride == 0 {
		return 0
	}
	return len(a.data) / int(a.format.Stride)
}

// Bytes returns the raw interleaved data. Callers must not modify it.
func (a *VertexArray) Bytes() []byte { return a.data }

// ReadVec4 reads a column of one row, padding missing components with
// zero and a missing w with one.
func (a *VertexArray) ReadVec4(row, column int) mgl32.Vec4 {
	c := a.format.Columns[column]
	base := row*int(a.format.Stride) + int(c.Offset)
	v := mgl32.Vec4{0, 0, 0, 1}
	for i := 0; i < c.Components(); i++ {
		bits := binary.LittleEndian.Uint32(a.data[base+i*4:])
		v[i] = math.Float32frombits(bits)
	}
	return v
}

// WriteVec4 writes as many components of v as the column holds.
func (a *VertexArray) WriteVec4(row, column int, v mgl32.Vec4) {
	c := a.format.Columns[column]
	base := row*int(a.format.Stride) + int(c.Offset)
	for i := 0; i < c.Components(); i++ {
		binary.LittleEndian.PutUint32(a.data[base+i*4:], math.Float32bits(v[i]))
	}
	a.MarkModified()
}

// Clone returns a deep copy with a fresh identity.
func (a *VertexArray) Clone() *VertexArray {
	data := make([]byte, len(a.data))
	copy(data, a.data)
	return &VertexArray{id: newID(), format: a.format, data: data}
}

// VertexData groups the arrays that together describe a set of vertices.
// All arrays hold the same number of rows.
type VertexData struct {
	counter

	id     uint64
	Name   string
	Arrays []*VertexArray
}

// NewVertexData wraps arrays into a vertex data object.
func NewVertexData(name string, arrays ...*VertexArray) *VertexData {
	return &VertexData{id: newID(), Name: name, Arrays: arrays}
}

// ID returns the data's unique identifier.
func (d *VertexData) ID() uint64 { return d.id }

// Rows returns the vertex count.
func (d *VertexData) Rows() int {
	if len(d.Arrays) == 0 {
		return 0
	}
	return d.Arrays[0].Rows()
}

// Version combines the data's own counter with its arrays' counters.
func (d *VertexData) Version() uint64 {
	v := d.counter.Modified()
	for _, a := range d.Arrays {
		v += a.Modified()
	}
	return v
}

// FindColumn locates a named column across all arrays.
func (d *VertexData) FindColumn(name string) (array, column int, ok bool) {
	for i, a := range d.Arrays {
		if c := a.format.Column(name); c >= 0 {
			return i, c, true
		}
	}
	return -1, -1, false
}

// Clone returns a deep copy with fresh identities.
func (d *VertexData) Clone() *VertexData {
	arrays := make([]*VertexArray, len(d.Arrays))
	for i, a := range d.Arrays {
		arrays[i] = a.Clone()
	}
	return NewVertexData(d.Name, arrays...)
}
