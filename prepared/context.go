package prepared

import "fmt"

// Kind is a resource kind.
type Kind uint8

const (
	KindTexture Kind = iota
	KindGeom
	KindShader
	KindVertexBuffer
	KindIndexBuffer
	KindQuery

	NumKinds
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindGeom:
		return "geom"
	case KindShader:
		return "shader"
	case KindVertexBuffer:
		return "vertex-buffer"
	case KindIndexBuffer:
		return "index-buffer"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Context references a prepared resource. The zero Context is the null
// context returned when preparation fails.
type Context struct {
	kind  Kind
	index uint32
	gen   uint32
}

// Valid reports whether c was returned by a successful preparation. A valid
// context may still be stale once released.
func (c Context) Valid() bool { return c.gen != 0 }

// Kind returns the resource kind.
func (c Context) Kind() Kind { return c.kind }

// String formats c for logs.
func (c Context) String() string {
	if !c.Valid() {
		return "null"
	}
	return fmt.Sprintf("%s#%d.%d", c.kind, c.index, c.gen)
}
