package gobj

// Geom is vertex data plus the primitives that draw it.
type Geom struct {
	counter

	id         uint64
	Name       string
	Data       *VertexData
	Primitives []*Primitive
}

// NewGeom creates a geom over data.
func NewGeom(name string, data *VertexData, prims ...*Primitive) *Geom {
	return &Geom{id: newID(), Name: name, Data: data, Primitives: prims}
}

// ID returns the geom's unique identifier.
func (g *Geom) ID() uint64 { return g.id }

// AddPrimitive appends a primitive and marks the geom modified.
func (g *Geom) AddPrimitive(p *Primitive) {
	g.Primitives = append(g.Primitives, p)
	g.MarkModified()
}
