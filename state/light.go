package state

import "github.com/go-gl/mathgl/mgl32"

// Light is a light source. Implementations are PointLight,
// DirectionalLight, SpotLight and AmbientLight.
type Light interface {
	LightName() string
	LightColor() mgl32.Vec4
	// IsAmbient reports whether the light contributes only ambient color
	// and needs no hardware light slot.
	IsAmbient() bool
	writeHash(h *hasher)
}

// LightFingerprint returns the fingerprint of a light's parameters.
func LightFingerprint(l Light) uint64 {
	h := newHasher()
	l.writeHash(h)
	return h.sum()
}

// PointLight radiates from Position in all directions.
type PointLight struct {
	Name        string
	Color       mgl32.Vec4
	Position    mgl32.Vec3
	Attenuation mgl32.Vec3 // constant, linear, quadratic
}

func (l PointLight) LightName() string      { return l.Name }
func (l PointLight) LightColor() mgl32.Vec4 { return l.Color }
func (PointLight) IsAmbient() bool          { return false }
func (l PointLight) writeHash(h *hasher) {
	h.u64(1)
	h.str(l.Name)
	h.vec4(l.Color)
	h.vec3(l.Position)
	h.vec3(l.Attenuation)
}

// DirectionalLight shines along Direction from infinitely far away.
type DirectionalLight struct {
	Name      string
	Color     mgl32.Vec4
	Direction mgl32.Vec3
}

func (l DirectionalLight) LightName() string      { return l.Name }
func (l DirectionalLight) LightColor() mgl32.Vec4 { return l.Color }
func (DirectionalLight) IsAmbient() bool          { return false }
func (l DirectionalLight) writeHash(h *hasher) {
	h.u64(2)
	h.str(l.Name)
	h.vec4(l.Color)
	h.vec3(l.Direction)
}

// SpotLight is a point light restricted to a cone.
type SpotLight struct {
	Name        string
	Color       mgl32.Vec4
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Exponent    float32
	CutoffAngle float32 // degrees
	Attenuation mgl32.Vec3
}

func (l SpotLight) LightName() string      { return l.Name }
func (l SpotLight) LightColor() mgl32.Vec4 { return l.Color }
func (SpotLight) IsAmbient() bool          { return false }
func (l SpotLight) writeHash(h *hasher) {
	h.u64(3)
	h.str(l.Name)
	h.vec4(l.Color)
	h.vec3(l.Position)
	h.vec3(l.Direction)
	h.f32(l.Exponent)
	h.f32(l.CutoffAngle)
	h.vec3(l.Attenuation)
}

// AmbientLight adds a constant color to every lit surface.
type AmbientLight struct {
	Name  string
	Color mgl32.Vec4
}

func (l AmbientLight) LightName() string      { return l.Name }
func (l AmbientLight) LightColor() mgl32.Vec4 { return l.Color }
func (AmbientLight) IsAmbient() bool          { return true }
func (l AmbientLight) writeHash(h *hasher) {
	h.u64(4)
	h.str(l.Name)
	h.vec4(l.Color)
}

// LightAttrib is the ordered set of active lights. Order is scene-graph
// order and decides which lights win when slots run out.
type LightAttrib struct {
	Lights []Light
}

func (LightAttrib) Slot() Slot { return SlotLight }
func (a LightAttrib) writeHash(h *hasher) {
	h.u64(uint64(len(a.Lights)))
	for _, l := range a.Lights {
		l.writeHash(h)
	}
}

// ClipPlane clips geometry on the negative side of Plane (a, b, c, d)
// where ax + by + cz + d >= 0 is kept. The plane is in world space.
type ClipPlane struct {
	Name  string
	Plane mgl32.Vec4
}

// Fingerprint returns the fingerprint of the plane's parameters.
func (p ClipPlane) Fingerprint() uint64 {
	h := newHasher()
	h.str(p.Name)
	h.vec4(p.Plane)
	return h.sum()
}

// ClipPlaneAttrib is the ordered set of active clip planes.
type ClipPlaneAttrib struct {
	Planes []ClipPlane
}

func (ClipPlaneAttrib) Slot() Slot { return SlotClipPlane }
func (a ClipPlaneAttrib) writeHash(h *hasher) {
	h.u64(uint64(len(a.Planes)))
	for _, p := range a.Planes {
		h.str(p.Name)
		h.vec4(p.Plane)
	}
}
