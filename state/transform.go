package state

import "github.com/go-gl/mathgl/mgl32"

// TransformState is an immutable 4x4 transform with a fingerprint.
// A nil *TransformState is the identity.
type TransformState struct {
	mat      mgl32.Mat4
	fp       uint64
	identity bool
}

var identity = &TransformState{mat: mgl32.Ident4(), fp: hashMat(mgl32.Ident4()), identity: true}

func hashMat(m mgl32.Mat4) uint64 {
	h := newHasher()
	h.mat4(m)
	return h.sum()
}

// Identity returns the shared identity transform.
func Identity() *TransformState { return identity }

// MakeMat wraps a matrix.
func MakeMat(m mgl32.Mat4) *TransformState {
	if m == mgl32.Ident4() {
		return identity
	}
	return &TransformState{mat: m, fp: hashMat(m)}
}

// MakePos returns a translation.
func MakePos(v mgl32.Vec3) *TransformState {
	return MakeMat(mgl32.Translate3D(v[0], v[1], v[2]))
}

func (t *TransformState) orIdentity() *TransformState {
	if t == nil {
		return identity
	}
	return t
}

// Mat returns the matrix.
func (t *TransformState) Mat() mgl32.Mat4 { return t.orIdentity().mat }

// IsIdentity reports whether the transform is the identity.
func (t *TransformState) IsIdentity() bool { return t.orIdentity().identity }

// Fingerprint returns the transform fingerprint.
func (t *TransformState) Fingerprint() uint64 { return t.orIdentity().fp }

// Equal reports identity or fingerprint equality.
func (t *TransformState) Equal(o *TransformState) bool {
	t, o = t.orIdentity(), o.orIdentity()
	return t == o || t.fp == o.fp
}

// Compose returns t followed by o, i.e. the matrix t * o applied to
// column vectors: o is applied first.
func (t *TransformState) Compose(o *TransformState) *TransformState {
	t, o = t.orIdentity(), o.orIdentity()
	if o.identity {
		return t
	}
	if t.identity {
		return o
	}
	return MakeMat(t.mat.Mul4(o.mat))
}

// Invert returns the inverse transform. A singular matrix inverts to the
// zero matrix.
func (t *TransformState) Invert() *TransformState {
	t = t.orIdentity()
	if t.identity {
		return t
	}
	return MakeMat(t.mat.Inv())
}

// XformPoint transforms a point.
func (t *TransformState) XformPoint(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, t.Mat())
}
