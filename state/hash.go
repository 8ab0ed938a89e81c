package state

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// hasher feeds typed values into an xxhash digest.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher() *hasher {
	return &hasher{d: xxhash.New()}
}

func (h *hasher) u64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.d.Write(h.buf[:])
}

func (h *hasher) i64(v int64) { h.u64(uint64(v)) }

func (h *hasher) f32(v float32) { h.u64(uint64(math.Float32bits(v))) }

func (h *hasher) bool(b bool) {
	if b {
		h.u64(1)
		return
	}
	h.u64(0)
}

func (h *hasher) str(s string) {
	h.u64(uint64(len(s)))
	_, _ = h.d.Write([]byte(s))
}

func (h *hasher) vec3(v mgl32.Vec3) {
	for _, c := range v {
		h.f32(c)
	}
}

func (h *hasher) vec4(v mgl32.Vec4) {
	for _, c := range v {
		h.f32(c)
	}
}

func (h *hasher) mat4(m mgl32.Mat4) {
	for _, c := range m {
		h.f32(c)
	}
}

func (h *hasher) sum() uint64 { return h.d.Sum64() }

// Combine mixes several fingerprints into one, order-sensitively.
func Combine(parts ...uint64) uint64 {
	h := newHasher()
	for _, p := range parts {
		h.u64(p)
	}
	return h.sum()
}

// HashVec4 fingerprints a vector.
func HashVec4(v mgl32.Vec4) uint64 {
	h := newHasher()
	h.vec4(v)
	return h.sum()
}
