package view

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// CoordinateSystem names an axis convention.
type CoordinateSystem uint8

const (
	CSDefault CoordinateSystem = iota // resolves to CSZupRight
	CSZupRight
	CSYupRight
	CSZupLeft
	CSYupLeft
)

// Resolve maps CSDefault to the concrete default system.
func (cs CoordinateSystem) Resolve() CoordinateSystem {
	if cs == CSDefault {
		return CSZupRight
	}
	return cs
}

// String returns the configuration spelling of the system.
func (cs CoordinateSystem) String() string {
	switch cs {
	case CSDefault:
		return "default"
	case CSZupRight:
		return "zup-right"
	case CSYupRight:
		return "yup-right"
	case CSZupLeft:
		return "zup-left"
	case CSYupLeft:
		return "yup-left"
	default:
		return "invalid"
	}
}

// ParseCoordinateSystem parses a configuration spelling such as "zup-right".
func ParseCoordinateSystem(s string) (CoordinateSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return CSDefault, nil
	case "zup-right", "zup", "z-up":
		return CSZupRight, nil
	case "yup-right", "yup", "y-up":
		return CSYupRight, nil
	case "zup-left":
		return CSZupLeft, nil
	case "yup-left":
		return CSYupLeft, nil
	default:
		return CSDefault, fmt.Errorf("view: unknown coordinate system %q", s)
	}
}

// basis returns the right, forward and up axes of cs.
func (cs CoordinateSystem) basis() mgl32.Mat3 {
	switch cs.Resolve() {
	case CSYupRight:
		return mgl32.Mat3FromCols(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	case CSZupLeft:
		return mgl32.Mat3FromCols(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1})
	case CSYupLeft:
		return mgl32.Mat3FromCols(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0})
	default:
		return mgl32.Mat3FromCols(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1})
	}
}

// Forward returns the forward axis of cs.
func (cs CoordinateSystem) Forward() mgl32.Vec3 { return cs.basis().Col(1) }

// Up returns the up axis of cs.
func (cs CoordinateSystem) Up() mgl32.Vec3 { return cs.basis().Col(2) }

// Right returns the right axis of cs.
func (cs CoordinateSystem) Right() mgl32.Vec3 { return cs.basis().Col(0) }

// IsRightHanded reports the handedness of cs.
func (cs CoordinateSystem) IsRightHanded() bool {
	b := cs.basis()
	return b.Col(0).Cross(b.Col(1)).Dot(b.Col(2)) > 0
}

// ConvertMat returns the matrix taking coordinates in from to coordinates
// in to, so that right, forward and up keep their meaning.
func ConvertMat(from, to CoordinateSystem) mgl32.Mat4 {
	from, to = from.Resolve(), to.Resolve()
	if from == to {
		return mgl32.Ident4()
	}
	// Both bases are orthonormal, so the inverse is the transpose.
	return to.basis().Mul3(from.basis().Transpose()).Mat4()
}
