package view

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// LensKind selects the projection.
type LensKind uint8

const (
	Perspective LensKind = iota
	Orthographic
)

// StereoChannel selects the eye a scene is rendered for.
type StereoChannel uint8

const (
	StereoMono StereoChannel = iota
	StereoLeft
	StereoRight
)

// String returns the channel name.
func (c StereoChannel) String() string {
	switch c {
	case StereoLeft:
		return "left"
	case StereoRight:
		return "right"
	default:
		return "mono"
	}
}

// ErrDegenerateLens is returned for a lens that cannot produce a projection.
var ErrDegenerateLens = errors.New("view: degenerate lens")

// Lens describes a camera projection. Projections follow the y-up,
// looking-down-negative-z convention; a guardian converts into it from the
// scene's coordinate system.
type Lens struct {
	Kind LensKind

	FovY   float32 // perspective, degrees
	Aspect float32 // perspective, width / height

	Left, Right, Bottom, Top float32 // orthographic

	Near, Far float32

	// InterocularDistance separates the two eyes for stereo channels.
	InterocularDistance float32
}

// NewPerspective returns a perspective lens.
func NewPerspective(fovY, aspect, near, far float32) *Lens {
	return &Lens{Kind: Perspective, FovY: fovY, Aspect: aspect, Near: near, Far: far}
}

// NewOrthographic returns an orthographic lens.
func NewOrthographic(left, right, bottom, top, near, far float32) *Lens {
	return &Lens{Kind: Orthographic, Left: left, Right: right, Bottom: bottom, Top: top, Near: near, Far: far}
}

// Validate rejects lenses that would produce a singular projection.
func (l *Lens) Validate() error {
	if l == nil {
		return ErrDegenerateLens
	}
	if l.Near == l.Far {
		return ErrDegenerateLens
	}
	switch l.Kind {
	case Perspective:
		if l.FovY <= 0 || l.FovY >= 180 || l.Aspect <= 0 || l.Near <= 0 {
			return ErrDegenerateLens
		}
	case Orthographic:
		if l.Left == l.Right || l.Bottom == l.Top {
			return ErrDegenerateLens
		}
	default:
		return ErrDegenerateLens
	}
	return nil
}

// ProjectionMat returns the projection for a stereo channel. Stereo
// channels shift the eye by half the interocular distance.
func (l *Lens) ProjectionMat(ch StereoChannel) (mgl32.Mat4, error) {
	if err := l.Validate(); err != nil {
		return mgl32.Mat4{}, err
	}
	var proj mgl32.Mat4
	if l.Kind == Perspective {
		proj = mgl32.Perspective(mgl32.DegToRad(l.FovY), l.Aspect, l.Near, l.Far)
	} else {
		proj = mgl32.Ortho(l.Left, l.Right, l.Bottom, l.Top, l.Near, l.Far)
	}
	half := l.InterocularDistance / 2
	switch ch {
	case StereoLeft:
		proj = proj.Mul4(mgl32.Translate3D(half, 0, 0))
	case StereoRight:
		proj = proj.Mul4(mgl32.Translate3D(-half, 0, 0))
	}
	return proj, nil
}
