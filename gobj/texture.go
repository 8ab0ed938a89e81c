package gobj

import (
	"image"
	"image/draw"
	"sync"

	"github.com/gogpu/gputypes"
)

// TextureType is the dimensionality of a texture.
type TextureType uint8

const (
	Texture2D TextureType = iota
	Texture1D
	Texture3D
	TextureCubeMap
)

// String returns the texture type name.
func (t TextureType) String() string {
	switch t {
	case Texture2D:
		return "2d"
	case Texture1D:
		return "1d"
	case Texture3D:
		return "3d"
	case TextureCubeMap:
		return "cube-map"
	default:
		return "unknown"
	}
}

// CompressionMode requests a compressed upload format.
// Backends advertise the modes they accept as a bitmask of 1<<mode.
type CompressionMode uint8

const (
	CompressionDefault CompressionMode = iota
	CompressionOff
	CompressionOn
	CompressionDXT1
	CompressionDXT3
	CompressionDXT5
	CompressionETC2
	CompressionASTC
)

// String returns the compression mode name.
func (c CompressionMode) String() string {
	switch c {
	case CompressionDefault:
		return "default"
	case CompressionOff:
		return "off"
	case CompressionOn:
		return "on"
	case CompressionDXT1:
		return "dxt1"
	case CompressionDXT3:
		return "dxt3"
	case CompressionDXT5:
		return "dxt5"
	case CompressionETC2:
		return "etc2"
	case CompressionASTC:
		return "astc"
	default:
		return "unknown"
	}
}

// Bit returns the mode's bit in a compression bitmask.
func (c CompressionMode) Bit() uint32 {
	return 1 << c
}

// Texture is a source image plus the upload parameters a backend needs.
//
// Texture is safe for concurrent use: the image may be replaced from any
// goroutine while a guardian prepares it on its own goroutine.
type Texture struct {
	counter

	id   uint64
	name string

	mu          sync.RWMutex
	img         *image.RGBA
	format      gputypes.TextureFormat
	typ         TextureType
	compression CompressionMode
	mipmaps     bool
}

// NewTexture creates a 2D RGBA8 texture from img. A nil img yields a
// texture with no pixels, which fails preparation until SetImage is called.
func NewTexture(name string, img image.Image) *Texture {
	t := &Texture{
		id:     newID(),
		name:   name,
		format: gputypes.TextureFormatRGBA8Unorm,
		typ:    Texture2D,
	}
	if img != nil {
		t.img = toRGBA(img)
	}
	return t
}

// ID returns the texture's unique identifier.
func (t *Texture) ID() uint64 { return t.id }

// Name returns the texture's debug name.
func (t *Texture) Name() string { return t.name }

// Image returns the current pixels. The returned image must not be modified.
func (t *Texture) Image() *image.RGBA {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.img
}

// SetImage replaces the pixels and marks the texture modified.
func (t *Texture) SetImage(img image.Image) {
	var rgba *image.RGBA
	if img != nil {
		rgba = toRGBA(img)
	}
	t.mu.Lock()
	t.img = rgba
	t.mu.Unlock()
	t.MarkModified()
}

// Size returns the image dimensions, or zeros when there is no image.
func (t *Texture) Size() (width, height int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.img == nil {
		return 0, 0
	}
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Format returns the requested GPU format.
func (t *Texture) Format() gputypes.TextureFormat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.format
}

// SetFormat changes the requested GPU format.
func (t *Texture) SetFormat(f gputypes.TextureFormat) {
	t.mu.Lock()
	t.format = f
	t.mu.Unlock()
	t.MarkModified()
}

// Type returns the texture dimensionality.
func (t *Texture) Type() TextureType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.typ
}

// SetType changes the texture dimensionality.
func (t *Texture) SetType(typ TextureType) {
	t.mu.Lock()
	t.typ = typ
	t.mu.Unlock()
	t.MarkModified()
}

// Compression returns the requested compression mode.
func (t *Texture) Compression() CompressionMode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.compression
}

// SetCompression changes the requested compression mode.
func (t *Texture) SetCompression(c CompressionMode) {
	t.mu.Lock()
	t.compression = c
	t.mu.Unlock()
	t.MarkModified()
}

// Mipmaps reports whether mipmaps were requested.
func (t *Texture) Mipmaps() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mipmaps
}

// SetMipmaps requests or drops mipmap generation.
func (t *Texture) SetMipmaps(on bool) {
	t.mu.Lock()
	t.mipmaps = on
	t.mu.Unlock()
	t.MarkModified()
}

// StoreImage replaces the pixels without bumping the modification counter.
// Used when pixels are read back from an already-uploaded copy.
func (t *Texture) StoreImage(img *image.RGBA) {
	t.mu.Lock()
	t.img = img
	t.mu.Unlock()
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
