package gsg

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
)

// conformTexture adapts tex to what the backend can hold: a supported
// type, dimensions within the limit for that type and power-of-two where
// required, a supported format and compression.
func (g *Guardian) conformTexture(tex *gobj.Texture) (*driver.TextureUpload, error) {
	caps := g.caps.raw()
	img := tex.Image()
	if img == nil {
		return nil, fmt.Errorf("%w: %q has no image", ErrUnsupportedTexture, tex.Name())
	}

	typ := tex.Type()
	switch {
	case typ == gobj.Texture3D && !caps.Supports3DTexture,
		typ == gobj.TextureCubeMap && !caps.SupportsCubeMap:
		return nil, fmt.Errorf("%w: %q is %s", ErrUnsupportedTexture, tex.Name(), typ)
	}

	mode := g.cfg.TexturesPower2
	if mode == PowerOf2None && !caps.SupportsTexNonPow2 {
		mode = PowerOf2Down
	}
	limit := maxDimension(caps, typ)
	b := img.Bounds()
	w := conformSize(b.Dx(), limit, mode)
	h := conformSize(b.Dy(), limit, mode)
	if w != b.Dx() || h != b.Dy() {
		g.logger().Debug("gsg: texture rescaled", "texture", tex.Name(),
			"from", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), "to", fmt.Sprintf("%dx%d", w, h))
		img = rescale(img, w, h)
	}

	format := tex.Format()
	if !caps.SupportsTextureFormat(format) {
		g.logger().Debug("gsg: texture format unsupported", "texture", tex.Name(), "format", format)
		format = gputypes.TextureFormatRGBA8Unorm
	}
	compress := tex.Compression()
	if !caps.SupportsCompression(compress) {
		compress = gobj.CompressionOff
	}

	return &driver.TextureUpload{
		Texture:  tex,
		Image:    img,
		Format:   format,
		Compress: compress,
		Mipmaps:  tex.Mipmaps(),
	}, nil
}

// maxDimension returns the size limit for textures of typ, falling back to
// the 2D limit where the backend reported none.
func maxDimension(caps *driver.Caps, typ gobj.TextureType) int {
	switch {
	case typ == gobj.Texture3D && caps.Max3DTextureDimension > 0:
		return caps.Max3DTextureDimension
	case typ == gobj.TextureCubeMap && caps.MaxCubeMapDimension > 0:
		return caps.MaxCubeMapDimension
	default:
		return caps.MaxTextureDimension
	}
}

// conformSize applies the power-of-two mode and the size limit to one
// dimension.
func conformSize(n, limit int, mode PowerOf2Mode) int {
	if n < 1 {
		return 1
	}
	switch mode {
	case PowerOf2Down:
		n = floorPow2(n)
	case PowerOf2Up:
		n = ceilPow2(n)
	}
	if limit > 0 && n > limit {
		n = limit
		if mode != PowerOf2None {
			n = floorPow2(n)
		}
	}
	return n
}

func floorPow2(n int) int { return 1 << (bits.Len(uint(n)) - 1) }

func ceilPow2(n int) int {
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}

func rescale(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
