package native

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsg/driver"
)

// Formats of the offscreen target.
const (
	targetColorFormat = gputypes.TextureFormatRGBA8Unorm
	targetDepthFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// renderTarget is the offscreen color and depth-stencil pair every scene
// renders into.
type renderTarget struct {
	width, height uint32

	color     hal.Texture
	colorView hal.TextureView
	depth     hal.Texture
	depthView hal.TextureView
}

func newRenderTarget(device hal.Device, width, height uint32) (*renderTarget, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ErrInvalidDimensions, width, height)
	}
	t := &renderTarget{width: width, height: height}
	var err error
	t.color, t.colorView, err = createTexture2D(device, "gsg_target_color", width, height, targetColorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		return nil, err
	}
	t.depth, t.depthView, err = createTexture2D(device, "gsg_target_depth", width, height, targetDepthFormat,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		t.destroy(device)
		return nil, err
	}
	return t, nil
}

func (t *renderTarget) destroy(device hal.Device) {
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
	}
	if t.depth != nil {
		device.DestroyTexture(t.depth)
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
	}
	if t.color != nil {
		device.DestroyTexture(t.color)
	}
}

// bounds clamps a display region rectangle to the target.
func (t *renderTarget) bounds(r image.Rectangle) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, int(t.width), int(t.height)))
}

// createTexture2D creates a single-mip 2D texture and its default view.
func createTexture2D(device hal.Device, label string, width, height uint32,
	format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, deviceErr("create texture "+label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, nil, deviceErr("create view "+label, err)
	}
	return tex, view, nil
}

// texturePixels returns the upload bytes of up in its target format.
// BGRA uploads swap the red and blue channels of the RGBA image.
func texturePixels(up *driver.TextureUpload) []byte {
	pix := up.Image.Pix
	if up.Format != gputypes.TextureFormatBGRA8Unorm {
		return pix
	}
	out := make([]byte, len(pix))
	for i := 0; i+3 < len(pix); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = pix[i+2], pix[i+1], pix[i], pix[i+3]
	}
	return out
}
