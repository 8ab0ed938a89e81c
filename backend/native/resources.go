package native

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/gobj"
)

type resourceKind uint8

const (
	kindTexture resourceKind = iota + 1
	kindShader
	kindVertexBuffer
	kindIndexBuffer
)

func (k resourceKind) String() string {
	switch k {
	case kindTexture:
		return "texture"
	case kindShader:
		return "shader"
	case kindVertexBuffer:
		return "vertex buffer"
	case kindIndexBuffer:
		return "index buffer"
	default:
		return "unknown"
	}
}

// resource is one device object behind a driver.Handle.
type resource struct {
	kind resourceKind

	texture hal.Texture
	view    hal.TextureView
	// pixels is the uploaded image, kept for ExtractTextureData.
	pixels *image.RGBA

	module hal.ShaderModule
	shader *gobj.Shader

	buffer hal.Buffer
	format gputypes.IndexFormat
}

func (r *resource) destroy(device hal.Device) {
	switch r.kind {
	case kindTexture:
		device.DestroyTextureView(r.view)
		device.DestroyTexture(r.texture)
	case kindShader:
		device.DestroyShaderModule(r.module)
	case kindVertexBuffer, kindIndexBuffer:
		device.DestroyBuffer(r.buffer)
	}
}

// resourceTable maps handles to device objects. Handles are never reused.
type resourceTable struct {
	mu    sync.RWMutex
	next  driver.Handle
	items map[driver.Handle]*resource
}

func newResourceTable() *resourceTable {
	return &resourceTable{items: make(map[driver.Handle]*resource)}
}

func (t *resourceTable) add(r *resource) driver.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.items[t.next] = r
	return t.next
}

// get returns the resource of kind behind h, or nil.
func (t *resourceTable) get(h driver.Handle, kind resourceKind) *resource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r := t.items[h]
	if r == nil || r.kind != kind {
		return nil
	}
	return r
}

// remove detaches and returns the resource of kind behind h, or nil.
func (t *resourceTable) remove(h driver.Handle, kind resourceKind) *resource {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.items[h]
	if r == nil || r.kind != kind {
		return nil
	}
	delete(t.items, h)
	return r
}

func (t *resourceTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

func (t *resourceTable) destroyAll(device hal.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, r := range t.items {
		r.destroy(device)
		delete(t.items, h)
	}
}

// LiveResources returns the number of prepared objects not yet released.
func (b *Backend) LiveResources() int { return b.res.len() }

// release destroys the resource of kind behind h. Unknown handles are
// ignored.
func (b *Backend) release(h driver.Handle, kind resourceKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.res.remove(h, kind)
	if r == nil {
		b.logger.Debug("native: release of unknown handle", "kind", kind.String(), "handle", uint64(h))
		return
	}
	if b.device != nil {
		r.destroy(b.device)
	}
}

// PrepareTexture implements driver.Resources.
func (b *Backend) PrepareTexture(up *driver.TextureUpload) (driver.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return driver.InvalidHandle, ErrNotInitialized
	}
	if up == nil || up.Image == nil {
		return driver.InvalidHandle, fmt.Errorf("%w: no image", ErrInvalidDimensions)
	}
	if up.Compress != gobj.CompressionDefault && up.Compress != gobj.CompressionOff {
		return driver.InvalidHandle, fmt.Errorf("%w: compression %s", driver.ErrUnsupported, up.Compress)
	}
	size := up.Image.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 {
		return driver.InvalidHandle, fmt.Errorf("%w: texture %dx%d", ErrInvalidDimensions, size.X, size.Y)
	}
	format := up.Format
	if format != gputypes.TextureFormatBGRA8Unorm {
		format = gputypes.TextureFormatRGBA8Unorm
	}

	label := "gsg_texture"
	if up.Texture != nil && up.Texture.Name() != "" {
		label = up.Texture.Name()
	}
	w, h := uint32(size.X), uint32(size.Y)
	tex, view, err := createTexture2D(b.device, label, w, h, format,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst|gputypes.TextureUsageCopySrc)
	if err != nil {
		return driver.InvalidHandle, err
	}
	err = b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		texturePixels(up),
		&hal.ImageDataLayout{BytesPerRow: uint32(up.Image.Stride), RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		b.device.DestroyTextureView(view)
		b.device.DestroyTexture(tex)
		return driver.InvalidHandle, deviceErr("write texture", err)
	}

	pixels := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		src := up.Image.Pix[y*up.Image.Stride : y*up.Image.Stride+size.X*4]
		copy(pixels.Pix[y*pixels.Stride:], src)
	}
	return b.res.add(&resource{kind: kindTexture, texture: tex, view: view, pixels: pixels}), nil
}

func (b *Backend) ReleaseTexture(h driver.Handle) { b.release(h, kindTexture) }

// ExtractTextureData implements driver.Resources from the copy kept at
// upload time.
func (b *Backend) ExtractTextureData(h driver.Handle) (*image.RGBA, error) {
	r := b.res.get(h, kindTexture)
	if r == nil {
		return nil, driver.ErrInvalidHandle
	}
	out := image.NewRGBA(r.pixels.Bounds())
	copy(out.Pix, r.pixels.Pix)
	return out, nil
}

// PrepareShader implements driver.Resources by compiling the WGSL source.
func (b *Backend) PrepareShader(sh *gobj.Shader) (driver.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return driver.InvalidHandle, ErrNotInitialized
	}
	module, err := createShaderModule(b.device, sh.Name, sh.Source)
	if err != nil {
		return driver.InvalidHandle, err
	}
	return b.res.add(&resource{kind: kindShader, module: module, shader: sh}), nil
}

func (b *Backend) ReleaseShader(h driver.Handle) { b.release(h, kindShader) }

// PrepareGeom implements driver.Resources. Geoms are drawn from vertex and
// index buffers; there is no retained geom object.
func (b *Backend) PrepareGeom(*gobj.Geom) (driver.Handle, error) {
	return driver.InvalidHandle, driver.ErrUnsupported
}

func (b *Backend) ReleaseGeom(driver.Handle) {}

// PrepareVertexBuffer implements driver.Resources.
func (b *Backend) PrepareVertexBuffer(a *gobj.VertexArray) (driver.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return driver.InvalidHandle, ErrNotInitialized
	}
	buf, err := b.uploadBuffer("gsg_vertices", a.Bytes(), gputypes.BufferUsageVertex)
	if err != nil {
		return driver.InvalidHandle, err
	}
	return b.res.add(&resource{kind: kindVertexBuffer, buffer: buf}), nil
}

func (b *Backend) ReleaseVertexBuffer(h driver.Handle) { b.release(h, kindVertexBuffer) }

// PrepareIndexBuffer implements driver.Resources.
func (b *Backend) PrepareIndexBuffer(p *gobj.Primitive) (driver.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device == nil {
		return driver.InvalidHandle, ErrNotInitialized
	}
	if !p.Indexed() {
		return driver.InvalidHandle, fmt.Errorf("%w: sequential primitive has no indices", driver.ErrUnsupported)
	}
	buf, err := b.uploadBuffer("gsg_indices", p.IndexBytes(), gputypes.BufferUsageIndex)
	if err != nil {
		return driver.InvalidHandle, err
	}
	return b.res.add(&resource{kind: kindIndexBuffer, buffer: buf, format: p.IndexFormat()}), nil
}

func (b *Backend) ReleaseIndexBuffer(h driver.Handle) { b.release(h, kindIndexBuffer) }

// uploadBuffer creates a buffer of usage holding data. Sizes are padded to
// the 4-byte copy alignment. Caller must hold b.mu.
func (b *Backend) uploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	size := (uint64(len(data)) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, deviceErr("create "+label, err)
	}
	if len(data)%4 != 0 {
		padded := make([]byte, size)
		copy(padded, data)
		data = padded
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		b.device.DestroyBuffer(buf)
		return nil, deviceErr("write "+label, err)
	}
	return buf, nil
}
