package pufferfish

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

type ebitenBuffer struct {
	kind     BufferKind
	capacity int
	verts    []Vertex
	inds     []uint32
}

// EbitenDevice implements Device on top of Ebitengine. Textures are
// *ebiten.Image values, buffers live on the CPU and each SubmitDraw becomes one
// DrawTriangles32 call on the bound target.
//
// Not safe for concurrent use; Ebitengine requires draws from the game loop.
type EbitenDevice struct {
	target   *ebiten.Image
	textures map[TextureHandle]*ebiten.Image
	buffers  map[BufferHandle]*ebitenBuffer
	nextTex  TextureHandle
	nextBuf  BufferHandle
	viewW    int
	viewH    int

	// scratch space reused across submissions
	scratch []ebiten.Vertex
	premul  []byte
}

// NewEbitenDevice returns a device with no target bound.
func NewEbitenDevice() *EbitenDevice {
	return &EbitenDevice{
		textures: make(map[TextureHandle]*ebiten.Image),
		buffers:  make(map[BufferHandle]*ebitenBuffer),
	}
}

// SetTarget binds the image that Clear and SubmitDraw render into. The game
// loop calls it with the screen image at the start of every Draw.
func (d *EbitenDevice) SetTarget(target *ebiten.Image) {
	d.target = target
}

// Image returns the ebiten image backing a texture, or nil.
func (d *EbitenDevice) Image(tex TextureHandle) *ebiten.Image {
	return d.textures[tex]
}

func (d *EbitenDevice) CreateTexture(width, height int) (TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("create texture %dx%d: %w", width, height, ErrInvalidRegion)
	}
	d.nextTex++
	d.textures[d.nextTex] = ebiten.NewImage(width, height)
	return d.nextTex, nil
}

// UploadTexture premultiplies the straight-alpha pixels and writes them with
// WritePixels, which expects premultiplied RGBA.
func (d *EbitenDevice) UploadTexture(tex TextureHandle, x, y, width, height int, pixels []byte) error {
	img, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("upload texture %d: unknown handle", tex)
	}
	if len(pixels) != width*height*4 {
		return fmt.Errorf("upload texture %d: got %d bytes, want %d", tex, len(pixels), width*height*4)
	}
	r := image.Rect(x, y, x+width, y+height)
	if !r.In(img.Bounds()) {
		return fmt.Errorf("upload texture %d: rect %v outside %v", tex, r, img.Bounds())
	}

	if cap(d.premul) < len(pixels) {
		d.premul = make([]byte, len(pixels))
	}
	buf := d.premul[:len(pixels)]
	for i := 0; i < len(pixels); i += 4 {
		a := uint32(pixels[i+3])
		buf[i+0] = uint8(uint32(pixels[i+0]) * a / 255)
		buf[i+1] = uint8(uint32(pixels[i+1]) * a / 255)
		buf[i+2] = uint8(uint32(pixels[i+2]) * a / 255)
		buf[i+3] = uint8(a)
	}

	img.SubImage(r).(*ebiten.Image).WritePixels(buf)
	return nil
}

func (d *EbitenDevice) DestroyTexture(tex TextureHandle) error {
	img, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("destroy texture %d: unknown handle", tex)
	}
	img.Deallocate()
	delete(d.textures, tex)
	return nil
}

func (d *EbitenDevice) CreateBuffer(kind BufferKind, capacity int) (BufferHandle, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("create %s buffer: capacity %d", kind, capacity)
	}
	d.nextBuf++
	d.buffers[d.nextBuf] = &ebitenBuffer{kind: kind, capacity: capacity}
	return d.nextBuf, nil
}

func (d *EbitenDevice) DestroyBuffer(buf BufferHandle) error {
	if _, ok := d.buffers[buf]; !ok {
		return fmt.Errorf("destroy buffer %d: unknown handle", buf)
	}
	delete(d.buffers, buf)
	return nil
}

func (d *EbitenDevice) WriteVertices(buf BufferHandle, verts []Vertex) error {
	b, err := d.buffer(buf, BufferVertex, len(verts))
	if err != nil {
		return err
	}
	b.verts = append(b.verts[:0], verts...)
	return nil
}

func (d *EbitenDevice) WriteIndices(buf BufferHandle, inds []uint32) error {
	b, err := d.buffer(buf, BufferIndex, len(inds))
	if err != nil {
		return err
	}
	b.inds = append(b.inds[:0], inds...)
	return nil
}

func (d *EbitenDevice) buffer(buf BufferHandle, kind BufferKind, n int) (*ebitenBuffer, error) {
	b, ok := d.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("write buffer %d: unknown handle", buf)
	}
	if b.kind != kind {
		return nil, fmt.Errorf("write buffer %d: is a %s buffer", buf, b.kind)
	}
	if n > b.capacity {
		return nil, fmt.Errorf("write buffer %d: %d elements exceed capacity %d", buf, n, b.capacity)
	}
	return b, nil
}

// SubmitDraw converts the vertex range to ebiten vertices (UVs scaled to the
// texture's pixel size) and issues a single DrawTriangles32.
func (d *EbitenDevice) SubmitDraw(call DrawCall) error {
	if d.target == nil {
		return fmt.Errorf("submit draw: no target bound")
	}
	vb, ok := d.buffers[call.Vertices]
	if !ok {
		return fmt.Errorf("submit draw: vertex buffer %d: unknown handle", call.Vertices)
	}
	ib, ok := d.buffers[call.Indices]
	if !ok {
		return fmt.Errorf("submit draw: index buffer %d: unknown handle", call.Indices)
	}
	img, ok := d.textures[call.Texture]
	if !ok {
		return fmt.Errorf("submit draw: texture %d: unknown handle", call.Texture)
	}
	end := call.VertexOffset + call.VertexCount
	if end > len(vb.verts) || call.IndexCount > len(ib.inds) {
		return fmt.Errorf("submit draw: range exceeds written buffer data")
	}

	size := img.Bounds().Size()
	tw, th := float32(size.X), float32(size.Y)

	d.scratch = d.scratch[:0]
	for _, v := range vb.verts[call.VertexOffset:end] {
		d.scratch = append(d.scratch, ebiten.Vertex{
			DstX:   v.X,
			DstY:   v.Y,
			SrcX:   v.U * tw,
			SrcY:   v.V * th,
			ColorR: v.R,
			ColorG: v.G,
			ColorB: v.B,
			ColorA: v.A,
		})
	}

	var triOp ebiten.DrawTrianglesOptions
	triOp.Blend = call.Pipeline.Blend.EbitenBlend()
	triOp.ColorScaleMode = ebiten.ColorScaleModeStraightAlpha

	d.target.DrawTriangles32(d.scratch, ib.inds[:call.IndexCount], img, &triOp)
	return nil
}

func (d *EbitenDevice) Clear(c Color) error {
	if d.target == nil {
		return fmt.Errorf("clear: no target bound")
	}
	d.target.Fill(c.toNRGBA())
	return nil
}

// SetViewport records the logical size. Ebitengine scales the screen image to
// the window itself, so nothing is issued.
func (d *EbitenDevice) SetViewport(width, height int) error {
	d.viewW, d.viewH = width, height
	return nil
}
