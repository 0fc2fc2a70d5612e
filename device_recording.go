package pufferfish

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"
)

// DeviceOpKind identifies a recorded device operation.
type DeviceOpKind uint8

const (
	OpCreateTexture DeviceOpKind = iota
	OpUploadTexture
	OpDestroyTexture
	OpCreateBuffer
	OpDestroyBuffer
	OpWriteVertices
	OpWriteIndices
	OpSubmitDraw
	OpClear
	OpSetViewport
)

var deviceOpNames = [...]string{
	OpCreateTexture:  "create_texture",
	OpUploadTexture:  "upload_texture",
	OpDestroyTexture: "destroy_texture",
	OpCreateBuffer:   "create_buffer",
	OpDestroyBuffer:  "destroy_buffer",
	OpWriteVertices:  "write_vertices",
	OpWriteIndices:   "write_indices",
	OpSubmitDraw:     "submit_draw",
	OpClear:          "clear",
	OpSetViewport:    "set_viewport",
}

func (k DeviceOpKind) String() string {
	if int(k) < len(deviceOpNames) {
		return deviceOpNames[k]
	}
	return fmt.Sprintf("DeviceOpKind(%d)", k)
}

// DeviceOp is one call recorded by a RecordingDevice.
type DeviceOp struct {
	Kind    DeviceOpKind
	Texture TextureHandle
	Buffer  BufferHandle
	Rect    image.Rectangle // upload rect or viewport size
	Count   int             // elements written
	Draw    DrawCall
	Color   Color
}

type recTexture struct {
	width, height int
	pix           []byte
}

type recBuffer struct {
	kind     BufferKind
	capacity int
	verts    []Vertex
	inds     []uint32
}

// RecordingDevice is an in-memory Device. It keeps texture pixels on the CPU
// and records every call, which makes it suitable for tests and headless runs.
// Safe for concurrent use.
type RecordingDevice struct {
	mu       sync.Mutex
	textures map[TextureHandle]*recTexture
	buffers  map[BufferHandle]*recBuffer
	nextTex  TextureHandle
	nextBuf  BufferHandle
	ops      []DeviceOp
	viewW    int
	viewH    int

	// FailSubmit, when non-nil, is returned by SubmitDraw instead of drawing.
	FailSubmit error
}

var errUnknownHandle = errors.New("unknown handle")

// NewRecordingDevice returns an empty recording device.
func NewRecordingDevice() *RecordingDevice {
	return &RecordingDevice{
		textures: make(map[TextureHandle]*recTexture),
		buffers:  make(map[BufferHandle]*recBuffer),
	}
}

func (d *RecordingDevice) CreateTexture(width, height int) (TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("create texture %dx%d: %w", width, height, ErrInvalidRegion)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextTex++
	h := d.nextTex
	d.textures[h] = &recTexture{width: width, height: height, pix: make([]byte, width*height*4)}
	d.ops = append(d.ops, DeviceOp{Kind: OpCreateTexture, Texture: h, Rect: image.Rect(0, 0, width, height)})
	return h, nil
}

func (d *RecordingDevice) UploadTexture(tex TextureHandle, x, y, width, height int, pixels []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("upload texture %d: %w", tex, errUnknownHandle)
	}
	r := image.Rect(x, y, x+width, y+height)
	if !r.In(image.Rect(0, 0, t.width, t.height)) {
		return fmt.Errorf("upload texture %d: rect %v outside %dx%d", tex, r, t.width, t.height)
	}
	if len(pixels) != width*height*4 {
		return fmt.Errorf("upload texture %d: got %d bytes, want %d", tex, len(pixels), width*height*4)
	}
	for row := 0; row < height; row++ {
		dst := ((y+row)*t.width + x) * 4
		copy(t.pix[dst:dst+width*4], pixels[row*width*4:(row+1)*width*4])
	}
	d.ops = append(d.ops, DeviceOp{Kind: OpUploadTexture, Texture: tex, Rect: r})
	return nil
}

func (d *RecordingDevice) DestroyTexture(tex TextureHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[tex]; !ok {
		return fmt.Errorf("destroy texture %d: %w", tex, errUnknownHandle)
	}
	delete(d.textures, tex)
	d.ops = append(d.ops, DeviceOp{Kind: OpDestroyTexture, Texture: tex})
	return nil
}

func (d *RecordingDevice) CreateBuffer(kind BufferKind, capacity int) (BufferHandle, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("create %s buffer: capacity %d", kind, capacity)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextBuf++
	h := d.nextBuf
	d.buffers[h] = &recBuffer{kind: kind, capacity: capacity}
	d.ops = append(d.ops, DeviceOp{Kind: OpCreateBuffer, Buffer: h, Count: capacity})
	return h, nil
}

func (d *RecordingDevice) DestroyBuffer(buf BufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[buf]; !ok {
		return fmt.Errorf("destroy buffer %d: %w", buf, errUnknownHandle)
	}
	delete(d.buffers, buf)
	d.ops = append(d.ops, DeviceOp{Kind: OpDestroyBuffer, Buffer: buf})
	return nil
}

func (d *RecordingDevice) WriteVertices(buf BufferHandle, verts []Vertex) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.buffer(buf, BufferVertex, len(verts))
	if err != nil {
		return err
	}
	b.verts = append(b.verts[:0], verts...)
	d.ops = append(d.ops, DeviceOp{Kind: OpWriteVertices, Buffer: buf, Count: len(verts)})
	return nil
}

func (d *RecordingDevice) WriteIndices(buf BufferHandle, inds []uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.buffer(buf, BufferIndex, len(inds))
	if err != nil {
		return err
	}
	b.inds = append(b.inds[:0], inds...)
	d.ops = append(d.ops, DeviceOp{Kind: OpWriteIndices, Buffer: buf, Count: len(inds)})
	return nil
}

func (d *RecordingDevice) buffer(buf BufferHandle, kind BufferKind, n int) (*recBuffer, error) {
	b, ok := d.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("write buffer %d: %w", buf, errUnknownHandle)
	}
	if b.kind != kind {
		return nil, fmt.Errorf("write buffer %d: is a %s buffer", buf, b.kind)
	}
	if n > b.capacity {
		return nil, fmt.Errorf("write buffer %d: %d elements exceed capacity %d", buf, n, b.capacity)
	}
	return b, nil
}

func (d *RecordingDevice) SubmitDraw(call DrawCall) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailSubmit != nil {
		return d.FailSubmit
	}
	vb, ok := d.buffers[call.Vertices]
	if !ok || vb.kind != BufferVertex {
		return fmt.Errorf("submit draw: vertex buffer %d: %w", call.Vertices, errUnknownHandle)
	}
	ib, ok := d.buffers[call.Indices]
	if !ok || ib.kind != BufferIndex {
		return fmt.Errorf("submit draw: index buffer %d: %w", call.Indices, errUnknownHandle)
	}
	if _, ok := d.textures[call.Texture]; !ok {
		return fmt.Errorf("submit draw: texture %d: %w", call.Texture, errUnknownHandle)
	}
	if call.VertexOffset+call.VertexCount > len(vb.verts) {
		return fmt.Errorf("submit draw: vertex range [%d,%d) beyond %d written",
			call.VertexOffset, call.VertexOffset+call.VertexCount, len(vb.verts))
	}
	if call.IndexCount > len(ib.inds) {
		return fmt.Errorf("submit draw: %d indices beyond %d written", call.IndexCount, len(ib.inds))
	}
	d.ops = append(d.ops, DeviceOp{Kind: OpSubmitDraw, Draw: call, Texture: call.Texture})
	return nil
}

func (d *RecordingDevice) Clear(c Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, DeviceOp{Kind: OpClear, Color: c})
	return nil
}

func (d *RecordingDevice) SetViewport(width, height int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewW, d.viewH = width, height
	d.ops = append(d.ops, DeviceOp{Kind: OpSetViewport, Rect: image.Rect(0, 0, width, height)})
	return nil
}

// Ops returns a copy of every recorded operation in call order.
func (d *RecordingDevice) Ops() []DeviceOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DeviceOp(nil), d.ops...)
}

// OpsOf returns the recorded operations of the given kind in call order.
func (d *RecordingDevice) OpsOf(kind DeviceOpKind) []DeviceOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []DeviceOp
	for _, op := range d.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Draws returns the recorded draw submissions in order.
func (d *RecordingDevice) Draws() []DrawCall {
	ops := d.OpsOf(OpSubmitDraw)
	out := make([]DrawCall, len(ops))
	for i, op := range ops {
		out[i] = op.Draw
	}
	return out
}

// Reset forgets all recorded operations but keeps textures and buffers.
func (d *RecordingDevice) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = d.ops[:0]
}

// Viewport returns the last viewport size set on the device.
func (d *RecordingDevice) Viewport() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewW, d.viewH
}

// Vertices returns a copy of the vertices last written to buf.
func (d *RecordingDevice) Vertices(buf BufferHandle) []Vertex {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[buf]; ok {
		return append([]Vertex(nil), b.verts...)
	}
	return nil
}

// Indices returns a copy of the indices last written to buf.
func (d *RecordingDevice) Indices(buf BufferHandle) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[buf]; ok {
		return append([]uint32(nil), b.inds...)
	}
	return nil
}

// TextureCount returns the number of live textures.
func (d *RecordingDevice) TextureCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// TextureImage returns a copy of a texture's pixels, or nil if the handle is
// unknown.
func (d *RecordingDevice) TextureImage(tex TextureHandle) *image.NRGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[tex]
	if !ok {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	copy(img.Pix, t.pix)
	return img
}

// WriteTexturePNG writes a texture to dir as <label>.png and returns the path.
// Useful for inspecting atlas pages.
func (d *RecordingDevice) WriteTexturePNG(tex TextureHandle, dir, label string) (string, error) {
	img := d.TextureImage(tex)
	if img == nil {
		return "", fmt.Errorf("pufferfish: texture %d: %w", tex, errUnknownHandle)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pufferfish: mkdir %s: %w", dir, err)
	}
	path := fmt.Sprintf("%s/%s.png", dir, sanitizeLabel(label))
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pufferfish: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("pufferfish: encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names.
func sanitizeLabel(label string) string {
	if label == "" {
		return "texture"
	}
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
