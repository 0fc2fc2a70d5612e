package pufferfish

// TextureHandle identifies a texture created by a Device. Zero is never a
// valid handle.
type TextureHandle uint32

// BufferHandle identifies a buffer created by a Device. Zero is never a
// valid handle.
type BufferHandle uint32

// BufferKind selects what a buffer holds.
type BufferKind uint8

const (
	BufferVertex BufferKind = iota
	BufferIndex
)

func (k BufferKind) String() string {
	if k == BufferIndex {
		return "index"
	}
	return "vertex"
}

// Vertex is one tessellated corner. Position is in pixels with the origin at
// the top-left of the target, UV is normalized over the bound texture, and
// the color is a straight-alpha tint.
type Vertex struct {
	X, Y       float32
	U, V       float32
	R, G, B, A float32
}

// PipelineState is the fixed-function state of a draw submission.
type PipelineState struct {
	Blend BlendMode
}

// DrawCall is one device draw submission: a vertex range of a vertex buffer
// drawn with the first IndexCount indices of an index buffer.
type DrawCall struct {
	Vertices     BufferHandle
	Indices      BufferHandle
	VertexOffset int
	VertexCount  int
	IndexCount   int
	Texture      TextureHandle
	Pipeline     PipelineState
}

// Device is the abstract low-level graphics interface the renderer submits
// to. The renderer never issues API-specific calls; implementations translate
// these operations to a concrete backend.
//
// Pixels passed to UploadTexture are straight-alpha RGBA8, row-major, with
// len(pixels) == width*height*4.
type Device interface {
	CreateTexture(width, height int) (TextureHandle, error)
	UploadTexture(tex TextureHandle, x, y, width, height int, pixels []byte) error
	DestroyTexture(tex TextureHandle) error

	// CreateBuffer allocates a buffer holding capacity elements (vertices or
	// indices). Writing more than capacity elements is an error.
	CreateBuffer(kind BufferKind, capacity int) (BufferHandle, error)
	DestroyBuffer(buf BufferHandle) error
	WriteVertices(buf BufferHandle, verts []Vertex) error
	WriteIndices(buf BufferHandle, inds []uint32) error

	SubmitDraw(call DrawCall) error
	Clear(c Color) error
	SetViewport(width, height int) error
}
