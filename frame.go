package pufferfish

import (
	"errors"
	"fmt"
	"time"
)

// FrameState is the renderer's position in the frame lifecycle.
type FrameState uint8

const (
	StateIdle      FrameState = iota // between frames
	StateFrameOpen                   // accepting draw commands
	StateFlushing                    // submitting to the device inside EndFrame
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFrameOpen:
		return "frame_open"
	case StateFlushing:
		return "flushing"
	default:
		return fmt.Sprintf("FrameState(%d)", s)
	}
}

type frameOpKind uint8

const (
	opBatch frameOpKind = iota
	opClear
	opViewport
)

// frameOp is one entry of the frame's ordered op list. Clears and viewport
// changes cannot be batched, so they sit between batches.
type frameOp struct {
	kind   frameOpKind
	batch  Batch
	color  Color
	width  int
	height int
}

// Renderer owns the frame: it feeds draw commands to a BatchBuilder, keeps the
// ordered list of batches and non-batchable ops, and submits everything to the
// device at EndFrame.
//
// Not safe for concurrent use. A frame cannot be cancelled; every BeginFrame
// must be matched by an EndFrame.
type Renderer struct {
	dev     Device
	atlas   *Atlas
	builder *BatchBuilder

	state    FrameState
	ops      []frameOp
	pending  []frameOp // queued while idle, applied at the next BeginFrame
	recorded int       // builder batches already copied into ops

	vbuf    BufferHandle
	vcap    int
	ibuf    BufferHandle
	iquads  int // quads covered by the index buffer contents
	indices []uint32

	// err is the first device failure. Once set the renderer refuses to start
	// new frames.
	err error

	frame      uint64
	stats      FrameStats
	debug      bool
	frameStart time.Time
}

// NewRenderer returns an idle renderer drawing atlas pages to dev.
func NewRenderer(dev Device, atlas *Atlas, maxQuadsPerBatch int) *Renderer {
	return &Renderer{
		dev:     dev,
		atlas:   atlas,
		builder: NewBatchBuilder(maxQuadsPerBatch),
	}
}

// SetDebugMode enables per-frame stat logging at debug level.
func (r *Renderer) SetDebugMode(enabled bool) {
	r.debug = enabled
}

// State returns the current frame state.
func (r *Renderer) State() FrameState {
	return r.state
}

// Err returns the sticky device error, if any.
func (r *Renderer) Err() error {
	return r.err
}

// Atlas returns the atlas the renderer draws from.
func (r *Renderer) Atlas() *Atlas {
	return r.atlas
}

// BeginFrame opens a frame. Clears and resizes queued while idle become the
// first ops of the frame.
func (r *Renderer) BeginFrame() error {
	if r.err != nil {
		return r.err
	}
	if r.state != StateIdle {
		return &FrameStateError{Op: "BeginFrame", State: r.state, Err: ErrFrameAlreadyOpen}
	}
	r.state = StateFrameOpen
	r.frameStart = time.Now()
	r.builder.Reset()
	r.recorded = 0
	r.ops = append(r.ops[:0], r.pending...)
	r.pending = r.pending[:0]
	r.atlas.pin()
	return nil
}

// Push adds a draw command to the open frame. A command on a page the atlas
// does not have is rejected with ErrRegionNotFound; the frame stays usable.
func (r *Renderer) Push(cmd DrawCommand) error {
	if r.state != StateFrameOpen {
		return &FrameStateError{Op: "Push", State: r.state, Err: ErrNoFrameOpen}
	}
	if cmd.quadCount() > 0 {
		page := commandBatchKey(&cmd).page
		if page != SolidPage && int(page) >= r.atlas.PageCount() {
			return fmt.Errorf("%w: %s on page %d", ErrRegionNotFound, cmd.Kind, page)
		}
	}
	r.builder.Push(cmd)
	return nil
}

// Clear fills the target with c. Inside a frame it closes the open batch so
// everything pushed earlier is drawn first; while idle it is queued for the
// next frame.
func (r *Renderer) Clear(c Color) {
	r.enqueue(frameOp{kind: opClear, color: c})
}

// Resize changes the viewport. Like Clear it is a flush boundary.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("pufferfish: viewport %dx%d must be positive", width, height)
	}
	r.enqueue(frameOp{kind: opViewport, width: width, height: height})
	return nil
}

func (r *Renderer) enqueue(op frameOp) {
	if r.state != StateFrameOpen {
		r.pending = append(r.pending, op)
		return
	}
	r.builder.Flush()
	r.recordBatches()
	r.ops = append(r.ops, op)
}

func (r *Renderer) recordBatches() {
	batches := r.builder.Batches()
	for _, b := range batches[r.recorded:] {
		r.ops = append(r.ops, frameOp{kind: opBatch, batch: b})
	}
	r.recorded = len(batches)
}

// EndFrame closes the frame and submits it: dirty atlas pages are synced, the
// frame's vertices are written once, and every op is issued in order. The
// frame is released even when submission fails; the failure is then returned
// by every later BeginFrame.
func (r *Renderer) EndFrame() error {
	if r.state != StateFrameOpen {
		return &FrameStateError{Op: "EndFrame", State: r.state, Err: ErrNoFrameOpen}
	}
	r.state = StateFlushing
	buildDone := time.Now()

	r.builder.Flush()
	r.recordBatches()

	err := r.submit()

	r.atlas.unpin()
	r.state = StateIdle
	r.frame++

	r.collectStats(buildDone)
	r.debugLog()

	if err != nil {
		r.err = err
		Logger().Error("frame submission failed", "frame", r.frame, "err", err)
	}
	return err
}

func (r *Renderer) submit() error {
	if err := r.atlas.Sync(); err != nil {
		return err
	}

	maxQuads := 0
	for i := range r.ops {
		if r.ops[i].kind == opBatch && r.ops[i].batch.Quads > maxQuads {
			maxQuads = r.ops[i].batch.Quads
		}
	}
	if maxQuads > 0 {
		if err := r.writeBuffers(maxQuads); err != nil {
			return err
		}
	}

	for i := range r.ops {
		op := &r.ops[i]
		switch op.kind {
		case opClear:
			if err := r.dev.Clear(op.color); err != nil {
				return submitErr("clear", err)
			}
		case opViewport:
			if err := r.dev.SetViewport(op.width, op.height); err != nil {
				return submitErr("set_viewport", err)
			}
		case opBatch:
			b := op.batch
			tex, err := r.atlas.Texture(b.Page)
			if errors.Is(err, ErrRegionNotFound) {
				Logger().Warn("skipping batch on missing page", "page", b.Page, "quads", b.Quads)
				continue
			}
			if err != nil {
				return err
			}
			err = r.dev.SubmitDraw(DrawCall{
				Vertices:     r.vbuf,
				Indices:      r.ibuf,
				VertexOffset: b.VertexOffset,
				VertexCount:  b.VertexCount,
				IndexCount:   b.IndexCount(),
				Texture:      tex,
				Pipeline:     PipelineState{Blend: b.Blend},
			})
			if err != nil {
				return submitErr("submit_draw", err)
			}
		}
	}
	return nil
}

// writeBuffers uploads the frame's vertices and makes sure the shared index
// buffer covers the largest batch. Buffers grow to the next power of two and
// are never shrunk.
func (r *Renderer) writeBuffers(maxQuads int) error {
	verts := r.builder.Vertices()
	if len(verts) > r.vcap {
		if r.vbuf != 0 {
			if err := r.dev.DestroyBuffer(r.vbuf); err != nil {
				return submitErr("destroy_buffer", err)
			}
			r.vbuf, r.vcap = 0, 0
		}
		capacity := nextPow2(len(verts))
		buf, err := r.dev.CreateBuffer(BufferVertex, capacity)
		if err != nil {
			return submitErr("create_buffer", err)
		}
		r.vbuf, r.vcap = buf, capacity
	}
	if err := r.dev.WriteVertices(r.vbuf, verts); err != nil {
		return submitErr("write_vertices", err)
	}

	if maxQuads <= r.iquads {
		return nil
	}
	quads := nextPow2(maxQuads)
	if r.ibuf != 0 {
		if err := r.dev.DestroyBuffer(r.ibuf); err != nil {
			return submitErr("destroy_buffer", err)
		}
		r.ibuf, r.iquads = 0, 0
	}
	buf, err := r.dev.CreateBuffer(BufferIndex, quads*6)
	if err != nil {
		return submitErr("create_buffer", err)
	}
	r.ibuf = buf
	r.indices = quadIndices(r.indices, quads)
	if err := r.dev.WriteIndices(r.ibuf, r.indices); err != nil {
		return submitErr("write_indices", err)
	}
	r.iquads = quads
	return nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Batches returns the batches of the current or last frame in order.
func (r *Renderer) Batches() []Batch {
	return r.builder.Batches()
}

// Close releases the renderer's device buffers.
func (r *Renderer) Close() error {
	var first error
	for _, buf := range []BufferHandle{r.vbuf, r.ibuf} {
		if buf == 0 {
			continue
		}
		if err := r.dev.DestroyBuffer(buf); err != nil && first == nil {
			first = submitErr("destroy_buffer", err)
		}
	}
	r.vbuf, r.vcap, r.ibuf, r.iquads = 0, 0, 0, 0
	return first
}
