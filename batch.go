package pufferfish

// DefaultMaxQuadsPerBatch bounds a batch when no limit is configured.
const DefaultMaxQuadsPerBatch = 16384

// Batch is a run of consecutive quads that share one atlas page and one blend
// mode, so they can be drawn with a single device submission. It addresses
// its own range of the frame vertex buffer.
type Batch struct {
	Page         PageID
	Blend        BlendMode
	VertexOffset int
	VertexCount  int
	Commands     int // commands contributing at least one quad
	Quads        int
	FirstOrder   uint64
	LastOrder    uint64
}

// IndexCount returns how many indices draw the batch.
func (b Batch) IndexCount() int {
	return b.Quads * 6
}

// BatchBuilder turns an ordered stream of draw commands into batches. A batch
// is closed when the next command's page or blend differs, or when it reaches
// the quad limit. Commands are never reordered; splits only go forward.
type BatchBuilder struct {
	maxQuads int
	verts    []Vertex
	batches  []Batch
	cur      Batch
	key      batchKey
	open     bool
	order    uint64
	commands int
}

// NewBatchBuilder returns a builder that closes batches at maxQuads quads.
// A non-positive maxQuads uses DefaultMaxQuadsPerBatch.
func NewBatchBuilder(maxQuads int) *BatchBuilder {
	if maxQuads <= 0 {
		maxQuads = DefaultMaxQuadsPerBatch
	}
	return &BatchBuilder{maxQuads: maxQuads}
}

// MaxQuads returns the per-batch quad limit.
func (b *BatchBuilder) MaxQuads() int {
	return b.maxQuads
}

// Push tessellates cmd into the open batch, or opens a new one if cmd is not
// compatible with it. It reports whether a new batch was opened. Commands that
// produce no quads are counted but change nothing.
func (b *BatchBuilder) Push(cmd DrawCommand) (newBatch bool) {
	b.order++
	b.commands++
	cmd.Order = b.order

	n := cmd.quadCount()
	if n == 0 {
		return false
	}
	key := commandBatchKey(&cmd)
	m := cmd.Transform.affine()

	counted := false
	for i := 0; i < n; i++ {
		if !b.open || key != b.key || b.cur.Quads >= b.maxQuads {
			b.Flush()
			b.begin(key, cmd.Order)
			newBatch = true
			counted = false
		}
		if !counted {
			b.cur.Commands++
			counted = true
		}
		b.appendQuad(&cmd, i, &m)
		b.cur.Quads++
		b.cur.VertexCount += 4
		b.cur.LastOrder = cmd.Order
	}
	return newBatch
}

func (b *BatchBuilder) begin(key batchKey, order uint64) {
	b.key = key
	b.open = true
	b.cur = Batch{
		Page:         key.page,
		Blend:        key.blend,
		VertexOffset: len(b.verts),
		FirstOrder:   order,
		LastOrder:    order,
	}
}

// appendQuad appends the 4 vertices of quad i of cmd, in TL, TR, BL, BR order.
func (b *BatchBuilder) appendQuad(cmd *DrawCommand, i int, m *[6]float32) {
	var lx, ly [4]float32
	var su, sv [4]float32

	if cmd.Kind == CommandGlyphRun {
		g := &cmd.Glyphs[i]
		lx = [4]float32{g.X, g.X + g.Width, g.X, g.X + g.Width}
		ly = [4]float32{g.Y, g.Y, g.Y + g.Height, g.Y + g.Height}
		su = [4]float32{g.U0, g.U1, g.U0, g.U1}
		sv = [4]float32{g.V0, g.V0, g.V1, g.V1}
	} else {
		r := &cmd.Region
		w, h := cmd.Size.X, cmd.Size.Y
		if w == 0 && h == 0 {
			w, h = float32(r.Width), float32(r.Height)
			if r.Rotated {
				w, h = h, w
			}
		}
		lx = [4]float32{0, w, 0, w}
		ly = [4]float32{0, 0, h, h}
		if cmd.Kind == CommandRect {
			su = [4]float32{0, 1, 0, 1}
			sv = [4]float32{0, 0, 1, 1}
		} else if r.Rotated {
			// Stored 90 degrees clockwise: visual TL is the stored TR corner.
			su = [4]float32{r.U1, r.U1, r.U0, r.U0}
			sv = [4]float32{r.V0, r.V1, r.V0, r.V1}
		} else {
			su = [4]float32{r.U0, r.U1, r.U0, r.U1}
			sv = [4]float32{r.V0, r.V0, r.V1, r.V1}
		}
	}

	a, bb, c, d, tx, ty := m[0], m[1], m[2], m[3], m[4], m[5]
	col := cmd.Color
	for k := 0; k < 4; k++ {
		b.verts = append(b.verts, Vertex{
			X: a*lx[k] + c*ly[k] + tx,
			Y: bb*lx[k] + d*ly[k] + ty,
			U: su[k],
			V: sv[k],
			R: col.R,
			G: col.G,
			B: col.B,
			A: col.A,
		})
	}
}

// Flush closes the open batch and returns it. It reports false when no batch
// was open.
func (b *BatchBuilder) Flush() (Batch, bool) {
	if !b.open {
		return Batch{}, false
	}
	b.open = false
	b.batches = append(b.batches, b.cur)
	return b.cur, true
}

// Batches returns the closed batches in submission order. The slice is reused
// after Reset.
func (b *BatchBuilder) Batches() []Batch {
	return b.batches
}

// Vertices returns every vertex tessellated since the last Reset. Each batch
// addresses its own range of this slice.
func (b *BatchBuilder) Vertices() []Vertex {
	return b.verts
}

// Commands returns the number of commands pushed since the last Reset.
func (b *BatchBuilder) Commands() int {
	return b.commands
}

// Reset drops all batches and vertices, keeping capacity.
func (b *BatchBuilder) Reset() {
	b.verts = b.verts[:0]
	b.batches = b.batches[:0]
	b.open = false
	b.cur = Batch{}
	b.order = 0
	b.commands = 0
}

// quadIndices returns the index pattern for quads quads, extending dst when
// it is too short. Two triangles per quad: TL-TR-BL, TR-BR-BL. The pattern
// starts at vertex 0, so one index buffer serves every batch.
func quadIndices(dst []uint32, quads int) []uint32 {
	have := len(dst) / 6
	for q := have; q < quads; q++ {
		base := uint32(q * 4)
		dst = append(dst,
			base+0, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
	return dst[:quads*6]
}
