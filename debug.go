package pufferfish

import (
	"log/slog"
	"time"
)

// FrameStats holds per-frame timing and draw-call metrics of the last
// completed frame.
type FrameStats struct {
	Frame      uint64
	Commands   int
	Batches    int
	DrawCalls  int // device submissions, including clears and viewport changes
	Vertices   int
	Quads      int
	BuildTime  time.Duration // BeginFrame to EndFrame
	SubmitTime time.Duration // inside EndFrame
}

// Stats returns the metrics of the last completed frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

func (r *Renderer) collectStats(buildDone time.Time) {
	s := FrameStats{
		Frame:      r.frame,
		Commands:   r.builder.Commands(),
		Vertices:   len(r.builder.Vertices()),
		DrawCalls:  len(r.ops),
		BuildTime:  buildDone.Sub(r.frameStart),
		SubmitTime: time.Since(buildDone),
	}
	for i := range r.ops {
		if r.ops[i].kind == opBatch {
			s.Batches++
			s.Quads += r.ops[i].batch.Quads
		}
	}
	r.stats = s
}

// debugLog logs frame stats when debug mode is on.
func (r *Renderer) debugLog() {
	if !r.debug {
		return
	}
	s := r.stats
	Logger().Debug("frame",
		slog.Uint64("frame", s.Frame),
		slog.Int("commands", s.Commands),
		slog.Int("batches", s.Batches),
		slog.Int("draw_calls", s.DrawCalls),
		slog.Int("vertices", s.Vertices),
		slog.Duration("build", s.BuildTime),
		slog.Duration("submit", s.SubmitTime),
	)
}

// countBatches counts contiguous groups of commands sharing the same batchKey.
// This is the batch count a builder without a quad limit produces, ignoring
// commands that tessellate to nothing.
func countBatches(commands []DrawCommand) int {
	count := 0
	var prev batchKey
	for i := range commands {
		if commands[i].quadCount() == 0 {
			continue
		}
		cur := commandBatchKey(&commands[i])
		if count == 0 || cur != prev {
			count++
			prev = cur
		}
	}
	return count
}
