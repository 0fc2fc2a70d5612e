package pufferfish

// shelfPacker implements shelf-based rectangle packing for one atlas page.
//
// Rectangles are placed left to right on horizontal shelves. A shelf's height
// is set by the tallest rectangle placed on it; when nothing fits a new shelf
// is opened below the last one. Freed rectangles go to their shelf's free list
// and are reused first-fit by later requests that fit inside them. Adjacent
// free slots are never merged. When the last live rectangle is freed the whole
// packer is reset.
type shelfPacker struct {
	width   int
	height  int
	padding int
	shelves []shelf

	live     int // live rectangles
	usedArea int // sum of live w*h, padding excluded
}

type shelf struct {
	y      int
	height int
	x      int        // next free x at the end of the shelf
	free   []freeSlot // released slots, never coalesced
}

// freeSlot is a released horizontal span on a shelf. The width includes the
// trailing padding of the rectangle that occupied it.
type freeSlot struct {
	x, w int
}

func newShelfPacker(width, height, padding int) *shelfPacker {
	return &shelfPacker{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// canFit reports whether a w×h rectangle could fit on an empty page.
func (p *shelfPacker) canFit(w, h int) bool {
	return w > 0 && h > 0 && w <= p.width && h <= p.height
}

// allocate finds space for a w×h rectangle. It returns the top-left corner and
// true on success, or -1, -1, false when the page has no room.
func (p *shelfPacker) allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + p.padding

	// Freed slots first.
	for i := range p.shelves {
		s := &p.shelves[i]
		if h > s.height {
			continue
		}
		for j, slot := range s.free {
			if slot.w < paddedW {
				continue
			}
			x, y = slot.x, s.y
			if rest := slot.w - paddedW; rest > 0 {
				s.free[j] = freeSlot{x: slot.x + paddedW, w: rest}
			} else {
				s.free = append(s.free[:j], s.free[j+1:]...)
			}
			p.place(w, h)
			return x, y, true
		}
	}

	// Then the open end of each shelf.
	for i := range p.shelves {
		s := &p.shelves[i]
		if s.x+w > p.width {
			continue
		}
		if h > s.height {
			// Only the last shelf can grow, and only if there is room below.
			if i != len(p.shelves)-1 || s.y+h > p.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += paddedW
		p.place(w, h)
		return x, y, true
	}

	// Open a new shelf.
	newY := 0
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		newY = last.y + last.height + p.padding
	}
	if newY+h > p.height || w > p.width {
		return -1, -1, false
	}
	p.shelves = append(p.shelves, shelf{y: newY, height: h, x: paddedW})
	p.place(w, h)
	return 0, newY, true
}

func (p *shelfPacker) place(w, h int) {
	p.live++
	p.usedArea += w * h
}

// free releases a rectangle previously returned by allocate. It returns false
// if no shelf starts at y.
func (p *shelfPacker) free(x, y, w, h int) bool {
	for i := range p.shelves {
		s := &p.shelves[i]
		if s.y != y {
			continue
		}
		p.live--
		p.usedArea -= w * h
		if p.live <= 0 {
			p.reset()
			return true
		}
		s.free = append(s.free, freeSlot{x: x, w: w + p.padding})
		return true
	}
	return false
}

// reset drops every shelf, making the whole page available again.
func (p *shelfPacker) reset() {
	p.shelves = p.shelves[:0]
	p.live = 0
	p.usedArea = 0
}

// empty reports whether the packer holds no live rectangles.
func (p *shelfPacker) empty() bool {
	return p.live == 0
}

// utilization returns the fraction of the page covered by live rectangles.
func (p *shelfPacker) utilization() float64 {
	if p.width <= 0 || p.height <= 0 {
		return 0
	}
	return float64(p.usedArea) / float64(p.width*p.height)
}
