package pufferfish

import (
	"fmt"
	"image"
	"sync"
)

// PageID indexes an atlas page.
type PageID uint16

// SolidPage is a sentinel page index for untextured quads. It maps to a 1x1
// opaque white texture so rectangles share the sprite pipeline. It's high
// enough to never collide with real atlas pages.
const SolidPage PageID = 0xFFFF

// RegionID identifies a live atlas region. Zero is never issued.
type RegionID uint32

// OwnerID tags regions with whoever allocated them, so they can be released
// together with FreeOwner. Zero means unowned.
type OwnerID uint32

// AtlasRegion describes a rectangle allocated inside an atlas page.
// Value type; the atlas never hands out pixel buffers.
type AtlasRegion struct {
	ID            RegionID
	Owner         OwnerID
	Page          PageID
	X, Y          int // top-left corner within the page, in pixels
	Width, Height int
	U0, V0        float32 // normalized UV of the top-left corner
	U1, V1        float32 // normalized UV of the bottom-right corner
	Rotated       bool    // stored 90 degrees clockwise; set only by sprite sheets
}

// SolidRegion returns the region used for untextured quads.
func SolidRegion() AtlasRegion {
	return AtlasRegion{Page: SolidPage, Width: 1, Height: 1, U1: 1, V1: 1}
}

// Rect returns the region's pixel rectangle within its page.
func (r AtlasRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// AtlasConfig sizes the atlas.
type AtlasConfig struct {
	PageWidth  int `toml:"page_width"`
	PageHeight int `toml:"page_height"`
	MaxPages   int `toml:"max_pages"`
	Padding    int `toml:"padding"` // empty pixels between regions
}

// DefaultAtlasConfig returns 2048x2048 pages, up to 8 of them, with one pixel
// of padding.
func DefaultAtlasConfig() AtlasConfig {
	return AtlasConfig{PageWidth: 2048, PageHeight: 2048, MaxPages: 8, Padding: 1}
}

func (c AtlasConfig) validate() error {
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return fmt.Errorf("pufferfish: atlas page size %dx%d must be positive", c.PageWidth, c.PageHeight)
	}
	if c.MaxPages <= 0 || c.MaxPages >= int(SolidPage) {
		return fmt.Errorf("pufferfish: atlas max pages %d out of range", c.MaxPages)
	}
	if c.Padding < 0 {
		return fmt.Errorf("pufferfish: atlas padding %d is negative", c.Padding)
	}
	return nil
}

// AtlasPage is one fixed-size RGBA8 page: a packer, a CPU copy of its pixels,
// its live regions and the device texture they are synced to.
type AtlasPage struct {
	ID      PageID
	texture TextureHandle
	packer  *shelfPacker
	pix     []byte // straight-alpha RGBA8, row-major
	regions map[RegionID]AtlasRegion
	dirty   image.Rectangle
}

// AtlasStats is a snapshot of atlas usage.
type AtlasStats struct {
	Pages       int
	Regions     int
	Deferred    int       // frees waiting for the current frame to end
	Utilization []float64 // per page, 0 to 1
}

// Atlas packs many small images into a few large device textures.
//
// Mutation is serialized by an internal lock, so regions may be allocated and
// uploaded from any goroutine. Device textures are only touched by Sync,
// Texture and page creation.
type Atlas struct {
	mu     sync.RWMutex
	dev    Device
	cfg    AtlasConfig
	pages  []*AtlasPage
	nextID RegionID

	solid TextureHandle

	// While pinned, freed regions are parked in deferred so space referenced
	// by queued vertices is not handed out again before the frame is drawn.
	pinned   int
	deferred []AtlasRegion

	staging []byte
}

// NewAtlas returns an empty atlas. Pages are created on demand. An invalid
// config falls back to DefaultAtlasConfig.
func NewAtlas(dev Device, cfg AtlasConfig) *Atlas {
	if err := cfg.validate(); err != nil {
		Logger().Warn("invalid atlas config, using defaults", "err", err)
		cfg = DefaultAtlasConfig()
	}
	return &Atlas{dev: dev, cfg: cfg}
}

// Config returns the atlas configuration.
func (a *Atlas) Config() AtlasConfig {
	return a.cfg
}

// Allocate reserves an unowned width×height region.
func (a *Atlas) Allocate(width, height int) (AtlasRegion, error) {
	return a.AllocateFor(0, width, height)
}

// AllocateFor reserves a width×height region tagged with owner. Existing pages
// are tried first in page order; a new page is created only if none has room.
func (a *Atlas) AllocateFor(owner OwnerID, width, height int) (AtlasRegion, error) {
	if width <= 0 || height <= 0 {
		return AtlasRegion{}, fmt.Errorf("%w: size %dx%d", ErrInvalidRegion, width, height)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	full := func() error {
		return &AtlasFullError{Width: width, Height: height, Pages: len(a.pages), MaxPages: a.cfg.MaxPages}
	}

	probe := shelfPacker{width: a.cfg.PageWidth, height: a.cfg.PageHeight, padding: a.cfg.Padding}
	if !probe.canFit(width, height) {
		return AtlasRegion{}, full()
	}

	for _, p := range a.pages {
		if x, y, ok := p.packer.allocate(width, height); ok {
			return a.register(p, owner, x, y, width, height), nil
		}
	}

	if len(a.pages) >= a.cfg.MaxPages {
		return AtlasRegion{}, full()
	}
	p, err := a.newPage()
	if err != nil {
		return AtlasRegion{}, err
	}
	x, y, ok := p.packer.allocate(width, height)
	if !ok {
		return AtlasRegion{}, full()
	}
	return a.register(p, owner, x, y, width, height), nil
}

func (a *Atlas) newPage() (*AtlasPage, error) {
	tex, err := a.dev.CreateTexture(a.cfg.PageWidth, a.cfg.PageHeight)
	if err != nil {
		return nil, submitErr("create_texture", err)
	}
	p := &AtlasPage{
		ID:      PageID(len(a.pages)),
		texture: tex,
		packer:  newShelfPacker(a.cfg.PageWidth, a.cfg.PageHeight, a.cfg.Padding),
		pix:     make([]byte, a.cfg.PageWidth*a.cfg.PageHeight*4),
		regions: make(map[RegionID]AtlasRegion),
	}
	a.pages = append(a.pages, p)
	Logger().Debug("atlas page created", "page", p.ID, "width", a.cfg.PageWidth, "height", a.cfg.PageHeight)
	return p, nil
}

func (a *Atlas) register(p *AtlasPage, owner OwnerID, x, y, w, h int) AtlasRegion {
	a.nextID++
	pw, ph := float32(a.cfg.PageWidth), float32(a.cfg.PageHeight)
	r := AtlasRegion{
		ID:     a.nextID,
		Owner:  owner,
		Page:   p.ID,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		U0:     float32(x) / pw,
		V0:     float32(y) / ph,
		U1:     float32(x+w) / pw,
		V1:     float32(y+h) / ph,
	}
	p.regions[r.ID] = r
	return r
}

// Upload copies straight-alpha RGBA8 pixels into the region and marks the
// area dirty. The device texture is updated by the next Sync. The rectangle
// written is the one the atlas issued for region.ID.
func (a *Atlas) Upload(region AtlasRegion, pixels []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, stored, err := a.livePage(region)
	if err != nil {
		return err
	}
	if len(pixels) != stored.Width*stored.Height*4 {
		return fmt.Errorf("%w: got %d bytes for %dx%d region", ErrInvalidRegion, len(pixels), stored.Width, stored.Height)
	}
	stride := a.cfg.PageWidth * 4
	row := stored.Width * 4
	for y := 0; y < stored.Height; y++ {
		off := (stored.Y+y)*stride + stored.X*4
		copy(p.pix[off:off+row], pixels[y*row:(y+1)*row])
	}
	p.dirty = p.dirty.Union(stored.Rect())
	return nil
}

// livePage returns the page holding region and the region as it was issued.
func (a *Atlas) livePage(region AtlasRegion) (*AtlasPage, AtlasRegion, error) {
	if int(region.Page) >= len(a.pages) {
		return nil, AtlasRegion{}, fmt.Errorf("%w: region %d on page %d", ErrRegionNotFound, region.ID, region.Page)
	}
	p := a.pages[region.Page]
	stored, ok := p.regions[region.ID]
	if !ok {
		return nil, AtlasRegion{}, fmt.Errorf("%w: region %d on page %d", ErrRegionNotFound, region.ID, region.Page)
	}
	return p, stored, nil
}

// AddImage allocates a region for img, tagged with owner, and uploads its
// pixels.
func (a *Atlas) AddImage(owner OwnerID, img image.Image) (AtlasRegion, error) {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	r, err := a.AllocateFor(owner, w, h)
	if err != nil {
		return AtlasRegion{}, err
	}
	if err := a.Upload(r, src.Pix); err != nil {
		_ = a.Free(r)
		return AtlasRegion{}, err
	}
	return r, nil
}

// Free releases a region. The region stops being live immediately; while a
// frame is in flight its space is only returned to the page when the frame
// ends.
func (a *Atlas) Free(region AtlasRegion) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, stored, err := a.livePage(region)
	if err != nil {
		return err
	}
	a.release(p, stored)
	return nil
}

// FreeOwner releases every region tagged with owner and returns how many
// were freed.
func (a *Atlas) FreeOwner(owner OwnerID) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, p := range a.pages {
		for _, r := range p.regions {
			if r.Owner == owner {
				a.release(p, r)
				n++
			}
		}
	}
	return n
}

func (a *Atlas) release(p *AtlasPage, r AtlasRegion) {
	delete(p.regions, r.ID)
	if a.pinned > 0 {
		a.deferred = append(a.deferred, r)
		return
	}
	p.packer.free(r.X, r.Y, r.Width, r.Height)
}

// pin marks the start of a frame. Frees made while pinned are deferred.
func (a *Atlas) pin() {
	a.mu.Lock()
	a.pinned++
	a.mu.Unlock()
}

// unpin marks the end of a frame and applies deferred frees once no frame
// holds the atlas.
func (a *Atlas) unpin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pinned > 0 {
		a.pinned--
	}
	if a.pinned > 0 {
		return
	}
	for _, r := range a.deferred {
		a.pages[r.Page].packer.free(r.X, r.Y, r.Width, r.Height)
	}
	a.deferred = a.deferred[:0]
}

// Sync uploads the dirty rectangle of every page to its device texture.
func (a *Atlas) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stride := a.cfg.PageWidth * 4
	for _, p := range a.pages {
		if p.dirty.Empty() {
			continue
		}
		d := p.dirty
		w, h := d.Dx(), d.Dy()
		need := w * h * 4
		if cap(a.staging) < need {
			a.staging = make([]byte, need)
		}
		buf := a.staging[:need]
		for y := 0; y < h; y++ {
			off := (d.Min.Y+y)*stride + d.Min.X*4
			copy(buf[y*w*4:(y+1)*w*4], p.pix[off:off+w*4])
		}
		if err := a.dev.UploadTexture(p.texture, d.Min.X, d.Min.Y, w, h, buf); err != nil {
			return submitErr("upload_texture", err)
		}
		p.dirty = image.Rectangle{}
	}
	return nil
}

// Region returns a live region by id.
func (a *Atlas) Region(id RegionID) (AtlasRegion, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, p := range a.pages {
		if r, ok := p.regions[id]; ok {
			return r, true
		}
	}
	return AtlasRegion{}, false
}

// Texture returns the device texture backing a page. SolidPage resolves to a
// 1x1 white texture created on first use.
func (a *Atlas) Texture(page PageID) (TextureHandle, error) {
	if page == SolidPage {
		return a.solidTexture()
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if int(page) >= len(a.pages) {
		return 0, fmt.Errorf("%w: page %d", ErrRegionNotFound, page)
	}
	return a.pages[page].texture, nil
}

func (a *Atlas) solidTexture() (TextureHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.solid != 0 {
		return a.solid, nil
	}
	tex, err := a.dev.CreateTexture(1, 1)
	if err != nil {
		return 0, submitErr("create_texture", err)
	}
	if err := a.dev.UploadTexture(tex, 0, 0, 1, 1, []byte{255, 255, 255, 255}); err != nil {
		return 0, submitErr("upload_texture", err)
	}
	a.solid = tex
	return tex, nil
}

// PageCount returns the number of pages created so far.
func (a *Atlas) PageCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.pages)
}

// Stats returns a snapshot of atlas usage.
func (a *Atlas) Stats() AtlasStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := AtlasStats{
		Pages:       len(a.pages),
		Deferred:    len(a.deferred),
		Utilization: make([]float64, len(a.pages)),
	}
	for i, p := range a.pages {
		s.Regions += len(p.regions)
		s.Utilization[i] = p.packer.utilization()
	}
	return s
}

// Close destroys every device texture owned by the atlas.
func (a *Atlas) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var first error
	for _, p := range a.pages {
		if err := a.dev.DestroyTexture(p.texture); err != nil && first == nil {
			first = submitErr("destroy_texture", err)
		}
	}
	if a.solid != 0 {
		if err := a.dev.DestroyTexture(a.solid); err != nil && first == nil {
			first = submitErr("destroy_texture", err)
		}
		a.solid = 0
	}
	a.pages = nil
	a.deferred = nil
	return first
}
