package pufferfish

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// glyphKey identifies a cached glyph. Size is stored as float bits so the key
// stays comparable.
type glyphKey struct {
	font  FontID
	glyph GlyphID
	size  uint32
}

func (k glyphKey) String() string {
	return fmt.Sprintf("%d/%d/%g", k.font, k.glyph, math.Float32frombits(k.size))
}

// fontOwner tags glyph regions. Fonts use the upper half of the owner space
// so they never collide with asset owners.
func fontOwner(id FontID) OwnerID {
	return OwnerID(id) | 1<<31
}

// GlyphEntry is a rasterized glyph resident in the atlas. Blank glyphs such
// as space have metrics but no region.
type GlyphEntry struct {
	Font    FontID
	Glyph   GlyphID
	Size    float32
	Metrics GlyphMetrics
	Region  AtlasRegion
	Blank   bool
}

// GlyphCacheStats counts cache activity.
type GlyphCacheStats struct {
	Hits           uint64
	Misses         uint64
	Rasterizations uint64
	Entries        int
}

// GlyphCache maps (font, glyph, size) to atlas regions, rasterizing and
// uploading on first use. Concurrent misses on the same key share a single
// rasterization. Safe for concurrent use.
type GlyphCache struct {
	atlas *Atlas
	rast  Rasterizer

	mu      sync.RWMutex
	entries map[glyphKey]GlyphEntry
	evicted map[FontID]uint64 // EvictFont calls per font
	group   singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
	raster atomic.Uint64
}

// NewGlyphCache returns an empty cache allocating from atlas.
func NewGlyphCache(atlas *Atlas, r Rasterizer) *GlyphCache {
	return &GlyphCache{
		atlas:   atlas,
		rast:    r,
		entries: make(map[glyphKey]GlyphEntry),
		evicted: make(map[FontID]uint64),
	}
}

// GetOrRasterize returns the cached entry for the glyph, rasterizing it and
// uploading it into the atlas on a miss. The rasterizer runs outside the
// cache lock. Atlas errors such as ErrAtlasFull are returned unchanged.
func (c *GlyphCache) GetOrRasterize(font FontID, glyph GlyphID, size float32) (GlyphEntry, error) {
	key := glyphKey{font: font, glyph: glyph, size: math.Float32bits(size)}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return e, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A caller that lost the race to an earlier flight finds the entry here.
		c.mu.RLock()
		e, ok := c.entries[key]
		gen := c.evicted[font]
		c.mu.RUnlock()
		if ok {
			return e, nil
		}
		e, err := c.rasterize(key, size)
		if err != nil {
			return GlyphEntry{}, err
		}
		c.mu.Lock()
		if c.evicted[font] != gen {
			c.mu.Unlock()
			if !e.Blank {
				_ = c.atlas.Free(e.Region)
			}
			return GlyphEntry{}, fmt.Errorf("%w: font %d evicted while rasterizing glyph %d", ErrRegionNotFound, font, glyph)
		}
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return GlyphEntry{}, err
	}
	return v.(GlyphEntry), nil
}

func (c *GlyphCache) rasterize(key glyphKey, size float32) (GlyphEntry, error) {
	bm, err := c.rast.RasterizeGlyph(key.font, key.glyph, size)
	c.raster.Add(1)
	if err != nil {
		return GlyphEntry{}, err
	}
	e := GlyphEntry{Font: key.font, Glyph: key.glyph, Size: size, Metrics: bm.Metrics}
	if bm.Metrics.Width == 0 || bm.Metrics.Height == 0 {
		e.Blank = true
		return e, nil
	}
	r, err := c.atlas.AllocateFor(fontOwner(key.font), bm.Metrics.Width, bm.Metrics.Height)
	if err != nil {
		return GlyphEntry{}, err
	}
	if err := c.atlas.Upload(r, bm.Pixels); err != nil {
		_ = c.atlas.Free(r)
		return GlyphEntry{}, err
	}
	e.Region = r
	return e, nil
}

// Get returns a cached entry without rasterizing.
func (c *GlyphCache) Get(font FontID, glyph GlyphID, size float32) (GlyphEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[glyphKey{font: font, glyph: glyph, size: math.Float32bits(size)}]
	return e, ok
}

// EvictFont drops every entry of font and frees its atlas regions. It returns
// the number of entries dropped. Rasterizations of the font still in flight
// are discarded when they finish and their callers get ErrRegionNotFound.
func (c *GlyphCache) EvictFont(font FontID) int {
	c.mu.Lock()
	c.evicted[font]++
	n := 0
	for k := range c.entries {
		if k.font == font {
			delete(c.entries, k)
			n++
		}
	}
	c.mu.Unlock()
	c.atlas.FreeOwner(fontOwner(font))
	return n
}

// Len returns the number of cached glyphs.
func (c *GlyphCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache counters.
func (c *GlyphCache) Stats() GlyphCacheStats {
	return GlyphCacheStats{
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Rasterizations: c.raster.Load(),
		Entries:        c.Len(),
	}
}
