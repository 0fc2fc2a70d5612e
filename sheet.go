package pufferfish

import (
	"encoding/json"
	"fmt"
	"image"
	"sort"
)

// SheetFrame is a named sprite inside a loaded sprite sheet.
type SheetFrame struct {
	Region AtlasRegion // sub-rectangle of the sheet; not independently freeable
	// Trim information from TexturePacker. OffsetX/OffsetY place the trimmed
	// rectangle inside the untrimmed SourceW×SourceH sprite.
	OffsetX, OffsetY int
	SourceW, SourceH int
}

// Sheet is a TexturePacker sprite sheet resident in the atlas. Each page image
// occupies one atlas region; frames are sub-rectangles of those regions.
type Sheet struct {
	atlas  *Atlas
	pages  []AtlasRegion
	frames map[string]SheetFrame
}

// LoadSheet parses TexturePacker JSON and uploads the given page images into
// the atlas. Supports both the hash format (single "frames" object) and the
// array format ("textures" array with per-page frame lists).
func LoadSheet(atlas *Atlas, owner OwnerID, jsonData []byte, images []image.Image) (*Sheet, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("pufferfish: failed to parse sheet JSON: %w", err)
	}

	var pages []map[string]jsonFrame
	switch {
	case probe.Textures != nil:
		var textures []jsonTexturePage
		if err := json.Unmarshal(probe.Textures, &textures); err != nil {
			return nil, fmt.Errorf("pufferfish: failed to parse sheet textures array: %w", err)
		}
		for _, tex := range textures {
			pages = append(pages, tex.Frames)
		}
	case probe.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, fmt.Errorf("pufferfish: failed to parse sheet frames: %w", err)
		}
		pages = append(pages, frames)
	default:
		return nil, fmt.Errorf("pufferfish: sheet JSON has neither \"frames\" nor \"textures\" key")
	}
	if len(images) != len(pages) {
		return nil, fmt.Errorf("pufferfish: sheet has %d pages but %d images were given", len(pages), len(images))
	}

	s := &Sheet{atlas: atlas, frames: make(map[string]SheetFrame)}
	for i, img := range images {
		base, err := atlas.AddImage(owner, img)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.pages = append(s.pages, base)
		for name, f := range pages[i] {
			frame, err := frameIn(base, f)
			if err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("pufferfish: sheet frame %q: %w", name, err)
			}
			s.frames[name] = frame
		}
	}
	return s, nil
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

// frameIn maps a frame rectangle of a sheet image into the atlas region that
// holds the image.
func frameIn(base AtlasRegion, f jsonFrame) (SheetFrame, error) {
	w, h := f.Frame.W, f.Frame.H
	if f.Rotated {
		// Stored rect is rotated: its width in the image is the frame height.
		w, h = h, w
	}
	if w <= 0 || h <= 0 || f.Frame.X < 0 || f.Frame.Y < 0 ||
		f.Frame.X+w > base.Width || f.Frame.Y+h > base.Height {
		return SheetFrame{}, fmt.Errorf("%w: frame %+v outside %dx%d image", ErrInvalidRegion, f.Frame, base.Width, base.Height)
	}

	du := (base.U1 - base.U0) / float32(base.Width)
	dv := (base.V1 - base.V0) / float32(base.Height)
	r := AtlasRegion{
		Owner:   base.Owner,
		Page:    base.Page,
		X:       base.X + f.Frame.X,
		Y:       base.Y + f.Frame.Y,
		Width:   w,
		Height:  h,
		U0:      base.U0 + float32(f.Frame.X)*du,
		V0:      base.V0 + float32(f.Frame.Y)*dv,
		U1:      base.U0 + float32(f.Frame.X+w)*du,
		V1:      base.V0 + float32(f.Frame.Y+h)*dv,
		Rotated: f.Rotated,
	}

	sw, sh := f.SourceSize.W, f.SourceSize.H
	if sw == 0 && sh == 0 {
		sw, sh = f.Frame.W, f.Frame.H
	}
	return SheetFrame{
		Region:  r,
		OffsetX: f.SpriteSourceSize.X,
		OffsetY: f.SpriteSourceSize.Y,
		SourceW: sw,
		SourceH: sh,
	}, nil
}

// Frame returns the named frame.
func (s *Sheet) Frame(name string) (SheetFrame, bool) {
	f, ok := s.frames[name]
	return f, ok
}

// Region returns the region of the named frame. If the name doesn't exist it
// logs a warning and returns the solid placeholder region.
func (s *Sheet) Region(name string) AtlasRegion {
	if f, ok := s.frames[name]; ok {
		return f.Region
	}
	Logger().Warn("sheet frame not found, using placeholder", "name", name)
	return SolidRegion()
}

// Names returns the frame names in sorted order.
func (s *Sheet) Names() []string {
	names := make([]string, 0, len(s.frames))
	for n := range s.frames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of frames.
func (s *Sheet) Len() int {
	return len(s.frames)
}

// Close frees the sheet's atlas regions.
func (s *Sheet) Close() error {
	var first error
	for _, r := range s.pages {
		if err := s.atlas.Free(r); err != nil && first == nil {
			first = err
		}
	}
	s.pages = nil
	s.frames = nil
	return first
}
