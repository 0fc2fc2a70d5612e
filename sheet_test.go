package pufferfish

import (
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

const hashSheetJSON = `{
  "frames": {
    "idle.png": {
      "frame": {"x": 0, "y": 0, "w": 16, "h": 16},
      "rotated": false,
      "trimmed": false,
      "spriteSourceSize": {"x": 0, "y": 0, "w": 16, "h": 16},
      "sourceSize": {"w": 16, "h": 16}
    },
    "sword.png": {
      "frame": {"x": 16, "y": 0, "w": 16, "h": 8},
      "rotated": true,
      "trimmed": false,
      "spriteSourceSize": {"x": 0, "y": 0, "w": 16, "h": 8},
      "sourceSize": {"w": 16, "h": 8}
    },
    "trimmed.png": {
      "frame": {"x": 0, "y": 16, "w": 10, "h": 10},
      "rotated": false,
      "trimmed": true,
      "spriteSourceSize": {"x": 3, "y": 2, "w": 10, "h": 10},
      "sourceSize": {"w": 16, "h": 16}
    }
  },
  "meta": {"image": "sheet.png", "size": {"w": 32, "h": 32}}
}`

const arraySheetJSON = `{
  "textures": [
    {
      "image": "sheet-0.png",
      "frames": {
        "a.png": {"frame": {"x": 0, "y": 0, "w": 8, "h": 8}}
      }
    },
    {
      "image": "sheet-1.png",
      "frames": {
        "b.png": {"frame": {"x": 4, "y": 4, "w": 4, "h": 4}}
      }
    }
  ]
}`

func sheetImage(w, h int) image.Image {
	return solidImage(w, h, color.NRGBA{200, 100, 50, 255})
}

func TestLoadSheetHashFormat(t *testing.T) {
	_, a := newTestAtlas(t, smallAtlas())
	// Push the sheet away from the page origin.
	if _, err := a.Allocate(16, 16); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSheet(a, 5, []byte(hashSheetJSON), []image.Image{sheetImage(32, 32)})
	if err != nil {
		t.Fatalf("LoadSheet: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if got, want := s.Names(), []string{"idle.png", "sword.png", "trimmed.png"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}

	idle := s.Region("idle.png")
	if idle.X != 16 || idle.Y != 0 || idle.Width != 16 || idle.Height != 16 {
		t.Errorf("idle = %+v", idle)
	}
	if !approxEqual(idle.U0, 0.25) || !approxEqual(idle.U1, 0.5) || !approxEqual(idle.V1, 0.25) {
		t.Errorf("idle UVs = %v %v %v %v", idle.U0, idle.V0, idle.U1, idle.V1)
	}
	if idle.Owner != 5 {
		t.Errorf("owner = %d, want 5", idle.Owner)
	}
}

func TestLoadSheetRotatedFrame(t *testing.T) {
	_, a := newTestAtlas(t, smallAtlas())
	s, err := LoadSheet(a, 0, []byte(hashSheetJSON), []image.Image{sheetImage(32, 32)})
	if err != nil {
		t.Fatal(err)
	}
	r := s.Region("sword.png")
	if !r.Rotated {
		t.Fatal("sword.png not marked rotated")
	}
	// Stored 90 degrees turned: 8 wide and 16 tall inside the sheet image.
	if r.X != 16 || r.Width != 8 || r.Height != 16 {
		t.Errorf("rotated region = %+v", r)
	}
}

func TestLoadSheetTrim(t *testing.T) {
	_, a := newTestAtlas(t, smallAtlas())
	s, err := LoadSheet(a, 0, []byte(hashSheetJSON), []image.Image{sheetImage(32, 32)})
	if err != nil {
		t.Fatal(err)
	}
	f, ok := s.Frame("trimmed.png")
	if !ok {
		t.Fatal("trimmed.png missing")
	}
	if f.OffsetX != 3 || f.OffsetY != 2 || f.SourceW != 16 || f.SourceH != 16 {
		t.Errorf("trim = %+v", f)
	}
	if f.Region.Width != 10 || f.Region.Height != 10 {
		t.Errorf("region size = %dx%d", f.Region.Width, f.Region.Height)
	}
}

func TestLoadSheetArrayFormat(t *testing.T) {
	_, a := newTestAtlas(t, smallAtlas())
	s, err := LoadSheet(a, 0, []byte(arraySheetJSON), []image.Image{sheetImage(8, 8), sheetImage(8, 8)})
	if err != nil {
		t.Fatal(err)
	}
	ra, rb := s.Region("a.png"), s.Region("b.png")
	if ra.Width != 8 || rb.Width != 4 {
		t.Errorf("a = %+v, b = %+v", ra, rb)
	}
	// Second image sits right of the first on the same shelf.
	if rb.X != 8+4 || rb.Y != 4 {
		t.Errorf("b at (%d,%d), want (12,4)", rb.X, rb.Y)
	}
}

func TestLoadSheetErrors(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		images []image.Image
		is     error
	}{
		{"bad json", `{`, []image.Image{sheetImage(8, 8)}, nil},
		{"no frames", `{"meta": {}}`, []image.Image{sheetImage(8, 8)}, nil},
		{"image count", arraySheetJSON, []image.Image{sheetImage(8, 8)}, nil},
		{"frame outside image", `{"frames": {"x": {"frame": {"x": 4, "y": 0, "w": 8, "h": 8}}}}`,
			[]image.Image{sheetImage(8, 8)}, ErrInvalidRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, a := newTestAtlas(t, smallAtlas())
			_, err := LoadSheet(a, 0, []byte(tt.json), tt.images)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
			if got := a.Stats().Regions; got != 0 {
				t.Errorf("%d regions left after a failed load", got)
			}
		})
	}
}

func TestSheetMissingFrame(t *testing.T) {
	_, a := newTestAtlas(t, smallAtlas())
	s, err := LoadSheet(a, 0, []byte(hashSheetJSON), []image.Image{sheetImage(32, 32)})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Region("nope.png"); got != SolidRegion() {
		t.Errorf("missing frame = %+v, want the solid placeholder", got)
	}
	if _, ok := s.Frame("nope.png"); ok {
		t.Error("Frame reported a missing frame")
	}
}

func TestSheetFramesNotFreeable(t *testing.T) {
	_, a := newTestAtlas(t, smallAtlas())
	s, err := LoadSheet(a, 0, []byte(hashSheetJSON), []image.Image{sheetImage(32, 32)})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Free(s.Region("idle.png")); !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("freeing a frame err = %v, want ErrRegionNotFound", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if got := a.Stats().Regions; got != 0 {
		t.Errorf("regions = %d after Close, want 0", got)
	}
}
