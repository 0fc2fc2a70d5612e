package pufferfish

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"
)

// Screenshotter is implemented by devices that can read back the pixels of
// their current render target.
type Screenshotter interface {
	Screenshot() (*image.NRGBA, error)
}

// Screenshot reads back the bound target as straight-alpha pixels. Call it
// after EndFrame, while the target is still bound.
func (d *EbitenDevice) Screenshot() (*image.NRGBA, error) {
	if d.target == nil {
		return nil, errors.New("screenshot: no target bound")
	}
	b := d.target.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	d.target.ReadPixels(img.Pix)
	unpremultiply(img.Pix)
	return img, nil
}

// unpremultiply converts premultiplied RGBA8 pixels to straight alpha in
// place.
func unpremultiply(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		a := pix[i+3]
		if a == 0 || a == 255 {
			continue
		}
		pix[i] = uint8(min(int(pix[i])*255/int(a), 255))
		pix[i+1] = uint8(min(int(pix[i+1])*255/int(a), 255))
		pix[i+2] = uint8(min(int(pix[i+2])*255/int(a), 255))
	}
}

// saveScreenshot writes img to dir as <timestamp>_<label>.png.
func saveScreenshot(dir, label string, img *image.NRGBA, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pufferfish: screenshot: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, now.Format("20060102_150405")+"_"+sanitizeLabel(label)+".png")
	if err := writePNG(path, img); err != nil {
		return "", fmt.Errorf("pufferfish: screenshot: %w", err)
	}
	return path, nil
}
