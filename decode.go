package pufferfish

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ImageDecoder turns encoded file contents into straight-alpha pixels.
type ImageDecoder func(data []byte) (*image.NRGBA, error)

// decodeWith adapts a standard image decode function.
func decodeWith(decode func(io.Reader) (image.Image, error)) ImageDecoder {
	return func(data []byte) (*image.NRGBA, error) {
		img, err := decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return toNRGBA(img), nil
	}
}

// defaultDecoders returns the built-in image decoders keyed by lower-case
// extension without the dot.
func defaultDecoders() map[string]ImageDecoder {
	return map[string]ImageDecoder{
		"png":  decodeWith(png.Decode),
		"jpg":  decodeWith(jpeg.Decode),
		"jpeg": decodeWith(jpeg.Decode),
		"gif":  decodeWith(gif.Decode),
		"bmp":  decodeWith(bmp.Decode),
		"webp": decodeWith(webp.Decode),
	}
}

// fontExts are the extensions loaded as fonts.
var fontExts = map[string]bool{"ttf": true, "otf": true}

// extOf returns the lower-case extension of p without the dot.
func extOf(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// DecodeImage decodes data with the built-in decoder for path's extension.
func DecodeImage(path string, data []byte) (*image.NRGBA, error) {
	return decodeImage(defaultDecoders(), path, data)
}

func decodeImage(decoders map[string]ImageDecoder, p string, data []byte) (*image.NRGBA, error) {
	ext := extOf(p)
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownFormat, ext, p)
	}
	img, err := dec(data)
	if err != nil {
		return nil, &DecodeError{Path: p, Format: ext, Err: err}
	}
	return img, nil
}

// toNRGBA returns img as an *image.NRGBA whose bounds start at the origin and
// whose rows are tightly packed. img is returned as is when it already is one.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == b.Dx()*4 {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}
