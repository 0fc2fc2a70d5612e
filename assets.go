package pufferfish

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ImageHandle identifies an image asset. Zero is never a valid handle.
type ImageHandle uint32

// AssetState is the load state of an asset.
type AssetState uint8

const (
	AssetUnknown AssetState = iota
	AssetPending            // decoding on a worker
	AssetReady              // resident in the atlas
	AssetFailed
)

func (s AssetState) String() string {
	switch s {
	case AssetPending:
		return "pending"
	case AssetReady:
		return "ready"
	case AssetFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type imageAsset struct {
	path   string
	state  AssetState
	region AtlasRegion
	err    error
}

// decoded is a finished worker decode waiting for Update.
type decoded struct {
	handle ImageHandle
	img    *image.NRGBA
	err    error
}

// DefaultDecodeWorkers bounds concurrent decodes when no limit is given.
const DefaultDecodeWorkers = 4

// Assets loads images and fonts from a file system. Images are decoded on
// worker goroutines, at most workers at a time, and become atlas regions when
// Update runs on the owning goroutine. Repeated loads of the same path return
// the same handle.
type Assets struct {
	fsys  fs.FS
	atlas *Atlas
	fonts *FontSet

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	decoders map[string]ImageDecoder
	images   map[ImageHandle]*imageAsset
	byPath   map[string]ImageHandle
	fontPath map[string]*Font
	done     []decoded
	next     ImageHandle
}

// NewAssets returns a loader reading from fsys. A non-positive workers uses
// DefaultDecodeWorkers.
func NewAssets(fsys fs.FS, atlas *Atlas, fonts *FontSet, workers int) *Assets {
	if workers <= 0 {
		workers = DefaultDecodeWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Assets{
		fsys:     fsys,
		atlas:    atlas,
		fonts:    fonts,
		sem:      semaphore.NewWeighted(int64(workers)),
		ctx:      ctx,
		cancel:   cancel,
		decoders: defaultDecoders(),
		images:   make(map[ImageHandle]*imageAsset),
		byPath:   make(map[string]ImageHandle),
		fontPath: make(map[string]*Font),
	}
}

// RegisterDecoder adds or replaces the decoder for an extension such as "png".
func (a *Assets) RegisterDecoder(ext string, dec ImageDecoder) {
	a.mu.Lock()
	a.decoders[extOf("."+ext)] = dec
	a.mu.Unlock()
}

// LoadImage starts loading the image at path and returns its handle at once.
// The image is usable after an Update that follows the decode.
func (a *Assets) LoadImage(path string) ImageHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.byPath[path]; ok {
		return h
	}
	h := a.newHandle(path)

	dec, ok := a.decoders[extOf(path)]
	if !ok {
		a.images[h].state = AssetFailed
		a.images[h].err = fmt.Errorf("%w: %q (%s)", ErrUnknownFormat, extOf(path), path)
		return h
	}

	a.wg.Add(1)
	go a.decode(h, path, dec)
	return h
}

func (a *Assets) newHandle(path string) ImageHandle {
	a.next++
	h := a.next
	a.images[h] = &imageAsset{path: path, state: AssetPending}
	a.byPath[path] = h
	return h
}

func (a *Assets) decode(h ImageHandle, path string, dec ImageDecoder) {
	defer a.wg.Done()
	res := decoded{handle: h}
	if err := a.sem.Acquire(a.ctx, 1); err != nil {
		res.err = err
	} else {
		res.img, res.err = a.readImage(path, dec)
		a.sem.Release(1)
	}
	a.mu.Lock()
	a.done = append(a.done, res)
	a.mu.Unlock()
}

func (a *Assets) readImage(path string, dec ImageDecoder) (*image.NRGBA, error) {
	data, err := fs.ReadFile(a.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("pufferfish: read %s: %w", path, err)
	}
	img, err := dec(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: extOf(path), Err: err}
	}
	return img, nil
}

// Update moves finished decodes into the atlas and returns how many assets
// completed, successfully or not. Call it from the goroutine that drives the
// renderer, once per frame.
func (a *Assets) Update() int {
	a.mu.Lock()
	done := a.done
	a.done = nil
	a.mu.Unlock()

	for _, d := range done {
		var region AtlasRegion
		err := d.err
		if err == nil {
			region, err = a.atlas.AddImage(OwnerID(d.handle), d.img)
		}

		a.mu.Lock()
		asset, ok := a.images[d.handle]
		if !ok {
			// Unloaded while decoding.
			a.mu.Unlock()
			if err == nil {
				_ = a.atlas.Free(region)
			}
			continue
		}
		if err != nil {
			asset.state, asset.err = AssetFailed, err
			Logger().Warn("asset load failed", "path", asset.path, "err", err)
		} else {
			asset.state, asset.region = AssetReady, region
			Logger().Debug("asset loaded", "path", asset.path, "page", region.Page)
		}
		a.mu.Unlock()
	}
	return len(done)
}

// Wait blocks until every decode started so far has finished. Results still
// need an Update to become usable.
func (a *Assets) Wait() {
	a.wg.Wait()
}

// LoadImageNow loads, decodes and uploads the image at path synchronously.
func (a *Assets) LoadImageNow(path string) (ImageHandle, error) {
	a.mu.Lock()
	if h, ok := a.byPath[path]; ok {
		asset := a.images[h]
		a.mu.Unlock()
		if asset.state == AssetPending {
			return h, fmt.Errorf("%w: %s", ErrAssetNotReady, path)
		}
		return h, asset.err
	}
	dec, ok := a.decoders[extOf(path)]
	h := a.newHandle(path)
	a.mu.Unlock()

	var (
		region AtlasRegion
		err    error
	)
	if !ok {
		err = fmt.Errorf("%w: %q (%s)", ErrUnknownFormat, extOf(path), path)
	} else {
		var img *image.NRGBA
		if img, err = a.readImage(path, dec); err == nil {
			region, err = a.atlas.AddImage(OwnerID(h), img)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	asset := a.images[h]
	if err != nil {
		asset.state, asset.err = AssetFailed, err
		return h, err
	}
	asset.state, asset.region = AssetReady, region
	return h, nil
}

// State returns the load state of an image.
func (a *Assets) State(h ImageHandle) AssetState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if asset, ok := a.images[h]; ok {
		return asset.state
	}
	return AssetUnknown
}

// Image returns the atlas region of a loaded image. Pending images return
// ErrAssetNotReady; failed ones return their load error.
func (a *Assets) Image(h ImageHandle) (AtlasRegion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	asset, ok := a.images[h]
	if !ok {
		return AtlasRegion{}, fmt.Errorf("pufferfish: unknown image handle %d", h)
	}
	switch asset.state {
	case AssetPending:
		return AtlasRegion{}, fmt.Errorf("%w: %s", ErrAssetNotReady, asset.path)
	case AssetFailed:
		return AtlasRegion{}, asset.err
	}
	return asset.region, nil
}

// Unload forgets an image and frees its atlas space. A later load of the same
// path starts over with a new handle.
func (a *Assets) Unload(h ImageHandle) error {
	a.mu.Lock()
	asset, ok := a.images[h]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("pufferfish: unknown image handle %d", h)
	}
	delete(a.images, h)
	delete(a.byPath, asset.path)
	a.mu.Unlock()

	if asset.state == AssetReady {
		return a.atlas.Free(asset.region)
	}
	return nil
}

// LoadFont parses the font at path and registers it for text rendering.
// Fonts are loaded synchronously and cached by path.
func (a *Assets) LoadFont(path string) (*Font, error) {
	a.mu.Lock()
	if f, ok := a.fontPath[path]; ok {
		a.mu.Unlock()
		return f, nil
	}
	a.mu.Unlock()

	ext := extOf(path)
	if !fontExts[ext] {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownFormat, ext, path)
	}
	data, err := fs.ReadFile(a.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("pufferfish: read %s: %w", path, err)
	}
	f, err := ParseFont(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: ext, Err: errors.Unwrap(err)}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.fontPath[path]; ok {
		return prev, nil
	}
	a.fontPath[path] = f
	a.fonts.Add(f)
	return f, nil
}

// Close cancels decodes that have not started and waits for running ones.
func (a *Assets) Close() {
	a.cancel()
	a.wg.Wait()
}
