package pufferfish

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by this package can be matched
// against one of these with errors.Is.
var (
	// ErrAtlasFull is returned when no atlas page has room for a region and
	// the page limit prevents creating another one.
	ErrAtlasFull = errors.New("pufferfish: texture atlas is full")

	// ErrInvalidRegion is returned for zero-sized regions and for pixel data
	// whose length does not match the region.
	ErrInvalidRegion = errors.New("pufferfish: invalid atlas region")

	// ErrRegionNotFound is returned when a region was already freed or never
	// belonged to this atlas.
	ErrRegionNotFound = errors.New("pufferfish: atlas region not found")

	// ErrFrameState is the parent of all begin/end ordering errors.
	ErrFrameState = errors.New("pufferfish: frame state error")

	// ErrFrameAlreadyOpen is returned by BeginFrame while a frame is open.
	ErrFrameAlreadyOpen = fmt.Errorf("%w: frame already open", ErrFrameState)

	// ErrNoFrameOpen is returned by EndFrame and Push outside of a frame.
	ErrNoFrameOpen = fmt.Errorf("%w: no frame open", ErrFrameState)

	// ErrDecode is the parent of all asset decoding failures.
	ErrDecode = errors.New("pufferfish: decode failed")

	// ErrUnknownFormat is returned when no decoder is registered for an
	// asset's extension.
	ErrUnknownFormat = errors.New("pufferfish: unknown asset format")

	// ErrAssetNotReady is returned when a pending asset is used before
	// Assets.Update has completed its load.
	ErrAssetNotReady = errors.New("pufferfish: asset not loaded yet")

	// ErrGPUSubmission is the parent of all device failures. Rendering cannot
	// continue after one.
	ErrGPUSubmission = errors.New("pufferfish: gpu submission failed")
)

// AtlasFullError reports an allocation that did not fit anywhere.
type AtlasFullError struct {
	Width, Height int // requested size
	Pages         int // pages in use when the request failed
	MaxPages      int
}

func (e *AtlasFullError) Error() string {
	return fmt.Sprintf("pufferfish: texture atlas is full: cannot place %dx%d region (%d/%d pages)",
		e.Width, e.Height, e.Pages, e.MaxPages)
}

func (e *AtlasFullError) Unwrap() error { return ErrAtlasFull }

// FrameStateError reports a frame lifecycle call made in the wrong state.
type FrameStateError struct {
	Op    string
	State FrameState
	Err   error // ErrFrameAlreadyOpen or ErrNoFrameOpen
}

func (e *FrameStateError) Error() string {
	return fmt.Sprintf("pufferfish: %s in state %s: %s", e.Op, e.State, unprefixed(e.Err))
}

func (e *FrameStateError) Unwrap() error { return e.Err }

// DecodeError wraps an error returned by an asset decoder.
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pufferfish: decode %s (%s): %s", e.Path, e.Format, unprefixed(e.Err))
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// SubmitError wraps an error returned by the graphics device.
type SubmitError struct {
	Op  string
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("pufferfish: device %s: %s", e.Op, unprefixed(e.Err))
}

func (e *SubmitError) Unwrap() []error { return []error{ErrGPUSubmission, e.Err} }

func submitErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SubmitError
	if errors.As(err, &se) {
		return err
	}
	return &SubmitError{Op: op, Err: err}
}

// unprefixed returns err's message without a leading package prefix, for
// embedding in a message that already carries one.
func unprefixed(err error) string {
	if err == nil {
		return "<nil>"
	}
	return strings.TrimPrefix(err.Error(), "pufferfish: ")
}
