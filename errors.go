package imgpdf

import "errors"

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [Printer].
	ErrClosed = errors.New("imgpdf: printer is closed")

	// ErrNoImages is returned when there is nothing to print because the
	// scan found no images.
	ErrNoImages = errors.New("imgpdf: no images found")

	// ErrSuperseded is returned by [Loader.Reload] when a newer reload
	// replaced the scan before it could commit its records.
	ErrSuperseded = errors.New("imgpdf: scan superseded by a newer reload")

	// ErrNotFound is returned by a [Source] when the requested file does
	// not exist.
	ErrNotFound = errors.New("imgpdf: image not found")
)
