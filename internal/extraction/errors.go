package extraction

import "errors"

var (
	// ErrUnsupportedFormat indicates an attachment content type with no extraction path.
	ErrUnsupportedFormat = errors.New("unsupported attachment format")

	// ErrExtractionFailed indicates a supported attachment that could not be read.
	ErrExtractionFailed = errors.New("attachment extraction failed")
)
