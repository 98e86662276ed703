package checkpoint

import "errors"

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTruncated          = errors.New("file truncated")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrLayerBounds        = errors.New("layer parameters extend beyond data section")
)
