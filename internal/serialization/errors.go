package serialization

import "errors"

// Common errors.
var (
	ErrChecksumMismatch  = errors.New("checksum mismatch: file may be corrupted")
	ErrOutOfBounds       = errors.New("tensor extends beyond data section")
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrMissingTensor     = errors.New("tensor not found")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
	ErrShapeMismatch     = errors.New("tensor shape mismatch")
	ErrInvalidTensorName = errors.New("invalid tensor name")
)
