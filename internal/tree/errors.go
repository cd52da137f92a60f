package tree

import "errors"

// Common errors.
var (
	ErrShape             = errors.New("invalid shape")
	ErrStructureMismatch = errors.New("tree structure mismatch")
	ErrNilTree           = errors.New("nil tree")
	ErrNotScalar         = errors.New("tree is not a single-element leaf")
)
