package geometry

import "errors"

// Invariant violations. Both are raised with panic and never returned.
var (
	ErrUnsupportedShapePair  = errors.New("unsupported shape pair")
	ErrInvalidGeometricState = errors.New("invalid geometric state")
)
