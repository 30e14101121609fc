package sim

import "errors"

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidConfig  = errors.New("invalid simulation config")
)
