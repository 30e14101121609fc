package world

import "errors"

var (
	ErrDuplicateID    = errors.New("object id already in use")
	ErrObjectNotFound = errors.New("object not found")
	ErrAlreadyInWorld = errors.New("object already in world")
	ErrUnknownElement = errors.New("unknown element")
)
