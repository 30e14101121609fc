package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed      = errors.New("client is closed")
	ErrNotConnected      = errors.New("client is not connected")
	ErrAlreadyConnected  = errors.New("client is already connected")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrServerFull        = errors.New("server is full")
	ErrNotJoined         = errors.New("client has not joined")
	ErrAlreadyJoined     = errors.New("client already joined")
	ErrJoinInProgress    = errors.New("join already in progress")
	ErrServerRejected    = errors.New("rejected by server")
)
