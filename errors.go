package nskv

import "github.com/horockey/nskv/internal/model"

type (
	ConnectionError  = model.ConnectionError
	ProtocolError    = model.ProtocolError
	KeyNotFoundError = model.KeyNotFoundError
)

// ErrClosed is returned by every operation of a closed View.
var ErrClosed = model.ErrClosed
