package model

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New("store is closed")

var (
	_ error = KeyNotFoundError{}
	_ error = ConnectionError{}
	_ error = ProtocolError{}
)

type KeyNotFoundError struct {
	Key string
}

func (err KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %s not found", err.Key)
}

// ConnectionError means the store could not be reached.
type ConnectionError struct {
	Addr string
	Err  error
}

func (err ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", err.Addr, err.Err)
}

func (err ConnectionError) Unwrap() error {
	return err.Err
}

// ProtocolError means the store answered with an error or malformed reply.
type ProtocolError struct {
	Cmd string
	Err error
}

func (err ProtocolError) Error() string {
	return fmt.Sprintf("store replied to %s with error: %v", err.Cmd, err.Err)
}

func (err ProtocolError) Unwrap() error {
	return err.Err
}
