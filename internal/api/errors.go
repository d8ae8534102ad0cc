package api

import (
	"errors"
	"fmt"
)

var (
	ErrTransport = errors.New("transport error")
	ErrRejected  = errors.New("rejected by server")
)

// TransportError means the request did not produce a usable server answer:
// a network failure, a body that is not the JSON envelope, or a non-2xx
// status without one.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RejectedError is a well-formed answer with success set to false.
type RejectedError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// Message returns the text to show the player for err: the server message
// for rejections, a generic line otherwise.
func Message(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "cannot reach the game server: " + te.Err.Error()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
