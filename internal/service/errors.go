package service

import (
	"errors"
	"fmt"
)

var (
	ErrDenied   = errors.New("action denied")
	ErrNotFound = errors.New("resource not found")
	ErrInvalid  = errors.New("invalid request")

	ErrEmailTaken       = errors.New("email already registered")
	ErrWrongCredentials = errors.New("invalid email or password")
)

// UpstreamError 包裝持久層的失敗，這一層不重試
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure during %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
