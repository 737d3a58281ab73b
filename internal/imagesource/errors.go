package imagesource

import (
	"errors"
	"fmt"
)

var (
	ErrTooLarge   = errors.New("image payload exceeds configured limit")
	ErrEmptyImage = errors.New("image payload is empty")
)

// FetchError reports a failed acquisition from a remote origin (URL or
// bucket object).
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch image from %s: unexpected status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch image from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IOError reports a failed acquisition from a local origin (file path or
// caller-provided stream).
type IOError struct {
	Source string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read image from %s: %v", e.Source, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
