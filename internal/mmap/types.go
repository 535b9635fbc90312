package mmap

import "errors"

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the requested size is invalid.
	ErrInvalidSize = errors.New("mmap: invalid size")
	// ErrInvalidOffset is returned when an offset is negative.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
