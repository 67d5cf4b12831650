package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAuthRequired = errors.New("authentication required")
	ErrTransport    = errors.New("transport failure")
	ErrTimeout      = errors.New("generation budget exhausted")
	ErrInvalidState = errors.New("invalid state transition")
	ErrDuplicateKey = errors.New("provider key already connected")
)
