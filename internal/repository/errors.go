package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrMissingFields     = errors.New("required fields missing")
	ErrInvalidTransition = errors.New("invalid status transition")
)
