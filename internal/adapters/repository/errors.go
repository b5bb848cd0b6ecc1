package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("product not found")
	ErrDuplicateVote = errors.New("duplicate vote within validity window")
	ErrInvalidScope  = errors.New("scope category must not be empty")
)
