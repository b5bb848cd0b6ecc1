package service

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrEmptyIdentity = errors.New("user id and product id must not be empty")
	ErrUpstreamFetch = errors.New("upstream fetch failed")
)
