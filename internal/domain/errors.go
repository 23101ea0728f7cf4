package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamFailure     = errors.New("upstream failure")
	ErrNoContent           = errors.New("no content")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrDuplicateOperation  = errors.New("duplicate operation")
)
