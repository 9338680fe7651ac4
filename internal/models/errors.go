package models

import "errors"

var (
	// ErrMalformedRecord is returned when a composite key does not split into two segments
	ErrMalformedRecord = errors.New("malformed progress record")
	// ErrInvalidUserID is returned when a user id cannot be encoded into a composite key
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrUnauthenticated marks an operation attempted without a valid identity
	ErrUnauthenticated = errors.New("unauthenticated")
)
