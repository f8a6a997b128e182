package common

import "errors"

var (
	// Session errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")

	// Store lifecycle.
	ErrStoreClosed = errors.New("store closed")
)
