// Package common contains shared constants, sentinel errors and small helpers
// used across fieldportal components.
package common

const (
	// AuthorizationHeaderName carries the bearer session token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// SessionTokenSlot is the key of the persisted credential slot.
	SessionTokenSlot = "session_token"
)
