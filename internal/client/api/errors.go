package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/fieldportal/internal/client/validation"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
)

// NetworkErrorMessage is the message of every status-0 error.
const NetworkErrorMessage = "network error"

// APIError is a failed backend call. Status is 0 when no response arrived.
type APIError struct {
	Status  int
	Message string
	Details string
	Code    string
	Err     error
}

func newNetworkError(err error) *APIError {
	return &APIError{Status: 0, Message: NetworkErrorMessage, Err: err}
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	s := fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	if e.Code != "" {
		s += " (" + e.Code + ")"
	}
	return s
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Status == 0
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// Describe turns err into text fit for the person at the keyboard.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, validation.ErrValidation) {
		return err.Error()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 0 {
			return "Cannot reach the server. Check your connection and try again."
		}
		if apiErr.Details != "" {
			return apiErr.Message + ": " + apiErr.Details
		}
		return apiErr.Message
	}
	return err.Error()
}
