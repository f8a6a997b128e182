// Package api is the fieldportal client for the backend REST API.
//
// # Overview
//
//  1. A transport-agnostic contract (see Client) covering login/logout, the
//     current user, tenant onboarding and the billing subscription.
//  2. HTTPClient, a JSON-over-HTTP implementation. It attaches the bearer
//     token and a request id, unwraps the {success, message, data} envelope,
//     and turns every non-2xx answer into *APIError.
//
// # Error Handling
//
// Failures are *APIError values carrying status, message, details and code.
// Status 0 means no response was received. Callers match classes with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrBadRequest.
//
// A 401 or 403 answer to a request sent with the current token is also
// reported to the handler registered with OnUnauthorized, so the session can
// be dropped in one place instead of by every caller.
package api
