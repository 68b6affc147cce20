package identity

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the Identity Service rejects the bearer
// token with a 401-class response. Callers treat this as "unauthenticated",
// an expected state, not a hard failure.
var ErrUnauthorized = errors.New("identity service rejected token")

// FlowStartError is returned when a flow cannot be started: the endpoint is
// unreachable, answers non-2xx, or omits the redirect URL.
type FlowStartError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *FlowStartError) Error() string {
	switch {
	case e == nil:
		return "unable to start authentication"
	case e.Detail != "":
		return fmt.Sprintf("unable to start authentication: %s", e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("unable to start authentication: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("unable to start authentication (status %d)", e.StatusCode)
	default:
		return "unable to start authentication"
	}
}

func (e *FlowStartError) Unwrap() error {
	return e.Err
}

// FlowRejectedError is returned when polling reports a failed or expired
// flow. Detail carries the service-provided message when present.
type FlowRejectedError struct {
	Status Status
	Detail string
}

func (e *FlowRejectedError) Error() string {
	if e != nil && e.Detail != "" {
		return e.Detail
	}
	return "authentication did not complete"
}

// APIError is a non-success response outside the dedicated taxonomy, e.g. a
// 5xx from the session endpoint.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e != nil && e.Detail != "" {
		return e.Detail
	}
	if e != nil && e.StatusCode != 0 {
		return fmt.Sprintf("identity service request failed (status %d)", e.StatusCode)
	}
	return "identity service request failed"
}
