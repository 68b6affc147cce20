// Package identity is the HTTP client for the external Identity Service:
// flow start, flow status polling, session verification, tenant switching,
// and standalone completion. The service mints and validates the actual
// OAuth credentials; this client only carries the coordinator's requests.
package identity

import "strings"

// Status is a flow lifecycle state as reported by the Identity Service.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// ParseStatus normalizes a wire status. Unknown values map to pending so a
// newer service cannot wedge an older client into a terminal state.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed:
		return StatusFailed
	case StatusExpired:
		return StatusExpired
	default:
		return StatusPending
	}
}

// Terminal reports whether a status ends the flow.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// StartResult is the response to a flow start request.
type StartResult struct {
	RedirectURL string `json:"redirect_url"`
	FlowID      string `json:"flow_id"`
	// ExpectedOrigin is the origin completion messages must come from.
	// Empty means any origin is acceptable (server-relayed flows).
	ExpectedOrigin string `json:"expected_origin"`
}

// FlowStatus is one poll response.
type FlowStatus struct {
	Status Status
	Token  string
	Detail string
}

// User is the identity summary attached to a verified session.
type User struct {
	Email string `json:"email"`
}

// Tenant is an organizational unit the identity can be scoped into.
type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// SessionPayload is the Identity Service's view of a verified session.
type SessionPayload struct {
	User    User     `json:"user"`
	Tenant  *Tenant  `json:"tenant"`
	Tenants []Tenant `json:"tenants"`
}
