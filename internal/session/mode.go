package session

import (
	"strings"

	"github.com/keytriage/ktauth/internal/identity"
)

// Mode is the application mode the workspace runs in.
type Mode string

const (
	ModeEnabled  Mode = "enabled"
	ModeDemo     Mode = "demo"
	ModeDisabled Mode = "disabled"
)

// ParseMode normalizes a configured mode. Empty means enabled; anything
// unrecognized is treated as disabled.
func ParseMode(raw string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeEnabled, "":
		return ModeEnabled
	case ModeDemo:
		return ModeDemo
	default:
		return ModeDisabled
	}
}

// EnforceTenantStatus downgrades the mode to disabled when the active tenant
// is not in good standing, regardless of configuration.
func EnforceTenantStatus(mode Mode, tenant *identity.Tenant) Mode {
	if tenant != nil && tenant.Status != "" && tenant.Status != "active" {
		return ModeDisabled
	}
	return mode
}

// Capabilities is what the current session may do. Derived, never mutated in
// place.
type Capabilities struct {
	CanRead  bool
	CanWrite bool
}

// ComputeCapabilities derives control availability from the session and
// mode. Writes need an enabled workspace; reads survive demo mode.
func ComputeCapabilities(sess *UserSession, mode Mode) Capabilities {
	authed := sess.Authenticated()
	return Capabilities{
		CanRead:  authed && mode != ModeDisabled,
		CanWrite: authed && mode == ModeEnabled,
	}
}
