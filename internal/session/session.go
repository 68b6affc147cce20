// Package session owns the verified outcome of a handshake: checking a
// stored token against the Identity Service, re-scoping to another tenant,
// and deriving what the holder may do from the tenant's standing.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/tokenstore"
)

// UserSession is the single source of truth for "is this caller
// authenticated". A session with no token is unauthenticated, never
// partially valid.
type UserSession struct {
	Token   string
	User    identity.User
	Tenant  *identity.Tenant
	Tenants []identity.Tenant
}

// Authenticated reports whether the session carries a token.
func (s *UserSession) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Service is the slice of the Identity Service the session layer needs.
// *identity.Client satisfies it.
type Service interface {
	Session(ctx context.Context, token string) (*identity.SessionPayload, error)
	SwitchTenant(ctx context.Context, token, tenantID string) (*identity.SessionPayload, error)
}

// Verifier checks stored tokens against the Identity Service.
type Verifier struct {
	Service Service
	Store   tokenstore.Store
	Logger  *slog.Logger
}

func (v *Verifier) logger() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}

// Verify resolves the stored token for workspace into a UserSession. No
// token, or a token the service rejects, yields an unauthenticated session
// without error; rejection also clears the stale token so a later fresh
// handshake starts clean. Other failures are VerificationErrors.
func (v *Verifier) Verify(ctx context.Context, workspace string) (*UserSession, error) {
	token := v.Store.Get(workspace)
	if token == "" {
		return &UserSession{}, nil
	}

	payload, err := v.Service.Session(ctx, token)
	if errors.Is(err, identity.ErrUnauthorized) {
		v.Store.Clear(workspace)
		v.logger().Info("stored token rejected, cleared", "workspace", workspace)
		return &UserSession{}, nil
	}
	if err != nil {
		return nil, &VerificationError{Err: err}
	}

	return &UserSession{
		Token:   token,
		User:    payload.User,
		Tenant:  payload.Tenant,
		Tenants: payload.Tenants,
	}, nil
}

// Switch re-scopes sess to tenantID. On success User, Tenant, and Tenants
// are replaced together; on any failure sess is left untouched.
func Switch(ctx context.Context, svc Service, sess *UserSession, tenantID string) error {
	if !sess.Authenticated() {
		return &TenantSwitchError{Detail: "not authenticated"}
	}
	if len(sess.Tenants) > 0 && !hasTenant(sess.Tenants, tenantID) {
		return &TenantSwitchError{Detail: "tenant is not available to this identity"}
	}

	payload, err := svc.SwitchTenant(ctx, sess.Token, tenantID)
	if err != nil {
		return &TenantSwitchError{Err: err}
	}
	if payload.Tenant == nil {
		return &TenantSwitchError{Detail: "service returned no active tenant"}
	}

	sess.User = payload.User
	sess.Tenant = payload.Tenant
	sess.Tenants = payload.Tenants
	return nil
}

func hasTenant(tenants []identity.Tenant, id string) bool {
	for _, t := range tenants {
		if t.ID == id {
			return true
		}
	}
	return false
}
