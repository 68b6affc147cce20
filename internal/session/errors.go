package session

import "fmt"

// VerificationError is a non-401 failure while checking a session; 401s are
// an expected state, not an error.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify session: %v", e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// TenantSwitchError means the session could not be re-scoped; the session is
// unchanged when this is returned.
type TenantSwitchError struct {
	Detail string
	Err    error
}

func (e *TenantSwitchError) Error() string {
	switch {
	case e == nil:
		return "tenant switch failed"
	case e.Detail != "":
		return fmt.Sprintf("tenant switch failed: %s", e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("tenant switch failed: %v", e.Err)
	default:
		return "tenant switch failed"
	}
}

func (e *TenantSwitchError) Unwrap() error {
	return e.Err
}
