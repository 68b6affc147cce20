// Package workspace resolves the helpdesk workspace (Zendesk subdomain) the
// operator belongs to.
//
// A workspace is a short subdomain-like label ("acme" in acme.zendesk.com).
// Resolution walks a fallback chain: explicit configuration, embedded-context
// introspection, referrer-host hint, remembered value, interactive prompt.
// The first source that yields a non-empty normalized value wins.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DomainSuffix is the helpdesk host suffix a workspace label lives under.
const DomainSuffix = ".zendesk.com"

var (
	identifierRe = regexp.MustCompile(`^[a-z0-9-]+$`)
	hostRe       = regexp.MustCompile(`^([a-z0-9-]+)\.zendesk\.com$`)
)

// ErrNoWorkspace indicates every resolution source came up empty.
var ErrNoWorkspace = errors.New("workspace not resolved")

// ResolutionError is returned when the fallback chain is exhausted.
type ResolutionError struct {
	Hint string
}

func (e *ResolutionError) Error() string {
	if e == nil || e.Hint == "" {
		return "unable to resolve workspace subdomain"
	}
	return fmt.Sprintf("unable to resolve workspace subdomain: %s", e.Hint)
}

func (e *ResolutionError) Unwrap() error {
	return ErrNoWorkspace
}

// Normalize reduces raw operator input to a bare workspace identifier.
//
// Bare identifiers matching [a-z0-9-]+ pass through lowercased. Anything else
// is parsed as a URL or hostname and the leading label before DomainSuffix is
// extracted. Returns "" when no identifier can be recovered. Normalize is
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}

	if identifierRe.MatchString(value) {
		return value
	}

	withProtocol := value
	if !strings.Contains(value, "://") {
		withProtocol = "https://" + value
	}

	parsed, err := url.Parse(withProtocol)
	if err != nil {
		return ""
	}

	return FromHost(parsed.Hostname())
}

// FromHost extracts a workspace label from a helpdesk hostname.
// Hosts outside DomainSuffix yield "".
func FromHost(host string) string {
	m := hostRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(host)))
	if m == nil {
		return ""
	}
	return m[1]
}

// Introspector supplies the workspace from the embedding context, such as a
// sidebar metadata call when running inside the helpdesk product.
type Introspector interface {
	WorkspaceSubdomain(ctx context.Context) (string, error)
}

// Prompter asks the operator for a workspace interactively.
type Prompter interface {
	AskWorkspace(ctx context.Context) (string, error)
}

// Resolver produces a normalized workspace identifier from the first
// non-empty source in its fallback chain.
type Resolver struct {
	// Explicit is the configured workspace value, highest priority.
	Explicit string

	// Introspector queries the embedding context. May be nil.
	Introspector Introspector

	// ReferrerHost is the host the current document was referred from.
	ReferrerHost string

	// Remembered is the last workspace a handshake succeeded for.
	Remembered string

	// Prompter is the interactive fallback. May be nil.
	Prompter Prompter
}

// Resolve walks the fallback chain and returns the first normalized
// workspace. Introspection errors continue the chain; a prompt error is
// surfaced because there is nothing left to try after it.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if ws := Normalize(r.Explicit); ws != "" {
		return ws, nil
	}

	if r.Introspector != nil {
		value, err := r.Introspector.WorkspaceSubdomain(ctx)
		if err == nil {
			if ws := Normalize(value); ws != "" {
				return ws, nil
			}
		}
	}

	if ws := FromHost(r.ReferrerHost); ws != "" {
		return ws, nil
	}

	if ws := Normalize(r.Remembered); ws != "" {
		return ws, nil
	}

	if r.Prompter != nil {
		value, err := r.Prompter.AskWorkspace(ctx)
		if err != nil {
			return "", fmt.Errorf("workspace prompt: %w", err)
		}
		if ws := Normalize(value); ws != "" {
			return ws, nil
		}
	}

	return "", &ResolutionError{Hint: "set workspace in config or pass one like acme or acme" + DomainSuffix}
}
