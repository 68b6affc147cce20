package workspace

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare identifier", "acme", "acme"},
		{"uppercase bare identifier", "ACME", "acme"},
		{"padded", "  acme  ", "acme"},
		{"hyphenated", "acme-support", "acme-support"},
		{"digits", "team42", "team42"},
		{"hostname", "acme.zendesk.com", "acme"},
		{"uppercase hostname", "ACME.Zendesk.COM", "acme"},
		{"full url", "https://acme.zendesk.com/agent/tickets", "acme"},
		{"url without scheme path", "acme.zendesk.com/agent", "acme"},
		{"foreign host", "acme.example.com", ""},
		{"apex domain", "zendesk.com", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"garbage", "://///", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"acme", "ACME.zendesk.com", "https://team42.zendesk.com/x", "acme-support", ""}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestFromHost(t *testing.T) {
	if got := FromHost("acme.zendesk.com"); got != "acme" {
		t.Errorf("FromHost = %q, want acme", got)
	}
	if got := FromHost("dashboard.example.com"); got != "" {
		t.Errorf("FromHost should reject foreign hosts, got %q", got)
	}
}

type staticIntrospector struct {
	value string
	err   error
}

func (s staticIntrospector) WorkspaceSubdomain(context.Context) (string, error) {
	return s.value, s.err
}

type staticPrompter struct {
	value string
	err   error
	asked bool
}

func (s *staticPrompter) AskWorkspace(context.Context) (string, error) {
	s.asked = true
	return s.value, s.err
}

func TestResolverOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit wins", func(t *testing.T) {
		r := &Resolver{
			Explicit:     "Acme.zendesk.com",
			Introspector: staticIntrospector{value: "other"},
			ReferrerHost: "third.zendesk.com",
		}
		got, err := r.Resolve(ctx)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "acme" {
			t.Errorf("got %q, want acme", got)
		}
	})

	t.Run("introspection second", func(t *testing.T) {
		r := &Resolver{
			Introspector: staticIntrospector{value: "embedded"},
			ReferrerHost: "third.zendesk.com",
		}
		got, err := r.Resolve(ctx)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "embedded" {
			t.Errorf("got %q, want embedded", got)
		}
	})

	t.Run("introspection error continues chain", func(t *testing.T) {
		r := &Resolver{
			Introspector: staticIntrospector{err: fmt.Errorf("no embedding context")},
			ReferrerHost: "ref.zendesk.com",
		}
		got, err := r.Resolve(ctx)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "ref" {
			t.Errorf("got %q, want ref", got)
		}
	})

	t.Run("remembered before prompt", func(t *testing.T) {
		prompter := &staticPrompter{value: "typed"}
		r := &Resolver{
			Remembered: "saved",
			Prompter:   prompter,
		}
		got, err := r.Resolve(ctx)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "saved" {
			t.Errorf("got %q, want saved", got)
		}
		if prompter.asked {
			t.Error("prompter should not run when a remembered workspace exists")
		}
	})

	t.Run("prompt last", func(t *testing.T) {
		r := &Resolver{Prompter: &staticPrompter{value: "typed.zendesk.com"}}
		got, err := r.Resolve(ctx)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "typed" {
			t.Errorf("got %q, want typed", got)
		}
	})

	t.Run("prompt error surfaces", func(t *testing.T) {
		r := &Resolver{Prompter: &staticPrompter{err: fmt.Errorf("canceled")}}
		if _, err := r.Resolve(ctx); err == nil {
			t.Fatal("expected error from failed prompt")
		}
	})

	t.Run("exhausted chain", func(t *testing.T) {
		r := &Resolver{ReferrerHost: "not-a-workspace.example.com"}
		_, err := r.Resolve(ctx)
		if err == nil {
			t.Fatal("expected resolution error")
		}
		if !errors.Is(err, ErrNoWorkspace) {
			t.Errorf("error should wrap ErrNoWorkspace, got %v", err)
		}
	})
}
