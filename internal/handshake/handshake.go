// Package handshake orchestrates one authentication attempt: open the
// authorization window, start a flow, then race the completion message
// channel against status polling and closed-window detection. The first
// channel to produce a usable token wins; everything else is torn down.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/keytriage/ktauth/internal/identity"
	"github.com/keytriage/ktauth/internal/msgbus"
	"github.com/keytriage/ktauth/internal/popup"
	"github.com/keytriage/ktauth/internal/tokenstore"
)

// Timing defaults. The deadline bounds the whole attempt; the poll interval
// paces the active channel inside it.
const (
	DefaultDeadline     = 90 * time.Second
	DefaultPollInterval = 1200 * time.Millisecond
)

// FlowService is the slice of the Identity Service a handshake needs.
// *identity.Client satisfies it.
type FlowService interface {
	Start(ctx context.Context, workspace, mode, postOrigin string) (identity.StartResult, error)
	FlowStatus(ctx context.Context, flowID string) (identity.FlowStatus, error)
}

// Config holds the timing knobs. Zero values fall back to defaults.
type Config struct {
	Deadline            time.Duration
	PollInterval        time.Duration
	ClosedCheckInterval time.Duration
	ClosedGrace         time.Duration
}

func (c Config) withDefaults() Config {
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ClosedCheckInterval <= 0 {
		c.ClosedCheckInterval = popup.DefaultCheckInterval
	}
	if c.ClosedGrace <= 0 {
		c.ClosedGrace = popup.DefaultClosedGrace
	}
	return c
}

// FlowSession identifies one in-flight attempt.
type FlowSession struct {
	FlowID         string
	Workspace      string
	ExpectedOrigin string
	Deadline       time.Time
}

// Handshake wires the collaborators for one launch context.
type Handshake struct {
	Flows  FlowService
	Opener popup.Opener
	Bus    msgbus.Bus
	Store  tokenstore.Store
	Config Config
	Logger *slog.Logger

	// PostOrigin is this process's own completion-callback origin, passed to
	// flow start so the far end knows where to post the message. Empty means
	// the flow completes by polling only.
	PostOrigin string
}

func (h *Handshake) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Connect runs a full interactive handshake for workspace and returns the
// resolved token. The window opens before any network traffic so a blocked
// opener aborts with no flow state created.
func (h *Handshake) Connect(ctx context.Context, workspace string) (string, error) {
	cfg := h.Config.withDefaults()
	logger := h.logger().With("run_id", uuid.NewString(), "workspace", workspace)

	win, err := h.Opener.Open(ctx)
	if err != nil {
		logger.Warn("authorization window blocked", "error", err)
		return "", err
	}
	defer win.Close()

	start, err := h.Flows.Start(ctx, workspace, "popup", h.PostOrigin)
	if err != nil {
		return "", err
	}
	if start.FlowID == "" && h.Bus == nil {
		return "", &identity.FlowStartError{Detail: "no flow id and no completion channel available"}
	}

	sess := FlowSession{
		FlowID:         start.FlowID,
		Workspace:      workspace,
		ExpectedOrigin: start.ExpectedOrigin,
		Deadline:       time.Now().Add(cfg.Deadline),
	}
	logger.Info("handshake started",
		"flow_id", sess.FlowID,
		"expected_origin", sess.ExpectedOrigin)

	if err := win.Navigate(ctx, start.RedirectURL); err != nil {
		if errors.Is(err, popup.ErrClosed) {
			return "", popup.ErrClosed
		}
		return "", fmt.Errorf("steer authorization window: %w", err)
	}

	token, err := h.race(ctx, cfg, sess, win)
	if err != nil {
		logger.Warn("handshake failed", "flow_id", sess.FlowID, "error", err)
		return "", err
	}

	h.Store.Set(workspace, token)
	logger.Info("handshake completed", "flow_id", sess.FlowID)
	return token, nil
}

// PollFlowToken resolves a flow by polling alone, for contexts with no
// message channel. The flow id is mandatory here.
func (h *Handshake) PollFlowToken(ctx context.Context, flowID string) (string, error) {
	if flowID == "" {
		return "", &identity.FlowStartError{Detail: "flow id required for polling completion"}
	}
	cfg := h.Config.withDefaults()

	pollCtx, cancel := context.WithTimeout(ctx, cfg.Deadline)
	defer cancel()

	token, err := h.poll(pollCtx, cfg, flowID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", ErrFlowTimeout
		}
		return "", err
	}
	return token, nil
}
