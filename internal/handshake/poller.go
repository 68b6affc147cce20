package handshake

import (
	"context"
	"time"

	"github.com/keytriage/ktauth/internal/identity"
)

// poll queries flow status until it turns terminal or ctx ends. Transport
// errors and non-terminal responses keep the loop alive; only an explicit
// terminal status or the deadline stops it. A completed status with an empty
// token is not a completion.
func (h *Handshake) poll(ctx context.Context, cfg Config, flowID string) (string, error) {
	logger := h.logger()

	timer := time.NewTimer(0)
	defer timer.Stop()
	// Drain the immediate first tick so the loop polls right away.
	<-timer.C

	for {
		st, err := h.Flows.FlowStatus(ctx, flowID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Debug("flow status poll failed", "flow_id", flowID, "error", err)
		case st.Status == identity.StatusCompleted && st.Token != "":
			return st.Token, nil
		case st.Status == identity.StatusFailed || st.Status == identity.StatusExpired:
			return "", &identity.FlowRejectedError{Status: st.Status, Detail: st.Detail}
		}

		timer.Reset(cfg.PollInterval)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}
