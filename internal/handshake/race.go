package handshake

import (
	"context"
	"errors"
	"sync"

	"github.com/keytriage/ktauth/internal/popup"
)

type outcome struct {
	token string
	err   error
}

// race runs the message listener, the status poller, and closed-window
// detection concurrently and commits to the first settlement. Losers are
// cancelled and drained before return so no channel can fire afterwards; a
// token found in the drain beats a closed-window detection seen at the same
// tick.
func (h *Handshake) race(ctx context.Context, cfg Config, sess FlowSession, win popup.Controller) (string, error) {
	raceCtx, cancel := context.WithDeadline(ctx, sess.Deadline)
	defer cancel()

	// Buffered to hold every channel's result, so losers never block on send.
	results := make(chan outcome, 3)
	var wg sync.WaitGroup

	if h.Bus != nil {
		sub, unsubscribe := h.Bus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer unsubscribe()
			token, err := waitForCompletion(raceCtx, sub, sess.ExpectedOrigin)
			results <- outcome{token: token, err: err}
		}()
	}

	if sess.FlowID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := h.poll(raceCtx, cfg, sess.FlowID)
			results <- outcome{token: token, err: err}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher := &popup.ClosedWatcher{
			Window:        win,
			CheckInterval: cfg.ClosedCheckInterval,
			ClosedGrace:   cfg.ClosedGrace,
		}
		results <- outcome{err: watcher.Wait(raceCtx)}
	}()

	first := <-results
	cancel()
	wg.Wait()

	winner := first
	for {
		var res outcome
		select {
		case res = <-results:
		default:
			res = outcome{}
		}
		if res == (outcome{}) {
			break
		}
		if winner.token == "" && res.token != "" {
			winner = res
		}
	}

	if winner.token != "" {
		return winner.token, nil
	}
	return "", h.mapRaceError(ctx, winner.err)
}

// mapRaceError translates the settling error into the caller-facing
// taxonomy. A deadline hit on the race context, with the caller's context
// still live, is the handshake timeout.
func (h *Handshake) mapRaceError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return ErrTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}
