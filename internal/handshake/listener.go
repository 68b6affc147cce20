package handshake

import (
	"context"
	"strings"

	"github.com/keytriage/ktauth/internal/msgbus"
)

// waitForCompletion consumes bus messages until one carries a usable token
// from an allowed origin. Messages with the wrong type, a disallowed origin,
// or an empty token are skipped without side effects.
func waitForCompletion(ctx context.Context, sub <-chan msgbus.Message, expectedOrigin string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case msg, ok := <-sub:
			if !ok {
				<-ctx.Done()
				return "", ctx.Err()
			}
			if msg.Type != msgbus.AuthMessageType {
				continue
			}
			if !msgbus.OriginAllowed(msg.Origin, expectedOrigin) {
				continue
			}
			token := strings.TrimSpace(msg.Token)
			if token == "" {
				continue
			}
			return token, nil
		}
	}
}
