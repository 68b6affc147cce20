package handshake

import "errors"

var (
	// ErrTimeout means the whole handshake deadline elapsed with no channel
	// resolving.
	ErrTimeout = errors.New("authentication timed out")

	// ErrFlowTimeout means a poll-only completion ran out of time.
	ErrFlowTimeout = errors.New("authentication flow timed out")
)
