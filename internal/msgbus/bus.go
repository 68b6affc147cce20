// Package msgbus carries completion messages from the authorization window
// back to a waiting handshake. Messages arrive either through an in-process
// publish or through the local HTTP callback server; subscribers race them
// against status polling.
package msgbus

import "sync"

// AuthMessageType tags a completion message. Anything else on the bus is
// ignored by handshake listeners.
const AuthMessageType = "keytriage-zendesk-auth"

// Message is one completion notification.
type Message struct {
	Type   string `json:"type"`
	Token  string `json:"token"`
	Origin string `json:"-"`
}

// Bus delivers published messages to subscribers.
type Bus interface {
	// Subscribe returns a receive channel and a cancel func. Cancel must be
	// called when the subscriber is done; the channel is closed after.
	Subscribe() (<-chan Message, func())
}

const subscriberBuffer = 8

// Memory is an in-process Bus. Publishing never blocks; a subscriber that
// stops draining loses messages rather than stalling the publisher.
type Memory struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Message
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[int]chan Message)}
}

// Subscribe registers a new subscriber.
func (b *Memory) Subscribe() (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Message, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish fans a message out to all current subscribers.
func (b *Memory) Publish(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			// Subscriber is not draining; drop rather than block.
		}
	}
}
