package statuschannel

import (
	"context"
	"errors"
	"sync"

	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
)

// ErrBrokerClosed is returned by Subscribe after the broker shut down.
var ErrBrokerClosed = errors.New("status broker closed")

// Broker fans status records out to subscribers of one (user, role).
//
// Subscribe returns a channel that closes when ctx ends or when the broker
// loses the subscription. A close before ctx ends means records may have
// been missed and the subscriber must refetch.
type Broker interface {
	Publish(ctx context.Context, rec models.StatusRecord) error
	Subscribe(ctx context.Context, user id.UserID, role id.Role) (<-chan models.StatusRecord, error)
}

type topic struct {
	user id.UserID
	role id.Role
}

type hubSub struct {
	ch     chan models.StatusRecord
	done   chan struct{}
	closed bool
}

// Hub is an in-process broker. A subscriber whose buffer is full is dropped
// rather than blocking the publisher; it reconnects and refetches.
type Hub struct {
	mu     sync.Mutex
	subs   map[topic]map[*hubSub]struct{}
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[topic]map[*hubSub]struct{}), buffer: buffer}
}

func (h *Hub) Publish(_ context.Context, rec models.StatusRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrBrokerClosed
	}
	for sub := range h.subs[topic{rec.UserID, rec.Role}] {
		select {
		case sub.ch <- rec:
		default:
			h.dropLocked(topic{rec.UserID, rec.Role}, sub)
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, user id.UserID, role id.Role) (<-chan models.StatusRecord, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	t := topic{user, role}
	sub := &hubSub{ch: make(chan models.StatusRecord, h.buffer), done: make(chan struct{})}
	if h.subs[t] == nil {
		h.subs[t] = make(map[*hubSub]struct{})
	}
	h.subs[t][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
			return
		}
		h.mu.Lock()
		h.dropLocked(t, sub)
		h.mu.Unlock()
	}()
	return sub.ch, nil
}

// Disconnect drops every current subscription, as a broker restart would.
func (h *Hub) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for t, subs := range h.subs {
		for sub := range subs {
			h.dropLocked(t, sub)
		}
	}
}

// Close drops every subscription and rejects further use.
func (h *Hub) Close() error {
	h.Disconnect()
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// Subscribers returns the number of live subscriptions for (user, role).
func (h *Hub) Subscribers(user id.UserID, role id.Role) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic{user, role}])
}

func (h *Hub) dropLocked(t topic, sub *hubSub) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	close(sub.done)
	delete(h.subs[t], sub)
	if len(h.subs[t]) == 0 {
		delete(h.subs, t)
	}
}
