// Package notifier fans order lifecycle events out to subscribed cashier
// sessions. Delivery is best-effort: a session that is offline when an event
// fires reconciles through the list endpoints on reconnect.
package notifier

import (
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
)

// EventType discriminates order lifecycle events.
type EventType string

const (
	// EventCreated fires after an order creation commits.
	EventCreated EventType = "created"
	// EventUpdated fires after a pay/cancel transition commits.
	EventUpdated EventType = "updated"
)

// OrderEvent carries enough summary data for a cashier dashboard to update
// its list without a follow-up fetch.
type OrderEvent struct {
	Type       EventType          `json:"type"`
	OrderID    string             `json:"order_id"`
	Day        string             `json:"day"`
	Seq        int                `json:"seq"`
	TicketCode string             `json:"ticket_code"`
	Status     entity.OrderStatus `json:"status"`
	Total      int64              `json:"total"`
	ItemCount  int                `json:"item_count"`
	OccurredAt time.Time          `json:"occurred_at"`
}

const subscriberBuffer = 64

type subscriber struct {
	ch     chan OrderEvent
	once   sync.Once
	remove func()
}

func (s *subscriber) close() {
	s.once.Do(func() {
		s.remove()
		close(s.ch)
	})
}

// Hub is the in-process publish/subscribe channel shared by every cashier
// session of this instance. Publication happens under one lock, so events for
// the same order are never reordered relative to each other. A subscriber
// whose buffer is full is dropped instead of blocking the publisher; the
// closed channel tells its session to reconnect and refresh.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	logger *zap.Logger
}

// Module provides the hub to Fx.
var Module = fx.Provide(NewHub)

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a session and returns its event channel plus a cancel
// function. Cancel is idempotent and must be called on session teardown so no
// subscriber handle outlives its connection.
func (h *Hub) Subscribe() (<-chan OrderEvent, func()) {
	sub := &subscriber{ch: make(chan OrderEvent, subscriberBuffer)}
	sub.remove = func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Debug("notifier subscriber added", zap.Int("subscribers", count))
	}
	return sub.ch, sub.close
}

// Publish delivers evt to every live subscriber. Slow subscribers are
// disconnected rather than retried; publication never blocks order
// processing.
func (h *Hub) Publish(evt OrderEvent) {
	h.mu.Lock()
	var dropped []*subscriber
	for sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			delete(h.subs, sub)
			dropped = append(dropped, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range dropped {
		sub.close()
	}
	if len(dropped) > 0 && h.logger != nil {
		h.logger.Warn("dropped slow notifier subscribers", zap.Int("count", len(dropped)))
	}
}

// Subscribers reports the current session count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
