package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
)

var ErrHubClosed = errors.New("realtime hub is closed")

// SeatStateChanged is the single message type pushed to subscribers.
type SeatStateChanged struct {
	EventID        uuid.UUID `json:"event_id"`
	BookedSeats    []int     `json:"booked_seats"`
	AvailableSeats int       `json:"available_seats"`
	TotalSeats     int       `json:"total_seats"`
	Version        int64     `json:"version"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Subscriber receives seat-state snapshots for one event. A subscriber that
// falls behind loses messages instead of slowing the publisher; Dropped
// tells it to resync from the current seat state.
type Subscriber struct {
	ID      uuid.UUID
	EventID uuid.UUID

	ch        chan SeatStateChanged
	dropped   atomic.Int64
	closeOnce sync.Once
}

// C returns the delivery channel. It is closed on unsubscribe or hub shutdown.
func (s *Subscriber) C() <-chan SeatStateChanged {
	return s.ch
}

// Dropped returns how many messages were discarded because the buffer was full.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

type topic struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]*Subscriber
	lastVersion int64
}

// Hub is the registry of per-event topics. Create one at server start and
// Close it on shutdown.
type Hub struct {
	mu     sync.Mutex
	topics map[uuid.UUID]*topic
	closed bool

	buffer int
	log    *logger.Logger
}

func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Hub{
		topics: make(map[uuid.UUID]*topic),
		buffer: buffer,
		log:    log.Component("realtime"),
	}
}

// Subscribe joins the topic for eventID.
func (h *Hub) Subscribe(eventID uuid.UUID) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	t, ok := h.topics[eventID]
	if !ok {
		t = &topic{subscribers: make(map[uuid.UUID]*Subscriber)}
		h.topics[eventID] = t
	}

	sub := &Subscriber{
		ID:      uuid.New(),
		EventID: eventID,
		ch:      make(chan SeatStateChanged, h.buffer),
	}

	t.mu.Lock()
	t.subscribers[sub.ID] = sub
	t.mu.Unlock()

	return sub, nil
}

// Unsubscribe leaves the topic and closes the subscriber's channel. Safe to
// call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.topics[sub.EventID]; ok {
		t.mu.Lock()
		delete(t.subscribers, sub.ID)
		empty := len(t.subscribers) == 0
		t.mu.Unlock()

		if empty {
			delete(h.topics, sub.EventID)
		}
	}
	sub.close()
}

// Publish delivers msg to every subscriber of msg.EventID without blocking.
// Within one event, messages reach each subscriber in publish order, and a
// message older than one already delivered is discarded.
func (h *Hub) Publish(msg SeatStateChanged) {
	h.mu.Lock()
	t, ok := h.topics[msg.EventID]
	h.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Version != 0 && msg.Version <= t.lastVersion {
		h.log.Debug("dropping stale seat snapshot",
			"event_id", msg.EventID.String(),
			"version", msg.Version,
			"last_version", t.lastVersion,
		)
		return
	}
	if msg.Version > t.lastVersion {
		t.lastVersion = msg.Version
	}

	for _, sub := range t.subscribers {
		select {
		case sub.ch <- msg:
		default:
			sub.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of live subscribers for eventID.
func (h *Hub) SubscriberCount(eventID uuid.UUID) int {
	h.mu.Lock()
	t, ok := h.topics[eventID]
	h.mu.Unlock()
	if !ok {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

// Close disconnects every subscriber and rejects new subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, t := range h.topics {
		t.mu.Lock()
		for _, sub := range t.subscribers {
			sub.close()
		}
		t.subscribers = nil
		t.mu.Unlock()
		delete(h.topics, id)
	}
}
