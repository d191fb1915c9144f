// Package realtime keeps the server-sent event subscribers connected to this
// API instance and fans events out to them.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/pkg/metrics"
)

const (
	// EventHeartbeat keeps idle connections open through proxies.
	EventHeartbeat = "heartbeat"

	subscriberBuffer = 100
	defaultHeartbeat = 30 * time.Second
)

// Event is a single server-sent event.
type Event struct {
	Type string
	Data any
}

// Format returns the SSE wire representation of e.
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + e.Type + "\ndata: " + string(data) + "\n\n"
}

// Subscriber is one open stream. Events is closed when the subscriber is
// removed or the hub shuts down.
type Subscriber struct {
	ID     string
	UserID string
	Events chan *Event
	Done   chan struct{}
}

// Hub tracks subscribers per user.
type Hub struct {
	mu     sync.RWMutex
	users  map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewHub starts a hub that sends a heartbeat to every subscriber on each
// interval. A non-positive interval uses 30s.
func NewHub(heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	h := &Hub{
		users:  make(map[string]map[string]*Subscriber),
		ticker: time.NewTicker(heartbeat),
		done:   make(chan struct{}),
	}
	go h.sendHeartbeats()
	return h
}

// Subscribe registers a new stream for userID.
func (h *Hub) Subscribe(userID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		UserID: userID,
		Events: make(chan *Event, subscriberBuffer),
		Done:   make(chan struct{}),
	}
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]*Subscriber)
	}
	h.users[userID][subscriberID] = sub
	metrics.RealtimeSubscribers.Inc()
	return sub
}

// Unsubscribe removes a stream. Unknown ids are ignored.
func (h *Hub) Unsubscribe(userID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.users[userID]
	if !ok {
		return
	}
	if sub, ok := subs[subscriberID]; ok {
		close(sub.Done)
		close(sub.Events)
		delete(subs, subscriberID)
		metrics.RealtimeSubscribers.Dec()
	}
	if len(subs) == 0 {
		delete(h.users, userID)
	}
}

// SendToUser delivers ev to every stream of userID. Subscribers with a full
// buffer miss the event.
func (h *Hub) SendToUser(userID string, ev ports.RealtimeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := &Event{Type: ev.Type, Data: ev.Data}
	for _, sub := range h.users[userID] {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of open streams for userID.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) sendHeartbeats() {
	for {
		select {
		case <-h.ticker.C:
			h.broadcastHeartbeat()
		case <-h.done:
			return
		}
	}
}

func (h *Hub) broadcastHeartbeat() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := &Event{
		Type: EventHeartbeat,
		Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
	}
	for _, subs := range h.users {
		for _, sub := range subs {
			select {
			case sub.Events <- event:
			default:
			}
		}
	}
}

// Close stops the heartbeat and ends every open stream.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)
		h.ticker.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()
		for userID, subs := range h.users {
			for _, sub := range subs {
				close(sub.Done)
				close(sub.Events)
				metrics.RealtimeSubscribers.Dec()
			}
			delete(h.users, userID)
		}
	})
}
