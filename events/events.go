// Package events fans job progress out to live subscribers (SSE and websocket).
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the scheduler.
const (
	JobScheduled  = "job_scheduled"
	RecipientSent = "recipient_sent"
	SendFailed    = "send_failed"
	JobCompleted  = "job_completed"
	JobCancelled  = "job_cancelled"
)

// Event is one progress notification for a job.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Recipient string    `json:"recipient,omitempty"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// JSON encodes the event for the wire.
func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Publisher is what the scheduler needs from the hub.
type Publisher interface {
	Publish(Event)
}

// Hub broadcasts events to subscribers. Slow subscribers drop events.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
	buffer  int
	closed  bool
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{clients: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber channel. After Close it returns
// an already closed channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.clients[ch] = struct{}{}
	return ch
}

// Close ends every subscription so open streams can finish.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// Unsubscribe removes and closes ch. It is safe to call more than once.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish stamps e and delivers it to every subscriber without blocking.
func (h *Hub) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
			// drop if slow
		}
	}
}
