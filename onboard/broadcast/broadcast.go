package broadcast

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	STREAM_SENT       = "sent"
	STREAM_TELEMETRY  = "telemetry"
	STREAM_VALIDATION = "validation"
	STREAM_STATE      = "state"
)

type Message struct {
	Stream string      `json:"stream"`
	Text   string      `json:"text,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Time   time.Time   `json:"time"`
}

// Hub fans operator messages out to every subscriber. Publishing never
// blocks; a subscriber that falls behind loses messages.
type Hub struct {
	lock    sync.RWMutex
	subs    map[int]chan Message
	next    int
	dropped int64
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan Message),
	}
}

func (h *Hub) Subscribe(buffer int) (id int, messages <-chan Message) {
	h.lock.Lock()
	defer h.lock.Unlock()

	ch := make(chan Message, buffer)
	id = h.next
	h.next++
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe closes the subscriber's channel.
func (h *Hub) Unsubscribe(id int) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Publish(msg Message) {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			atomic.AddInt64(&h.dropped, 1)
		}
	}
}

// Dropped counts messages lost to slow subscribers.
func (h *Hub) Dropped() int64 {
	return atomic.LoadInt64(&h.dropped)
}

func (h *Hub) Sent(msg string) {
	h.Publish(Message{Stream: STREAM_SENT, Text: msg})
}

func (h *Hub) Telemetry(msg string) {
	h.Publish(Message{Stream: STREAM_TELEMETRY, Text: msg})
}

func (h *Hub) ValidationError(msg string) {
	h.Publish(Message{Stream: STREAM_VALIDATION, Text: msg})
}
