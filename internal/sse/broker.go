// Package sse implements a Server-Sent Events broker that tells preview
// clients when rendered pages change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types emitted by the broker.
const (
	TypePageCreated = "page.created"
	TypePageUpdated = "page.updated"
	TypePageDeleted = "page.deleted"
	TypeSiteReload  = "site.reload"
)

const (
	clientBuffer      = 64
	defaultHeartbeat  = 30 * time.Second
	defaultReloadRate = 2 * time.Second
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// hub is the broker state. Only the run goroutine touches it.
type hub struct {
	clients    map[chan []byte]struct{}
	lastReload time.Time
}

// send frames ev and offers it to every client. Clients whose buffer is
// full miss the event.
func (h *hub) send(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload))
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Broker fans page events out to connected SSE clients.
type Broker struct {
	reloadMin time.Duration
	heartbeat time.Duration

	ops     chan func(*hub)
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one site.reload per
// reloadThrottle.
func NewBroker(reloadThrottle time.Duration) *Broker {
	if reloadThrottle <= 0 {
		reloadThrottle = defaultReloadRate
	}
	b := &Broker{
		reloadMin: reloadThrottle,
		heartbeat: defaultHeartbeat,
		ops:       make(chan func(*hub)),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	h := &hub{clients: make(map[chan []byte]struct{})}
	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// exec hands op to the run goroutine. It returns false when the broker is
// closed, in which case op never runs.
func (b *Broker) exec(op func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

func pageEventType(kind string) (string, bool) {
	switch kind {
	case "created":
		return TypePageCreated, true
	case "updated":
		return TypePageUpdated, true
	case "deleted":
		return TypePageDeleted, true
	}
	return "", false
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed when the
// client is unsubscribed or the broker stops.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.exec(func(h *hub) { h.clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.exec(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.exec(func(h *hub) { n <- len(h.clients) }) {
		return 0
	}
	return <-n
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.exec(func(h *hub) { h.send(event) })
}

// PublishPageEvent reports a page change (kind is created, updated or
// deleted) followed by a throttled site.reload. Unknown kinds are ignored.
// Its signature matches index.EventCallback.
func (b *Broker) PublishPageEvent(kind, path string) {
	typ, ok := pageEventType(kind)
	if !ok {
		return
	}
	b.exec(func(h *hub) {
		h.send(Event{Type: typ, Data: map[string]string{"path": path}})
		if now := time.Now(); now.Sub(h.lastReload) >= b.reloadMin {
			h.lastReload = now
			h.send(Event{Type: TypeSiteReload, Data: map[string]string{}})
		}
	})
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: 3000\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
