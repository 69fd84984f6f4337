// Package hub tracks the set of connected real-time clients and fans
// broadcast events out to them. Delivery is best effort: a client whose
// send queue is full has that event dropped rather than stalling the rest.
package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"wuphf.social/internal/protocol"
)

// EventSink receives a copy of every event the hub broadcasts (audit log).
type EventSink interface {
	WriteEvent(v any) error
}

type client struct {
	id     string
	out    chan []byte
	groups map[string]struct{}
}

type Hub struct {
	log   *log.Logger
	sink  EventSink
	queue int

	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]struct{}
	counts  map[string]uint64

	nextID  atomic.Uint64
	dropped atomic.Uint64
}

// New creates an empty registry. queue is the per-client send buffer;
// sink may be nil.
func New(logger *log.Logger, queue int, sink EventSink) *Hub {
	if queue <= 0 {
		queue = 64
	}
	return &Hub{
		log:     logger,
		sink:    sink,
		queue:   queue,
		clients: map[string]*client{},
		groups:  map[string]map[string]struct{}{},
		counts:  map[string]uint64{},
	}
}

// Register adds a connection and returns its id and receive channel. The
// channel is closed by Unregister.
func (h *Hub) Register() (string, <-chan []byte) {
	c := &client{
		id:     formatConnID(h.nextID.Add(1)),
		out:    make(chan []byte, h.queue),
		groups: map[string]struct{}{},
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c.id, c.out
}

// Unregister removes a connection, leaving all its groups first so members
// see MEMBER_LEFT notices. Safe to call for an unknown id.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c := h.clients[id]
	var groups []string
	if c != nil {
		for g := range c.groups {
			groups = append(groups, g)
		}
	}
	h.mu.Unlock()

	for _, g := range groups {
		h.LeaveGroup(id, g)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c = h.clients[id]; c == nil {
		return
	}
	delete(h.clients, id)
	close(c.out)
}

// JoinGroup adds the connection to a named group and notifies the group.
func (h *Hub) JoinGroup(id, group string) {
	if group == "" {
		return
	}
	h.mu.Lock()
	c := h.clients[id]
	if c == nil {
		h.mu.Unlock()
		return
	}
	c.groups[group] = struct{}{}
	g := h.groups[group]
	if g == nil {
		g = map[string]struct{}{}
		h.groups[group] = g
	}
	g[id] = struct{}{}
	h.mu.Unlock()

	h.BroadcastGroup(group, protocol.EventMemberJoined, protocol.MembershipData{ConnectionID: id, Group: group})
}

// LeaveGroup removes the connection from a group and notifies the
// remaining members.
func (h *Hub) LeaveGroup(id, group string) {
	h.mu.Lock()
	c := h.clients[id]
	g := h.groups[group]
	if c == nil || g == nil {
		h.mu.Unlock()
		return
	}
	if _, ok := g[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(c.groups, group)
	delete(g, id)
	if len(g) == 0 {
		delete(h.groups, group)
	}
	h.mu.Unlock()

	h.BroadcastGroup(group, protocol.EventMemberLeft, protocol.MembershipData{ConnectionID: id, Group: group})
}

// Broadcast pushes one event to every connected client.
func (h *Hub) Broadcast(event string, data any) {
	b := h.envelope(event, data)
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	h.send(ids, b)
}

// BroadcastGroup pushes one event to the members of a group.
func (h *Hub) BroadcastGroup(group, event string, data any) {
	b := h.envelope(event, data)
	h.mu.RLock()
	ids := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	h.send(ids, b)
}

func (h *Hub) envelope(event string, data any) []byte {
	msg := protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Event:           event,
		At:              time.Now().UTC(),
		Data:            data,
	}
	if h.sink != nil {
		if err := h.sink.WriteEvent(msg); err != nil && h.log != nil {
			h.log.Printf("event sink: %v", err)
		}
	}
	h.mu.Lock()
	h.counts[event]++
	h.mu.Unlock()

	b, err := json.Marshal(msg)
	if err != nil {
		// Only reachable with an unmarshalable payload; keep the show going.
		if h.log != nil {
			h.log.Printf("marshal event %s: %v", event, err)
		}
		return nil
	}
	return b
}

func (h *Hub) send(ids []string, b []byte) {
	if b == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range ids {
		c := h.clients[id]
		if c == nil {
			continue
		}
		select {
		case c.out <- b:
		default:
			h.dropped.Add(1)
			if h.log != nil {
				h.log.Printf("client %s queue full, dropping event", id)
			}
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize reports the membership count of a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// EventCounts returns a copy of the per-event broadcast counters.
func (h *Hub) EventCounts() map[string]uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]uint64, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}

// Dropped reports how many events were dropped on full client queues.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func formatConnID(n uint64) string { return fmt.Sprintf("C%d", n) }
