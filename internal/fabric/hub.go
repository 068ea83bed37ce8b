package fabric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"realtime-service/internal/models"
	"realtime-service/internal/observability"
)

var ErrUnknownConnection = errors.New("unknown connection")

// Hub maintains live clients and the groups they are subscribed to.
type Hub struct {
	clients      map[string]*Client
	groups       map[string]map[string]*Client
	clientGroups map[string]map[string]struct{}
	mu           sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		groups:       make(map[string]map[string]*Client),
		clientGroups: make(map[string]map[string]struct{}),
	}
}

// Attach registers a client, subscribes it to its own connection group and
// starts its write loop.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.clientGroups[c.ID] = make(map[string]struct{})
	h.subscribeLocked(c, ConnGroup(c.ID))
	h.mu.Unlock()

	if c.ws != nil {
		go c.writeLoop()
	}
	observability.IncWSActive("realtime")
}

// Detach removes a client from every group and closes it.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if ok {
		for group := range h.clientGroups[connID] {
			h.leaveLocked(group, connID)
		}
		delete(h.clientGroups, connID)
		delete(h.clients, connID)
	}
	h.mu.Unlock()

	if ok {
		c.Close(websocket.CloseNormalClosure, "")
		observability.DecWSActive("realtime")
	}
}

// Identify records the user owning a connection for lifecycle events.
func (h *Hub) Identify(connID string, userID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok {
		c.bind(userID)
	}
}

// Subscribe adds a connection to a group.
func (h *Hub) Subscribe(connID, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return fmt.Errorf("subscribe %s to %s: %w", connID, group, ErrUnknownConnection)
	}
	h.subscribeLocked(c, group)
	return nil
}

// Unsubscribe removes a connection from a group.
func (h *Hub) Unsubscribe(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(group, connID)
}

// Publish marshals ev once and queues it for every member of group.
func (h *Hub) Publish(ctx context.Context, group string, ev models.Event, exclude ...string) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Name, err)
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for id, c := range h.groups[group] {
		if contains(exclude, id) {
			continue
		}
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if err := c.Send(payload); err != nil {
			log.Printf("fabric: send failed conn=%s event=%s: %v", c.ID, ev.Name, err)
			h.publishWSError(ctx, c, err)
		}
	}
	observability.IncWSEvent("realtime", ev.Name)
	return nil
}

// Members reports the connection ids subscribed to group.
func (h *Hub) Members(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every client and clears the hub.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.groups = make(map[string]map[string]*Client)
	h.clientGroups = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

func (h *Hub) subscribeLocked(c *Client, group string) {
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Client)
		h.groups[group] = members
	}
	members[c.ID] = c
	if _, ok := h.clientGroups[c.ID]; !ok {
		h.clientGroups[c.ID] = make(map[string]struct{})
	}
	h.clientGroups[c.ID][group] = struct{}{}
}

func (h *Hub) leaveLocked(group, connID string) {
	if members, ok := h.groups[group]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	if groups, ok := h.clientGroups[connID]; ok {
		delete(groups, group)
	}
}

func (h *Hub) publishWSError(ctx context.Context, c *Client, err error) {
	info := c.Info()
	observability.PublishWSEvent(ctx, LifecycleEvent("ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), err.Error()))
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
