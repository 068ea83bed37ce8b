package mocks

import (
	"context"
	"sync"

	"realtime-service/internal/models"
)

// Published is one recorded fan-out.
type Published struct {
	Group   string
	Event   models.Event
	Exclude []string
}

// RecordingFabric records publishes and subscriptions instead of writing to
// sockets.
type RecordingFabric struct {
	mu            sync.Mutex
	published     []Published
	subscriptions map[string]map[string]struct{}
	identities    map[string]int
}

func NewRecordingFabric() *RecordingFabric {
	return &RecordingFabric{subscriptions: make(map[string]map[string]struct{}), identities: make(map[string]int)}
}

func (f *RecordingFabric) Publish(_ context.Context, group string, ev models.Event, exclude ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, Published{Group: group, Event: ev, Exclude: exclude})
	return nil
}

func (f *RecordingFabric) Subscribe(connID, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	groups, ok := f.subscriptions[connID]
	if !ok {
		groups = make(map[string]struct{})
		f.subscriptions[connID] = groups
	}
	groups[group] = struct{}{}
	return nil
}

func (f *RecordingFabric) Unsubscribe(connID, group string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscriptions[connID], group)
}

func (f *RecordingFabric) Identify(connID string, userID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities[connID] = userID
}

// Identity returns the user recorded for connID.
func (f *RecordingFabric) Identity(connID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identities[connID]
}

// Subscribed reports whether connID is in group.
func (f *RecordingFabric) Subscribed(connID, group string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subscriptions[connID][group]
	return ok
}

// All returns every recorded publish in order.
func (f *RecordingFabric) All() []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Published, len(f.published))
	copy(out, f.published)
	return out
}

// Named returns the recorded publishes of one event name.
func (f *RecordingFabric) Named(name string) []Published {
	var out []Published
	for _, p := range f.All() {
		if p.Event.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// To returns the event names published to group, in order.
func (f *RecordingFabric) To(group string) []string {
	var out []string
	for _, p := range f.All() {
		if p.Group == group {
			out = append(out, p.Event.Name)
		}
	}
	return out
}

func (f *RecordingFabric) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = nil
}
