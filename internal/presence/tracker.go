// Package presence derives online/away/offline state from connection
// occupancy and explicit client signals.
package presence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/repositories"
	"realtime-service/internal/state"
)

// Store is the persistence the tracker needs.
type Store interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	UpdatePresence(ctx context.Context, presence models.Presence) error
	ListPresence(ctx context.Context) ([]models.Presence, error)
}

// Tracker owns the presence state machine
// offline -> online -> away -> online -> offline.
type Tracker struct {
	store  Store
	cache  state.Store[int, models.Presence]
	fabric fabric.Publisher
	now    func() time.Time
}

// NewTracker builds a Tracker. A nil cache defaults to an in-memory store.
func NewTracker(store Store, cache state.Store[int, models.Presence], pub fabric.Publisher) *Tracker {
	if cache == nil {
		cache = state.NewMemoryStore[int, models.Presence]()
	}
	return &Tracker{store: store, cache: cache, fabric: pub, now: time.Now}
}

// Connected handles a newly registered connection. On the user's first
// connection the user goes online and everyone else is told; the new
// connection always receives the roster of all other users.
func (t *Tracker) Connected(ctx context.Context, userID int, connID string, first bool) error {
	if first {
		p := models.Online(userID)
		t.apply(ctx, p, connID)
		observability.IncOnlineUsers()
	}

	roster, err := t.Roster(ctx)
	if err != nil {
		return fmt.Errorf("roster for user %d: %w", userID, err)
	}
	others := make([]models.UserStatusPayload, 0, len(roster))
	for _, p := range roster {
		if p.UserID == userID {
			continue
		}
		others = append(others, models.NewUserStatusPayload(p))
	}
	return t.fabric.Publish(ctx, fabric.ConnGroup(connID), models.Event{
		Name: models.EventBulkUserStatusUpdate,
		Data: others,
	})
}

// SetAway moves an online user to away. Away, offline and unknown users are
// left untouched.
func (t *Tracker) SetAway(ctx context.Context, userID int, connID string) error {
	current, err := t.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !current.IsOnline {
		return fmt.Errorf("set away for offline user %d: %w", userID, models.ErrInvalidState)
	}
	if current.IsAway {
		return nil
	}
	t.apply(ctx, models.Away(userID, t.now()), connID)
	return nil
}

// SetOnline returns an away user to online. Already online is a no-op.
func (t *Tracker) SetOnline(ctx context.Context, userID int, connID string) error {
	current, err := t.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !current.IsOnline {
		return fmt.Errorf("set online for offline user %d: %w", userID, models.ErrInvalidState)
	}
	if !current.IsAway {
		return nil
	}
	t.apply(ctx, models.Online(userID), connID)
	return nil
}

// Disconnected forces the user offline once their last connection closed,
// regardless of away state.
func (t *Tracker) Disconnected(ctx context.Context, userID int, last bool) {
	if !last {
		return
	}
	t.apply(ctx, models.Offline(userID, t.now()), "")
	observability.DecOnlineUsers()
}

// Get returns the current presence of a user, falling back to the
// persisted row when the cache has no entry.
func (t *Tracker) Get(ctx context.Context, userID int) (models.Presence, error) {
	if p, ok, err := t.cache.Get(ctx, userID); err != nil {
		log.Printf("presence: cache read failed user_id=%d: %v", userID, err)
	} else if ok {
		return p, nil
	}

	user, err := t.store.GetUser(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.Presence{}, fmt.Errorf("presence for user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return models.Presence{}, err
	}
	return models.Presence{UserID: user.ID, IsOnline: user.IsOnline, IsAway: user.IsAway, LastSeen: user.LastSeen}, nil
}

// Roster returns the presence of every known user, preferring cached values
// over persisted ones.
func (t *Tracker) Roster(ctx context.Context) ([]models.Presence, error) {
	persisted, err := t.store.ListPresence(ctx)
	if err != nil {
		return nil, err
	}
	for i, p := range persisted {
		cached, ok, err := t.cache.Get(ctx, p.UserID)
		if err == nil && ok {
			persisted[i] = cached
		}
	}
	return persisted, nil
}

func (t *Tracker) apply(ctx context.Context, p models.Presence, connID string) {
	if err := t.cache.Set(ctx, p.UserID, p); err != nil {
		log.Printf("presence: cache write failed user_id=%d: %v", p.UserID, err)
	}
	if err := t.store.UpdatePresence(ctx, p); err != nil {
		log.Printf("presence: persist failed user_id=%d status=%s: %v", p.UserID, p.Status(), err)
	}

	var exclude []string
	if connID != "" {
		exclude = append(exclude, connID)
	}
	if err := t.fabric.Publish(ctx, fabric.Everyone, models.Event{
		Name: models.EventUserStatusUpdate,
		Data: models.NewUserStatusPayload(p),
	}, exclude...); err != nil {
		log.Printf("presence: broadcast failed user_id=%d: %v", p.UserID, err)
	}
	log.Printf("presence: user_id=%d status=%s", p.UserID, p.Status())
}

// Reset drops every cached presence. Called at startup after the persisted
// rows have been marked offline.
func (t *Tracker) Reset(ctx context.Context) error {
	var stale []int
	if err := t.cache.Range(ctx, func(userID int, _ models.Presence) bool {
		stale = append(stale, userID)
		return true
	}); err != nil {
		return err
	}
	for _, userID := range stale {
		if err := t.cache.Delete(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}
