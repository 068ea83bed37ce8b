// Package registry tracks which live connections belong to which user.
package registry

import (
	"context"
	"fmt"
	"log"
	"sort"

	"realtime-service/internal/models"
	"realtime-service/internal/state"
)

// UserLookup answers whether a user exists.
type UserLookup interface {
	Exists(ctx context.Context, userID int) (bool, error)
}

// Registry maps connections to users and users to their connection sets.
type Registry struct {
	users  UserLookup
	owners state.Store[string, int]
	conns  state.Store[int, []string]
}

// New builds a Registry over the given stores. Nil stores default to
// in-memory ones.
func New(users UserLookup, owners state.Store[string, int], conns state.Store[int, []string]) *Registry {
	if owners == nil {
		owners = state.NewMemoryStore[string, int]()
	}
	if conns == nil {
		conns = state.NewMemoryStore[int, []string]()
	}
	return &Registry{users: users, owners: owners, conns: conns}
}

// Register binds connID to userID. first reports whether this is the user's
// only live connection, newly added. Registering the same pair twice is a
// no-op and reports false.
func (r *Registry) Register(ctx context.Context, connID string, userID int) (bool, error) {
	ok, err := r.users.Exists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("lookup user %d: %w", userID, err)
	}
	if !ok {
		log.Printf("registry: rejecting conn=%s unknown user_id=%d", connID, userID)
		return false, fmt.Errorf("register user %d: %w", userID, models.ErrNotFound)
	}

	if prev, bound, err := r.owners.Get(ctx, connID); err != nil {
		return false, err
	} else if bound && prev != userID {
		return false, fmt.Errorf("conn %s already bound to user %d: %w", connID, prev, models.ErrInvalidState)
	}

	added := false
	set, err := state.Mutate(ctx, r.conns, userID, func(current []string, _ bool) ([]string, bool) {
		added = false
		for _, id := range current {
			if id == connID {
				return current, true
			}
		}
		added = true
		next := append(append([]string(nil), current...), connID)
		sort.Strings(next)
		return next, true
	})
	if err != nil {
		return false, fmt.Errorf("register conn %s: %w", connID, err)
	}
	if err := r.owners.Set(ctx, connID, userID); err != nil {
		return false, fmt.Errorf("register conn %s: %w", connID, err)
	}
	return added && len(set) == 1, nil
}

// Unregister drops connID. last reports whether the owning user has no live
// connection left. Unknown connections return ok=false.
func (r *Registry) Unregister(ctx context.Context, connID string) (userID int, last bool, ok bool, err error) {
	userID, ok, err = r.owners.Get(ctx, connID)
	if err != nil || !ok {
		return 0, false, false, err
	}
	if err := r.owners.Delete(ctx, connID); err != nil {
		return userID, false, true, err
	}

	set, err := state.Mutate(ctx, r.conns, userID, func(current []string, _ bool) ([]string, bool) {
		next := make([]string, 0, len(current))
		for _, id := range current {
			if id != connID {
				next = append(next, id)
			}
		}
		return next, len(next) > 0
	})
	if err != nil {
		return userID, false, true, fmt.Errorf("unregister conn %s: %w", connID, err)
	}
	return userID, len(set) == 0, true, nil
}

// ConnectionsOf lists the live connections of a user.
func (r *Registry) ConnectionsOf(ctx context.Context, userID int) []string {
	set, _, err := r.conns.Get(ctx, userID)
	if err != nil {
		log.Printf("registry: connections lookup failed user_id=%d: %v", userID, err)
		return nil
	}
	return append([]string(nil), set...)
}

// UserOf resolves the user owning a connection.
func (r *Registry) UserOf(ctx context.Context, connID string) (int, bool) {
	userID, ok, err := r.owners.Get(ctx, connID)
	if err != nil {
		log.Printf("registry: owner lookup failed conn=%s: %v", connID, err)
		return 0, false
	}
	return userID, ok
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(ctx context.Context, userID int) bool {
	return len(r.ConnectionsOf(ctx, userID)) > 0
}
