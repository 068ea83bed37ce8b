// Package state holds the engine's process-wide keyed state behind a narrow
// interface so the in-memory maps can be replaced by a shared store.
package state

import (
	"context"
	"errors"
)

// ErrConflict is returned by Mutate when the value kept changing underneath
// it for too many attempts.
var ErrConflict = errors.New("state: too many concurrent updates")

// Store is a keyed state table.
type Store[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Set(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
	// CompareAndSwap replaces the value for key with next only if the
	// current value equals expected. A missing key only matches when
	// existed is false.
	CompareAndSwap(ctx context.Context, key K, expected V, existed bool, next V) (bool, error)
	// Range calls fn for every entry until it returns false.
	Range(ctx context.Context, fn func(key K, value V) bool) error
}

const maxMutateAttempts = 16

// Mutate applies fn to the current value of key with compare-and-swap retry.
// fn returns the new value and whether the key should be kept; returning
// false deletes it.
func Mutate[K comparable, V any](ctx context.Context, s Store[K, V], key K, fn func(current V, existed bool) (V, bool)) (V, error) {
	for i := 0; i < maxMutateAttempts; i++ {
		current, existed, err := s.Get(ctx, key)
		if err != nil {
			var zero V
			return zero, err
		}
		next, keep := fn(current, existed)
		if !keep {
			if !existed {
				return next, nil
			}
			ok, err := s.CompareAndSwap(ctx, key, current, true, next)
			if err != nil {
				return next, err
			}
			if ok {
				return next, s.Delete(ctx, key)
			}
			continue
		}
		ok, err := s.CompareAndSwap(ctx, key, current, existed, next)
		if err != nil {
			return next, err
		}
		if ok {
			return next, nil
		}
	}
	var zero V
	return zero, ErrConflict
}
