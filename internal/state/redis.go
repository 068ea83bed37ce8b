package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON-encoded values under prefix+key. Keys must format
// with fmt.Sprint and parse back with the supplied parse function.
type RedisStore[K comparable, V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	parse  func(string) (K, error)
}

// NewRedisStore builds a RedisStore. ttl of zero keeps entries forever.
func NewRedisStore[K comparable, V any](client *redis.Client, prefix string, ttl time.Duration, parse func(string) (K, error)) *RedisStore[K, V] {
	return &RedisStore[K, V]{client: client, prefix: prefix, ttl: ttl, parse: parse}
}

func (s *RedisStore[K, V]) key(k K) string {
	return s.prefix + fmt.Sprint(k)
}

func (s *RedisStore[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var value V
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("redis get %s: %w", s.key(key), err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("decode %s: %w", s.key(key), err)
	}
	return value, true, nil
}

func (s *RedisStore[K, V]) Set(ctx context.Context, key K, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key(key), err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(key), err)
	}
	return nil
}

func (s *RedisStore[K, V]) Delete(ctx context.Context, key K) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key(key), err)
	}
	return nil
}

// CompareAndSwap compares the encoded forms under WATCH so a concurrent
// writer aborts the transaction instead of being overwritten.
func (s *RedisStore[K, V]) CompareAndSwap(ctx context.Context, key K, expected V, existed bool, next V) (bool, error) {
	k := s.key(key)
	want, err := json.Marshal(expected)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", k, err)
	}
	data, err := json.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", k, err)
	}

	swapped := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if existed {
				return nil
			}
		case err != nil:
			return err
		default:
			if !existed || !bytes.Equal(current, want) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, data, s.ttl)
			return nil
		})
		if err == nil {
			swapped = true
		}
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis cas %s: %w", k, err)
	}
	return swapped, nil
}

// Range scans every key under the prefix.
func (s *RedisStore[K, V]) Range(ctx context.Context, fn func(key K, value V) bool) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw := iter.Val()
		key, err := s.parse(strings.TrimPrefix(raw, s.prefix))
		if err != nil {
			continue
		}
		value, ok, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !fn(key, value) {
			return nil
		}
	}
	return iter.Err()
}

// NewRedisClient parses url, selects db and verifies the connection.
func NewRedisClient(ctx context.Context, url string, db int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DB = db

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
