// Package redisstore is a Store backed by Redis. Rooms are JSON documents
// written with WATCH/MULTI compare-and-set; heartbeats go to a separate
// presence hash so they never contend with room writes.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"doodleduel/internal/domain"
	"doodleduel/internal/store"
)

// DefaultTTL is how long an untouched room survives
const DefaultTTL = 24 * time.Hour

// Store is the Redis implementation of store.Store
type Store struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
}

// New creates a Redis store
func New(client *redis.Client, keyPrefix string, ttl time.Duration, logger *slog.Logger) *Store {
	if client == nil {
		panic("redis client cannot be nil for redis store")
	}
	if keyPrefix == "" {
		keyPrefix = "dd:"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *Store) roomKey(code string) string {
	return fmt.Sprintf("%sroom:%s", s.keyPrefix, code)
}

func (s *Store) presenceKey(code string) string {
	return fmt.Sprintf("%sroom:%s:presence", s.keyPrefix, code)
}

// Get reads the room and merges the latest heartbeats into it
func (s *Store) Get(ctx context.Context, code string) (*domain.Room, error) {
	data, err := s.client.Get(ctx, s.roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrRoomNotFound
		}
		return nil, fmt.Errorf("redis: get room %s: %w", code, err)
	}
	room, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("redis: decode room %s: %w", code, err)
	}

	presence, err := s.client.HGetAll(ctx, s.presenceKey(code)).Result()
	if err != nil {
		s.logger.Debug("redis: presence read failed", "roomCode", code, "error", err)
		return room, nil
	}
	for playerID, ms := range presence {
		millis, err := strconv.ParseInt(ms, 10, 64)
		if err != nil {
			continue
		}
		_ = room.UpdatePlayer(playerID, func(p *domain.Player) {
			p.LastSeen = time.UnixMilli(millis).UTC()
		})
	}
	return room, nil
}

// Update applies fn inside an optimistic transaction, retrying when another
// client wrote the room in between.
func (s *Store) Update(ctx context.Context, code string, fn domain.Transform) (*domain.Room, error) {
	key := s.roomKey(code)
	var updated *domain.Room

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return store.ErrRoomNotFound
			}
			return fmt.Errorf("redis: get room %s: %w", code, err)
		}
		room, err := decode(data)
		if err != nil {
			return fmt.Errorf("redis: decode room %s: %w", code, err)
		}

		version := room.Version
		if err := fn(room); err != nil {
			return err
		}
		room.Code = code
		room.Version = version + 1
		room.UpdatedAt = time.Now().UTC()

		encoded, err := json.Marshal(room)
		if err != nil {
			return fmt.Errorf("redis: encode room %s: %w", code, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = room
		return nil
	}

	for attempt := 0; attempt < store.MaxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("redis: room write conflict, retrying", "roomCode", code, "attempt", attempt)
			continue
		}
		return nil, err
	}
	return nil, store.ErrVersionConflict
}

// Heartbeat stamps the player's presence
func (s *Store) Heartbeat(ctx context.Context, code, playerID string) error {
	n, err := s.client.Exists(ctx, s.roomKey(code)).Result()
	if err != nil {
		return fmt.Errorf("redis: check room %s: %w", code, err)
	}
	if n == 0 {
		return store.ErrRoomNotFound
	}

	key := s.presenceKey(code)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, playerID, strconv.FormatInt(time.Now().UnixMilli(), 10))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: heartbeat %s/%s: %w", code, playerID, err)
	}
	return nil
}

// Create stores the room under a fresh code with SETNX
func (s *Store) Create(ctx context.Context, room *domain.Room) (string, error) {
	stored := room.Clone()
	stored.Normalize()
	stored.Version = 1
	stored.UpdatedAt = time.Now().UTC()

	code := room.Code
	for attempts := 0; attempts < store.MaxCodeAttempts; attempts++ {
		if code == "" || attempts > 0 {
			code = store.GenerateRoomCode(store.DefaultRoomCodeLength)
		}
		stored.Code = code

		encoded, err := json.Marshal(stored)
		if err != nil {
			return "", fmt.Errorf("redis: encode room: %w", err)
		}
		ok, err := s.client.SetNX(ctx, s.roomKey(code), encoded, s.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("redis: create room %s: %w", code, err)
		}
		if ok {
			s.logger.Info("room created", "roomCode", code)
			return code, nil
		}
	}
	return "", store.ErrCodeExhausted
}

// Delete removes the room and its presence hash
func (s *Store) Delete(ctx context.Context, code string) error {
	n, err := s.client.Del(ctx, s.roomKey(code), s.presenceKey(code)).Result()
	if err != nil {
		return fmt.Errorf("redis: delete room %s: %w", code, err)
	}
	if n == 0 {
		return store.ErrRoomNotFound
	}
	s.logger.Info("room deleted", "roomCode", code)
	return nil
}

func decode(data []byte) (*domain.Room, error) {
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	room.Normalize()
	return &room, nil
}
