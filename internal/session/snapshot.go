package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists live session state so a restart resumes the
// walk instead of losing it.
type SnapshotStore interface {
	Save(ctx context.Context, userID string, snap Snapshot) error
	Load(ctx context.Context, userID string) (Snapshot, bool, error)
	Clear(ctx context.Context, userID string) error
}

type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(userID string) string {
	return "session:" + userID + ":snapshot"
}

func (s *RedisSnapshotStore) Save(ctx context.Context, userID string, snap Snapshot) error {
	if s.client == nil {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey(userID), payload, s.ttl).Err()
}

func (s *RedisSnapshotStore) Load(ctx context.Context, userID string) (Snapshot, bool, error) {
	if s.client == nil {
		return Snapshot{}, false, nil
	}
	raw, err := s.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *RedisSnapshotStore) Clear(ctx context.Context, userID string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, snapshotKey(userID)).Err()
}
