package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"meetwise/models"
)

// HoldStore places short-lived advisory holds on slots while a caller
// completes a multi-step flow. Holds only shape availability responses and
// pre-booking checks; the provider stays the authority on conflicts, so
// losing the store degrades to the accepted check-then-act race.
type HoldStore interface {
	// Place claims the slot for owner. Returns false when another owner
	// already holds it. Re-placing one's own hold refreshes the TTL.
	Place(ctx context.Context, calendarID string, slot models.TimeInterval, owner string, ttl time.Duration) (bool, error)
	// Release drops owner's hold; a hold owned by someone else is left alone.
	Release(ctx context.Context, calendarID string, slot models.TimeInterval, owner string) error
	// Owner returns the current holder, or "" when the slot is unheld.
	Owner(ctx context.Context, calendarID string, slot models.TimeInterval) (string, error)
}

// RedisHoldStore keeps holds as TTL-bound keys.
type RedisHoldStore struct {
	Client *redis.Client
}

func NewRedisHoldStore(client *redis.Client) *RedisHoldStore {
	return &RedisHoldStore{Client: client}
}

func holdKey(calendarID string, slot models.TimeInterval) string {
	return fmt.Sprintf("hold:%s:%d-%d", calendarID, slot.Start.Unix(), slot.End.Unix())
}

func (s *RedisHoldStore) Place(ctx context.Context, calendarID string, slot models.TimeInterval, owner string, ttl time.Duration) (bool, error) {
	key := holdKey(calendarID, slot)
	ok, err := s.Client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	current, err := s.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Expired between SetNX and Get; one retry claims it.
		return s.Client.SetNX(ctx, key, owner, ttl).Result()
	}
	if err != nil {
		return false, err
	}
	if current != owner {
		return false, nil
	}
	// Refresh our own hold.
	if err := s.Client.Expire(ctx, key, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisHoldStore) Release(ctx context.Context, calendarID string, slot models.TimeInterval, owner string) error {
	key := holdKey(calendarID, slot)
	current, err := s.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current != owner {
		return errors.New("hold owned by another caller")
	}
	return s.Client.Del(ctx, key).Err()
}

func (s *RedisHoldStore) Owner(ctx context.Context, calendarID string, slot models.TimeInterval) (string, error) {
	owner, err := s.Client.Get(ctx, holdKey(calendarID, slot)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}
