package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bazaar/internal/domain"
)

const cartKeyPrefix = "cart:"

// RedisCartStore keeps session carts as JSON documents that expire after ttl
// of inactivity.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) Load(ctx context.Context, sid string) (*domain.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	cart := domain.NewCart()
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return cart, nil
}

func (s *RedisCartStore) Save(ctx context.Context, sid string, cart *domain.Cart) error {
	if cart.IsEmpty() {
		if err := s.Clear(ctx, sid); err != nil {
			return err
		}
		cart.MarkClean()
		return nil
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sid, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	cart.MarkClean()
	return nil
}

func (s *RedisCartStore) Clear(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sid).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
