package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

var ErrInvitationNotFound = errors.New("invitation not found or expired")

// Store keeps invitations until they expire or are redeemed.
type Store interface {
	Save(ctx context.Context, inv *Invitation, ttl time.Duration) error
	// Take returns the invitation and removes it in one step.
	Take(ctx context.Context, token string) (*Invitation, error)
	Get(ctx context.Context, token string) (*Invitation, error)
	Delete(ctx context.Context, token string) error
}

// RedisStore stores invitations as JSON strings with a TTL, so expiry needs
// no sweeper.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis-backed invitation store.
// keyPrefix defaults to "invitation:" if empty.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "invitation:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStore) key(token string) string {
	return r.keyPrefix + token
}

func (r *RedisStore) Save(ctx context.Context, inv *Invitation, ttl time.Duration) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to encode invitation: %w", err)
	}
	// NX: a token collision must never overwrite a live invitation.
	ok, err := r.client.SetNX(ctx, r.key(inv.Token), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store invitation: %w", err)
	}
	if !ok {
		return fmt.Errorf("invitation token collision")
	}
	return nil
}

func (r *RedisStore) Take(ctx context.Context, token string) (*Invitation, error) {
	raw, err := r.client.GetDel(ctx, r.key(token)).Result()
	return decode(raw, err)
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Invitation, error) {
	raw, err := r.client.Get(ctx, r.key(token)).Result()
	return decode(raw, err)
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, r.key(token)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	if n == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

// Ping checks if the Redis connection is healthy.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func decode(raw string, err error) (*Invitation, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read invitation: %w", err)
	}
	var inv Invitation
	if err := json.UnmarshalString(raw, &inv); err != nil {
		return nil, fmt.Errorf("failed to decode invitation: %w", err)
	}
	return &inv, nil
}
