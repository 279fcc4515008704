package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed session store for deployments that run
// more than one instance behind a load balancer. Keys carry a TTL equal
// to the remaining idle lifetime, so Redis handles expiry itself.
type RedisStore struct {
	client *redis.Client
	idle   time.Duration
	prefix string
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, idle time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		idle:   idle,
		prefix: "session:",
	}
}

func (r *RedisStore) key(token string) string {
	return r.prefix + token
}

// Create stores a new session with a TTL up to its idle deadline
func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.Token == "" || s.Username == "" {
		return fmt.Errorf("session: missing token or username")
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session: expires_at must be in the future")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(s.Token), data, ttl).Err()
}

// Get returns the session for a token, or (nil, nil) when absent.
// Redis expiry makes expired sessions indistinguishable from unknown ones.
func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(token)).Result()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	return &s, nil
}

// Touch renews the session's idle deadline
func (r *RedisStore) Touch(ctx context.Context, token string) error {
	s, err := r.Get(ctx, token)
	if err != nil || s == nil {
		return err
	}
	s.ExpiresAt = time.Now().Add(r.idle)
	return r.write(ctx, *s)
}

// SetDocumentType records the active document type on the session
func (r *RedisStore) SetDocumentType(ctx context.Context, token, documentType string) error {
	s, err := r.Get(ctx, token)
	if err != nil || s == nil {
		return err
	}
	s.DocumentType = documentType
	return r.write(ctx, *s)
}

// Delete removes a session; idempotent
func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

// write replaces a session preserving its remaining TTL
func (r *RedisStore) write(ctx context.Context, s Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(s.Token)).Err()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key(s.Token), data, ttl).Err()
}
