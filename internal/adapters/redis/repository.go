package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionKeyPrefix is the prefix for conversation session keys
	SessionKeyPrefix = "convo:"
	// SeenKeyPrefix is the prefix for processed webhook delivery keys
	SeenKeyPrefix = "seen:"
	// DefaultSessionTTL bounds how long a conversation context survives
	DefaultSessionTTL = 2 * time.Hour
	// SeenTTL bounds how long delivery keys are remembered. The message
	// table's unique index remains the durable dedup source of truth.
	SeenTTL = 24 * time.Hour
)

// Repository implements SessionRepository and DeliveryDeduper using Redis
type Repository struct {
	client     *redis.Client
	sessionTTL time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(client *redis.Client, sessionTTL time.Duration) *Repository {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Repository{client: client, sessionTTL: sessionTTL}
}

// Get retrieves a conversation session
func (r *Repository) Get(ctx context.Context, customerID string) (*core.Session, error) {
	key := SessionKeyPrefix + customerID
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, core.Errorf(core.KindNotFound, "session for %s not found", customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session core.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Set stores a conversation session with TTL
func (r *Repository) Set(ctx context.Context, customerID string, session *core.Session) error {
	key := SessionKeyPrefix + customerID
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// Delete removes a conversation session
func (r *Repository) Delete(ctx context.Context, customerID string) error {
	key := SessionKeyPrefix + customerID
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MarkSeen records a delivery key with SETNX and reports whether it was
// already present. Fast path in front of the database unique index.
func (r *Repository) MarkSeen(ctx context.Context, deliveryKey string) (bool, error) {
	key := SeenKeyPrefix + deliveryKey
	created, err := r.client.SetNX(ctx, key, 1, SeenTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery seen: %w", err)
	}
	return !created, nil
}
