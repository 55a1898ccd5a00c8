// Package cache keeps guest session data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cleat-store/internal/domain"
	"cleat-store/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultGuestTTL is how long an untouched guest entry is kept
const DefaultGuestTTL = 30 * 24 * time.Hour

// GuestStore keeps one JSON snapshot per owner under kind:owner. Entries
// that cannot be decoded are deleted and read as empty.
type GuestStore[T any] struct {
	client *redis.Client
	kind   string
	ttl    time.Duration
	logger *zap.Logger
}

// NewGuestCartStore stores guest carts under "cart:<owner>"
func NewGuestCartStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *GuestStore[domain.CartItem] {
	return newGuestStore[domain.CartItem](client, "cart", ttl, logger)
}

// NewGuestFavoritesStore stores guest favorites under "favorites:<owner>"
func NewGuestFavoritesStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *GuestStore[domain.FavoriteItem] {
	return newGuestStore[domain.FavoriteItem](client, "favorites", ttl, logger)
}

func newGuestStore[T any](client *redis.Client, kind string, ttl time.Duration, logger *zap.Logger) *GuestStore[T] {
	if ttl <= 0 {
		ttl = DefaultGuestTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuestStore[T]{
		client: client,
		kind:   kind,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *GuestStore[T]) key(owner string) string {
	return fmt.Sprintf("%s:%s", s.kind, owner)
}

// Load returns the stored snapshot of owner, or nil when there is none
func (s *GuestStore[T]) Load(ctx context.Context, owner string) ([]T, error) {
	key := s.key(owner)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read guest %s: %w", s.kind, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Discarding corrupted guest entry",
			zap.String("key", key),
			zap.Error(err),
		)
		metrics.GuestEntriesDiscarded.WithLabelValues(s.kind).Inc()
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to delete corrupted guest %s: %w", s.kind, err)
		}
		return nil, nil
	}
	return items, nil
}

// Save replaces the snapshot of owner and refreshes its expiry. An empty
// snapshot removes the entry.
func (s *GuestStore[T]) Save(ctx context.Context, owner string, items []T) error {
	if len(items) == 0 {
		return s.Delete(ctx, owner)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode guest %s: %w", s.kind, err)
	}
	if err := s.client.Set(ctx, s.key(owner), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write guest %s: %w", s.kind, err)
	}
	return nil
}

// Delete removes the snapshot of owner
func (s *GuestStore[T]) Delete(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, s.key(owner)).Err(); err != nil {
		return fmt.Errorf("failed to delete guest %s: %w", s.kind, err)
	}
	return nil
}
