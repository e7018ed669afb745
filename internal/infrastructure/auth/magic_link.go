package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MagicLinkStore issues and redeems single-use passwordless login tokens.
// A token maps to the user id it was issued for and disappears on first
// redemption or when the TTL elapses, whichever comes first.
type MagicLinkStore interface {
	// Issue creates a fresh token for the user, valid for ttl
	Issue(ctx context.Context, userID string, ttl time.Duration) (string, error)

	// Redeem consumes a token and returns the user id it was issued for.
	// Returns ok=false for unknown, expired, or already-redeemed tokens.
	Redeem(ctx context.Context, token string) (userID string, ok bool, err error)
}

// RedisMagicLinkStore implements MagicLinkStore using Redis
type RedisMagicLinkStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisMagicLinkStore creates a magic-link store with an existing Redis client
func NewRedisMagicLinkStore(client *redis.Client) *RedisMagicLinkStore {
	return &RedisMagicLinkStore{
		client:    client,
		keyPrefix: "auth:magiclink:",
	}
}

func (s *RedisMagicLinkStore) key(token string) string {
	return s.keyPrefix + token
}

// Issue creates a fresh token for the user
func (s *RedisMagicLinkStore) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store magic link: %w", err)
	}
	return token, nil
}

// Redeem consumes a token. GETDEL makes redemption atomic so a token can
// never be used twice even under concurrent requests.
func (s *RedisMagicLinkStore) Redeem(ctx context.Context, token string) (string, bool, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to redeem magic link: %w", err)
	}
	return userID, true, nil
}

var _ MagicLinkStore = (*RedisMagicLinkStore)(nil)

// InMemoryMagicLinkStore provides an in-memory implementation for testing
// and single-instance development setups.
type InMemoryMagicLinkStore struct {
	mu     sync.Mutex
	tokens map[string]magicLinkEntry
}

type magicLinkEntry struct {
	userID    string
	expiresAt time.Time
}

// NewInMemoryMagicLinkStore creates a new in-memory magic-link store
func NewInMemoryMagicLinkStore() *InMemoryMagicLinkStore {
	return &InMemoryMagicLinkStore{tokens: make(map[string]magicLinkEntry)}
}

// Issue creates a fresh token for the user
func (s *InMemoryMagicLinkStore) Issue(_ context.Context, userID string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.New().String()
	s.tokens[token] = magicLinkEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return token, nil
}

// Redeem consumes a token
func (s *InMemoryMagicLinkStore) Redeem(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.tokens[token]
	if !exists {
		return "", false, nil
	}
	delete(s.tokens, token)
	if time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.userID, true, nil
}

var _ MagicLinkStore = (*InMemoryMagicLinkStore)(nil)
