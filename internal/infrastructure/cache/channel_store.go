package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/portal/backend/internal/domain/channel"
	"github.com/redis/go-redis/v9"
)

// ChannelStore holds relayed ciphertext messages with bounded retention.
// Messages are opaque to the server; the store never inspects plaintext.
type ChannelStore interface {
	// Append stamps the message with the channel's next sequence number,
	// stores it, and enforces the per-channel ring size
	Append(ctx context.Context, msg *channel.Message) error
	// List returns the retained messages for an engagement, oldest first
	List(ctx context.Context, engagementID string) ([]*channel.Message, error)
}

// RedisChannelStore keeps each engagement's messages in a capped Redis list
// that expires after the retention window.
type RedisChannelStore struct {
	client      *redis.Client
	keyPrefix   string
	retention   time.Duration
	maxMessages int
}

// NewRedisChannelStore creates a Redis-backed channel store
func NewRedisChannelStore(client *redis.Client, retention time.Duration, maxMessages int) *RedisChannelStore {
	if retention <= 0 {
		retention = channel.DefaultRetention
	}
	if maxMessages <= 0 {
		maxMessages = channel.DefaultMaxMessages
	}
	return &RedisChannelStore{
		client:      client,
		keyPrefix:   "channel:msgs:",
		retention:   retention,
		maxMessages: maxMessages,
	}
}

func (s *RedisChannelStore) key(engagementID string) string {
	return s.keyPrefix + engagementID
}

func (s *RedisChannelStore) seqKey(engagementID string) string {
	return s.keyPrefix + "seq:" + engagementID
}

// Append stamps the next sequence number, pushes the message, and trims the
// list to the newest maxMessages. The expiry is refreshed on every write, so
// an idle channel ages out whole, counter included.
func (s *RedisChannelStore) Append(ctx context.Context, msg *channel.Message) error {
	seq, err := s.client.Incr(ctx, s.seqKey(msg.EngagementID)).Result()
	if err != nil {
		return fmt.Errorf("failed to advance channel sequence: %w", err)
	}
	msg.Seq = seq

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal channel message: %w", err)
	}

	key := s.key(msg.EngagementID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.maxMessages), -1)
	pipe.Expire(ctx, key, s.retention)
	pipe.Expire(ctx, s.seqKey(msg.EngagementID), s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append channel message: %w", err)
	}
	return nil
}

// List returns all retained messages for the engagement, oldest first
func (s *RedisChannelStore) List(ctx context.Context, engagementID string) ([]*channel.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(engagementID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list channel messages: %w", err)
	}

	messages := make([]*channel.Message, 0, len(raw))
	for _, item := range raw {
		var msg channel.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			// skip corrupt entries rather than failing the whole read
			continue
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

var _ ChannelStore = (*RedisChannelStore)(nil)

// InMemoryChannelStore is a process-local store for development and tests
type InMemoryChannelStore struct {
	mu          sync.RWMutex
	channels    map[string][]*channel.Message
	seq         map[string]int64
	expiry      map[string]time.Time
	retention   time.Duration
	maxMessages int
}

// NewInMemoryChannelStore creates an in-memory channel store
func NewInMemoryChannelStore(retention time.Duration, maxMessages int) *InMemoryChannelStore {
	if retention <= 0 {
		retention = channel.DefaultRetention
	}
	if maxMessages <= 0 {
		maxMessages = channel.DefaultMaxMessages
	}
	return &InMemoryChannelStore{
		channels:    make(map[string][]*channel.Message),
		seq:         make(map[string]int64),
		expiry:      make(map[string]time.Time),
		retention:   retention,
		maxMessages: maxMessages,
	}
}

// Append stamps the next sequence number and stores the message, trimming to
// the newest maxMessages
func (s *InMemoryChannelStore) Append(_ context.Context, msg *channel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(msg.EngagementID)

	s.seq[msg.EngagementID]++
	msg.Seq = s.seq[msg.EngagementID]

	msgs := append(s.channels[msg.EngagementID], msg)
	if len(msgs) > s.maxMessages {
		msgs = msgs[len(msgs)-s.maxMessages:]
	}
	s.channels[msg.EngagementID] = msgs
	s.expiry[msg.EngagementID] = time.Now().Add(s.retention)
	return nil
}

// List returns retained messages, oldest first
func (s *InMemoryChannelStore) List(_ context.Context, engagementID string) ([]*channel.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(engagementID)

	msgs := s.channels[engagementID]
	out := make([]*channel.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *InMemoryChannelStore) evictLocked(engagementID string) {
	if exp, ok := s.expiry[engagementID]; ok && time.Now().After(exp) {
		delete(s.channels, engagementID)
		delete(s.seq, engagementID)
		delete(s.expiry, engagementID)
	}
}

var _ ChannelStore = (*InMemoryChannelStore)(nil)
