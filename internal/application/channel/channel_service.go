package channel

import (
	"context"

	"github.com/portal/backend/internal/domain/channel"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// MessageView is the API view of a relayed envelope
type MessageView struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	SenderID    string `json:"sender_id"`
	SenderKeyID string `json:"sender_key_id,omitempty"`
	Ciphertext  string `json:"ciphertext"`
	Nonce       string `json:"nonce,omitempty"`
	SentAt      string `json:"sent_at"`
}

// PostInput is a new envelope from a client
type PostInput struct {
	EngagementID string
	SenderID     string
	SenderKeyID  string
	Ciphertext   string
	Nonce        string
}

// ChannelService relays opaque ciphertext envelopes between engagement
// participants. Development feature behind a config flag: the relay makes no
// delivery or durability promises beyond its retention window.
type ChannelService struct {
	store   cache.ChannelStore
	enabled bool
	logger  *zap.Logger
}

// NewChannelService creates a new channel service
func NewChannelService(store cache.ChannelStore, enabled bool, logger *zap.Logger) *ChannelService {
	return &ChannelService{
		store:   store,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether the relay is switched on
func (s *ChannelService) Enabled() bool {
	return s.enabled
}

// Post validates and stores one envelope
func (s *ChannelService) Post(ctx context.Context, input PostInput) (*MessageView, error) {
	if !s.enabled {
		return nil, shared.NewDomainError("NOT_WIRED", "Secure channel is not enabled")
	}

	msg, err := channel.NewMessage(input.EngagementID, input.SenderID, input.SenderKeyID, input.Ciphertext, input.Nonce)
	if err != nil {
		return nil, err
	}

	if err := s.store.Append(ctx, msg); err != nil {
		s.logger.Error("Failed to append channel message",
			zap.String("engagement_id", input.EngagementID),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to store message")
	}

	view := newMessageView(msg)
	return &view, nil
}

// List returns the retained envelopes of an engagement, oldest first.
// afterSeq skips everything up to and including that sequence number, so
// clients can poll incrementally; zero returns the full window.
func (s *ChannelService) List(ctx context.Context, engagementID string, afterSeq int64) ([]MessageView, error) {
	if !s.enabled {
		return nil, shared.NewDomainError("NOT_WIRED", "Secure channel is not enabled")
	}

	msgs, err := s.store.List(ctx, engagementID)
	if err != nil {
		s.logger.Error("Failed to list channel messages",
			zap.String("engagement_id", engagementID),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to read messages")
	}

	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Seq <= afterSeq {
			continue
		}
		views = append(views, newMessageView(msg))
	}
	return views, nil
}

func newMessageView(msg *channel.Message) MessageView {
	return MessageView{
		ID:          msg.ID,
		Seq:         msg.Seq,
		SenderID:    msg.SenderID,
		SenderKeyID: msg.SenderKeyID,
		Ciphertext:  msg.Ciphertext,
		Nonce:       msg.Nonce,
		SentAt:      msg.SentAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
