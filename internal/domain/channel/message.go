package channel

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/shared"
)

// MaxCiphertextBytes caps the decoded payload size per message
const MaxCiphertextBytes = 32 * 1024

// DefaultRetention is how long a channel keeps messages
const DefaultRetention = 7 * 24 * time.Hour

// DefaultMaxMessages is the per-channel ring size
const DefaultMaxMessages = 500

// Message is an opaque ciphertext envelope. The server never sees plaintext;
// it stores and relays what clients hand it, subject only to size and
// retention limits.
type Message struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"` // per-channel monotonic, stamped by the store
	EngagementID string    `json:"engagement_id"`
	SenderID     string    `json:"sender_id"`
	SenderKeyID  string    `json:"sender_key_id,omitempty"` // client key identifier
	Ciphertext   string    `json:"ciphertext"`              // base64, opaque to the server
	Nonce        string    `json:"nonce"`                   // base64, client-chosen
	SentAt       time.Time `json:"sent_at"`
}

// MaxSenderKeyIDLength caps the client-supplied key identifier
const MaxSenderKeyIDLength = 128

// NewMessage validates an envelope and stamps server-side metadata
func NewMessage(engagementID, senderID, senderKeyID, ciphertext, nonce string) (*Message, error) {
	if strings.TrimSpace(engagementID) == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Engagement ID is required")
	}
	if strings.TrimSpace(senderID) == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Sender ID is required")
	}
	senderKeyID = strings.TrimSpace(senderKeyID)
	if len(senderKeyID) > MaxSenderKeyIDLength {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Sender key ID exceeds the size limit")
	}
	if err := validateOpaque("ciphertext", ciphertext, MaxCiphertextBytes); err != nil {
		return nil, err
	}
	if nonce != "" {
		if err := validateOpaque("nonce", nonce, 64); err != nil {
			return nil, err
		}
	}

	return &Message{
		ID:           uuid.New().String(),
		EngagementID: engagementID,
		SenderID:     senderID,
		SenderKeyID:  senderKeyID,
		Ciphertext:   ciphertext,
		Nonce:        nonce,
		SentAt:       time.Now().UTC(),
	}, nil
}

func validateOpaque(field, value string, maxDecoded int) error {
	if value == "" {
		return shared.NewDomainError("INVALID_CIPHERTEXT", "Field "+field+" is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return shared.NewDomainError("INVALID_CIPHERTEXT", "Field "+field+" must be standard base64")
	}
	if len(decoded) > maxDecoded {
		return shared.NewDomainError("CIPHERTEXT_TOO_LARGE", "Field "+field+" exceeds the size limit")
	}
	return nil
}
