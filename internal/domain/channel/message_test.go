package channel

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	ciphertext := base64.StdEncoding.EncodeToString([]byte("sealed payload"))
	nonce := base64.StdEncoding.EncodeToString([]byte("0123456789ab"))

	t.Run("valid envelope", func(t *testing.T) {
		msg, err := NewMessage("PROJ-0001", "user-1", "key-1", ciphertext, nonce)
		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, "PROJ-0001", msg.EngagementID)
		assert.Equal(t, "key-1", msg.SenderKeyID)
		assert.Equal(t, ciphertext, msg.Ciphertext)
		assert.False(t, msg.SentAt.IsZero())
	})

	t.Run("nonce and sender key are optional", func(t *testing.T) {
		msg, err := NewMessage("PROJ-0001", "user-1", "", ciphertext, "")
		require.NoError(t, err)
		assert.Empty(t, msg.SenderKeyID)
	})

	t.Run("missing engagement", func(t *testing.T) {
		_, err := NewMessage("", "user-1", "", ciphertext, nonce)
		assert.Error(t, err)
	})

	t.Run("missing sender", func(t *testing.T) {
		_, err := NewMessage("PROJ-0001", "  ", "", ciphertext, nonce)
		assert.Error(t, err)
	})

	t.Run("rejects oversized sender key", func(t *testing.T) {
		_, err := NewMessage("PROJ-0001", "user-1", strings.Repeat("k", MaxSenderKeyIDLength+1), ciphertext, nonce)
		assert.Error(t, err)
	})

	t.Run("rejects non-base64 ciphertext", func(t *testing.T) {
		_, err := NewMessage("PROJ-0001", "user-1", "", "not base64!!!", nonce)
		assert.Error(t, err)
	})

	t.Run("rejects oversized ciphertext", func(t *testing.T) {
		big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", MaxCiphertextBytes+1)))
		_, err := NewMessage("PROJ-0001", "user-1", "", big, nonce)
		assert.Error(t, err)
	})

	t.Run("accepts ciphertext at the limit", func(t *testing.T) {
		exact := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", MaxCiphertextBytes)))
		_, err := NewMessage("PROJ-0001", "user-1", "", exact, nonce)
		assert.NoError(t, err)
	})

	t.Run("rejects oversized nonce", func(t *testing.T) {
		big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("n", 65)))
		_, err := NewMessage("PROJ-0001", "user-1", "", ciphertext, big)
		assert.Error(t, err)
	})
}
