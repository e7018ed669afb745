package channel

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/portal/backend/internal/domain/channel"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(enabled bool) *ChannelService {
	store := cache.NewInMemoryChannelStore(time.Minute, 10)
	return NewChannelService(store, enabled, zap.NewNop())
}

func ciphertext(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestChannelService_PostAndList(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(true)

	posted, err := svc.Post(ctx, PostInput{
		EngagementID: "PROJ-0002",
		SenderID:     "u-1",
		Ciphertext:   ciphertext("sealed payload"),
		Nonce:        ciphertext("nonce-1"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, posted.ID)
	assert.NotEmpty(t, posted.SentAt)

	msgs, err := svc.List(ctx, "PROJ-0002", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, posted.ID, msgs[0].ID)
	assert.Equal(t, int64(1), msgs[0].Seq)
	assert.Equal(t, ciphertext("sealed payload"), msgs[0].Ciphertext)

	// other engagements see nothing
	msgs, err = svc.List(ctx, "PROJ-0001", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChannelService_List_AfterSeq(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(true)

	for _, body := range []string{"one", "two", "three"} {
		_, err := svc.Post(ctx, PostInput{
			EngagementID: "PROJ-0002",
			SenderID:     "u-1",
			Ciphertext:   ciphertext(body),
		})
		require.NoError(t, err)
	}

	msgs, err := svc.List(ctx, "PROJ-0002", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(3), msgs[0].Seq)
	assert.Equal(t, ciphertext("three"), msgs[0].Ciphertext)

	// past the head of the channel
	msgs, err = svc.List(ctx, "PROJ-0002", 3)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChannelService_Disabled(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(false)

	_, err := svc.Post(ctx, PostInput{
		EngagementID: "PROJ-0002",
		SenderID:     "u-1",
		Ciphertext:   ciphertext("x"),
	})
	assertChannelErrCode(t, err, "NOT_WIRED")

	_, err = svc.List(ctx, "PROJ-0002", 0)
	assertChannelErrCode(t, err, "NOT_WIRED")
}

func TestChannelService_Post_Invalid(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(true)

	_, err := svc.Post(ctx, PostInput{
		EngagementID: "PROJ-0002",
		SenderID:     "u-1",
		Ciphertext:   "not base64!!",
	})
	assertChannelErrCode(t, err, "INVALID_CIPHERTEXT")

	big := make([]byte, channel.MaxCiphertextBytes+1)
	_, err = svc.Post(ctx, PostInput{
		EngagementID: "PROJ-0002",
		SenderID:     "u-1",
		Ciphertext:   base64.StdEncoding.EncodeToString(big),
	})
	assertChannelErrCode(t, err, "CIPHERTEXT_TOO_LARGE")
}

func assertChannelErrCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}
