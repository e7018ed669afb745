package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInviteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.InviteModel{})
	require.NoError(t, err)

	return db
}

func newTestInvite(t *testing.T, email string) *identity.Invite {
	t.Helper()
	invite, err := identity.NewInvite(email, identity.RoleClient, "CUST-0001", []string{"PROJ-0001"}, uuid.New(), time.Hour)
	require.NoError(t, err)
	return invite
}

func TestGormInviteRepository_CreateAndFind(t *testing.T) {
	db := setupInviteTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	invite := newTestInvite(t, "new@example.com")
	require.NoError(t, repo.Create(ctx, invite))

	t.Run("finds by token", func(t *testing.T) {
		found, err := repo.FindByToken(ctx, invite.Token)
		require.NoError(t, err)
		assert.Equal(t, invite.ID, found.ID)
		assert.Equal(t, "new@example.com", found.Email)
		assert.Equal(t, []string{"PROJ-0001"}, found.EngagementIDs)
		assert.True(t, found.IsRedeemable())
	})

	t.Run("finds pending by email", func(t *testing.T) {
		found, err := repo.FindPendingByEmail(ctx, "NEW@example.com")
		require.NoError(t, err)
		assert.Equal(t, invite.ID, found.ID)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := repo.FindByToken(ctx, "nope")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInviteRepository_Update(t *testing.T) {
	db := setupInviteTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	invite := newTestInvite(t, "new@example.com")
	require.NoError(t, repo.Create(ctx, invite))

	require.NoError(t, invite.Accept())
	require.NoError(t, repo.Update(ctx, invite))

	found, err := repo.FindByToken(ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.InviteStatusAccepted, found.Status)
	assert.NotNil(t, found.AcceptedAt)

	// accepted invites no longer show up as pending
	_, err = repo.FindPendingByEmail(ctx, "new@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInviteRepository_FindAll(t *testing.T) {
	db := setupInviteTestDB(t)
	repo := NewGormInviteRepository(db)
	ctx := context.Background()

	first := newTestInvite(t, "one@example.com")
	second := newTestInvite(t, "two@example.com")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, second.Revoke())
	require.NoError(t, repo.Update(ctx, second))

	t.Run("returns all", func(t *testing.T) {
		invites, total, err := repo.FindAll(ctx, identity.NewInviteFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, invites, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		filter := identity.NewInviteFilter()
		status := identity.InviteStatusRevoked
		filter.Status = &status

		invites, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, invites, 1)
		assert.Equal(t, "two@example.com", invites[0].Email)
	})
}
