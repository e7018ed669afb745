package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInviteRepository_Integration tests the GormInviteRepository against a real PostgreSQL database
func TestInviteRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormInviteRepository(testDB.DB)
	ctx := context.Background()
	invitedBy := uuid.New()

	t.Run("Create and FindByToken", func(t *testing.T) {
		invite, err := identity.NewInvite("new.client@example.com", identity.RoleClient,
			"CUST-0001", []string{"PROJ-0001"}, invitedBy, identity.DefaultInviteTTL)
		require.NoError(t, err)

		require.NoError(t, repo.Create(ctx, invite))

		found, err := repo.FindByToken(ctx, invite.Token)
		require.NoError(t, err)
		assert.Equal(t, invite.ID, found.ID)
		assert.Equal(t, "new.client@example.com", found.Email)
		assert.Equal(t, []string{"PROJ-0001"}, found.EngagementIDs)
		assert.Equal(t, identity.InviteStatusPending, found.Status)
		assert.True(t, found.IsRedeemable())

		_, err = repo.FindByToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindPendingByEmail skips redeemed invites", func(t *testing.T) {
		accepted, err := identity.NewInvite("repeat@example.com", identity.RoleClient,
			"CUST-0002", nil, invitedBy, identity.DefaultInviteTTL)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, accepted))
		require.NoError(t, accepted.Accept())
		require.NoError(t, repo.Update(ctx, accepted))

		_, err = repo.FindPendingByEmail(ctx, "repeat@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		pending, err := identity.NewInvite("repeat@example.com", identity.RoleClient,
			"CUST-0002", nil, invitedBy, identity.DefaultInviteTTL)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, pending))

		found, err := repo.FindPendingByEmail(ctx, "Repeat@Example.com")
		require.NoError(t, err)
		assert.Equal(t, pending.ID, found.ID)
	})

	t.Run("Update persists revocation", func(t *testing.T) {
		invite, err := identity.NewInvite("revoked@example.com", identity.RoleClient,
			"CUST-0003", nil, invitedBy, identity.DefaultInviteTTL)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, invite))

		require.NoError(t, invite.Revoke())
		require.NoError(t, repo.Update(ctx, invite))

		found, err := repo.FindByID(ctx, invite.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.InviteStatusRevoked, found.Status)
		assert.False(t, found.IsRedeemable())
	})

	t.Run("FindAll filters by status and client", func(t *testing.T) {
		testDB.CleanTables()

		for _, clientID := range []string{"CUST-0010", "CUST-0010", "CUST-0011"} {
			invite, err := identity.NewInvite(
				uuid.NewString()+"@example.com", identity.RoleClient,
				clientID, nil, invitedBy, identity.DefaultInviteTTL)
			require.NoError(t, err)
			require.NoError(t, repo.Create(ctx, invite))
		}
		revoked, err := identity.NewInvite("gone@example.com", identity.RoleClient,
			"CUST-0010", nil, invitedBy, identity.DefaultInviteTTL)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, revoked))
		require.NoError(t, revoked.Revoke())
		require.NoError(t, repo.Update(ctx, revoked))

		filter := identity.NewInviteFilter()
		pending := identity.InviteStatusPending
		filter.Status = &pending
		filter.ClientID = "CUST-0010"

		invites, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, invites, 2)

		all, total, err := repo.FindAll(ctx, identity.NewInviteFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, all, 4)
	})
}
