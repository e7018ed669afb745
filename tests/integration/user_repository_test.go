package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserRepository_Integration tests the GormUserRepository against a real PostgreSQL database
func TestUserRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Create and FindByID", func(t *testing.T) {
		user, err := identity.NewActiveUser("alice@example.com", "Password123", identity.RoleClient)
		require.NoError(t, err)
		user.SetClientID("CUST-0001")
		user.SetEngagements([]string{"PROJ-0001", "PROJ-0002"})

		err = repo.Create(ctx, user)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "alice@example.com", found.Email)
		assert.Equal(t, "CUST-0001", found.ClientID)
		assert.Equal(t, []string{"PROJ-0001", "PROJ-0002"}, found.EngagementIDs)
		assert.Equal(t, identity.UserStatusActive, found.Status)
		assert.True(t, found.VerifyPassword("Password123"))
	})

	t.Run("FindByEmail is case-insensitive", func(t *testing.T) {
		user, err := identity.NewActiveUser("bob@example.com", "Password123", identity.RoleClient)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, user))

		found, err := repo.FindByEmail(ctx, "BOB@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		_, err = repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unique email constraint", func(t *testing.T) {
		first, err := identity.NewActiveUser("dup@example.com", "Password123", identity.RoleClient)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, first))

		second, err := identity.NewActiveUser("dup@example.com", "Password123", identity.RoleClient)
		require.NoError(t, err)
		assert.Error(t, repo.Create(ctx, second))
	})

	t.Run("Update persists status transitions", func(t *testing.T) {
		user, err := identity.NewActiveUser("carol@example.com", "Password123", identity.RoleClient)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, user))

		user.Deactivate()
		require.NoError(t, repo.Update(ctx, user))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.UserStatusDeactivated, found.Status)
	})

	t.Run("ExistsByEmail", func(t *testing.T) {
		user, err := identity.NewActiveUser("dave@example.com", "Password123", identity.RoleOperator)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, user))

		exists, err := repo.ExistsByEmail(ctx, "Dave@Example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByEmail(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("FindAll with filters and pagination", func(t *testing.T) {
		testDB.CleanTables()

		for i := 0; i < 5; i++ {
			user, err := identity.NewActiveUser(
				fmt.Sprintf("client%d@example.com", i), "Password123", identity.RoleClient)
			require.NoError(t, err)
			user.SetClientID("CUST-0042")
			require.NoError(t, repo.Create(ctx, user))
		}
		operator, err := identity.NewActiveUser("ops@example.com", "Password123", identity.RoleOperator)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, operator))

		filter := identity.NewUserFilter()
		role := identity.RoleClient
		filter.Role = &role
		filter.PageSize = 3

		users, total, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, users, 3)

		filter.Page = 2
		users, total, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, users, 2)

		keywordFilter := identity.NewUserFilter()
		keywordFilter.Keyword = "ops@"
		users, total, err = repo.FindAll(ctx, keywordFilter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, identity.RoleOperator, users[0].Role)
	})

	t.Run("Delete", func(t *testing.T) {
		user, err := identity.NewActiveUser("erin@example.com", "Password123", identity.RoleClient)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, user))

		require.NoError(t, repo.Delete(ctx, user.ID))

		_, err = repo.FindByID(ctx, user.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
	})
}
