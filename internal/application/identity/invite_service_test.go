package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInviteRepository is a mock implementation of identity.InviteRepository
type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *identity.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInviteRepository) Update(ctx context.Context, invite *identity.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInviteRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Invite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Invite), args.Error(1)
}

func (m *MockInviteRepository) FindByToken(ctx context.Context, token string) (*identity.Invite, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Invite), args.Error(1)
}

func (m *MockInviteRepository) FindPendingByEmail(ctx context.Context, email string) (*identity.Invite, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Invite), args.Error(1)
}

func (m *MockInviteRepository) FindAll(ctx context.Context, filter identity.InviteFilter) ([]*identity.Invite, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.Invite), args.Get(1).(int64), args.Error(2)
}

func createInviteService(inviteRepo *MockInviteRepository, userRepo *MockUserRepository, mailer *recordingMailer) *InviteService {
	return NewInviteService(inviteRepo, userRepo, mailer, DefaultInviteServiceConfig(), zap.NewNop())
}

func createTestInvite(t *testing.T) *identity.Invite {
	t.Helper()
	invite, err := identity.NewInvite(
		"new.user@example.com",
		identity.RoleClient,
		"CUST-0001",
		[]string{"PROJ-0001", "PROJ-0002"},
		uuid.New(),
		identity.DefaultInviteTTL,
	)
	require.NoError(t, err)
	return invite
}

func TestInviteService_Create(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	userRepo := new(MockUserRepository)
	mailer := &recordingMailer{}

	userRepo.On("ExistsByEmail", ctx, "new.user@example.com").Return(false, nil)
	inviteRepo.On("FindPendingByEmail", ctx, "new.user@example.com").Return(nil, errors.New("not found"))
	inviteRepo.On("Create", ctx, mock.AnythingOfType("*identity.Invite")).Return(nil)

	svc := createInviteService(inviteRepo, userRepo, mailer)

	info, err := svc.Create(ctx, CreateInviteInput{
		Email:         "new.user@example.com",
		Role:          identity.RoleClient,
		ClientID:      "CUST-0001",
		EngagementIDs: []string{"PROJ-0001"},
		InvitedBy:     uuid.New(),
		InviterName:   "Ops Team",
	})

	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", info.Email)
	assert.Equal(t, "pending", info.Status)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "new.user@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].TextBody, "Ops Team")
	assert.Contains(t, mailer.sent[0].TextBody, "token=")

	inviteRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestInviteService_Create_ExistingAccount(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	userRepo := new(MockUserRepository)

	userRepo.On("ExistsByEmail", ctx, "client@example.com").Return(true, nil)

	svc := createInviteService(inviteRepo, userRepo, &recordingMailer{})

	_, err := svc.Create(ctx, CreateInviteInput{
		Email:     "client@example.com",
		Role:      identity.RoleClient,
		ClientID:  "CUST-0001",
		InvitedBy: uuid.New(),
	})

	assertDomainErrCode(t, err, "ALREADY_EXISTS")
}

func TestInviteService_Create_SupersedesPendingInvite(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	userRepo := new(MockUserRepository)

	stale := createTestInvite(t)

	userRepo.On("ExistsByEmail", ctx, "new.user@example.com").Return(false, nil)
	inviteRepo.On("FindPendingByEmail", ctx, "new.user@example.com").Return(stale, nil)
	inviteRepo.On("Update", ctx, stale).Return(nil)
	inviteRepo.On("Create", ctx, mock.AnythingOfType("*identity.Invite")).Return(nil)

	svc := createInviteService(inviteRepo, userRepo, &recordingMailer{})

	_, err := svc.Create(ctx, CreateInviteInput{
		Email:     "new.user@example.com",
		Role:      identity.RoleClient,
		ClientID:  "CUST-0001",
		InvitedBy: uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, identity.InviteStatusRevoked, stale.Status)
	inviteRepo.AssertExpectations(t)
}

func TestInviteService_Preview(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	invite := createTestInvite(t)

	inviteRepo.On("FindByToken", ctx, invite.Token).Return(invite, nil)

	svc := createInviteService(inviteRepo, new(MockUserRepository), &recordingMailer{})

	preview, err := svc.Preview(ctx, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", preview.Email)
	assert.Equal(t, "CLIENT", preview.Role)
	assert.True(t, preview.Redeemable)
}

func TestInviteService_Preview_ExpiredNotRedeemable(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	invite := createTestInvite(t)
	invite.ExpiresAt = time.Now().Add(-time.Hour)

	inviteRepo.On("FindByToken", ctx, invite.Token).Return(invite, nil)

	svc := createInviteService(inviteRepo, new(MockUserRepository), &recordingMailer{})

	preview, err := svc.Preview(ctx, invite.Token)
	require.NoError(t, err)
	assert.False(t, preview.Redeemable)
}

func TestInviteService_Accept(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	userRepo := new(MockUserRepository)
	invite := createTestInvite(t)

	inviteRepo.On("FindByToken", ctx, invite.Token).Return(invite, nil)
	inviteRepo.On("Update", ctx, invite).Return(nil)
	userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

	svc := createInviteService(inviteRepo, userRepo, &recordingMailer{})

	info, err := svc.Accept(ctx, AcceptInviteInput{
		Token:       invite.Token,
		Password:    "Password123",
		DisplayName: "New User",
	})

	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", info.Email)
	assert.Equal(t, "New User", info.DisplayName)
	assert.Equal(t, "CUST-0001", info.ClientID)
	assert.Equal(t, []string{"PROJ-0001", "PROJ-0002"}, info.EngagementIDs)
	assert.Equal(t, identity.InviteStatusAccepted, invite.Status)

	inviteRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestInviteService_Accept_Expired(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	invite := createTestInvite(t)
	invite.ExpiresAt = time.Now().Add(-time.Hour)

	inviteRepo.On("FindByToken", ctx, invite.Token).Return(invite, nil)

	svc := createInviteService(inviteRepo, new(MockUserRepository), &recordingMailer{})

	_, err := svc.Accept(ctx, AcceptInviteInput{Token: invite.Token, Password: "Password123"})
	assertDomainErrCode(t, err, "INVITE_EXPIRED")
}

func TestInviteService_Accept_Revoked(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	invite := createTestInvite(t)
	require.NoError(t, invite.Revoke())

	inviteRepo.On("FindByToken", ctx, invite.Token).Return(invite, nil)

	svc := createInviteService(inviteRepo, new(MockUserRepository), &recordingMailer{})

	_, err := svc.Accept(ctx, AcceptInviteInput{Token: invite.Token, Password: "Password123"})
	assertDomainErrCode(t, err, "INVITE_REVOKED")
}

func TestInviteService_Revoke(t *testing.T) {
	ctx := context.Background()
	inviteRepo := new(MockInviteRepository)
	invite := createTestInvite(t)

	inviteRepo.On("FindByID", ctx, invite.ID).Return(invite, nil)
	inviteRepo.On("Update", ctx, invite).Return(nil)

	svc := createInviteService(inviteRepo, new(MockUserRepository), &recordingMailer{})

	require.NoError(t, svc.Revoke(ctx, invite.ID))
	assert.Equal(t, identity.InviteStatusRevoked, invite.Status)

	// a second revoke is an invalid transition
	err := svc.Revoke(ctx, invite.ID)
	assertDomainErrCode(t, err, "INVALID_STATE")
}

func TestUserService_DeactivateReactivate(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)

	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	svc := NewUserService(userRepo, zap.NewNop())

	require.NoError(t, svc.Deactivate(ctx, user.ID))
	assert.True(t, user.IsDeactivated())

	err := svc.Deactivate(ctx, user.ID)
	assertDomainErrCode(t, err, "INVALID_STATE")

	require.NoError(t, svc.Reactivate(ctx, user.ID))
	assert.True(t, user.CanLogin())
}

func TestUserService_UpdateScope(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)

	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	svc := NewUserService(userRepo, zap.NewNop())

	summary, err := svc.UpdateScope(ctx, user.ID, "CUST-0002", []string{"PROJ-0005"})
	require.NoError(t, err)
	assert.Equal(t, "CUST-0002", summary.ClientID)
	assert.Equal(t, []string{"PROJ-0005"}, summary.EngagementIDs)
}
