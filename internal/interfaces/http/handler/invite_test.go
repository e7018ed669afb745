package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appidentity "github.com/portal/backend/internal/application/identity"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/infrastructure/auth"
	"github.com/portal/backend/internal/infrastructure/mail"
	"github.com/portal/backend/internal/interfaces/http/dto"
	"github.com/portal/backend/internal/interfaces/http/middleware"
	"github.com/portal/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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

type inviteTestEnv struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	inviteRepo *MockInviteRepository
	userRepo   *MockUserRepository
}

func newInviteTestEnv(t *testing.T) *inviteTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inviteRepo := new(MockInviteRepository)
	userRepo := new(MockUserRepository)
	jwtService := auth.NewJWTService(testJWTConfig())

	inviteService := appidentity.NewInviteService(
		inviteRepo, userRepo,
		mail.NewNoopMailer(zap.NewNop()),
		appidentity.DefaultInviteServiceConfig(), zap.NewNop(),
	)
	inviteHandler := NewInviteHandler(inviteService)

	engine := gin.New()
	r := router.NewRouter(engine)
	r.Use(middleware.JWTAuthMiddleware(middleware.DefaultJWTConfig(jwtService, "portal_session")))

	inviteRoutes := router.NewDomainGroup("invites", "/invites")
	inviteRoutes.POST("", middleware.RequireOperator(), inviteHandler.Create)
	inviteRoutes.GET("", middleware.RequireOperator(), inviteHandler.List)
	inviteRoutes.DELETE("/:id", middleware.RequireOperator(), inviteHandler.Revoke)
	inviteRoutes.GET("/preview/:token", inviteHandler.Preview)
	inviteRoutes.POST("/accept", inviteHandler.Accept)
	r.Register(inviteRoutes).Setup()

	return &inviteTestEnv{
		engine:     engine,
		jwtService: jwtService,
		inviteRepo: inviteRepo,
		userRepo:   userRepo,
	}
}

func (env *inviteTestEnv) token(t *testing.T, role string) string {
	t.Helper()
	pair, err := env.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: uuid.New(),
		Email:  "ops@example.com",
		Role:   role,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func TestInviteHandler_Create(t *testing.T) {
	env := newInviteTestEnv(t)
	env.userRepo.On("ExistsByEmail", mock.Anything, "new.user@example.com").Return(false, nil)
	env.inviteRepo.On("FindPendingByEmail", mock.Anything, "new.user@example.com").
		Return(nil, errors.New("record not found"))
	env.inviteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := postJSON(t, env.engine, "/api/v1/invites", CreateInviteRequest{
		Email:         "new.user@example.com",
		Role:          "CLIENT",
		ClientID:      "CUST-0001",
		EngagementIDs: []string{"PROJ-0001"},
	}, env.token(t, "OPERATOR"))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "new.user@example.com", data["email"])
	assert.Equal(t, "pending", data["status"])
	env.inviteRepo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInviteHandler_Create_RequiresOperator(t *testing.T) {
	env := newInviteTestEnv(t)

	w := postJSON(t, env.engine, "/api/v1/invites", CreateInviteRequest{
		Email: "new.user@example.com",
		Role:  "CLIENT",
	}, env.token(t, "CLIENT"))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInviteHandler_PreviewAndAccept(t *testing.T) {
	env := newInviteTestEnv(t)
	invite, err := identity.NewInvite("new.user@example.com", identity.RoleClient,
		"CUST-0001", []string{"PROJ-0001"}, uuid.New(), identity.DefaultInviteTTL)
	require.NoError(t, err)

	env.inviteRepo.On("FindByToken", mock.Anything, invite.Token).Return(invite, nil)
	env.inviteRepo.On("Update", mock.Anything, invite).Return(nil)
	env.userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	// preview is public
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invites/preview/"+invite.Token, nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	preview := resp.Data.(map[string]interface{})
	assert.Equal(t, "new.user@example.com", preview["email"])
	assert.Equal(t, true, preview["redeemable"])

	// accept is public too and creates the account
	w = postJSON(t, env.engine, "/api/v1/invites/accept", AcceptInviteRequest{
		Token:       invite.Token,
		Password:    "Password123",
		DisplayName: "New User",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "new.user@example.com", data["email"])
	assert.Equal(t, "CUST-0001", data["client_id"])
	assert.Equal(t, identity.InviteStatusAccepted, invite.Status)
}

func TestInviteHandler_Accept_UnknownToken(t *testing.T) {
	env := newInviteTestEnv(t)
	env.inviteRepo.On("FindByToken", mock.Anything, "missing").
		Return(nil, errors.New("record not found"))

	w := postJSON(t, env.engine, "/api/v1/invites/accept", AcceptInviteRequest{
		Token:    "missing",
		Password: "Password123",
	}, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInviteHandler_Revoke(t *testing.T) {
	env := newInviteTestEnv(t)
	invite, err := identity.NewInvite("new.user@example.com", identity.RoleClient,
		"CUST-0001", nil, uuid.New(), identity.DefaultInviteTTL)
	require.NoError(t, err)

	env.inviteRepo.On("FindByID", mock.Anything, invite.ID).Return(invite, nil)
	env.inviteRepo.On("Update", mock.Anything, invite).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/invites/"+invite.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, "OPERATOR"))
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, identity.InviteStatusRevoked, invite.Status)
}
