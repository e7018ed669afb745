package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appidentity "github.com/portal/backend/internal/application/identity"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/infrastructure/auth"
	"github.com/portal/backend/internal/infrastructure/config"
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

// testCookieConfig returns a default cookie config for tests
func testCookieConfig() config.CookieConfig {
	return config.CookieConfig{
		Name:        "portal_session",
		RefreshName: "portal_refresh",
		Domain:      "",
		Path:        "/",
		Secure:      false,
		SameSite:    "lax",
	}
}

// testJWTConfig returns a default JWT config for tests
func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		RefreshSecret:          "test-refresh-key-32-characters-lo",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	}
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type authTestEnv struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	userRepo   *MockUserRepository
	blacklist  auth.TokenBlacklist
}

// newAuthTestEnv wires the auth routes exactly as the server does
func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := new(MockUserRepository)
	jwtService := auth.NewJWTService(testJWTConfig())
	blacklist := auth.NewInMemoryTokenBlacklist()
	magicLinks := auth.NewInMemoryMagicLinkStore()

	authService := appidentity.NewAuthService(
		userRepo, jwtService, blacklist, magicLinks,
		mail.NewNoopMailer(zap.NewNop()),
		appidentity.DefaultAuthServiceConfig(), zap.NewNop(),
	)
	authHandler := NewAuthHandler(authService, testCookieConfig())

	engine := gin.New()
	r := router.NewRouter(engine)

	jwtConfig := middleware.DefaultJWTConfig(jwtService, "portal_session")
	jwtConfig.TokenBlacklist = blacklist
	r.Use(middleware.JWTAuthMiddleware(jwtConfig))

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/magic-link", authHandler.RequestMagicLink)
	authRoutes.POST("/magic-link/redeem", authHandler.RedeemMagicLink)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.PUT("/password", authHandler.ChangePassword)
	r.Register(authRoutes).Setup()

	return &authTestEnv{
		engine:     engine,
		jwtService: jwtService,
		userRepo:   userRepo,
		blacklist:  blacklist,
	}
}

func newPortalUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewActiveUser("client@example.com", "Password123", identity.RoleClient)
	require.NoError(t, err)
	user.SetClientID("CUST-0001")
	user.SetEngagements([]string{"PROJ-0001"})
	return user
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByEmail", mock.Anything, "client@example.com").Return(user, nil)
	env.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	w := postJSON(t, env.engine, "/api/v1/auth/login", LoginRequest{
		Email:    "client@example.com",
		Password: "Password123",
	}, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	tokenData := data["token"].(map[string]interface{})
	assert.NotEmpty(t, tokenData["access_token"])
	assert.NotEmpty(t, tokenData["refresh_token"])
	userData := data["user"].(map[string]interface{})
	assert.Equal(t, "client@example.com", userData["email"])

	// session cookie carries the access token
	cookies := w.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == "portal_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, tokenData["access_token"], session.Value)
	assert.True(t, session.HttpOnly)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByEmail", mock.Anything, "client@example.com").Return(user, nil)
	env.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	w := postJSON(t, env.engine, "/api/v1/auth/login", LoginRequest{
		Email:    "client@example.com",
		Password: "wrong",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	env := newAuthTestEnv(t)

	w := postJSON(t, env.engine, "/api/v1/auth/login", map[string]string{
		"email": "not-an-email",
	}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := env.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          string(user.Role),
		ClientID:      user.ClientID,
		EngagementIDs: user.EngagementIDs,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "client@example.com", data["email"])
	assert.Equal(t, "CUST-0001", data["client_id"])
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	env := newAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout_RevokesToken(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := env.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          string(user.Role),
		ClientID:      user.ClientID,
		EngagementIDs: user.EngagementIDs,
	})
	require.NoError(t, err)

	w := postJSON(t, env.engine, "/api/v1/auth/logout", LogoutRequest{}, pair.AccessToken)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	// the revoked access token no longer authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := env.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          string(user.Role),
		ClientID:      user.ClientID,
		EngagementIDs: user.EngagementIDs,
	})
	require.NoError(t, err)

	w := postJSON(t, env.engine, "/api/v1/auth/refresh", RefreshTokenRequest{
		RefreshToken: pair.RefreshToken,
	}, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
}

func TestAuthHandler_Refresh_CookieOnly(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByEmail", mock.Anything, "client@example.com").Return(user, nil)
	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	env.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	w := postJSON(t, env.engine, "/api/v1/auth/login", LoginRequest{
		Email:    "client@example.com",
		Password: "Password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var refresh *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "portal_refresh" {
			refresh = ck
		}
	}
	require.NotNil(t, refresh, "login should set the refresh cookie")
	assert.Equal(t, "/api/v1/auth/refresh", refresh.Path)
	assert.True(t, refresh.HttpOnly)

	// a browser holding only cookies can refresh with an empty body
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(refresh)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])

	// the rotated refresh token comes back as a cookie too
	rotated := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "portal_refresh" && ck.Value != "" {
			rotated = true
		}
	}
	assert.True(t, rotated)
}

func TestAuthHandler_Refresh_NoToken(t *testing.T) {
	env := newAuthTestEnv(t)

	w := postJSON(t, env.engine, "/api/v1/auth/refresh", map[string]string{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh_Garbage(t *testing.T) {
	env := newAuthTestEnv(t)

	w := postJSON(t, env.engine, "/api/v1/auth/refresh", RefreshTokenRequest{
		RefreshToken: "not-a-token",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RequestMagicLink_AlwaysAccepts(t *testing.T) {
	env := newAuthTestEnv(t)
	env.userRepo.On("FindByEmail", mock.Anything, "stranger@example.com").
		Return(nil, errors.New("record not found"))

	w := postJSON(t, env.engine, "/api/v1/auth/magic-link", MagicLinkRequest{
		Email: "stranger@example.com",
	}, "")

	// unknown accounts get the same answer as known ones
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := newAuthTestEnv(t)
	user := newPortalUser(t)
	env.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	env.userRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	pair, err := env.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          string(user.Role),
		ClientID:      user.ClientID,
		EngagementIDs: user.EngagementIDs,
	})
	require.NoError(t, err)

	payload, err := json.Marshal(ChangePasswordRequest{
		OldPassword: "Password123",
		NewPassword: "NewPassword456",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/password", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.True(t, user.VerifyPassword("NewPassword456"))
}
