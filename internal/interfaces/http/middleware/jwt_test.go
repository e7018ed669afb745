package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/portal/backend/internal/infrastructure/auth"
	"github.com/portal/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-for-jwt-signing-32ch",
		RefreshSecret:          "test-refresh-secret-key-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 168 * time.Hour,
		Issuer:                 "portal-test",
		MaxRefreshCount:        3,
	})
}

func issueAccessToken(t *testing.T, svc *auth.JWTService, role string) string {
	t.Helper()
	pair, err := svc.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:        uuid.New(),
		Email:         "user@example.com",
		Role:          role,
		ClientID:      "CUST-0001",
		EngagementIDs: []string{"PROJ-0001"},
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func setupAuthRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(cfg))
	r.GET("/api/v1/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetJWTUserID(c),
			"client_id": GetJWTClientID(c),
		})
	})
	r.GET("/api/v1/auth/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWT(t)
	cfg := DefaultJWTConfig(svc, "portal_session")
	router := setupAuthRouter(cfg)

	t.Run("rejects missing credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts session cookie", func(t *testing.T) {
		token := issueAccessToken(t, svc, "CLIENT")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
		req.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "CUST-0001")
	})

	t.Run("accepts bearer header", func(t *testing.T) {
		token := issueAccessToken(t, svc, "CLIENT")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths bypass auth", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	svc := newTestJWT(t)
	blacklist := auth.NewInMemoryTokenBlacklist()
	cfg := DefaultJWTConfig(svc, "portal_session")
	cfg.TokenBlacklist = blacklist
	router := setupAuthRouter(cfg)

	token := issueAccessToken(t, svc, "CLIENT")
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireOperator(t *testing.T) {
	svc := newTestJWT(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(DefaultJWTConfig(svc, "portal_session")))
	r.GET("/ops", RequireOperator(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("operator allowed", func(t *testing.T) {
		token := issueAccessToken(t, svc, "OPERATOR")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ops", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("client forbidden", func(t *testing.T) {
		token := issueAccessToken(t, svc, "CLIENT")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ops", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireEngagementAccess(t *testing.T) {
	svc := newTestJWT(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(DefaultJWTConfig(svc, "portal_session")))
	r.GET("/engagements/:id", RequireEngagementAccess("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("granted engagement", func(t *testing.T) {
		token := issueAccessToken(t, svc, "CLIENT")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/engagements/PROJ-0001", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ungranted engagement looks missing", func(t *testing.T) {
		token := issueAccessToken(t, svc, "CLIENT")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/engagements/PROJ-9999", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("operator passes any engagement", func(t *testing.T) {
		token := issueAccessToken(t, svc, "OPERATOR")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/engagements/PROJ-9999", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
