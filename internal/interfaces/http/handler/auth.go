package handler

import (
	"net/http"
	"time"

	"github.com/portal/backend/internal/application/identity"
	"github.com/portal/backend/internal/infrastructure/config"
	"github.com/portal/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles session lifecycle endpoints. Tokens travel both in the
// JSON body (for API clients) and in the session cookie (for the browser).
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookie      config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	c.SetSameSite(sameSiteOf(h.cookie.SameSite))
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie(h.cookie.Name, token, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(sameSiteOf(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

// refreshCookiePath keeps the refresh cookie off every request except the
// refresh endpoint itself
const refreshCookiePath = "/api/v1/auth/refresh"

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	c.SetSameSite(sameSiteOf(h.cookie.SameSite))
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie(h.cookie.RefreshName, token, maxAge, refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(sameSiteOf(h.cookie.SameSite))
	c.SetCookie(h.cookie.RefreshName, "", -1, refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func sameSiteOf(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Login godoc
// @Summary      Password login
// @Description  Authenticate with email and password, set the session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.AccessTokenExpiresAt)
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt)

	h.Success(c, LoginResponse{
		Token: newTokenResponse(result.AccessToken, result.RefreshToken,
			result.AccessTokenExpiresAt, result.RefreshTokenExpiresAt, result.TokenType),
		User: result.User,
	})
}

// Refresh godoc
// @Summary      Refresh the session
// @Description  Exchange a refresh token for a fresh token pair. The token may
// @Description  arrive in the body or in the refresh cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest false "Refresh token"
// @Success      200 {object} dto.Response{data=TokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	_ = c.ShouldBindJSON(&req) // body is optional; browsers rely on the cookie

	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(h.cookie.RefreshName)
	}
	if token == "" {
		h.Unauthorized(c, "Refresh token required")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: token,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.AccessTokenExpiresAt)
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt)

	h.Success(c, newTokenResponse(result.AccessToken, result.RefreshToken,
		result.AccessTokenExpiresAt, result.RefreshTokenExpiresAt, result.TokenType))
}

// Logout godoc
// @Summary      End the session
// @Description  Revoke the current access token and clear the session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LogoutRequest false "Logout options"
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}

	var req LogoutRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	input := identity.LogoutInput{
		UserID:        userID,
		InvalidateAll: req.All,
	}
	if claims := middleware.GetJWTClaims(c); claims != nil {
		input.AccessJTI = claims.ID
		if claims.ExpiresAt != nil {
			input.AccessTTL = time.Until(claims.ExpiresAt.Time)
		}
	}

	if err := h.authService.Logout(c.Request.Context(), input); err != nil {
		h.HandleError(c, err)
		return
	}

	h.clearSessionCookie(c)
	h.clearRefreshCookie(c)
	h.NoContent(c)
}

// Me godoc
// @Summary      Current user
// @Description  Return the authenticated user's profile and scope
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}

	info, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Change the current user's password; other sessions are ended
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RequestMagicLink godoc
// @Summary      Request a sign-in link
// @Description  Email a single-use passwordless sign-in link; always succeeds
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body MagicLinkRequest true "Account email"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/magic-link [post]
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.authService.RequestMagicLink(c.Request.Context(), identity.RequestMagicLinkInput{
		Email: req.Email,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RedeemMagicLink godoc
// @Summary      Redeem a sign-in link
// @Description  Exchange a magic-link token for a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body MagicLinkRedeemRequest true "Link token"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/magic-link/redeem [post]
func (h *AuthHandler) RedeemMagicLink(c *gin.Context) {
	var req MagicLinkRedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.RedeemMagicLink(c.Request.Context(), identity.RedeemMagicLinkInput{
		Token: req.Token,
		IP:    c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.AccessTokenExpiresAt)
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt)

	h.Success(c, LoginResponse{
		Token: newTokenResponse(result.AccessToken, result.RefreshToken,
			result.AccessTokenExpiresAt, result.RefreshTokenExpiresAt, result.TokenType),
		User: result.User,
	})
}
