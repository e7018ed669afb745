package handler

import (
	"time"

	"github.com/portal/backend/internal/application/identity"
)

// LoginRequest is the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResponse is the login response payload
type LoginResponse struct {
	Token TokenResponse     `json:"token"`
	User  identity.UserInfo `json:"user"`
}

// RefreshTokenRequest is the token refresh request payload. The token is
// optional here; browser clients send it via the refresh cookie instead.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the logout request payload
type LogoutRequest struct {
	All bool `json:"all"` // end every session, not just this one
}

// ChangePasswordRequest is the password change request payload
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// MagicLinkRequest asks for a passwordless sign-in link
type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// MagicLinkRedeemRequest presents a magic-link token
type MagicLinkRedeemRequest struct {
	Token string `json:"token" binding:"required"`
}

func newTokenResponse(accessToken, refreshToken string, accessExp, refreshExp time.Time, tokenType string) TokenResponse {
	return TokenResponse{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             tokenType,
	}
}
