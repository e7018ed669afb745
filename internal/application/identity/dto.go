package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
)

// LoginInput carries credentials for password login
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// UserInfo is the session-facing view of an account
type UserInfo struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	ClientID      string    `json:"client_id,omitempty"`
	EngagementIDs []string  `json:"engagement_ids,omitempty"`
}

// LoginResult carries the issued tokens and the user view
type LoginResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  UserInfo  `json:"user"`
}

// RefreshTokenInput carries the refresh token
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult carries the renewed token pair
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LogoutInput identifies the session being ended
type LogoutInput struct {
	UserID        uuid.UUID
	AccessJTI     string
	AccessTTL     time.Duration
	InvalidateAll bool
}

// ChangePasswordInput carries a password change request
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// RequestMagicLinkInput asks for a passwordless sign-in link
type RequestMagicLinkInput struct {
	Email string
}

// RedeemMagicLinkInput presents a magic-link token
type RedeemMagicLinkInput struct {
	Token string
	IP    string
}

// CreateInviteInput describes a new onboarding invite
type CreateInviteInput struct {
	Email         string
	Role          identity.Role
	ClientID      string
	EngagementIDs []string
	InvitedBy     uuid.UUID
	InviterName   string
}

// InviteInfo is the API view of an invite
type InviteInfo struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	ClientID      string     `json:"client_id,omitempty"`
	EngagementIDs []string   `json:"engagement_ids,omitempty"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
}

// InvitePreview is the unauthenticated view shown on the accept page.
// The token holder learns only what they need to finish onboarding.
type InvitePreview struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	Redeemable bool   `json:"redeemable"`
}

// AcceptInviteInput redeems an invite into an account
type AcceptInviteInput struct {
	Token       string
	Password    string
	DisplayName string
}

// UserSummary is the ops-console view of an account
type UserSummary struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Role           string     `json:"role"`
	ClientID       string     `json:"client_id,omitempty"`
	EngagementIDs  []string   `json:"engagement_ids,omitempty"`
	Status         string     `json:"status"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	FailedAttempts int        `json:"failed_attempts"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.GetDisplayNameOrEmail(),
		Role:          string(u.Role),
		ClientID:      u.ClientID,
		EngagementIDs: u.EngagementIDs,
	}
}

func newInviteInfo(i *identity.Invite) InviteInfo {
	return InviteInfo{
		ID:            i.ID,
		Email:         i.Email,
		Role:          string(i.Role),
		ClientID:      i.ClientID,
		EngagementIDs: i.EngagementIDs,
		Status:        string(i.Status),
		ExpiresAt:     i.ExpiresAt,
		CreatedAt:     i.CreatedAt,
		AcceptedAt:    i.AcceptedAt,
	}
}

func newUserSummary(u *identity.User) UserSummary {
	return UserSummary{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Role:           string(u.Role),
		ClientID:       u.ClientID,
		EngagementIDs:  u.EngagementIDs,
		Status:         string(u.Status),
		LastLoginAt:    u.LastLoginAt,
		FailedAttempts: u.FailedAttempts,
		CreatedAt:      u.CreatedAt,
	}
}
