package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/portal/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role represents the portal role of a user
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleOperator Role = "OPERATOR"
)

// Valid reports whether the role is a known portal role
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleOperator
}

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusPending     UserStatus = "pending"     // Invite accepted but not yet activated
	UserStatusActive      UserStatus = "active"      // Normal active status
	UserStatusLocked      UserStatus = "locked"      // Locked due to failed attempts/security
	UserStatusDeactivated UserStatus = "deactivated" // Manually deactivated
)

// Password cost for bcrypt
const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a portal account. Portal accounts are local to the BFF and
// independent of any user model the ERP may hold; the link to ERP data is the
// ClientID (an ERP Customer id) plus an optional explicit engagement list.
type User struct {
	shared.BaseAggregateRoot
	Email          string
	PasswordHash   string
	DisplayName    string
	Role           Role
	ClientID       string      // ERP Customer id this account belongs to (empty for operators)
	EngagementIDs  []string    // Explicit engagement (ERP Project) grants; empty = all of ClientID
	Status         UserStatus
	LastLoginAt    *time.Time
	LastLoginIP    string
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser creates a new user with required fields
func NewUser(email, password string, role Role) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be CLIENT or OPERATOR")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      passwordHash,
		Role:              role,
		Status:            UserStatusPending,
		EngagementIDs:     make([]string, 0),
	}, nil
}

// NewActiveUser creates a new user that is immediately active
func NewActiveUser(email, password string, role Role) (*User, error) {
	user, err := NewUser(email, password, role)
	if err != nil {
		return nil, err
	}
	user.Status = UserStatusActive
	return user, nil
}

// SetDisplayName sets the user's display name
func (u *User) SetDisplayName(displayName string) error {
	if len(displayName) > 200 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 200 characters")
	}
	u.DisplayName = strings.TrimSpace(displayName)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// SetClientID sets the ERP customer this account is scoped to
func (u *User) SetClientID(clientID string) {
	u.ClientID = strings.TrimSpace(clientID)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// SetEngagements replaces the explicit engagement grant list
func (u *User) SetEngagements(engagementIDs []string) {
	ids := make([]string, 0, len(engagementIDs))
	for _, id := range engagementIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	u.EngagementIDs = ids
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// CanAccessEngagement reports whether the user may read the given engagement.
// Operators see everything. Clients with an explicit grant list are limited to
// it; clients without one are scoped by ClientID at query time.
func (u *User) CanAccessEngagement(engagementID string) bool {
	if u.Role == RoleOperator {
		return true
	}
	if len(u.EngagementIDs) == 0 {
		return true // scoped by ClientID when listing from the ERP
	}
	for _, id := range u.EngagementIDs {
		if id == engagementID {
			return true
		}
	}
	return false
}

// ChangePassword changes the user's password after verifying the old one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password (invite acceptance, admin reset)
func (u *User) SetPassword(newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// VerifyPassword checks the given password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Activate transitions the user to active status
func (u *User) Activate() {
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// Deactivate marks the user as deactivated
func (u *User) Deactivate() {
	u.Status = UserStatusDeactivated
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// IsLocked reports whether the account is currently locked
func (u *User) IsLocked() bool {
	if u.Status == UserStatusLocked {
		if u.LockedUntil != nil && time.Now().After(*u.LockedUntil) {
			return false // lock window elapsed
		}
		return true
	}
	return false
}

// IsDeactivated reports whether the account has been deactivated
func (u *User) IsDeactivated() bool {
	return u.Status == UserStatusDeactivated
}

// IsPending reports whether the account awaits activation
func (u *User) IsPending() bool {
	return u.Status == UserStatusPending
}

// CanLogin reports whether the account may start a session
func (u *User) CanLogin() bool {
	if u.IsLocked() || u.IsDeactivated() || u.IsPending() {
		return false
	}
	return true
}

// RecordLoginFailure increments the failed-attempt counter and locks the
// account when the limit is reached. Returns true if the account was locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	if u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.Status = UserStatusLocked
		u.LockedUntil = &until
		return true
	}
	return false
}

// RecordLoginSuccess resets failure tracking and records login metadata
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.FailedAttempts = 0
	u.LockedUntil = nil
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
	}
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.UpdatedAt = now
	u.IncrementVersion()
}

// GetDisplayNameOrEmail returns the display name, falling back to the email
func (u *User) GetDisplayNameOrEmail() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Email format is invalid")
	}
	return nil
}

// ValidatePassword enforces the minimum password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
