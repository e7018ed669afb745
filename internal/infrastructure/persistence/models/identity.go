package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Email          string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash   string              `gorm:"type:varchar(255);not null"`
	DisplayName    string              `gorm:"type:varchar(200)"`
	Role           identity.Role       `gorm:"type:varchar(20);not null"`
	ClientID       string              `gorm:"type:varchar(140);index"`
	EngagementIDs  string              `gorm:"type:text"` // JSON array of ERP project ids
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	LastLoginAt    *time.Time          `gorm:"index"`
	LastLoginIP    string              `gorm:"type:varchar(45)"`
	FailedAttempts int                 `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		DisplayName:    m.DisplayName,
		Role:           m.Role,
		ClientID:       m.ClientID,
		EngagementIDs:  decodeStringList(m.EngagementIDs),
		Status:         m.Status,
		LastLoginAt:    m.LastLoginAt,
		LastLoginIP:    m.LastLoginIP,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
	}
	return user
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Role = u.Role
	m.ClientID = u.ClientID
	m.EngagementIDs = encodeStringList(u.EngagementIDs)
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// InviteModel is the persistence model for the Invite domain entity.
type InviteModel struct {
	AggregateModel
	Token         string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Email         string                `gorm:"type:varchar(200);not null;index"`
	Role          identity.Role         `gorm:"type:varchar(20);not null"`
	ClientID      string                `gorm:"type:varchar(140);index"`
	EngagementIDs string                `gorm:"type:text"` // JSON array of ERP project ids
	Status        identity.InviteStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ExpiresAt     time.Time             `gorm:"not null"`
	InvitedBy     uuid.UUID             `gorm:"type:uuid;not null"`
	AcceptedAt    *time.Time
}

// TableName returns the table name for GORM
func (InviteModel) TableName() string {
	return "invites"
}

// ToDomain converts the persistence model to a domain Invite entity.
func (m *InviteModel) ToDomain() *identity.Invite {
	return &identity.Invite{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Token:         m.Token,
		Email:         m.Email,
		Role:          m.Role,
		ClientID:      m.ClientID,
		EngagementIDs: decodeStringList(m.EngagementIDs),
		Status:        m.Status,
		ExpiresAt:     m.ExpiresAt,
		InvitedBy:     m.InvitedBy,
		AcceptedAt:    m.AcceptedAt,
	}
}

// FromDomain populates the persistence model from a domain Invite entity.
func (m *InviteModel) FromDomain(i *identity.Invite) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.Token = i.Token
	m.Email = i.Email
	m.Role = i.Role
	m.ClientID = i.ClientID
	m.EngagementIDs = encodeStringList(i.EngagementIDs)
	m.Status = i.Status
	m.ExpiresAt = i.ExpiresAt
	m.InvitedBy = i.InvitedBy
	m.AcceptedAt = i.AcceptedAt
}

// InviteModelFromDomain creates a new persistence model from a domain Invite entity.
func InviteModelFromDomain(i *identity.Invite) *InviteModel {
	m := &InviteModel{}
	m.FromDomain(i)
	return m
}

// encodeStringList serializes a string slice as JSON text. Kept as text
// rather than a native array so the same model works on postgres and sqlite.
func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return []string{}
	}
	return values
}
