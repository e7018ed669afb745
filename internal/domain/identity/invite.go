package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/shared"
)

// InviteStatus represents the lifecycle state of an invite
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
)

// DefaultInviteTTL is how long an invite stays redeemable
const DefaultInviteTTL = 7 * 24 * time.Hour

// Invite represents a pending onboarding grant. The token is the only secret:
// whoever presents it may create the account described here.
type Invite struct {
	shared.BaseAggregateRoot
	Token         string
	Email         string
	Role          Role
	ClientID      string
	EngagementIDs []string
	Status        InviteStatus
	ExpiresAt     time.Time
	InvitedBy     uuid.UUID
	AcceptedAt    *time.Time
}

// NewInvite creates a pending invite with a fresh token
func NewInvite(email string, role Role, clientID string, engagementIDs []string, invitedBy uuid.UUID, ttl time.Duration) (*Invite, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be CLIENT or OPERATOR")
	}
	if role == RoleClient && strings.TrimSpace(clientID) == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client invites require a client ID")
	}
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	ids := make([]string, 0, len(engagementIDs))
	for _, id := range engagementIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return &Invite{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Token:             uuid.New().String(),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Role:              role,
		ClientID:          strings.TrimSpace(clientID),
		EngagementIDs:     ids,
		Status:            InviteStatusPending,
		ExpiresAt:         time.Now().Add(ttl),
		InvitedBy:         invitedBy,
	}, nil
}

// IsExpired reports whether the invite has passed its expiry
func (i *Invite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsRedeemable reports whether the invite can still be accepted
func (i *Invite) IsRedeemable() bool {
	return i.Status == InviteStatusPending && !i.IsExpired()
}

// Accept marks the invite as consumed
func (i *Invite) Accept() error {
	if i.Status == InviteStatusAccepted {
		return shared.NewDomainError("INVITE_ACCEPTED", "Invite has already been accepted")
	}
	if i.Status == InviteStatusRevoked {
		return shared.NewDomainError("INVITE_REVOKED", "Invite has been revoked")
	}
	if i.IsExpired() {
		return shared.NewDomainError("INVITE_EXPIRED", "Invite has expired")
	}
	now := time.Now()
	i.Status = InviteStatusAccepted
	i.AcceptedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
	return nil
}

// Revoke withdraws a pending invite
func (i *Invite) Revoke() error {
	if i.Status != InviteStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending invites can be revoked")
	}
	i.Status = InviteStatusRevoked
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}
