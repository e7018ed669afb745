package identity

import (
	"context"

	"github.com/google/uuid"
)

// InviteRepository defines the interface for invite persistence
type InviteRepository interface {
	// Create creates a new invite
	Create(ctx context.Context, invite *Invite) error

	// Update updates an existing invite
	Update(ctx context.Context, invite *Invite) error

	// FindByID finds an invite by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invite, error)

	// FindByToken finds an invite by its token
	FindByToken(ctx context.Context, token string) (*Invite, error)

	// FindPendingByEmail finds a pending invite for an email, if any
	FindPendingByEmail(ctx context.Context, email string) (*Invite, error)

	// FindAll returns invites matching the filter with pagination
	FindAll(ctx context.Context, filter InviteFilter) ([]*Invite, int64, error)
}

// InviteFilter contains filter options for querying invites
type InviteFilter struct {
	Status   *InviteStatus
	ClientID string

	Page     int
	PageSize int
}

// NewInviteFilter creates a new InviteFilter with default values
func NewInviteFilter() InviteFilter {
	return InviteFilter{
		Page:     1,
		PageSize: 20,
	}
}

// Offset returns the query offset for the current page
func (f InviteFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// Limit returns the query limit, bounded to a sane page size
func (f InviteFilter) Limit() int {
	if f.PageSize < 1 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
