package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInviteRepository implements InviteRepository using GORM
type GormInviteRepository struct {
	db *gorm.DB
}

// NewGormInviteRepository creates a new GormInviteRepository
func NewGormInviteRepository(db *gorm.DB) *GormInviteRepository {
	return &GormInviteRepository{db: db}
}

// Create creates a new invite
func (r *GormInviteRepository) Create(ctx context.Context, invite *identity.Invite) error {
	model := models.InviteModelFromDomain(invite)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing invite
func (r *GormInviteRepository) Update(ctx context.Context, invite *identity.Invite) error {
	model := models.InviteModelFromDomain(invite)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an invite by ID
func (r *GormInviteRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Invite, error) {
	var model models.InviteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByToken finds an invite by its token
func (r *GormInviteRepository) FindByToken(ctx context.Context, token string) (*identity.Invite, error) {
	if token == "" {
		return nil, shared.ErrNotFound
	}
	var model models.InviteModel
	if err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPendingByEmail finds a pending invite for an email, if any
func (r *GormInviteRepository) FindPendingByEmail(ctx context.Context, email string) (*identity.Invite, error) {
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var model models.InviteModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? AND status = ?", strings.ToLower(email), identity.InviteStatusPending).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns invites matching the filter with pagination
func (r *GormInviteRepository) FindAll(ctx context.Context, filter identity.InviteFilter) ([]*identity.Invite, int64, error) {
	var inviteModels []*models.InviteModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InviteModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC").Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&inviteModels).Error; err != nil {
		return nil, 0, err
	}

	invites := make([]*identity.Invite, len(inviteModels))
	for i, model := range inviteModels {
		invites[i] = model.ToDomain()
	}

	return invites, total, nil
}

var _ identity.InviteRepository = (*GormInviteRepository)(nil)
