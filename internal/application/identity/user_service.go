package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService handles account administration from the ops console
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// List returns users matching the filter
func (s *UserService) List(ctx context.Context, filter identity.UserFilter) ([]UserSummary, int64, error) {
	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, newUserSummary(user))
	}
	return summaries, total, nil
}

// Get returns a single user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserSummary, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	summary := newUserSummary(user)
	return &summary, nil
}

// UpdateScope replaces the ERP scope of an account. Existing sessions keep
// their old claims until refresh.
func (s *UserService) UpdateScope(ctx context.Context, id uuid.UUID, clientID string, engagementIDs []string) (*UserSummary, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	user.SetClientID(clientID)
	user.SetEngagements(engagementIDs)

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user scope", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	s.logger.Info("User scope updated",
		zap.String("user_id", id.String()),
		zap.String("client_id", clientID),
		zap.Strings("engagement_ids", engagementIDs))

	summary := newUserSummary(user)
	return &summary, nil
}

// Deactivate disables an account
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if user.IsDeactivated() {
		return shared.NewDomainError("INVALID_STATE", "User is already deactivated")
	}

	user.Deactivate()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to deactivate user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate user")
	}

	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return nil
}

// Reactivate re-enables a deactivated or locked account
func (s *UserService) Reactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	user.Activate()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to reactivate user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reactivate user")
	}

	s.logger.Info("User reactivated", zap.String("user_id", id.String()))
	return nil
}
