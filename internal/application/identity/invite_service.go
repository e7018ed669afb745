package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/portal/backend/internal/domain/identity"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// InviteServiceConfig contains configuration for the invite service
type InviteServiceConfig struct {
	TTL     time.Duration // validity of new invites
	BaseURL string        // portal base URL for the accept link
}

// DefaultInviteServiceConfig returns default configuration
func DefaultInviteServiceConfig() InviteServiceConfig {
	return InviteServiceConfig{
		TTL:     identity.DefaultInviteTTL,
		BaseURL: "http://localhost:3000",
	}
}

// InviteService handles operator-driven onboarding: creating, revoking, and
// redeeming invites.
type InviteService struct {
	inviteRepo identity.InviteRepository
	userRepo   identity.UserRepository
	mailer     mail.Mailer
	config     InviteServiceConfig
	logger     *zap.Logger
}

// NewInviteService creates a new invite service
func NewInviteService(
	inviteRepo identity.InviteRepository,
	userRepo identity.UserRepository,
	mailer mail.Mailer,
	config InviteServiceConfig,
	logger *zap.Logger,
) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		userRepo:   userRepo,
		mailer:     mailer,
		config:     config,
		logger:     logger,
	}
}

// Create issues a new invite and emails the accept link
func (s *InviteService) Create(ctx context.Context, input CreateInviteInput) (*InviteInfo, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error("Failed to check email existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create invite")
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with this email already exists")
	}

	// one pending invite per email: withdraw the old one first
	if existing, err := s.inviteRepo.FindPendingByEmail(ctx, input.Email); err == nil && existing != nil {
		if err := existing.Revoke(); err == nil {
			if err := s.inviteRepo.Update(ctx, existing); err != nil {
				s.logger.Error("Failed to revoke superseded invite", zap.Error(err))
			}
		}
	}

	invite, err := identity.NewInvite(input.Email, input.Role, input.ClientID, input.EngagementIDs, input.InvitedBy, s.config.TTL)
	if err != nil {
		return nil, err
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		s.logger.Error("Failed to persist invite", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create invite")
	}

	inviterName := input.InviterName
	if inviterName == "" {
		inviterName = "The portal team"
	}
	msg := mail.InviteEmail(invite.Email, inviterName, s.config.BaseURL+"/invites/accept?token="+invite.Token)
	if err := s.mailer.Send(ctx, msg); err != nil {
		// invite stays valid, the operator can resend the link manually
		s.logger.Error("Failed to send invite email",
			zap.String("invite_id", invite.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Invite created",
		zap.String("invite_id", invite.ID.String()),
		zap.String("email", invite.Email),
		zap.String("role", string(invite.Role)))

	info := newInviteInfo(invite)
	return &info, nil
}

// List returns invites matching the filter
func (s *InviteService) List(ctx context.Context, filter identity.InviteFilter) ([]InviteInfo, int64, error) {
	invites, total, err := s.inviteRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list invites", zap.Error(err))
		return nil, 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to list invites")
	}

	infos := make([]InviteInfo, 0, len(invites))
	for _, invite := range invites {
		infos = append(infos, newInviteInfo(invite))
	}
	return infos, total, nil
}

// Revoke withdraws a pending invite
func (s *InviteService) Revoke(ctx context.Context, id uuid.UUID) error {
	invite, err := s.inviteRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("NOT_FOUND", "Invite not found")
	}

	if err := invite.Revoke(); err != nil {
		return err
	}

	if err := s.inviteRepo.Update(ctx, invite); err != nil {
		s.logger.Error("Failed to update revoked invite", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke invite")
	}

	s.logger.Info("Invite revoked", zap.String("invite_id", id.String()))
	return nil
}

// Preview returns what the accept page needs to show for a token.
// Unauthenticated, so it exposes nothing beyond the invited email and role.
func (s *InviteService) Preview(ctx context.Context, token string) (*InvitePreview, error) {
	invite, err := s.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invite not found")
	}

	return &InvitePreview{
		Email:      invite.Email,
		Role:       string(invite.Role),
		Redeemable: invite.IsRedeemable(),
	}, nil
}

// Accept redeems an invite into a new active account
func (s *InviteService) Accept(ctx context.Context, input AcceptInviteInput) (*UserInfo, error) {
	invite, err := s.inviteRepo.FindByToken(ctx, input.Token)
	if err != nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invite not found")
	}

	// Accept() reports the precise reason (expired, revoked, already used)
	if err := invite.Accept(); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(invite.Email, input.Password, invite.Role)
	if err != nil {
		return nil, err
	}
	user.SetClientID(invite.ClientID)
	user.SetEngagements(invite.EngagementIDs)
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}
	user.Activate()

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user from invite",
			zap.String("invite_id", invite.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create account")
	}

	if err := s.inviteRepo.Update(ctx, invite); err != nil {
		// account exists; a stale pending invite is recoverable by ops
		s.logger.Error("Failed to mark invite as accepted",
			zap.String("invite_id", invite.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Invite accepted",
		zap.String("invite_id", invite.ID.String()),
		zap.String("user_id", user.ID.String()))

	info := newUserInfo(user)
	return &info, nil
}
