package engagement

import (
	"context"
	"path"
	"time"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/portal/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// DeliverableService serves the outputs module: listing released work
// products and handing out their downloads.
type DeliverableService struct {
	erp           erp.Client
	artifacts     storage.ArtifactStore
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewDeliverableService creates a new deliverable service
func NewDeliverableService(client erp.Client, artifacts storage.ArtifactStore, presignExpiry time.Duration, logger *zap.Logger) *DeliverableService {
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &DeliverableService{
		erp:           client,
		artifacts:     artifacts,
		presignExpiry: presignExpiry,
		logger:        logger,
	}
}

// List returns the deliverables of an engagement. Clients only see released
// ones; operators see the full pipeline.
func (s *DeliverableService) List(ctx context.Context, viewer Viewer, engagementID string) ([]DeliverableInfo, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, engagementID); err != nil {
		return nil, err
	}

	deliverables, err := s.erp.ListDeliverables(ctx, engagementID)
	if err != nil {
		s.logger.Error("Failed to list deliverables", zap.Error(err))
		return nil, mapERPError(err)
	}

	infos := make([]DeliverableInfo, 0, len(deliverables))
	for _, d := range deliverables {
		if !viewer.IsOperator() && !d.Released() {
			continue
		}
		infos = append(infos, newDeliverableInfo(d))
	}
	return infos, nil
}

// Get returns one deliverable of an engagement. Unreleased deliverables are
// invisible to clients.
func (s *DeliverableService) Get(ctx context.Context, viewer Viewer, engagementID, deliverableID string) (*DeliverableInfo, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, engagementID); err != nil {
		return nil, err
	}

	deliverable, err := s.erp.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, mapERPError(err)
	}
	if deliverable.Project != engagementID {
		return nil, shared.NewDomainError("NOT_FOUND", "Deliverable not found")
	}
	if !viewer.IsOperator() && !deliverable.Released() {
		return nil, shared.NewDomainError("NOT_FOUND", "Deliverable not found")
	}

	info := newDeliverableInfo(*deliverable)
	return &info, nil
}

// Download resolves a deliverable into either a presigned object-store URL
// (archived deliverables) or inline content proxied from the ERP. Unreleased
// deliverables are not downloadable by clients.
func (s *DeliverableService) Download(ctx context.Context, viewer Viewer, engagementID, deliverableID string) (*DownloadResult, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, engagementID); err != nil {
		return nil, err
	}

	deliverable, err := s.erp.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, mapERPError(err)
	}
	if deliverable.Project != engagementID {
		return nil, shared.NewDomainError("NOT_FOUND", "Deliverable not found")
	}
	if !viewer.IsOperator() && !deliverable.Released() {
		return nil, shared.NewDomainError("NOT_FOUND", "Deliverable not found")
	}

	if deliverable.StorageKey != "" {
		url, _, err := s.artifacts.GenerateDownloadURL(ctx, deliverable.StorageKey, s.presignExpiry)
		if err != nil {
			s.logger.Error("Failed to presign deliverable download",
				zap.String("deliverable_id", deliverableID),
				zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prepare download")
		}
		return &DownloadResult{
			URL:      url,
			FileName: path.Base(deliverable.StorageKey),
		}, nil
	}

	if deliverable.FileURL == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "Deliverable has no file attached")
	}

	content, contentType, err := s.erp.DownloadFile(ctx, deliverable.FileURL)
	if err != nil {
		s.logger.Error("Failed to proxy deliverable download",
			zap.String("deliverable_id", deliverableID),
			zap.Error(err))
		return nil, mapERPError(err)
	}

	return &DownloadResult{
		Content:     content,
		ContentType: contentType,
		FileName:    path.Base(deliverable.FileURL),
	}, nil
}
