package engagement

import (
	"context"
	"strings"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
	"go.uber.org/zap"
)

// allowed request field values, matching the upstream select options
var (
	requestCategories = map[string]bool{"Scope": true, "Question": true, "Issue": true, "Data": true}
	requestPriorities = map[string]bool{"Low": true, "Medium": true, "High": true, "Urgent": true}
)

// RequestService handles the request builder: structured asks a client files
// against a running engagement.
type RequestService struct {
	erp    erp.Client
	logger *zap.Logger
}

// NewRequestService creates a new request service
func NewRequestService(client erp.Client, logger *zap.Logger) *RequestService {
	return &RequestService{erp: client, logger: logger}
}

// List returns the requests filed against an engagement
func (s *RequestService) List(ctx context.Context, viewer Viewer, engagementID string) ([]RequestInfo, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, engagementID); err != nil {
		return nil, err
	}

	requests, err := s.erp.ListRequests(ctx, engagementID)
	if err != nil {
		s.logger.Error("Failed to list requests", zap.Error(err))
		return nil, mapERPError(err)
	}

	infos := make([]RequestInfo, 0, len(requests))
	for _, r := range requests {
		infos = append(infos, newRequestInfo(r))
	}
	return infos, nil
}

// Get returns one request filed against an engagement
func (s *RequestService) Get(ctx context.Context, viewer Viewer, engagementID, requestID string) (*RequestInfo, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, engagementID); err != nil {
		return nil, err
	}

	request, err := s.erp.GetRequest(ctx, requestID)
	if err != nil {
		return nil, mapERPError(err)
	}
	if request.Project != engagementID {
		return nil, shared.NewDomainError("NOT_FOUND", "Request not found")
	}

	info := newRequestInfo(*request)
	return &info, nil
}

// Create files a new request against an engagement
func (s *RequestService) Create(ctx context.Context, viewer Viewer, input CreateRequestInput) (*RequestInfo, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Request title is required")
	}
	if len(title) > 140 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Request title cannot exceed 140 characters")
	}
	category := input.Category
	if category == "" {
		category = "Question"
	}
	if !requestCategories[category] {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown request category: "+category)
	}
	priority := input.Priority
	if priority == "" {
		priority = "Medium"
	}
	if !requestPriorities[priority] {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown request priority: "+priority)
	}

	project, err := loadScopedProject(ctx, s.erp, viewer, input.EngagementID)
	if err != nil {
		return nil, err
	}

	created, err := s.erp.CreateRequest(ctx, erp.ClientRequest{
		Project:     project.Name,
		Customer:    project.Customer,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Priority:    priority,
		Status:      "Open",
		RaisedBy:    viewer.Email,
	})
	if err != nil {
		s.logger.Error("Failed to create request", zap.Error(err))
		return nil, mapERPError(err)
	}

	s.logger.Info("Client request created",
		zap.String("request_id", created.Name),
		zap.String("engagement_id", project.Name),
		zap.String("raised_by", viewer.Email))

	info := newRequestInfo(*created)
	return &info, nil
}

// Update edits a request. Only requests still in Open status can change;
// once the team picks one up it is read-only for the client.
func (s *RequestService) Update(ctx context.Context, viewer Viewer, input UpdateRequestInput) (*RequestInfo, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, input.EngagementID); err != nil {
		return nil, err
	}

	request, err := s.erp.GetRequest(ctx, input.RequestID)
	if err != nil {
		return nil, mapERPError(err)
	}
	if request.Project != input.EngagementID {
		return nil, shared.NewDomainError("NOT_FOUND", "Request not found")
	}
	if request.Status != "Open" {
		return nil, shared.NewDomainError("INVALID_STATE", "Only open requests can be edited")
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, shared.NewDomainError("INVALID_INPUT", "Request title is required")
		}
		if len(title) > 140 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Request title cannot exceed 140 characters")
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		if !requestCategories[*input.Category] {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown request category: "+*input.Category)
		}
		fields["category"] = *input.Category
	}
	if input.Priority != nil {
		if !requestPriorities[*input.Priority] {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown request priority: "+*input.Priority)
		}
		fields["priority"] = *input.Priority
	}
	if len(fields) == 0 {
		info := newRequestInfo(*request)
		return &info, nil
	}

	updated, err := s.erp.UpdateRequest(ctx, input.RequestID, fields)
	if err != nil {
		s.logger.Error("Failed to update request", zap.Error(err))
		return nil, mapERPError(err)
	}

	s.logger.Info("Client request updated",
		zap.String("request_id", input.RequestID),
		zap.String("engagement_id", input.EngagementID))

	info := newRequestInfo(*updated)
	return &info, nil
}
