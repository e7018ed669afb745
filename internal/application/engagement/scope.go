package engagement

import (
	"context"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
)

// loadScopedProject fetches a project and enforces the viewer's scope against
// it. Out-of-scope reads report NOT_FOUND, not FORBIDDEN: a client must not
// be able to confirm that someone else's engagement id exists.
func loadScopedProject(ctx context.Context, client erp.Client, viewer Viewer, engagementID string) (*erp.Project, error) {
	if !viewer.CanAccess(engagementID) {
		return nil, shared.NewDomainError("NOT_FOUND", "Engagement not found")
	}

	project, err := client.GetProject(ctx, engagementID)
	if err != nil {
		return nil, mapERPError(err)
	}

	if !viewer.IsOperator() && project.Customer != viewer.ClientID {
		return nil, shared.NewDomainError("NOT_FOUND", "Engagement not found")
	}
	return project, nil
}
