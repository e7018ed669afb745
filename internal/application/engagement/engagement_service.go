package engagement

import (
	"context"
	"time"

	"github.com/portal/backend/internal/domain/engagement"
	"github.com/portal/backend/internal/infrastructure/erp"
	"go.uber.org/zap"
)

// EngagementService reads engagements from the ERP and resolves the module
// map the frontend navigates by.
type EngagementService struct {
	erp    erp.Client
	prober *erp.WiringProber
	logger *zap.Logger
}

// NewEngagementService creates a new engagement service
func NewEngagementService(client erp.Client, prober *erp.WiringProber, logger *zap.Logger) *EngagementService {
	return &EngagementService{
		erp:    client,
		prober: prober,
		logger: logger,
	}
}

// List returns the engagements the viewer may see. Clients are scoped to
// their own customer record; operators see everything.
func (s *EngagementService) List(ctx context.Context, viewer Viewer) ([]EngagementSummary, error) {
	customerID := viewer.ClientID
	if viewer.IsOperator() {
		customerID = ""
	}

	projects, err := s.erp.ListProjects(ctx, customerID)
	if err != nil {
		s.logger.Error("Failed to list projects", zap.Error(err))
		return nil, mapERPError(err)
	}

	summaries := make([]EngagementSummary, 0, len(projects))
	for _, p := range projects {
		if !viewer.CanAccess(p.Name) {
			continue
		}
		summaries = append(summaries, newEngagementSummary(p))
	}
	return summaries, nil
}

// Get returns one engagement
func (s *EngagementService) Get(ctx context.Context, viewer Viewer, engagementID string) (*EngagementSummary, error) {
	project, err := s.loadScoped(ctx, viewer, engagementID)
	if err != nil {
		return nil, err
	}
	summary := newEngagementSummary(*project)
	return &summary, nil
}

// Modules resolves the module state map for one engagement. The snapshot is
// assembled from the project document, its contracts and invoices, and the
// wiring probe; resolution itself is pure.
func (s *EngagementService) Modules(ctx context.Context, viewer Viewer, engagementID string) (*ModuleStatesResult, error) {
	project, err := s.loadScoped(ctx, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	tier, err := engagement.ParseTier(project.Tier)
	if err != nil {
		return nil, err
	}

	contracts, err := s.erp.ListContracts(ctx, project.Customer, engagementID)
	if err != nil {
		s.logger.Error("Failed to list contracts for snapshot", zap.Error(err))
		return nil, mapERPError(err)
	}
	invoices, err := s.erp.ListInvoices(ctx, project.Customer, engagementID)
	if err != nil {
		s.logger.Error("Failed to list invoices for snapshot", zap.Error(err))
		return nil, mapERPError(err)
	}

	now := time.Now()
	snap := engagement.Snapshot{
		EngagementID:   engagementID,
		ClientID:       project.Customer,
		Name:           project.ProjectName,
		Tier:           tier,
		ProjectStatus:  engagement.ParseProjectStatus(project.Status),
		NDASigned:      ndaSignedOf(project, contracts),
		ContractSigned: anySigned(contracts),
		BillingState:   billingStateOf(invoices, now),
		Wiring:         s.prober.ModuleWiring(ctx),
		FetchedAt:      now,
	}

	states := engagement.Resolve(snap, viewer.ViewerRole())

	modules := make(map[string]string, len(states))
	for m, st := range states {
		modules[string(m)] = string(st)
	}

	return &ModuleStatesResult{
		EngagementID: engagementID,
		Tier:         string(snap.Tier),
		Status:       string(snap.ProjectStatus),
		NDASigned:    snap.NDASigned,
		BillingState: string(snap.BillingState),
		Modules:      modules,
		FetchedAt:    snap.FetchedAt,
	}, nil
}

// Wiring reports which modules have a reachable backing doctype. Served to
// the ops console; the same probe feeds Modules resolution.
func (s *EngagementService) Wiring(ctx context.Context) WiringStatus {
	wiring := s.prober.ModuleWiring(ctx)
	modules := make(map[string]bool, len(wiring))
	for m, wired := range wiring {
		modules[string(m)] = wired
	}
	return WiringStatus{Modules: modules, CheckedAt: time.Now()}
}

func (s *EngagementService) loadScoped(ctx context.Context, viewer Viewer, engagementID string) (*erp.Project, error) {
	return loadScopedProject(ctx, s.erp, viewer, engagementID)
}

func anySigned(contracts []erp.Contract) bool {
	for _, c := range contracts {
		if !c.IsNDA() && c.Signed() {
			return true
		}
	}
	return false
}
