package engagement

import (
	"context"
	"time"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillingService reads the invoice position of an engagement
type BillingService struct {
	erp    erp.Client
	logger *zap.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(client erp.Client, logger *zap.Logger) *BillingService {
	return &BillingService{erp: client, logger: logger}
}

// ListInvoices returns the invoices of an engagement
func (s *BillingService) ListInvoices(ctx context.Context, viewer Viewer, engagementID string) ([]InvoiceInfo, error) {
	project, err := loadScopedProject(ctx, s.erp, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.erp.ListInvoices(ctx, project.Customer, engagementID)
	if err != nil {
		s.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, mapERPError(err)
	}

	now := time.Now()
	infos := make([]InvoiceInfo, 0, len(invoices))
	for _, inv := range invoices {
		infos = append(infos, newInvoiceInfo(inv, now))
	}
	return infos, nil
}

// GetInvoice returns one invoice of an engagement
func (s *BillingService) GetInvoice(ctx context.Context, viewer Viewer, engagementID, invoiceID string) (*InvoiceInfo, error) {
	project, err := loadScopedProject(ctx, s.erp, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.erp.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, mapERPError(err)
	}
	if invoice.Project != engagementID || invoice.Customer != project.Customer {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}

	info := newInvoiceInfo(*invoice, time.Now())
	return &info, nil
}

// Settlement aggregates the invoice totals of an engagement. Amounts are
// summed per the invoice currency of the first invoice; mixed-currency
// engagements do not occur upstream.
func (s *BillingService) Settlement(ctx context.Context, viewer Viewer, engagementID string) (*SettlementSummary, error) {
	project, err := loadScopedProject(ctx, s.erp, viewer, engagementID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.erp.ListInvoices(ctx, project.Customer, engagementID)
	if err != nil {
		s.logger.Error("Failed to list invoices for settlement", zap.Error(err))
		return nil, mapERPError(err)
	}

	now := time.Now()
	summary := SettlementSummary{
		TotalBilled:      decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalSettled:     decimal.Zero,
	}
	for _, inv := range invoices {
		if summary.Currency == "" {
			summary.Currency = inv.Currency
		}
		summary.TotalBilled = summary.TotalBilled.Add(inv.GrandTotal)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(inv.OutstandingAmount)
		if inv.IsOverdue(now) {
			summary.OverdueCount++
		}
	}
	summary.TotalSettled = summary.TotalBilled.Sub(summary.TotalOutstanding)
	summary.BillingState = string(billingStateOf(invoices, now))

	return &summary, nil
}
