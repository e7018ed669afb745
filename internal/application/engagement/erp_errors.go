package engagement

import (
	"errors"
	"time"

	"github.com/portal/backend/internal/domain/engagement"
	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
)

// mapERPError converts transport-level ERP failures into domain errors the
// handler layer knows how to render
func mapERPError(err error) error {
	switch {
	case errors.Is(err, erp.ErrNotFound):
		return shared.NewDomainError("NOT_FOUND", "Document not found")
	case errors.Is(err, erp.ErrUnauthorized):
		return shared.NewDomainError("ERP_UNAVAILABLE", "Upstream rejected portal credentials")
	default:
		return shared.NewDomainError("ERP_UNAVAILABLE", "Upstream system is unavailable")
	}
}

// billingStateOf folds an engagement's invoices into a single billing state
func billingStateOf(invoices []erp.SalesInvoice, now time.Time) engagement.BillingState {
	state := engagement.BillingCurrent
	for _, inv := range invoices {
		if inv.IsOverdue(now) {
			return engagement.BillingOverdue
		}
		if !inv.IsPaid() {
			state = engagement.BillingDue
		}
	}
	return state
}

// ndaSignedOf reports whether the engagement's NDA is executed. The project
// check field wins; a signed NDA contract document also counts so either
// bookkeeping style works.
func ndaSignedOf(project *erp.Project, contracts []erp.Contract) bool {
	if project != nil && project.NDASigned == 1 {
		return true
	}
	for _, c := range contracts {
		if c.IsNDA() && c.Signed() {
			return true
		}
	}
	return false
}
