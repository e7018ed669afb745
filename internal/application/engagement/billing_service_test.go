package engagement

import (
	"context"
	"testing"

	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBillingService_ListInvoices(t *testing.T) {
	ctx := context.Background()
	svc := NewBillingService(erp.NewMockClient(), zap.NewNop())

	invoices, err := svc.ListInvoices(ctx, clientViewer(), "PROJ-0002")
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, "SINV-0002", inv.ID)
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(45000)))
	assert.True(t, inv.Outstanding.Equal(decimal.NewFromInt(22500)))
	assert.False(t, inv.Overdue)
}

func TestBillingService_ListInvoices_OutOfScope(t *testing.T) {
	ctx := context.Background()
	svc := NewBillingService(erp.NewMockClient(), zap.NewNop())

	viewer := clientViewer()
	viewer.ClientID = "CUST-9999"

	_, err := svc.ListInvoices(ctx, viewer, "PROJ-0002")
	assertDomainErrCode(t, err, "NOT_FOUND")
}

func TestBillingService_Settlement(t *testing.T) {
	ctx := context.Background()
	svc := NewBillingService(erp.NewMockClient(), zap.NewNop())

	summary, err := svc.Settlement(ctx, clientViewer(), "PROJ-0002")
	require.NoError(t, err)

	assert.Equal(t, "EUR", summary.Currency)
	assert.True(t, summary.TotalBilled.Equal(decimal.NewFromInt(45000)))
	assert.True(t, summary.TotalOutstanding.Equal(decimal.NewFromInt(22500)))
	assert.True(t, summary.TotalSettled.Equal(decimal.NewFromInt(22500)))
	assert.Equal(t, 0, summary.OverdueCount)
	assert.Equal(t, "due", summary.BillingState)
}

func TestBillingService_Settlement_FullySettled(t *testing.T) {
	ctx := context.Background()
	svc := NewBillingService(erp.NewMockClient(), zap.NewNop())

	summary, err := svc.Settlement(ctx, clientViewer(), "PROJ-0001")
	require.NoError(t, err)

	assert.True(t, summary.TotalOutstanding.Equal(decimal.Zero))
	assert.Equal(t, "current", summary.BillingState)
}
