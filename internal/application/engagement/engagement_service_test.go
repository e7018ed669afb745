package engagement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clientViewer() Viewer {
	return Viewer{
		UserID:   "u-1",
		Email:    "client@example.com",
		Role:     "CLIENT",
		ClientID: "CUST-0001",
	}
}

func operatorViewer() Viewer {
	return Viewer{
		UserID: "u-ops",
		Email:  "ops@example.com",
		Role:   "OPERATOR",
	}
}

func newEngagementService(mock *erp.MockClient) *EngagementService {
	prober := erp.NewWiringProber(mock, time.Minute)
	return NewEngagementService(mock, prober, zap.NewNop())
}

func assertDomainErrCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestEngagementService_List_ClientScope(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	summaries, err := svc.List(ctx, clientViewer())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	ids := []string{summaries[0].ID, summaries[1].ID}
	assert.Contains(t, ids, "PROJ-0001")
	assert.Contains(t, ids, "PROJ-0002")
}

func TestEngagementService_List_GrantListNarrows(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	viewer := clientViewer()
	viewer.EngagementIDs = []string{"PROJ-0001"}

	summaries, err := svc.List(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "PROJ-0001", summaries[0].ID)
}

func TestEngagementService_List_ForeignClientSeesNothing(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	viewer := clientViewer()
	viewer.ClientID = "CUST-9999"

	summaries, err := svc.List(ctx, viewer)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestEngagementService_Get_OutOfScopeReadsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	viewer := clientViewer()
	viewer.ClientID = "CUST-9999"

	_, err := svc.Get(ctx, viewer, "PROJ-0001")
	assertDomainErrCode(t, err, "NOT_FOUND")

	viewer = clientViewer()
	viewer.EngagementIDs = []string{"PROJ-0002"}
	_, err = svc.Get(ctx, viewer, "PROJ-0001")
	assertDomainErrCode(t, err, "NOT_FOUND")
}

func TestEngagementService_Modules_IntelOnlyTier(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	result, err := svc.Modules(ctx, clientViewer(), "PROJ-0001")
	require.NoError(t, err)

	assert.Equal(t, "INTEL_ONLY", result.Tier)
	assert.Equal(t, "open", result.Status)
	assert.True(t, result.NDASigned)
	assert.Equal(t, "current", result.BillingState)

	assert.Equal(t, "active", result.Modules["intel"])
	assert.Equal(t, "active", result.Modules["outputs"])
	assert.Equal(t, "locked", result.Modules["requestBuilder"])
	assert.Equal(t, "locked", result.Modules["protocol"])
	assert.Equal(t, "locked", result.Modules["opsConsole"])
}

func TestEngagementService_Modules_OperatorGetsOpsConsole(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	result, err := svc.Modules(ctx, operatorViewer(), "PROJ-0001")
	require.NoError(t, err)
	assert.Equal(t, "active", result.Modules["opsConsole"])
}

func TestEngagementService_Modules_CustomTierDue(t *testing.T) {
	ctx := context.Background()
	svc := newEngagementService(erp.NewMockClient())

	result, err := svc.Modules(ctx, clientViewer(), "PROJ-0002")
	require.NoError(t, err)

	assert.Equal(t, "CUSTOM", result.Tier)
	// outstanding invoice still within terms: due, not overdue, nothing locked
	assert.Equal(t, "due", result.BillingState)
	assert.Equal(t, "active", result.Modules["billing"])
	assert.Equal(t, "active", result.Modules["secureChannel"])
	assert.Equal(t, "active", result.Modules["deliveryPipeline"])
}

func TestEngagementService_Modules_UnwiredDoctype(t *testing.T) {
	ctx := context.Background()
	mock := erp.NewMockClient()
	mock.SetUnwired(erp.DoctypeDeliverable, true)
	svc := newEngagementService(mock)

	result, err := svc.Modules(ctx, clientViewer(), "PROJ-0001")
	require.NoError(t, err)

	assert.Equal(t, "not_wired", result.Modules["outputs"])
	assert.Equal(t, "not_wired", result.Modules["deliveryPipeline"])
	assert.Equal(t, "active", result.Modules["intel"])
}
