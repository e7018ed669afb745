package engagement

import (
	"context"
	"strings"
	"testing"

	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(erp.NewMockClient(), zap.NewNop())

	requests, err := svc.List(ctx, clientViewer(), "PROJ-0002")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "CR-0001", requests[0].ID)
}

func TestRequestService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(erp.NewMockClient(), zap.NewNop())

	info, err := svc.Create(ctx, clientViewer(), CreateRequestInput{
		EngagementID: "PROJ-0002",
		Title:        "Quarterly deep dive",
		Description:  "One extra analysis cycle before the board meeting.",
		Category:     "Scope",
		Priority:     "High",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "PROJ-0002", info.Engagement)
	assert.Equal(t, "Open", info.Status)
	assert.Equal(t, "client@example.com", info.RaisedBy)
}

func TestRequestService_Create_Defaults(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(erp.NewMockClient(), zap.NewNop())

	info, err := svc.Create(ctx, clientViewer(), CreateRequestInput{
		EngagementID: "PROJ-0002",
		Title:        "Short ask",
	})
	require.NoError(t, err)
	assert.Equal(t, "Question", info.Category)
	assert.Equal(t, "Medium", info.Priority)
}

func TestRequestService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(erp.NewMockClient(), zap.NewNop())

	tests := []struct {
		name  string
		input CreateRequestInput
	}{
		{"empty title", CreateRequestInput{EngagementID: "PROJ-0002"}},
		{"title too long", CreateRequestInput{EngagementID: "PROJ-0002", Title: strings.Repeat("x", 141)}},
		{"unknown category", CreateRequestInput{EngagementID: "PROJ-0002", Title: "ok", Category: "Complaint"}},
		{"unknown priority", CreateRequestInput{EngagementID: "PROJ-0002", Title: "ok", Priority: "Critical"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, clientViewer(), tt.input)
			assertDomainErrCode(t, err, "INVALID_INPUT")
		})
	}
}

func TestRequestService_Create_OutOfScope(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(erp.NewMockClient(), zap.NewNop())

	viewer := clientViewer()
	viewer.EngagementIDs = []string{"PROJ-0001"}

	_, err := svc.Create(ctx, viewer, CreateRequestInput{
		EngagementID: "PROJ-0002",
		Title:        "Should not land",
	})
	assertDomainErrCode(t, err, "NOT_FOUND")
}
