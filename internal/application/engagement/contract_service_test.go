package engagement

import (
	"context"
	"testing"

	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContractService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewContractService(erp.NewMockClient(), zap.NewNop())

	contracts, err := svc.List(ctx, clientViewer(), "PROJ-0002")
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	byID := map[string]ContractInfo{}
	for _, c := range contracts {
		byID[c.ID] = c
	}
	assert.False(t, byID["CON-0002"].Signed)
	assert.Equal(t, "NDA", byID["CON-0002"].ContractType)
	assert.True(t, byID["CON-0003"].Signed)
}

func TestContractService_Sign(t *testing.T) {
	ctx := context.Background()
	svc := NewContractService(erp.NewMockClient(), zap.NewNop())

	info, err := svc.Sign(ctx, clientViewer(), "PROJ-0002", "CON-0002")
	require.NoError(t, err)
	assert.True(t, info.Signed)
	assert.Equal(t, "client@example.com", info.SignedBy)
	require.NotNil(t, info.SignedOn)

	// idempotence is not silent: a second sign is an invalid transition
	_, err = svc.Sign(ctx, clientViewer(), "PROJ-0002", "CON-0002")
	assertDomainErrCode(t, err, "INVALID_STATE")
}

func TestContractService_Sign_WrongEngagement(t *testing.T) {
	ctx := context.Background()
	svc := NewContractService(erp.NewMockClient(), zap.NewNop())

	// CON-0002 belongs to PROJ-0002
	_, err := svc.Sign(ctx, clientViewer(), "PROJ-0001", "CON-0002")
	assertDomainErrCode(t, err, "NOT_FOUND")
}
