package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/portal/backend/internal/infrastructure/erp"
	"github.com/portal/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDeliverableService(mock *erp.MockClient) *DeliverableService {
	return NewDeliverableService(mock, storage.NewStubArtifactStore(), 15*time.Minute, zap.NewNop())
}

func TestDeliverableService_List_ClientSeesReleasedOnly(t *testing.T) {
	ctx := context.Background()
	svc := newDeliverableService(erp.NewMockClient())

	// DEL-0002 is in review and invisible to clients
	deliverables, err := svc.List(ctx, clientViewer(), "PROJ-0002")
	require.NoError(t, err)
	assert.Empty(t, deliverables)

	deliverables, err = svc.List(ctx, operatorViewer(), "PROJ-0002")
	require.NoError(t, err)
	require.Len(t, deliverables, 1)
	assert.Equal(t, "DEL-0002", deliverables[0].ID)
	assert.False(t, deliverables[0].Released)
}

func TestDeliverableService_Download_Proxied(t *testing.T) {
	ctx := context.Background()
	svc := newDeliverableService(erp.NewMockClient())

	result, err := svc.Download(ctx, clientViewer(), "PROJ-0001", "DEL-0001")
	require.NoError(t, err)
	assert.Empty(t, result.URL)
	assert.NotEmpty(t, result.Content)
	assert.Equal(t, "market-diagnosis-v1.pdf", result.FileName)
}

func TestDeliverableService_Download_Archived(t *testing.T) {
	ctx := context.Background()
	mock := erp.NewMockClient()
	svc := newDeliverableService(mock)

	// archived deliverables carry a storage key and redirect to object storage
	archived := erp.Deliverable{
		Name:       "DEL-0003",
		Project:    "PROJ-0001",
		Title:      "Archived Report",
		Status:     "Released",
		Version:    "1.0",
		StorageKey: "deliverables/PROJ-0001/archived-report-v1.pdf",
	}
	mock.PutDeliverable(archived)

	result, err := svc.Download(ctx, clientViewer(), "PROJ-0001", "DEL-0003")
	require.NoError(t, err)
	assert.Empty(t, result.Content)
	assert.Contains(t, result.URL, "archived-report-v1.pdf")
	assert.Equal(t, "archived-report-v1.pdf", result.FileName)
}

func TestDeliverableService_Download_UnreleasedHidden(t *testing.T) {
	ctx := context.Background()
	svc := newDeliverableService(erp.NewMockClient())

	_, err := svc.Download(ctx, clientViewer(), "PROJ-0002", "DEL-0002")
	assertDomainErrCode(t, err, "NOT_FOUND")
}

func TestDeliverableService_Download_WrongEngagement(t *testing.T) {
	ctx := context.Background()
	svc := newDeliverableService(erp.NewMockClient())

	// DEL-0001 belongs to PROJ-0001; reading it through another engagement fails
	_, err := svc.Download(ctx, clientViewer(), "PROJ-0002", "DEL-0001")
	assertDomainErrCode(t, err, "NOT_FOUND")
}

func TestFileService_ListAndUpload(t *testing.T) {
	ctx := context.Background()
	svc := NewFileService(erp.NewMockClient(), zap.NewNop())

	files, err := svc.List(ctx, clientViewer(), "PROJ-0001")
	require.NoError(t, err)
	assert.Empty(t, files) // seeded file is attached to the deliverable, not the project

	info, err := svc.Upload(ctx, clientViewer(), UploadInput{
		EngagementID: "PROJ-0001",
		FileName:     "context-brief.pdf",
		Content:      []byte("brief content"),
	})
	require.NoError(t, err)
	assert.Equal(t, "context-brief.pdf", info.FileName)
	assert.True(t, info.Private)

	files, err = svc.List(ctx, clientViewer(), "PROJ-0001")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "context-brief.pdf", files[0].FileName)
}

func TestFileService_Upload_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewFileService(erp.NewMockClient(), zap.NewNop())

	_, err := svc.Upload(ctx, clientViewer(), UploadInput{EngagementID: "PROJ-0001", FileName: "", Content: []byte("x")})
	assertDomainErrCode(t, err, "INVALID_INPUT")

	_, err = svc.Upload(ctx, clientViewer(), UploadInput{EngagementID: "PROJ-0001", FileName: "../escape.pdf", Content: []byte("x")})
	assertDomainErrCode(t, err, "INVALID_INPUT")

	_, err = svc.Upload(ctx, clientViewer(), UploadInput{EngagementID: "PROJ-0001", FileName: "empty.pdf"})
	assertDomainErrCode(t, err, "INVALID_INPUT")
}

func TestFileService_Upload_DisallowedType(t *testing.T) {
	ctx := context.Background()
	svc := NewFileService(erp.NewMockClient(), zap.NewNop())

	_, err := svc.Upload(ctx, clientViewer(), UploadInput{EngagementID: "PROJ-0001", FileName: "installer.exe", Content: []byte("MZ")})
	assertDomainErrCode(t, err, "INVALID_INPUT")

	_, err = svc.Upload(ctx, clientViewer(), UploadInput{EngagementID: "PROJ-0001", FileName: "README", Content: []byte("x")})
	assertDomainErrCode(t, err, "INVALID_INPUT")

	// extension check is case-insensitive
	info, err := svc.Upload(ctx, clientViewer(), UploadInput{EngagementID: "PROJ-0001", FileName: "Scope.PDF", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "Scope.PDF", info.FileName)
}
