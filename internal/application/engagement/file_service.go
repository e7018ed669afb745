package engagement

import (
	"context"
	"path"
	"strings"

	"github.com/portal/backend/internal/domain/shared"
	"github.com/portal/backend/internal/infrastructure/erp"
	"go.uber.org/zap"
)

// MaxUploadSize bounds file uploads proxied into the ERP
const MaxUploadSize = 25 << 20 // 25 MiB

// allowedUploadExtensions is the document, data, and image surface clients
// may push through the portal. Executables and scripts stay out.
var allowedUploadExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".csv": true, ".txt": true, ".md": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".zip": true, ".json": true,
}

// FileService proxies file traffic between the portal and the ERP. The
// portal never stores upload content itself; it streams through.
type FileService struct {
	erp    erp.Client
	logger *zap.Logger
}

// NewFileService creates a new file service
func NewFileService(client erp.Client, logger *zap.Logger) *FileService {
	return &FileService{erp: client, logger: logger}
}

// List returns the files attached to an engagement's project document
func (s *FileService) List(ctx context.Context, viewer Viewer, engagementID string) ([]FileInfo, error) {
	if _, err := loadScopedProject(ctx, s.erp, viewer, engagementID); err != nil {
		return nil, err
	}

	files, err := s.erp.ListFiles(ctx, erp.DoctypeProject, engagementID)
	if err != nil {
		s.logger.Error("Failed to list files", zap.Error(err))
		return nil, mapERPError(err)
	}

	infos := make([]FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, newFileInfo(f))
	}
	return infos, nil
}

// Upload pushes a client-provided file into the ERP, attached to the
// engagement's project document. Uploads are always private upstream.
func (s *FileService) Upload(ctx context.Context, viewer Viewer, input UploadInput) (*FileInfo, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "File name is required")
	}
	if strings.ContainsAny(fileName, "/\\") {
		return nil, shared.NewDomainError("INVALID_INPUT", "File name must not contain path separators")
	}
	if ext := strings.ToLower(path.Ext(fileName)); !allowedUploadExtensions[ext] {
		return nil, shared.NewDomainError("INVALID_INPUT", "File type is not allowed")
	}
	if len(input.Content) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "File content is empty")
	}
	if len(input.Content) > MaxUploadSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", "File exceeds the upload size limit")
	}

	project, err := loadScopedProject(ctx, s.erp, viewer, input.EngagementID)
	if err != nil {
		return nil, err
	}

	attachedDoctype := erp.DoctypeProject
	attachedName := project.Name
	if input.AttachedTo != "" {
		attachedDoctype = erp.DoctypeClientRequest
		attachedName = input.AttachedTo
	}

	file, err := s.erp.UploadFile(ctx, erp.UploadInput{
		FileName:          fileName,
		Content:           input.Content,
		IsPrivate:         true,
		AttachedToDoctype: attachedDoctype,
		AttachedToName:    attachedName,
	})
	if err != nil {
		s.logger.Error("Failed to upload file", zap.Error(err))
		return nil, mapERPError(err)
	}

	s.logger.Info("File uploaded",
		zap.String("file_id", file.Name),
		zap.String("engagement_id", project.Name),
		zap.Int("size", len(input.Content)))

	info := newFileInfo(*file)
	return &info, nil
}
