package handler

import (
	"io"

	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/gin-gonic/gin"
)

// FileHandler proxies file traffic between the browser and the ERP
type FileHandler struct {
	BaseHandler
	fileService *appengagement.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService *appengagement.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// List godoc
// @Summary      List attached files
// @Tags         files
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=[]engagement.FileInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/files [get]
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.fileService.List(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, files)
}

// Upload godoc
// @Summary      Upload a file
// @Description  Multipart upload proxied into the ERP as a private attachment
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        file formData file true "File content"
// @Param        attached_to formData string false "Attach to a request instead of the project"
// @Success      201 {object} dto.Response{data=engagement.FileInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing file field")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable file")
		return
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, appengagement.MaxUploadSize+1))
	if err != nil {
		h.InternalError(c, "Failed to read upload")
		return
	}

	info, err := h.fileService.Upload(c.Request.Context(), getViewer(c), appengagement.UploadInput{
		EngagementID: c.Param("id"),
		FileName:     fileHeader.Filename,
		Content:      content,
		AttachedTo:   c.PostForm("attached_to"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}
