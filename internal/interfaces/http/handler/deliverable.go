package handler

import (
	"net/http"

	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/gin-gonic/gin"
)

// DeliverableHandler serves the outputs module
type DeliverableHandler struct {
	BaseHandler
	deliverableService *appengagement.DeliverableService
}

// NewDeliverableHandler creates a new deliverable handler
func NewDeliverableHandler(deliverableService *appengagement.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{deliverableService: deliverableService}
}

// List godoc
// @Summary      List deliverables
// @Description  Released deliverables for clients; the full pipeline for operators
// @Tags         deliverables
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=[]engagement.DeliverableInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/deliverables [get]
func (h *DeliverableHandler) List(c *gin.Context) {
	deliverables, err := h.deliverableService.List(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deliverables)
}

// Get godoc
// @Summary      Get a deliverable
// @Tags         deliverables
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        deliverableId path string true "Deliverable ID"
// @Success      200 {object} dto.Response{data=engagement.DeliverableInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/deliverables/{deliverableId} [get]
func (h *DeliverableHandler) Get(c *gin.Context) {
	info, err := h.deliverableService.Get(c.Request.Context(), getViewer(c), c.Param("id"), c.Param("deliverableId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Download godoc
// @Summary      Download a deliverable
// @Description  Redirects to object storage for archived deliverables, streams
// @Description  proxied content otherwise
// @Tags         deliverables
// @Produce      octet-stream
// @Param        id path string true "Engagement ID"
// @Param        deliverableId path string true "Deliverable ID"
// @Success      302
// @Success      200
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/deliverables/{deliverableId}/download [get]
func (h *DeliverableHandler) Download(c *gin.Context) {
	result, err := h.deliverableService.Download(c.Request.Context(), getViewer(c), c.Param("id"), c.Param("deliverableId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.URL != "" {
		c.Redirect(http.StatusFound, result.URL)
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, contentType, result.Content)
}
