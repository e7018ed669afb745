package handler

import (
	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/gin-gonic/gin"
)

// EngagementHandler serves the engagement list and the module map
type EngagementHandler struct {
	BaseHandler
	engagementService *appengagement.EngagementService
}

// NewEngagementHandler creates a new engagement handler
func NewEngagementHandler(engagementService *appengagement.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// List godoc
// @Summary      List engagements
// @Description  List the engagements visible to the caller's scope
// @Tags         engagements
// @Produce      json
// @Success      200 {object} dto.Response{data=[]engagement.EngagementSummary}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements [get]
func (h *EngagementHandler) List(c *gin.Context) {
	summaries, err := h.engagementService.List(c.Request.Context(), getViewer(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summaries)
}

// Get godoc
// @Summary      Get an engagement
// @Tags         engagements
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=engagement.EngagementSummary}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id} [get]
func (h *EngagementHandler) Get(c *gin.Context) {
	summary, err := h.engagementService.Get(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Modules godoc
// @Summary      Resolve module states
// @Description  Resolve the per-module availability map for an engagement
// @Tags         engagements
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=engagement.ModuleStatesResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/modules [get]
func (h *EngagementHandler) Modules(c *gin.Context) {
	result, err := h.engagementService.Modules(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
