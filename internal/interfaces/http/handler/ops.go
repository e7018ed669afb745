package handler

import (
	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/portal/backend/internal/application/identity"
	domainidentity "github.com/portal/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UpdateScopeRequest replaces a user's ERP scope
type UpdateScopeRequest struct {
	ClientID      string   `json:"client_id"`
	EngagementIDs []string `json:"engagement_ids"`
}

// OpsHandler serves the ops console: account administration plus the
// cross-client engagement and wiring views
type OpsHandler struct {
	BaseHandler
	userService       *identity.UserService
	engagementService *appengagement.EngagementService
}

// NewOpsHandler creates a new ops handler
func NewOpsHandler(userService *identity.UserService, engagementService *appengagement.EngagementService) *OpsHandler {
	return &OpsHandler{
		userService:       userService,
		engagementService: engagementService,
	}
}

// ListEngagements godoc
// @Summary      List engagements across all clients
// @Tags         ops
// @Produce      json
// @Success      200 {object} dto.Response{data=[]engagement.EngagementSummary}
// @Router       /ops/engagements [get]
func (h *OpsHandler) ListEngagements(c *gin.Context) {
	summaries, err := h.engagementService.List(c.Request.Context(), getViewer(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summaries)
}

// EngagementModules godoc
// @Summary      Resolve the module map for any engagement
// @Tags         ops
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=engagement.ModuleStatesResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ops/engagements/{id}/modules [get]
func (h *OpsHandler) EngagementModules(c *gin.Context) {
	result, err := h.engagementService.Modules(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Wiring godoc
// @Summary      Report per-module ERP wiring status
// @Tags         ops
// @Produce      json
// @Success      200 {object} dto.Response{data=engagement.WiringStatus}
// @Router       /ops/wiring [get]
func (h *OpsHandler) Wiring(c *gin.Context) {
	h.Success(c, h.engagementService.Wiring(c.Request.Context()))
}

// ListUsers godoc
// @Summary      List portal users
// @Tags         ops
// @Produce      json
// @Param        keyword query string false "Search email or display name"
// @Param        status query string false "Filter by status"
// @Param        role query string false "Filter by role"
// @Param        client_id query string false "Filter by client"
// @Success      200 {object} dto.Response{data=[]identity.UserSummary}
// @Router       /ops/users [get]
func (h *OpsHandler) ListUsers(c *gin.Context) {
	filter := domainidentity.NewUserFilter()
	filter.Keyword = c.Query("keyword")
	filter.ClientID = c.Query("client_id")
	if status := c.Query("status"); status != "" {
		s := domainidentity.UserStatus(status)
		filter.Status = &s
	}
	if role := c.Query("role"); role != "" {
		r := domainidentity.Role(role)
		filter.Role = &r
	}
	if page, ok := queryInt(c, "page"); ok {
		filter.Page = page
	}
	if pageSize, ok := queryInt(c, "page_size"); ok {
		filter.PageSize = pageSize
	}

	summaries, total, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, summaries, total, filter.Page, filter.Limit())
}

// GetUser godoc
// @Summary      Get a portal user
// @Tags         ops
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} dto.Response{data=identity.UserSummary}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ops/users/{id} [get]
func (h *OpsHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	summary, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// UpdateScope godoc
// @Summary      Update a user's ERP scope
// @Description  Replace the client binding and engagement grant list
// @Tags         ops
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID"
// @Param        request body UpdateScopeRequest true "New scope"
// @Success      200 {object} dto.Response{data=identity.UserSummary}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ops/users/{id}/scope [put]
func (h *OpsHandler) UpdateScope(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req UpdateScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.userService.UpdateScope(c.Request.Context(), id, req.ClientID, req.EngagementIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// DeactivateUser godoc
// @Summary      Deactivate a portal user
// @Tags         ops
// @Produce      json
// @Param        id path string true "User ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ops/users/{id}/deactivate [post]
func (h *OpsHandler) DeactivateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ReactivateUser godoc
// @Summary      Reactivate a portal user
// @Tags         ops
// @Produce      json
// @Param        id path string true "User ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /ops/users/{id}/reactivate [post]
func (h *OpsHandler) ReactivateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.userService.Reactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
