package handler

import (
	"github.com/portal/backend/internal/application/identity"
	domainidentity "github.com/portal/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateInviteRequest is the invite creation payload
type CreateInviteRequest struct {
	Email         string   `json:"email" binding:"required,email"`
	Role          string   `json:"role" binding:"required,oneof=CLIENT OPERATOR"`
	ClientID      string   `json:"client_id"`
	EngagementIDs []string `json:"engagement_ids"`
}

// AcceptInviteRequest redeems an invite into an account
type AcceptInviteRequest struct {
	Token       string `json:"token" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// InviteHandler handles onboarding invites. Creation, listing, and revocation
// are operator-only; preview and accept are public token-bearer endpoints.
type InviteHandler struct {
	BaseHandler
	inviteService *identity.InviteService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteService *identity.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// Create godoc
// @Summary      Create an invite
// @Description  Issue an onboarding invite and email the accept link
// @Tags         invites
// @Accept       json
// @Produce      json
// @Param        request body CreateInviteRequest true "Invite details"
// @Success      201 {object} dto.Response{data=identity.InviteInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invites [post]
func (h *InviteHandler) Create(c *gin.Context) {
	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invitedBy, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}

	viewer := getViewer(c)
	info, err := h.inviteService.Create(c.Request.Context(), identity.CreateInviteInput{
		Email:         req.Email,
		Role:          domainidentity.Role(req.Role),
		ClientID:      req.ClientID,
		EngagementIDs: req.EngagementIDs,
		InvitedBy:     invitedBy,
		InviterName:   viewer.Email,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}

// List godoc
// @Summary      List invites
// @Tags         invites
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        client_id query string false "Filter by client"
// @Success      200 {object} dto.Response{data=[]identity.InviteInfo}
// @Router       /invites [get]
func (h *InviteHandler) List(c *gin.Context) {
	filter := domainidentity.NewInviteFilter()
	if status := c.Query("status"); status != "" {
		s := domainidentity.InviteStatus(status)
		filter.Status = &s
	}
	filter.ClientID = c.Query("client_id")
	if page, ok := queryInt(c, "page"); ok {
		filter.Page = page
	}
	if pageSize, ok := queryInt(c, "page_size"); ok {
		filter.PageSize = pageSize
	}

	infos, total, err := h.inviteService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, infos, total, filter.Page, filter.Limit())
}

// Revoke godoc
// @Summary      Revoke an invite
// @Tags         invites
// @Produce      json
// @Param        id path string true "Invite ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invites/{id} [delete]
func (h *InviteHandler) Revoke(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invite ID")
		return
	}

	if err := h.inviteService.Revoke(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Preview godoc
// @Summary      Preview an invite
// @Description  Unauthenticated: show what the accept page needs for a token
// @Tags         invites
// @Produce      json
// @Param        token path string true "Invite token"
// @Success      200 {object} dto.Response{data=identity.InvitePreview}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invites/preview/{token} [get]
func (h *InviteHandler) Preview(c *gin.Context) {
	preview, err := h.inviteService.Preview(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Accept godoc
// @Summary      Accept an invite
// @Description  Unauthenticated: redeem an invite token into a new account
// @Tags         invites
// @Accept       json
// @Produce      json
// @Param        request body AcceptInviteRequest true "Invite redemption"
// @Success      201 {object} dto.Response{data=identity.UserInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invites/accept [post]
func (h *InviteHandler) Accept(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	info, err := h.inviteService.Accept(c.Request.Context(), identity.AcceptInviteInput{
		Token:       req.Token,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}
