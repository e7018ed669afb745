package handler

import (
	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/gin-gonic/gin"
)

// CreateRequestRequest is the request-builder submission payload
type CreateRequestRequest struct {
	Title       string `json:"title" binding:"required,max=140"`
	Description string `json:"description" binding:"max=4000"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// UpdateRequestRequest carries a partial edit; absent fields are untouched
type UpdateRequestRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=140"`
	Description *string `json:"description" binding:"omitempty,max=4000"`
	Category    *string `json:"category" binding:"omitempty,oneof=Scope Question Issue Data"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=Low Medium High Urgent"`
}

// RequestHandler serves the request builder module
type RequestHandler struct {
	BaseHandler
	requestService *appengagement.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *appengagement.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// List godoc
// @Summary      List client requests
// @Tags         requests
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=[]engagement.RequestInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	requests, err := h.requestService.List(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, requests)
}

// Create godoc
// @Summary      File a client request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        request body CreateRequestRequest true "Request details"
// @Success      201 {object} dto.Response{data=engagement.RequestInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	info, err := h.requestService.Create(c.Request.Context(), getViewer(c), appengagement.CreateRequestInput{
		EngagementID: c.Param("id"),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}

// Get godoc
// @Summary      Get a client request
// @Tags         requests
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        requestId path string true "Request ID"
// @Success      200 {object} dto.Response{data=engagement.RequestInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/requests/{requestId} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	info, err := h.requestService.Get(c.Request.Context(), getViewer(c), c.Param("id"), c.Param("requestId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Update godoc
// @Summary      Edit a client request
// @Description  Partial update; only open requests accept edits
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        requestId path string true "Request ID"
// @Param        request body UpdateRequestRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=engagement.RequestInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/requests/{requestId} [put]
func (h *RequestHandler) Update(c *gin.Context) {
	var req UpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	info, err := h.requestService.Update(c.Request.Context(), getViewer(c), appengagement.UpdateRequestInput{
		EngagementID: c.Param("id"),
		RequestID:    c.Param("requestId"),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
