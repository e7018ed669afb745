package handler

import (
	"strconv"

	appchannel "github.com/portal/backend/internal/application/channel"
	"github.com/gin-gonic/gin"
)

// PostMessageRequest is a new ciphertext envelope
type PostMessageRequest struct {
	Ciphertext  string `json:"ciphertext" binding:"required"`
	Nonce       string `json:"nonce"`
	SenderKeyID string `json:"sender_key_id"`
}

// ChannelHandler serves the secure-channel relay (development feature)
type ChannelHandler struct {
	BaseHandler
	channelService *appchannel.ChannelService
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(channelService *appchannel.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Post godoc
// @Summary      Relay an envelope
// @Description  Store an opaque ciphertext envelope on the engagement's channel
// @Tags         channel
// @Accept       json
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        request body PostMessageRequest true "Envelope"
// @Success      201 {object} dto.Response{data=channel.MessageView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/channel/messages [post]
func (h *ChannelHandler) Post(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	viewer := getViewer(c)
	view, err := h.channelService.Post(c.Request.Context(), appchannel.PostInput{
		EngagementID: c.Param("id"),
		SenderID:     viewer.UserID,
		SenderKeyID:  req.SenderKeyID,
		Ciphertext:   req.Ciphertext,
		Nonce:        req.Nonce,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// List godoc
// @Summary      Read the channel
// @Description  Return the retained envelopes of the engagement, oldest first.
// @Description  Pass after=seq to fetch only envelopes newer than a sequence number.
// @Tags         channel
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        after query int false "Return envelopes with seq greater than this"
// @Success      200 {object} dto.Response{data=[]channel.MessageView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/channel/messages [get]
func (h *ChannelHandler) List(c *gin.Context) {
	var afterSeq int64
	if after := c.Query("after"); after != "" {
		parsed, err := strconv.ParseInt(after, 10, 64)
		if err != nil || parsed < 0 {
			h.BadRequest(c, "Invalid after parameter")
			return
		}
		afterSeq = parsed
	}

	views, err := h.channelService.List(c.Request.Context(), c.Param("id"), afterSeq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}
