package handler

import (
	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/gin-gonic/gin"
)

// ContractHandler serves the contracts module
type ContractHandler struct {
	BaseHandler
	contractService *appengagement.ContractService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractService *appengagement.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// List godoc
// @Summary      List contracts
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=[]engagement.ContractInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.contractService.List(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contracts)
}

// Get godoc
// @Summary      Get a contract
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        contractId path string true "Contract ID"
// @Success      200 {object} dto.Response{data=engagement.ContractInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/contracts/{contractId} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	info, err := h.contractService.Get(c.Request.Context(), getViewer(c), c.Param("id"), c.Param("contractId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Sign godoc
// @Summary      Sign a contract
// @Description  Execute a pending contract on behalf of the caller
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        contractId path string true "Contract ID"
// @Success      200 {object} dto.Response{data=engagement.ContractInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/contracts/{contractId}/sign [post]
func (h *ContractHandler) Sign(c *gin.Context) {
	info, err := h.contractService.Sign(c.Request.Context(), getViewer(c), c.Param("id"), c.Param("contractId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
