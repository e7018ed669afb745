package handler

import (
	appengagement "github.com/portal/backend/internal/application/engagement"
	"github.com/gin-gonic/gin"
)

// BillingHandler serves the billing and settlement modules
type BillingHandler struct {
	BaseHandler
	billingService *appengagement.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *appengagement.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// ListInvoices godoc
// @Summary      List invoices
// @Tags         billing
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=[]engagement.InvoiceInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.billingService.ListInvoices(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// GetInvoice godoc
// @Summary      Get an invoice
// @Tags         billing
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Param        invoiceId path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=engagement.InvoiceInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/invoices/{invoiceId} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	info, err := h.billingService.GetInvoice(c.Request.Context(), getViewer(c), c.Param("id"), c.Param("invoiceId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Settlement godoc
// @Summary      Settlement summary
// @Description  Aggregate billed, outstanding, and settled totals
// @Tags         billing
// @Produce      json
// @Param        id path string true "Engagement ID"
// @Success      200 {object} dto.Response{data=engagement.SettlementSummary}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /engagements/{id}/settlement [get]
func (h *BillingHandler) Settlement(c *gin.Context) {
	summary, err := h.billingService.Settlement(c.Request.Context(), getViewer(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
