package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bizmob/backend/internal/application/report"
)

// ReportHandler serves the read-only report endpoints.
type ReportHandler struct {
	BaseHandler
	reports *report.Service
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary handles GET /reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	h.Success(c, h.reports.Summary(c.Request.Context()))
}

// ProductProfits handles GET /reports/products
func (h *ReportHandler) ProductProfits(c *gin.Context) {
	h.Success(c, h.reports.ProductProfits(c.Request.Context()))
}

// ProfitByMonth handles GET /reports/monthly?months=n
func (h *ReportHandler) ProfitByMonth(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))
	h.Success(c, h.reports.ProfitByMonth(c.Request.Context(), months))
}

// TopClients handles GET /reports/clients?limit=n
func (h *ReportHandler) TopClients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	h.Success(c, h.reports.TopClients(c.Request.Context(), limit))
}

// SaleProfit handles GET /reports/sales/:id/profit
func (h *ReportHandler) SaleProfit(c *gin.Context) {
	profit, err := h.reports.SaleProfit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"profit": profit})
}

// ClientOutstanding handles GET /reports/clients/:id/outstanding
func (h *ReportHandler) ClientOutstanding(c *gin.Context) {
	owed, err := h.reports.ClientOutstanding(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"outstanding": owed})
}
