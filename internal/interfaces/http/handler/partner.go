package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apppartner "github.com/bizmob/backend/internal/application/partner"
)

// ClientRequest is the create/update payload for a client.
type ClientRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// DebtRequest is the payload for a manually opened debt.
type DebtRequest struct {
	SaleID   string          `json:"saleId" binding:"required"`
	ClientID string          `json:"clientId" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"gte=0"`
}

// PaymentRequest is the payload for a debt repayment.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"gt=0"`
	Date   time.Time       `json:"date"`
}

// PartnerHandler serves the client and debt endpoints.
type PartnerHandler struct {
	BaseHandler
	clients *apppartner.ClientService
	debts   *apppartner.DebtService
}

// NewPartnerHandler creates a partner handler.
func NewPartnerHandler(clients *apppartner.ClientService, debts *apppartner.DebtService) *PartnerHandler {
	return &PartnerHandler{clients: clients, debts: debts}
}

// ListClients handles GET /clients
func (h *PartnerHandler) ListClients(c *gin.Context) {
	h.Success(c, h.clients.List(c.Request.Context()))
}

// GetClient handles GET /clients/:id
func (h *PartnerHandler) GetClient(c *gin.Context) {
	client, err := h.clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// CreateClient handles POST /clients
func (h *PartnerHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	client, err := h.clients.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// UpdateClient handles PUT /clients/:id
func (h *PartnerHandler) UpdateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	client, err := h.clients.Rename(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// DeleteClient handles DELETE /clients/:id
func (h *PartnerHandler) DeleteClient(c *gin.Context) {
	if err := h.clients.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListDebts handles GET /debts, optionally filtered by clientId
func (h *PartnerHandler) ListDebts(c *gin.Context) {
	if clientID := c.Query("clientId"); clientID != "" {
		h.Success(c, h.debts.ListByClient(c.Request.Context(), clientID))
		return
	}
	h.Success(c, h.debts.List(c.Request.Context()))
}

// GetDebt handles GET /debts/:id
func (h *PartnerHandler) GetDebt(c *gin.Context) {
	debt, err := h.debts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, debt)
}

// CreateDebt handles POST /debts
func (h *PartnerHandler) CreateDebt(c *gin.Context) {
	var req DebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	debt, err := h.debts.Create(c.Request.Context(), req.SaleID, req.ClientID, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, debt)
}

// DeleteDebt handles DELETE /debts/:id
func (h *PartnerHandler) DeleteDebt(c *gin.Context) {
	if err := h.debts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddPayment handles POST /debts/:id/payments
func (h *PartnerHandler) AddPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.debts.AddPayment(c.Request.Context(), c.Param("id"), req.Amount, req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// RemovePayment handles DELETE /debts/:id/payments/:paymentId
func (h *PartnerHandler) RemovePayment(c *gin.Context) {
	if err := h.debts.RemovePayment(c.Request.Context(), c.Param("id"), c.Param("paymentId")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
