package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apptrade "github.com/bizmob/backend/internal/application/trade"
	"github.com/bizmob/backend/internal/domain/trade"
)

// SaleItemRequest is one requested sale line.
type SaleItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" binding:"gte=0"`
}

// SaleRequest is the create/update payload for a sale.
type SaleRequest struct {
	ClientID      *string           `json:"clientId"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentStatus string            `json:"paymentStatus" binding:"required,oneof=full partial debt"`
	PaidAmount    decimal.Decimal   `json:"paidAmount" binding:"gte=0"`
	Date          time.Time         `json:"date"`
}

// PurchaseRequest is the payload for a restocking purchase.
type PurchaseRequest struct {
	ProductID     string          `json:"productId" binding:"required"`
	Quantity      int             `json:"quantity" binding:"required,gt=0"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" binding:"gte=0"`
	Supplier      string          `json:"supplier"`
	Date          time.Time       `json:"date"`
}

// TradeHandler serves the sale and purchase endpoints.
type TradeHandler struct {
	BaseHandler
	sales     *apptrade.SaleService
	purchases *apptrade.PurchaseService
}

// NewTradeHandler creates a trade handler.
func NewTradeHandler(sales *apptrade.SaleService, purchases *apptrade.PurchaseService) *TradeHandler {
	return &TradeHandler{sales: sales, purchases: purchases}
}

func (r *SaleRequest) toInput() apptrade.SaleInput {
	items := make([]apptrade.SaleItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, apptrade.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return apptrade.SaleInput{
		ClientID:      r.ClientID,
		Items:         items,
		PaymentStatus: trade.PaymentStatus(r.PaymentStatus),
		PaidAmount:    r.PaidAmount,
		Date:          r.Date,
	}
}

// ListSales handles GET /sales
func (h *TradeHandler) ListSales(c *gin.Context) {
	h.Success(c, h.sales.List(c.Request.Context()))
}

// GetSale handles GET /sales/:id
func (h *TradeHandler) GetSale(c *gin.Context) {
	sale, err := h.sales.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// CreateSale handles POST /sales
func (h *TradeHandler) CreateSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.sales.Create(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// UpdateSale handles PUT /sales/:id
func (h *TradeHandler) UpdateSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.sales.Update(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// DeleteSale handles DELETE /sales/:id
func (h *TradeHandler) DeleteSale(c *gin.Context) {
	if err := h.sales.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPurchases handles GET /purchases
func (h *TradeHandler) ListPurchases(c *gin.Context) {
	h.Success(c, h.purchases.List(c.Request.Context()))
}

// GetPurchase handles GET /purchases/:id
func (h *TradeHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchase)
}

// CreatePurchase handles POST /purchases
func (h *TradeHandler) CreatePurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	purchase, err := h.purchases.Create(c.Request.Context(), apptrade.PurchaseInput{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		Supplier:      req.Supplier,
		Date:          req.Date,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, purchase)
}

// DeletePurchase handles DELETE /purchases/:id
func (h *TradeHandler) DeletePurchase(c *gin.Context) {
	if err := h.purchases.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
