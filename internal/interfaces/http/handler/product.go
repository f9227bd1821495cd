package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appcatalog "github.com/bizmob/backend/internal/application/catalog"
)

// ProductRequest is the create/update payload for a product.
type ProductRequest struct {
	Name          string          `json:"name" binding:"required,max=200"`
	PurchasePrice decimal.Decimal `json:"purchasePrice" binding:"gte=0"`
	SalePrice     decimal.Decimal `json:"salePrice" binding:"gte=0"`
	Stock         int             `json:"stock" binding:"gte=0"`
	Supplier      string          `json:"supplier"`
}

// ProductHandler serves the product endpoints.
type ProductHandler struct {
	BaseHandler
	products *appcatalog.ProductService
}

// NewProductHandler creates a product handler.
func NewProductHandler(products *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	h.Success(c, h.products.List(c.Request.Context()))
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.products.Create(c.Request.Context(), appcatalog.ProductInput{
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         req.Stock,
		Supplier:      req.Supplier,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), appcatalog.ProductInput{
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         req.Stock,
		Supplier:      req.Supplier,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
