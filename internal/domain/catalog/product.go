package catalog

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a stocked item in the catalog.
// It is referenced, never owned, by sale items and purchases.
type Product struct {
	shared.Record
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Stock         int             `json:"stock"`
	Supplier      string          `json:"supplier"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewProduct creates a product with validated fields. The sale price
// must exceed the purchase price; this is enforced at input only, a
// stored product is never re-validated.
func NewProduct(name string, purchasePrice, salePrice decimal.Decimal, stock int, supplier string) (*Product, error) {
	if err := validateProduct(name, purchasePrice, salePrice, stock); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Product{
		Record:        shared.NewRecord(),
		Name:          name,
		PurchasePrice: purchasePrice,
		SalePrice:     salePrice,
		Stock:         stock,
		Supplier:      supplier,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Update replaces the product's editable fields.
func (p *Product) Update(name string, purchasePrice, salePrice decimal.Decimal, stock int, supplier string) error {
	if err := validateProduct(name, purchasePrice, salePrice, stock); err != nil {
		return err
	}

	p.Name = name
	p.PurchasePrice = purchasePrice
	p.SalePrice = salePrice
	p.Stock = stock
	p.Supplier = supplier
	p.UpdatedAt = time.Now()
	p.Touch()

	return nil
}

// ReduceStock removes sold quantity from stock.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > p.Stock {
		return shared.ErrInsufficientStock
	}

	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	p.Touch()

	return nil
}

// Restock returns quantity to stock, e.g. when a sale is edited or a
// purchase is applied.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	p.Stock += quantity
	p.UpdatedAt = time.Now()
	p.Touch()

	return nil
}

// StockValue returns stock × purchase price.
func (p *Product) StockValue() decimal.Decimal {
	return p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Stock)))
}

// ModifiedAt returns the timestamp used for merge tie-breaking.
func (p *Product) ModifiedAt() time.Time { return p.UpdatedAt }

func validateProduct(name string, purchasePrice, salePrice decimal.Decimal, stock int) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if purchasePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}
	if salePrice.LessThanOrEqual(purchasePrice) {
		return shared.NewDomainError("INVALID_PRICE", "Sale price must exceed purchase price")
	}
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return nil
}
