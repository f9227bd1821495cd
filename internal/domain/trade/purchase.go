package trade

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Purchase records restocking a product from a supplier. Applying a
// purchase increases the referenced product's stock by its quantity.
type Purchase struct {
	shared.Record
	ProductID     string          `json:"productId"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Supplier      string          `json:"supplier"`
	Date          time.Time       `json:"date"`
}

// NewPurchase creates a purchase with the total derived from quantity
// and unit purchase price.
func NewPurchase(productID string, quantity int, purchasePrice decimal.Decimal, supplier string, date time.Time) (*Purchase, error) {
	if productID == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Purchase must reference a product")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if purchasePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}

	return &Purchase{
		Record:        shared.NewRecord(),
		ProductID:     productID,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
		TotalPrice:    purchasePrice.Mul(decimal.NewFromInt(int64(quantity))),
		Supplier:      supplier,
		Date:          date,
	}, nil
}

// ModifiedAt returns the timestamp used for merge tie-breaking.
func (p *Purchase) ModifiedAt() time.Time { return p.Date }
