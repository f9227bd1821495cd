package trade

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents how a sale was settled at the till.
type PaymentStatus string

const (
	PaymentFull    PaymentStatus = "full"
	PaymentPartial PaymentStatus = "partial"
	PaymentDebt    PaymentStatus = "debt"
)

// SaleItem is a single line of a sale. It is owned by the sale and
// references a product by id.
type SaleItem struct {
	ProductID         string            `json:"productId"`
	Quantity          int               `json:"quantity"`
	UnitPrice         decimal.Decimal   `json:"unitPrice"`
	TotalPrice        decimal.Decimal   `json:"totalPrice"`
	Version           int               `json:"version"`
	IsDeleted         bool              `json:"isDeleted"`
	SyncStatus        shared.SyncStatus `json:"syncStatus"`
	LastSyncTimestamp *time.Time        `json:"lastSyncTimestamp,omitempty"`
}

// NewSaleItem builds a line with the total derived from quantity and
// unit price.
func NewSaleItem(productID string, quantity int, unitPrice decimal.Decimal) (SaleItem, error) {
	if productID == "" {
		return SaleItem{}, shared.NewDomainError("INVALID_PRODUCT", "Sale item must reference a product")
	}
	if quantity <= 0 {
		return SaleItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return SaleItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return SaleItem{
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Version:    1,
		SyncStatus: shared.SyncPending,
	}, nil
}

// Sale records a transaction against zero or more products. A nil
// client id means a walk-in customer.
type Sale struct {
	shared.Record
	ClientID      *string         `json:"clientId"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	DebtAmount    decimal.Decimal `json:"debtAmount"`
	Date          time.Time       `json:"date"`
}

// NewSale creates a sale from its lines. Totals are derived: the paid
// amount is the full total for "full", zero for "debt", and the given
// amount for "partial" (which must be strictly between zero and the
// total). The open remainder becomes the debt amount.
func NewSale(clientID *string, items []SaleItem, status PaymentStatus, paidAmount decimal.Decimal, date time.Time) (*Sale, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_SALE", "Sale must contain at least one item")
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}

	var paid decimal.Decimal
	switch status {
	case PaymentFull:
		paid = total
	case PaymentDebt:
		paid = decimal.Zero
	case PaymentPartial:
		if paidAmount.LessThanOrEqual(decimal.Zero) || paidAmount.GreaterThanOrEqual(total) {
			return nil, shared.NewDomainError("INVALID_PAYMENT", "Amount paid must be > 0 and < total amount")
		}
		paid = paidAmount
	default:
		return nil, shared.NewDomainError("INVALID_STATUS", "Payment status must be 'full', 'partial' or 'debt'")
	}

	return &Sale{
		Record:        shared.NewRecord(),
		ClientID:      clientID,
		Items:         items,
		TotalAmount:   total,
		PaymentStatus: status,
		PaidAmount:    paid,
		DebtAmount:    total.Sub(paid),
		Date:          date,
	}, nil
}

// References reports whether any line of the sale names the product.
func (s *Sale) References(productID string) bool {
	for _, item := range s.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// QuantityOf returns the quantity sold of the given product across all
// lines, zero when the product does not appear.
func (s *Sale) QuantityOf(productID string) int {
	qty := 0
	for _, item := range s.Items {
		if item.ProductID == productID {
			qty += item.Quantity
		}
	}
	return qty
}

// OnCredit reports whether the sale left an open debt.
func (s *Sale) OnCredit() bool {
	return s.DebtAmount.GreaterThan(decimal.Zero)
}

// BelongsTo reports whether the sale is attributed to the client.
func (s *Sale) BelongsTo(clientID string) bool {
	return s.ClientID != nil && *s.ClientID == clientID
}

// ModifiedAt returns the timestamp used for merge tie-breaking.
func (s *Sale) ModifiedAt() time.Time { return s.Date }
