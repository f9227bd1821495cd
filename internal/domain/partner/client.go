package partner

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Client represents a known customer. PurchaseCount, TotalSpent and
// DebtAmount are caches over the client's sales and debts; they are
// recomputed from the authoritative records after every mutation that
// touches them, never incremented in place.
type Client struct {
	shared.Record
	Name          string          `json:"name"`
	PurchaseCount int             `json:"purchaseCount"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	DebtAmount    decimal.Decimal `json:"debtAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewClient creates a client with zeroed aggregates.
func NewClient(name string) (*Client, error) {
	if err := validateClientName(name); err != nil {
		return nil, err
	}

	return &Client{
		Record:     shared.NewRecord(),
		Name:       name,
		TotalSpent: decimal.Zero,
		DebtAmount: decimal.Zero,
		CreatedAt:  time.Now(),
	}, nil
}

// Rename updates the client's name.
func (c *Client) Rename(name string) error {
	if err := validateClientName(name); err != nil {
		return err
	}

	c.Name = name
	c.Touch()

	return nil
}

// SetAggregates replaces the cached aggregates with freshly recomputed
// values. Only bumps the version when something actually changed.
func (c *Client) SetAggregates(purchaseCount int, totalSpent, debtAmount decimal.Decimal) bool {
	if c.PurchaseCount == purchaseCount && c.TotalSpent.Equal(totalSpent) && c.DebtAmount.Equal(debtAmount) {
		return false
	}

	c.PurchaseCount = purchaseCount
	c.TotalSpent = totalSpent
	c.DebtAmount = debtAmount
	c.Touch()

	return true
}

// AverageOrderValue returns total spent divided by purchase count, or
// zero for a client with no purchases.
func (c *Client) AverageOrderValue() decimal.Decimal {
	if c.PurchaseCount == 0 {
		return decimal.Zero
	}
	return c.TotalSpent.Div(decimal.NewFromInt(int64(c.PurchaseCount)))
}

// ModifiedAt returns the timestamp used for merge tie-breaking.
func (c *Client) ModifiedAt() time.Time { return c.CreatedAt }

func validateClientName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot exceed 200 characters")
	}
	return nil
}
