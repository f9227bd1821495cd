package partner

import (
	"time"

	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtPayment is one repayment against a debt, owned by the debt's
// payment history.
type DebtPayment struct {
	ID     string          `json:"id"`
	DebtID string          `json:"debtId"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// Debt tracks the unpaid remainder of a sale. Amount is the original
// debt, fixed at creation; the outstanding balance is derived from the
// payment history.
type Debt struct {
	shared.Record
	SaleID         string          `json:"saleId"`
	ClientID       string          `json:"clientId"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"createdAt"`
	PaymentHistory []DebtPayment   `json:"paymentHistory"`
}

// NewDebt creates a debt linking a sale to a client.
func NewDebt(saleID, clientID string, amount decimal.Decimal, createdAt time.Time) (*Debt, error) {
	if saleID == "" {
		return nil, shared.NewDomainError("INVALID_SALE", "Debt must reference a sale")
	}
	if clientID == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Debt must reference a client")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Debt amount must be positive")
	}

	return &Debt{
		Record:         shared.NewRecord(),
		SaleID:         saleID,
		ClientID:       clientID,
		Amount:         amount,
		CreatedAt:      createdAt,
		PaymentHistory: []DebtPayment{},
	}, nil
}

// Reissue replaces the debt's amount when its sale is edited. The
// payment history is kept.
func (d *Debt) Reissue(saleID, clientID string, amount decimal.Decimal, createdAt time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Debt amount must be positive")
	}

	d.SaleID = saleID
	d.ClientID = clientID
	d.Amount = amount
	d.CreatedAt = createdAt
	d.Touch()

	return nil
}

// AddPayment appends a repayment to the history and returns it.
func (d *Debt) AddPayment(amount decimal.Decimal, date time.Time) (DebtPayment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return DebtPayment{}, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	payment := DebtPayment{
		ID:     uuid.NewString(),
		DebtID: d.ID,
		Amount: amount,
		Date:   date,
	}
	d.PaymentHistory = append(d.PaymentHistory, payment)
	d.Touch()

	return payment, nil
}

// RemovePayment deletes a repayment from the history.
func (d *Debt) RemovePayment(paymentID string) (DebtPayment, error) {
	for i, payment := range d.PaymentHistory {
		if payment.ID == paymentID {
			d.PaymentHistory = append(d.PaymentHistory[:i], d.PaymentHistory[i+1:]...)
			d.Touch()
			return payment, nil
		}
	}
	return DebtPayment{}, shared.ErrNotFound
}

// Paid returns the sum of all repayments.
func (d *Debt) Paid() decimal.Decimal {
	paid := decimal.Zero
	for _, payment := range d.PaymentHistory {
		paid = paid.Add(payment.Amount)
	}
	return paid
}

// Outstanding returns the unpaid remainder, floored at zero.
func (d *Debt) Outstanding() decimal.Decimal {
	remaining := d.Amount.Sub(d.Paid())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Settled reports whether the debt is fully repaid.
func (d *Debt) Settled() bool {
	return d.Outstanding().IsZero()
}

// ModifiedAt returns the timestamp used for merge tie-breaking.
func (d *Debt) ModifiedAt() time.Time { return d.CreatedAt }
