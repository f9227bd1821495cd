package partner

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/store"
)

// DebtService manages debts and their payment histories. Every
// mutation refreshes the owning client's aggregates in the same
// transaction.
type DebtService struct {
	store *store.Store
	rec   *audit.Recorder
	log   *zap.Logger
}

// NewDebtService creates a debt service.
func NewDebtService(store *store.Store, rec *audit.Recorder, log *zap.Logger) *DebtService {
	return &DebtService{store: store, rec: rec, log: log}
}

// Create opens a debt against a sale.
func (s *DebtService) Create(ctx context.Context, saleID, clientID string, amount decimal.Decimal) (*partner.Debt, error) {
	var (
		created *partner.Debt
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		debt, derr := partner.NewDebt(saleID, clientID, amount, time.Now())
		if derr != nil {
			err = derr
			return
		}
		st.Debts.Add(*debt)
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntityDebt, debt.ID,
			fmt.Sprintf("Debt of %s opened", amount.String()))
		RefreshAggregates(st, s.rec, clientID)
		created = debt
	})
	return created, err
}

// Get returns one debt.
func (s *DebtService) Get(ctx context.Context, id string) (*partner.Debt, error) {
	var (
		found *partner.Debt
		err   error
	)
	s.store.View(func(st *store.State) {
		debt, ok := st.Debts.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		found = &debt
	})
	return found, err
}

// List returns every live debt.
func (s *DebtService) List(ctx context.Context) []partner.Debt {
	var debts []partner.Debt
	s.store.View(func(st *store.State) {
		debts = st.Debts.All()
	})
	return debts
}

// ListByClient returns the live debts owed by one client.
func (s *DebtService) ListByClient(ctx context.Context, clientID string) []partner.Debt {
	var debts []partner.Debt
	s.store.View(func(st *store.State) {
		debts = st.Debts.Where(func(d *partner.Debt) bool { return d.ClientID == clientID })
	})
	return debts
}

// Delete removes a debt and refreshes the client's aggregates.
func (s *DebtService) Delete(ctx context.Context, id string) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		debt, ok := st.Debts.Delete(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntityDebt, id,
			fmt.Sprintf("Debt of %s deleted", debt.Amount.String()))
		RefreshAggregates(st, s.rec, debt.ClientID)
	})
	return err
}

// AddPayment records a repayment against a debt.
func (s *DebtService) AddPayment(ctx context.Context, debtID string, amount decimal.Decimal, date time.Time) (partner.DebtPayment, error) {
	var (
		payment partner.DebtPayment
		err     error
	)
	if date.IsZero() {
		date = time.Now()
	}
	s.store.Mutate(func(st *store.State) {
		debt, ok := st.Debts.Get(debtID)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		payment, err = debt.AddPayment(amount, date)
		if err != nil {
			return
		}
		st.Debts.Update(debt)
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntityPayment, payment.ID,
			fmt.Sprintf("Payment of %s recorded against debt", amount.String()))
		RefreshAggregates(st, s.rec, debt.ClientID)
	})
	return payment, err
}

// RemovePayment deletes a repayment, restoring the outstanding balance.
func (s *DebtService) RemovePayment(ctx context.Context, debtID, paymentID string) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		debt, ok := st.Debts.Get(debtID)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		payment, perr := debt.RemovePayment(paymentID)
		if perr != nil {
			err = perr
			return
		}
		st.Debts.Update(debt)
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntityPayment, paymentID,
			fmt.Sprintf("Payment of %s removed from debt", payment.Amount.String()))
		RefreshAggregates(st, s.rec, debt.ClientID)
	})
	return err
}
