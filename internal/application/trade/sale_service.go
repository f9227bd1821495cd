// Package trade implements the sale and purchase workflows. A sale is
// the most coupled operation in the system: it moves stock, may open
// or clear a debt, and drives the owning client's aggregates.
package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/application/audit"
	apppartner "github.com/bizmob/backend/internal/application/partner"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

// SaleItemInput is one requested sale line.
type SaleItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleInput carries a requested sale. PaidAmount is only read for the
// partial payment status.
type SaleInput struct {
	ClientID      *string
	Items         []SaleItemInput
	PaymentStatus trade.PaymentStatus
	PaidAmount    decimal.Decimal
	Date          time.Time
}

// SaleService manages sales.
type SaleService struct {
	store *store.Store
	rec   *audit.Recorder
	log   *zap.Logger
}

// NewSaleService creates a sale service.
func NewSaleService(store *store.Store, rec *audit.Recorder, log *zap.Logger) *SaleService {
	return &SaleService{store: store, rec: rec, log: log}
}

// Create records a sale: stock is reduced for every line, a debt is
// opened when the sale leaves an unpaid remainder for a known client,
// and the client's aggregates are refreshed. Validation runs before
// any record is touched so a rejected sale leaves no trace.
func (s *SaleService) Create(ctx context.Context, in SaleInput) (*trade.Sale, error) {
	var (
		created *trade.Sale
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		sale, serr := buildSale(in)
		if serr != nil {
			err = serr
			return
		}
		if err = checkStock(st, sale, nil); err != nil {
			return
		}

		applyStockDelta(st, s.rec, sale, nil)
		st.Sales.Add(*sale)
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntitySale, sale.ID,
			fmt.Sprintf("Sale of %s recorded", sale.TotalAmount.String()))

		if sale.OnCredit() && sale.ClientID != nil {
			debt, derr := partner.NewDebt(sale.ID, *sale.ClientID, sale.DebtAmount, sale.Date)
			if derr == nil {
				st.Debts.Add(*debt)
				s.rec.Success(st, auditlog.EventCreate, auditlog.EntityDebt, debt.ID,
					fmt.Sprintf("Debt of %s opened for sale", debt.Amount.String()))
			}
		}

		if sale.ClientID != nil {
			apppartner.RefreshAggregates(st, s.rec, *sale.ClientID)
		}
		created = sale
	})
	return created, err
}

// Update replaces a sale wholesale. Stock moves by the per-product
// delta between the old and new lines, the debt attached to the sale
// is reissued, opened or cleared to match the new remainder, and the
// aggregates of both the old and new client are refreshed.
func (s *SaleService) Update(ctx context.Context, id string, in SaleInput) (*trade.Sale, error) {
	var (
		updated *trade.Sale
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		existing, ok := st.Sales.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}

		sale, serr := buildSale(in)
		if serr != nil {
			err = serr
			return
		}
		sale.Record = existing.Record
		sale.Touch()

		if err = checkStock(st, sale, &existing); err != nil {
			return
		}

		applyStockDelta(st, s.rec, sale, &existing)
		st.Sales.Update(*sale)
		s.rec.Changed(st, auditlog.EventUpdate, auditlog.EntitySale, id,
			"Sale updated",
			shared.NewChanges().
				Set("totalAmount", existing.TotalAmount, sale.TotalAmount).
				Set("paymentStatus", existing.PaymentStatus, sale.PaymentStatus))

		s.reconcileDebt(st, sale)

		clients := []string{}
		if existing.ClientID != nil {
			clients = append(clients, *existing.ClientID)
		}
		if sale.ClientID != nil {
			clients = append(clients, *sale.ClientID)
		}
		apppartner.RefreshAggregates(st, s.rec, clients...)
		updated = sale
	})
	return updated, err
}

// Delete removes a sale, returns its quantities to stock, deletes the
// debts it opened, and refreshes the client's aggregates.
func (s *SaleService) Delete(ctx context.Context, id string) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		sale, ok := st.Sales.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}

		var affectedClients []string
		for _, debt := range st.Debts.Where(func(d *partner.Debt) bool { return d.SaleID == id }) {
			st.Debts.Delete(debt.ID)
			affectedClients = append(affectedClients, debt.ClientID)
			s.rec.Success(st, auditlog.EventDelete, auditlog.EntityDebt, debt.ID,
				"Debt deleted after its sale was deleted")
		}

		st.Sales.Delete(id)
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntitySale, id,
			fmt.Sprintf("Sale of %s deleted", sale.TotalAmount.String()))
		apppartner.RestockSaleItems(st, s.rec, sale, "")

		if sale.ClientID != nil {
			affectedClients = append(affectedClients, *sale.ClientID)
		}
		apppartner.RefreshAggregates(st, s.rec, affectedClients...)
	})
	return err
}

// Get returns one sale.
func (s *SaleService) Get(ctx context.Context, id string) (*trade.Sale, error) {
	var (
		found *trade.Sale
		err   error
	)
	s.store.View(func(st *store.State) {
		sale, ok := st.Sales.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		found = &sale
	})
	return found, err
}

// List returns every live sale.
func (s *SaleService) List(ctx context.Context) []trade.Sale {
	var sales []trade.Sale
	s.store.View(func(st *store.State) {
		sales = st.Sales.All()
	})
	return sales
}

// reconcileDebt aligns the debt attached to a sale with the sale's
// current remainder: reissue or open when the sale is on credit for a
// known client, clear otherwise. Repayments already made survive a
// reissue.
func (s *SaleService) reconcileDebt(st *store.State, sale *trade.Sale) {
	existing := st.Debts.Where(func(d *partner.Debt) bool { return d.SaleID == sale.ID })

	if sale.OnCredit() && sale.ClientID != nil {
		if len(existing) > 0 {
			debt := existing[0]
			if derr := debt.Reissue(sale.ID, *sale.ClientID, sale.DebtAmount, sale.Date); derr == nil {
				st.Debts.Update(debt)
				s.rec.Success(st, auditlog.EventUpdate, auditlog.EntityDebt, debt.ID,
					fmt.Sprintf("Debt reissued at %s after sale update", debt.Amount.String()))
			}
			return
		}
		debt, derr := partner.NewDebt(sale.ID, *sale.ClientID, sale.DebtAmount, sale.Date)
		if derr == nil {
			st.Debts.Add(*debt)
			s.rec.Success(st, auditlog.EventCreate, auditlog.EntityDebt, debt.ID,
				fmt.Sprintf("Debt of %s opened for sale", debt.Amount.String()))
		}
		return
	}

	for _, debt := range existing {
		st.Debts.Delete(debt.ID)
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntityDebt, debt.ID,
			"Debt cleared after sale was settled")
	}
}

// buildSale constructs the domain sale from the input.
func buildSale(in SaleInput) (*trade.Sale, error) {
	items := make([]trade.SaleItem, 0, len(in.Items))
	for _, it := range in.Items {
		item, err := trade.NewSaleItem(it.ProductID, it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	return trade.NewSale(in.ClientID, items, in.PaymentStatus, in.PaidAmount, date)
}

// stockDeltas returns the net quantity each product loses when moving
// from the old sale (nil on create) to the new one.
func stockDeltas(sale *trade.Sale, old *trade.Sale) map[string]int {
	deltas := make(map[string]int)
	for _, item := range sale.Items {
		deltas[item.ProductID] += item.Quantity
	}
	if old != nil {
		for _, item := range old.Items {
			deltas[item.ProductID] -= item.Quantity
		}
	}
	return deltas
}

// checkStock rejects the sale before any record is touched when a new
// line references a missing product or would drive stock negative.
func checkStock(st *store.State, sale *trade.Sale, old *trade.Sale) error {
	for productID, delta := range stockDeltas(sale, old) {
		product, ok := st.Products.Get(productID)
		if !ok {
			if sale.References(productID) {
				return shared.NewDomainError("INVALID_PRODUCT", "Sale references an unknown product")
			}
			continue
		}
		if delta > product.Stock {
			return shared.ErrInsufficientStock
		}
	}
	return nil
}

// applyStockDelta moves stock by the computed deltas. Products that
// only appear in the old sale and have since disappeared are skipped
// with a warning entry.
func applyStockDelta(st *store.State, rec *audit.Recorder, sale *trade.Sale, old *trade.Sale) {
	for productID, delta := range stockDeltas(sale, old) {
		if delta == 0 {
			continue
		}
		product, ok := st.Products.Get(productID)
		if !ok {
			rec.Warning(st, auditlog.EventUpdate, auditlog.EntityProduct, productID,
				"Stock adjustment skipped: referenced product no longer exists")
			continue
		}
		var serr error
		if delta > 0 {
			serr = product.ReduceStock(delta)
		} else {
			serr = product.Restock(-delta)
		}
		if serr == nil {
			st.Products.Update(product)
		}
	}
}
