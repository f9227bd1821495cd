package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

// PurchaseInput carries a requested restocking purchase.
type PurchaseInput struct {
	ProductID     string
	Quantity      int
	PurchasePrice decimal.Decimal
	Supplier      string
	Date          time.Time
}

// PurchaseService manages restocking purchases.
type PurchaseService struct {
	store *store.Store
	rec   *audit.Recorder
	log   *zap.Logger
}

// NewPurchaseService creates a purchase service.
func NewPurchaseService(store *store.Store, rec *audit.Recorder, log *zap.Logger) *PurchaseService {
	return &PurchaseService{store: store, rec: rec, log: log}
}

// Create records a purchase and adds its quantity to the product's
// stock. The purchase is kept even when the product has disappeared;
// the missed stock increase is surfaced as a warning entry.
func (s *PurchaseService) Create(ctx context.Context, in PurchaseInput) (*trade.Purchase, error) {
	var (
		created *trade.Purchase
		err     error
	)
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	s.store.Mutate(func(st *store.State) {
		purchase, perr := trade.NewPurchase(in.ProductID, in.Quantity, in.PurchasePrice, in.Supplier, date)
		if perr != nil {
			err = perr
			return
		}
		st.Purchases.Add(*purchase)
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntityPurchase, purchase.ID,
			fmt.Sprintf("Purchase of %d units recorded", purchase.Quantity))

		product, ok := st.Products.Get(in.ProductID)
		if !ok {
			s.rec.Warning(st, auditlog.EventUpdate, auditlog.EntityProduct, in.ProductID,
				"Stock increase skipped: referenced product no longer exists")
			created = purchase
			return
		}
		if rerr := product.Restock(purchase.Quantity); rerr == nil {
			st.Products.Update(product)
		}
		created = purchase
	})
	return created, err
}

// Delete removes a purchase. Stock is deliberately not reversed: the
// goods were physically received and selling them may already have
// consumed the quantity.
func (s *PurchaseService) Delete(ctx context.Context, id string) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		purchase, ok := st.Purchases.Delete(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntityPurchase, id,
			fmt.Sprintf("Purchase of %d units deleted", purchase.Quantity))
	})
	return err
}

// Get returns one purchase.
func (s *PurchaseService) Get(ctx context.Context, id string) (*trade.Purchase, error) {
	var (
		found *trade.Purchase
		err   error
	)
	s.store.View(func(st *store.State) {
		purchase, ok := st.Purchases.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		found = &purchase
	})
	return found, err
}

// List returns every live purchase.
func (s *PurchaseService) List(ctx context.Context) []trade.Purchase {
	var purchases []trade.Purchase
	s.store.View(func(st *store.State) {
		purchases = st.Purchases.All()
	})
	return purchases
}
