// Package catalog implements product workflows, including the deletion
// cascade that removes dependent purchases, sales and debts so no
// record ever references a missing product.
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/application/audit"
	apppartner "github.com/bizmob/backend/internal/application/partner"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Stock         int
	Supplier      string
}

// ProductService manages the product catalog.
type ProductService struct {
	store *store.Store
	rec   *audit.Recorder
	log   *zap.Logger
}

// NewProductService creates a product service.
func NewProductService(store *store.Store, rec *audit.Recorder, log *zap.Logger) *ProductService {
	return &ProductService{store: store, rec: rec, log: log}
}

// Create adds a product to the catalog.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*catalog.Product, error) {
	var (
		created *catalog.Product
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		product, perr := catalog.NewProduct(in.Name, in.PurchasePrice, in.SalePrice, in.Stock, in.Supplier)
		if perr != nil {
			err = perr
			return
		}
		st.Products.Add(*product)
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntityProduct, product.ID,
			fmt.Sprintf("Product %s added", product.Name))
		created = product
	})
	return created, err
}

// Update replaces a product's editable fields.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*catalog.Product, error) {
	var (
		updated *catalog.Product
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		product, ok := st.Products.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}

		changes := shared.NewChanges()
		if product.Name != in.Name {
			changes.Set("name", product.Name, in.Name)
		}
		if !product.PurchasePrice.Equal(in.PurchasePrice) {
			changes.Set("purchasePrice", product.PurchasePrice, in.PurchasePrice)
		}
		if !product.SalePrice.Equal(in.SalePrice) {
			changes.Set("salePrice", product.SalePrice, in.SalePrice)
		}
		if product.Stock != in.Stock {
			changes.Set("stock", product.Stock, in.Stock)
		}
		if product.Supplier != in.Supplier {
			changes.Set("supplier", product.Supplier, in.Supplier)
		}

		if uerr := product.Update(in.Name, in.PurchasePrice, in.SalePrice, in.Stock, in.Supplier); uerr != nil {
			err = uerr
			return
		}
		st.Products.Update(product)
		s.rec.Changed(st, auditlog.EventUpdate, auditlog.EntityProduct, id,
			fmt.Sprintf("Product %s updated", product.Name), changes)
		updated = &product
	})
	return updated, err
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) (*catalog.Product, error) {
	var (
		found *catalog.Product
		err   error
	)
	s.store.View(func(st *store.State) {
		product, ok := st.Products.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		found = &product
	})
	return found, err
}

// List returns every live product.
func (s *ProductService) List(ctx context.Context) []catalog.Product {
	var products []catalog.Product
	s.store.View(func(st *store.State) {
		products = st.Products.All()
	})
	return products
}

// Delete removes a product and cascades through everything that
// references it: purchases of the product, sales containing it (with
// the other products' stock restored), and the debts of those sales.
// Affected clients get their aggregates refreshed afterwards. Each
// cascade step records its own audit entry naming the trigger.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		product, ok := st.Products.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}

		for _, purchase := range st.Purchases.Where(func(p *trade.Purchase) bool { return p.ProductID == id }) {
			st.Purchases.Delete(purchase.ID)
			s.rec.Success(st, auditlog.EventDelete, auditlog.EntityPurchase, purchase.ID,
				fmt.Sprintf("Purchase deleted after product %s was deleted", product.Name))
		}

		deletedSales := make(map[string]bool)
		var affectedClients []string
		for _, sale := range st.Sales.Where(func(sl *trade.Sale) bool { return sl.References(id) }) {
			st.Sales.Delete(sale.ID)
			deletedSales[sale.ID] = true
			if sale.ClientID != nil {
				affectedClients = append(affectedClients, *sale.ClientID)
			}
			s.rec.Success(st, auditlog.EventDelete, auditlog.EntitySale, sale.ID,
				fmt.Sprintf("Sale deleted after product %s was deleted", product.Name))
			apppartner.RestockSaleItems(st, s.rec, sale, id)
		}

		for _, debt := range st.Debts.Where(func(d *partner.Debt) bool { return deletedSales[d.SaleID] }) {
			st.Debts.Delete(debt.ID)
			affectedClients = append(affectedClients, debt.ClientID)
			s.rec.Success(st, auditlog.EventDelete, auditlog.EntityDebt, debt.ID,
				fmt.Sprintf("Debt deleted after product %s was deleted", product.Name))
		}

		st.Products.Delete(id)
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntityProduct, id,
			fmt.Sprintf("Product %s deleted", product.Name))

		apppartner.RefreshAggregates(st, s.rec, affectedClients...)
	})
	return err
}
