package trade_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	appcatalog "github.com/bizmob/backend/internal/application/catalog"
	apppartner "github.com/bizmob/backend/internal/application/partner"
	apptrade "github.com/bizmob/backend/internal/application/trade"
	"github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

type fixture struct {
	store     *store.Store
	products  *appcatalog.ProductService
	sales     *apptrade.SaleService
	purchases *apptrade.PurchaseService
	clients   *apppartner.ClientService
	debts     *apppartner.DebtService
}

func newFixture() *fixture {
	st := store.New()
	rec := appaudit.NewRecorder(zap.NewNop())
	log := zap.NewNop()
	return &fixture{
		store:     st,
		products:  appcatalog.NewProductService(st, rec, log),
		sales:     apptrade.NewSaleService(st, rec, log),
		purchases: apptrade.NewPurchaseService(st, rec, log),
		clients:   apppartner.NewClientService(st, rec, log),
		debts:     apppartner.NewDebtService(st, rec, log),
	}
}

func (f *fixture) addProduct(t *testing.T, name string, stock int) *catalog.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), appcatalog.ProductInput{
		Name:          name,
		PurchasePrice: decimal.NewFromInt(10),
		SalePrice:     decimal.NewFromInt(15),
		Stock:         stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	stock := -1
	f.store.View(func(st *store.State) {
		if p, ok := st.Products.Get(productID); ok {
			stock = p.Stock
		}
	})
	require.GreaterOrEqual(t, stock, 0, "product must exist")
	return stock
}

// Stock must track the sale through its whole lifecycle: reduced on
// create, moved by the delta on update, restored on delete.
func TestSaleStockConservation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(t, "soap", 10)

	sale, err := f.sales.Create(ctx, apptrade.SaleInput{
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentFull,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.stockOf(t, p.ID))

	_, err = f.sales.Update(ctx, sale.ID, apptrade.SaleInput{
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentFull,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stockOf(t, p.ID))

	require.NoError(t, f.sales.Delete(ctx, sale.ID))
	assert.Equal(t, 10, f.stockOf(t, p.ID))
}

func TestSaleInsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(t, "soap", 3)

	_, err := f.sales.Create(ctx, apptrade.SaleInput{
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentFull,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.Equal(t, 3, f.stockOf(t, p.ID))
	f.store.View(func(st *store.State) {
		assert.Equal(t, 0, st.Sales.Len())
	})
}

func TestPartialSaleOpensDebtAndUpdatesClient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(t, "soap", 10)
	client, err := f.clients.Create(ctx, "Awa")
	require.NoError(t, err)

	sale, err := f.sales.Create(ctx, apptrade.SaleInput{
		ClientID:      &client.ID,
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentPartial,
		PaidAmount:    decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.True(t, sale.DebtAmount.Equal(decimal.NewFromInt(35)))

	f.store.View(func(st *store.State) {
		debts := st.Debts.Where(func(d *partner.Debt) bool { return d.SaleID == sale.ID })
		require.Len(t, debts, 1)
		assert.True(t, debts[0].Amount.Equal(decimal.NewFromInt(35)))

		c, ok := st.Clients.Get(client.ID)
		require.True(t, ok)
		assert.Equal(t, 1, c.PurchaseCount)
		assert.True(t, c.TotalSpent.Equal(decimal.NewFromInt(60)))
		assert.True(t, c.DebtAmount.Equal(decimal.NewFromInt(35)))
	})
}

func TestSaleUpdateToFullClearsDebt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(t, "soap", 10)
	client, err := f.clients.Create(ctx, "Awa")
	require.NoError(t, err)

	sale, err := f.sales.Create(ctx, apptrade.SaleInput{
		ClientID:      &client.ID,
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentDebt,
	})
	require.NoError(t, err)

	_, err = f.sales.Update(ctx, sale.ID, apptrade.SaleInput{
		ClientID:      &client.ID,
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentFull,
	})
	require.NoError(t, err)

	f.store.View(func(st *store.State) {
		assert.Equal(t, 0, st.Debts.Len())
		c, ok := st.Clients.Get(client.ID)
		require.True(t, ok)
		assert.True(t, c.DebtAmount.IsZero())
		assert.Equal(t, 1, c.PurchaseCount)
	})
}

func TestSaleUpdateReissueKeepsPayments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(t, "soap", 10)
	client, err := f.clients.Create(ctx, "Awa")
	require.NoError(t, err)

	sale, err := f.sales.Create(ctx, apptrade.SaleInput{
		ClientID:      &client.ID,
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentDebt,
	})
	require.NoError(t, err)

	var debtID string
	f.store.View(func(st *store.State) {
		debts := st.Debts.Where(func(d *partner.Debt) bool { return d.SaleID == sale.ID })
		require.Len(t, debts, 1)
		debtID = debts[0].ID
	})

	_, err = f.debts.AddPayment(ctx, debtID, decimal.NewFromInt(20), sale.Date)
	require.NoError(t, err)

	// Shrink the sale; the reissued debt keeps the repayment history.
	_, err = f.sales.Update(ctx, sale.ID, apptrade.SaleInput{
		ClientID:      &client.ID,
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentDebt,
	})
	require.NoError(t, err)

	f.store.View(func(st *store.State) {
		debt, ok := st.Debts.Get(debtID)
		require.True(t, ok)
		assert.True(t, debt.Amount.Equal(decimal.NewFromInt(45)))
		require.Len(t, debt.PaymentHistory, 1)
		assert.True(t, debt.Outstanding().Equal(decimal.NewFromInt(25)))

		c, ok := st.Clients.Get(client.ID)
		require.True(t, ok)
		assert.True(t, c.DebtAmount.Equal(decimal.NewFromInt(25)))
	})
}

func TestPurchaseIncreasesStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProduct(t, "soap", 5)

	_, err := f.purchases.Create(ctx, apptrade.PurchaseInput{
		ProductID:     p.ID,
		Quantity:      7,
		PurchasePrice: decimal.NewFromInt(9),
		Supplier:      "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, f.stockOf(t, p.ID))
}

func TestPurchaseForMissingProductWarns(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.purchases.Create(ctx, apptrade.PurchaseInput{
		ProductID:     "ghost",
		Quantity:      7,
		PurchasePrice: decimal.NewFromInt(9),
	})
	require.NoError(t, err)

	f.store.View(func(st *store.State) {
		assert.Equal(t, 1, st.Purchases.Len(), "purchase is kept")
		warnings := st.AuditLogs.Where(func(l *audit.Log) bool { return l.Status == audit.StatusWarning })
		require.Len(t, warnings, 1)
		assert.Equal(t, audit.EntityProduct, warnings[0].EntityType)
	})
}
