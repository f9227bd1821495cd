package partner_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	appcatalog "github.com/bizmob/backend/internal/application/catalog"
	apppartner "github.com/bizmob/backend/internal/application/partner"
	apptrade "github.com/bizmob/backend/internal/application/trade"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

type fixture struct {
	store    *store.Store
	products *appcatalog.ProductService
	sales    *apptrade.SaleService
	clients  *apppartner.ClientService
	debts    *apppartner.DebtService
}

func newFixture() *fixture {
	st := store.New()
	rec := appaudit.NewRecorder(zap.NewNop())
	log := zap.NewNop()
	return &fixture{
		store:    st,
		products: appcatalog.NewProductService(st, rec, log),
		sales:    apptrade.NewSaleService(st, rec, log),
		clients:  apppartner.NewClientService(st, rec, log),
		debts:    apppartner.NewDebtService(st, rec, log),
	}
}

func TestClientCreateAndRename(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client, err := f.clients.Create(ctx, "Awa")
	require.NoError(t, err)
	assert.True(t, client.TotalSpent.IsZero())

	renamed, err := f.clients.Rename(ctx, client.ID, "Awa Diop")
	require.NoError(t, err)
	assert.Equal(t, "Awa Diop", renamed.Name)
	assert.Equal(t, 2, renamed.Version)

	_, err = f.clients.Rename(ctx, client.ID, "")
	require.Error(t, err)
}

func TestClientDeleteCascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.products.Create(ctx, appcatalog.ProductInput{
		Name: "soap", PurchasePrice: decimal.NewFromInt(10), SalePrice: decimal.NewFromInt(15), Stock: 10,
	})
	require.NoError(t, err)

	client, err := f.clients.Create(ctx, "Awa")
	require.NoError(t, err)

	_, err = f.sales.Create(ctx, apptrade.SaleInput{
		ClientID:      &client.ID,
		Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(15)}},
		PaymentStatus: trade.PaymentDebt,
	})
	require.NoError(t, err)

	require.NoError(t, f.clients.Delete(ctx, client.ID))

	f.store.View(func(st *store.State) {
		assert.Equal(t, 0, st.Sales.Len())
		assert.Equal(t, 0, st.Debts.Len())
		assert.Equal(t, 0, st.Clients.Len())

		// The deleted sale's quantity went back to stock.
		got, ok := st.Products.Get(p.ID)
		require.True(t, ok)
		assert.Equal(t, 10, got.Stock)
	})
}

func TestDebtPaymentLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	client, err := f.clients.Create(ctx, "Awa")
	require.NoError(t, err)

	debt, err := f.debts.Create(ctx, "sale-1", client.ID, decimal.NewFromInt(50))
	require.NoError(t, err)

	payment, err := f.debts.AddPayment(ctx, debt.ID, decimal.NewFromInt(30), time.Now())
	require.NoError(t, err)

	got, err := f.debts.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.True(t, got.Outstanding().Equal(decimal.NewFromInt(20)))

	// Overpaying floors the outstanding balance at zero.
	_, err = f.debts.AddPayment(ctx, debt.ID, decimal.NewFromInt(40), time.Now())
	require.NoError(t, err)
	got, err = f.debts.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.True(t, got.Outstanding().IsZero())
	assert.True(t, got.Settled())

	require.NoError(t, f.debts.RemovePayment(ctx, debt.ID, payment.ID))
	got, err = f.debts.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.True(t, got.Outstanding().Equal(decimal.NewFromInt(10)))

	err = f.debts.RemovePayment(ctx, debt.ID, "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// After any sequence of operations a client's cached aggregates must
// equal a recomputation from the live sales and debts.
func TestClientAggregatesStayConsistent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	p, err := f.products.Create(ctx, appcatalog.ProductInput{
		Name: "soap", PurchasePrice: decimal.NewFromInt(10), SalePrice: decimal.NewFromInt(15), Stock: 100000,
	})
	require.NoError(t, err)

	var clientIDs []string
	for _, name := range []string{"Awa", "Binta", "Cheikh"} {
		client, cerr := f.clients.Create(ctx, name)
		require.NoError(t, cerr)
		clientIDs = append(clientIDs, client.ID)
	}

	var saleIDs []string
	var debtIDs []string

	for i := 0; i < 200; i++ {
		clientID := clientIDs[rng.Intn(len(clientIDs))]
		switch rng.Intn(5) {
		case 0, 1:
			status := trade.PaymentFull
			if rng.Intn(2) == 0 {
				status = trade.PaymentDebt
			}
			sale, serr := f.sales.Create(ctx, apptrade.SaleInput{
				ClientID:      &clientID,
				Items:         []apptrade.SaleItemInput{{ProductID: p.ID, Quantity: 1 + rng.Intn(5), UnitPrice: decimal.NewFromInt(15)}},
				PaymentStatus: status,
			})
			require.NoError(t, serr)
			saleIDs = append(saleIDs, sale.ID)
		case 2:
			if len(saleIDs) == 0 {
				continue
			}
			idx := rng.Intn(len(saleIDs))
			if derr := f.sales.Delete(ctx, saleIDs[idx]); derr == nil {
				saleIDs = append(saleIDs[:idx], saleIDs[idx+1:]...)
			}
		case 3:
			f.store.View(func(st *store.State) {
				debtIDs = nil
				for _, d := range st.Debts.All() {
					debtIDs = append(debtIDs, d.ID)
				}
			})
			if len(debtIDs) == 0 {
				continue
			}
			_, perr := f.debts.AddPayment(ctx, debtIDs[rng.Intn(len(debtIDs))], decimal.NewFromInt(int64(1+rng.Intn(10))), time.Now())
			require.NoError(t, perr)
		case 4:
			f.store.View(func(st *store.State) {
				debtIDs = nil
				for _, d := range st.Debts.All() {
					debtIDs = append(debtIDs, d.ID)
				}
			})
			if len(debtIDs) == 0 {
				continue
			}
			require.NoError(t, f.debts.Delete(ctx, debtIDs[rng.Intn(len(debtIDs))]))
		}
	}

	f.store.View(func(st *store.State) {
		for _, clientID := range clientIDs {
			client, ok := st.Clients.Get(clientID)
			require.True(t, ok)

			count := 0
			spent := decimal.Zero
			for _, sale := range st.Sales.Where(func(s *trade.Sale) bool { return s.BelongsTo(clientID) }) {
				count++
				spent = spent.Add(sale.TotalAmount)
			}
			owed := decimal.Zero
			for _, debt := range st.Debts.Where(func(d *partner.Debt) bool { return d.ClientID == clientID }) {
				owed = owed.Add(debt.Outstanding())
			}

			assert.Equal(t, count, client.PurchaseCount, "purchase count for %s", client.Name)
			assert.True(t, client.TotalSpent.Equal(spent), "total spent for %s: %s vs %s", client.Name, client.TotalSpent, spent)
			assert.True(t, client.DebtAmount.Equal(owed), "debt amount for %s: %s vs %s", client.Name, client.DebtAmount, owed)
			assert.False(t, client.DebtAmount.IsNegative())
		}
	})
}
