// Package report derives read-only figures from the live records.
// Nothing here is cached: every call recomputes from the store, so the
// numbers can never drift from the records they summarize.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

// Summary is the dashboard headline block.
type Summary struct {
	SaleCount       int             `json:"saleCount"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	MinSale         decimal.Decimal `json:"minSale"`
	MaxSale         decimal.Decimal `json:"maxSale"`
	AvgSale         decimal.Decimal `json:"avgSale"`
	MedianSale      decimal.Decimal `json:"medianSale"`
	OutstandingDebt decimal.Decimal `json:"outstandingDebt"`
	StockValue      decimal.Decimal `json:"stockValue"`
}

// ProductProfit ranks one product's contribution.
type ProductProfit struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
}

// MonthProfit is one month's revenue and profit bucket.
type MonthProfit struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// TopClient is one entry of the best-clients ranking.
type TopClient struct {
	ClientID      string          `json:"clientId"`
	Name          string          `json:"name"`
	PurchaseCount int             `json:"purchaseCount"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
}

// Service computes reports.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

// NewService creates a report service.
func NewService(store *store.Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// Summary computes the headline figures across all live records.
func (s *Service) Summary(ctx context.Context) Summary {
	var out Summary
	s.store.View(func(st *store.State) {
		sales := st.Sales.All()
		out.SaleCount = len(sales)
		out.TotalRevenue = decimal.Zero
		out.TotalProfit = decimal.Zero
		out.MinSale = decimal.Zero
		out.MaxSale = decimal.Zero
		out.AvgSale = decimal.Zero
		out.MedianSale = decimal.Zero

		amounts := make([]decimal.Decimal, 0, len(sales))
		for i := range sales {
			out.TotalRevenue = out.TotalRevenue.Add(sales[i].TotalAmount)
			out.TotalProfit = out.TotalProfit.Add(saleProfit(st, &sales[i]))
			amounts = append(amounts, sales[i].TotalAmount)
		}

		if len(amounts) > 0 {
			sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })
			out.MinSale = amounts[0]
			out.MaxSale = amounts[len(amounts)-1]
			out.AvgSale = out.TotalRevenue.Div(decimal.NewFromInt(int64(len(amounts))))
			out.MedianSale = median(amounts)
		}

		out.OutstandingDebt = outstandingDebt(st)
		out.StockValue = stockValue(st)
	})
	return out
}

// SaleProfit returns one sale's profit at the products' current
// purchase prices.
func (s *Service) SaleProfit(ctx context.Context, saleID string) (decimal.Decimal, error) {
	var (
		profit decimal.Decimal
		err    error
	)
	s.store.View(func(st *store.State) {
		sale, ok := st.Sales.Get(saleID)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		profit = saleProfit(st, &sale)
	})
	return profit, err
}

// ProductProfits ranks products by realized profit, best first.
func (s *Service) ProductProfits(ctx context.Context) []ProductProfit {
	var out []ProductProfit
	s.store.View(func(st *store.State) {
		byProduct := make(map[string]*ProductProfit)
		for _, product := range st.Products.All() {
			byProduct[product.ID] = &ProductProfit{
				ProductID: product.ID,
				Name:      product.Name,
				Revenue:   decimal.Zero,
				Profit:    decimal.Zero,
			}
		}

		for _, sale := range st.Sales.All() {
			for _, item := range sale.Items {
				entry, ok := byProduct[item.ProductID]
				if !ok {
					continue
				}
				product, _ := st.Products.Get(item.ProductID)
				cost := product.PurchasePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
				entry.QuantitySold += item.Quantity
				entry.Revenue = entry.Revenue.Add(item.TotalPrice)
				entry.Profit = entry.Profit.Add(item.TotalPrice.Sub(cost))
			}
		}

		out = make([]ProductProfit, 0, len(byProduct))
		for _, entry := range byProduct {
			out = append(out, *entry)
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].Profit.Equal(out[j].Profit) {
				return out[i].Profit.GreaterThan(out[j].Profit)
			}
			return out[i].Name < out[j].Name
		})
	})
	return out
}

// ProfitByMonth buckets revenue and profit over the last n months,
// oldest first. The current month is always the last bucket.
func (s *Service) ProfitByMonth(ctx context.Context, n int) []MonthProfit {
	if n <= 0 {
		n = 6
	}
	out := make([]MonthProfit, 0, n)
	s.store.View(func(st *store.State) {
		now := time.Now()
		index := make(map[string]*MonthProfit, n)
		for i := n - 1; i >= 0; i-- {
			month := now.AddDate(0, -i, 0).Format("2006-01")
			out = append(out, MonthProfit{Month: month, Revenue: decimal.Zero, Profit: decimal.Zero})
			index[month] = &out[len(out)-1]
		}

		for i, sales := 0, st.Sales.All(); i < len(sales); i++ {
			bucket, ok := index[sales[i].Date.Format("2006-01")]
			if !ok {
				continue
			}
			bucket.Revenue = bucket.Revenue.Add(sales[i].TotalAmount)
			bucket.Profit = bucket.Profit.Add(saleProfit(st, &sales[i]))
		}
	})
	return out
}

// TopClients ranks clients by total spent, best first.
func (s *Service) TopClients(ctx context.Context, n int) []TopClient {
	var out []TopClient
	s.store.View(func(st *store.State) {
		clients := st.Clients.All()
		out = make([]TopClient, 0, len(clients))
		for _, client := range clients {
			avg := decimal.Zero
			if client.PurchaseCount > 0 {
				avg = client.TotalSpent.Div(decimal.NewFromInt(int64(client.PurchaseCount)))
			}
			out = append(out, TopClient{
				ClientID:      client.ID,
				Name:          client.Name,
				PurchaseCount: client.PurchaseCount,
				TotalSpent:    client.TotalSpent,
				AvgOrderValue: avg,
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].TotalSpent.Equal(out[j].TotalSpent) {
				return out[i].TotalSpent.GreaterThan(out[j].TotalSpent)
			}
			return out[i].Name < out[j].Name
		})
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// OutstandingDebt sums every unpaid remainder.
func (s *Service) OutstandingDebt(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	s.store.View(func(st *store.State) {
		total = outstandingDebt(st)
	})
	return total
}

// ClientOutstanding sums the unpaid remainders of one client's debts,
// from the records rather than the cached aggregate.
func (s *Service) ClientOutstanding(ctx context.Context, clientID string) (decimal.Decimal, error) {
	total := decimal.Zero
	var err error
	s.store.View(func(st *store.State) {
		if _, ok := st.Clients.Get(clientID); !ok {
			err = shared.ErrNotFound
			return
		}
		for _, debt := range st.Debts.Where(func(d *partner.Debt) bool { return d.ClientID == clientID }) {
			total = total.Add(debt.Outstanding())
		}
	})
	return total, err
}

// StockValue sums stock at purchase price across the catalog.
func (s *Service) StockValue(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	s.store.View(func(st *store.State) {
		total = stockValue(st)
	})
	return total
}

// saleProfit values a sale at the products' current purchase prices. A
// line whose product has disappeared contributes its full revenue, the
// cost being unknowable.
func saleProfit(st *store.State, sale *trade.Sale) decimal.Decimal {
	profit := decimal.Zero
	for _, item := range sale.Items {
		cost := decimal.Zero
		if product, ok := st.Products.Get(item.ProductID); ok {
			cost = product.PurchasePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		profit = profit.Add(item.TotalPrice.Sub(cost))
	}
	return profit
}

func outstandingDebt(st *store.State) decimal.Decimal {
	total := decimal.Zero
	for _, debt := range st.Debts.All() {
		total = total.Add(debt.Outstanding())
	}
	return total
}

func stockValue(st *store.State) decimal.Decimal {
	total := decimal.Zero
	for _, product := range st.Products.All() {
		total = total.Add(product.StockValue())
	}
	return total
}

func median(sorted []decimal.Decimal) decimal.Decimal {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
