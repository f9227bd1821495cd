package partner

import (
	"github.com/shopspring/decimal"

	"github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

// RefreshAggregates recomputes each client's cached purchase count,
// total spent and outstanding debt from the live sales and debts, and
// persists the client only when something changed. Missing clients are
// skipped with a warning entry. Must run inside the Mutate closure of
// the operation that touched the underlying records.
func RefreshAggregates(st *store.State, rec *audit.Recorder, clientIDs ...string) {
	seen := make(map[string]bool, len(clientIDs))
	for _, clientID := range clientIDs {
		if clientID == "" || seen[clientID] {
			continue
		}
		seen[clientID] = true

		client, ok := st.Clients.Get(clientID)
		if !ok {
			rec.Warning(st, auditlog.EventUpdate, auditlog.EntityClient, clientID,
				"Aggregate refresh skipped: referenced client no longer exists")
			continue
		}

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

		changes := shared.NewChanges()
		if client.PurchaseCount != count {
			changes.Set("purchaseCount", client.PurchaseCount, count)
		}
		if !client.TotalSpent.Equal(spent) {
			changes.Set("totalSpent", client.TotalSpent, spent)
		}
		if !client.DebtAmount.Equal(owed) {
			changes.Set("debtAmount", client.DebtAmount, owed)
		}

		if client.SetAggregates(count, spent, owed) {
			st.Clients.Update(client)
			rec.Changed(st, auditlog.EventUpdate, auditlog.EntityClient, clientID,
				"Aggregates refreshed for client "+client.Name, changes)
		}
	}
}
