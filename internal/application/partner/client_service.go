// Package partner implements client and debt workflows on top of the
// store, including the client deletion cascade and the aggregate
// refresh used by every operation that touches a client's sales or
// debts.
package partner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/application/audit"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/shared"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/bizmob/backend/internal/store"
)

// ClientService manages the client roster.
type ClientService struct {
	store *store.Store
	rec   *audit.Recorder
	log   *zap.Logger
}

// NewClientService creates a client service.
func NewClientService(store *store.Store, rec *audit.Recorder, log *zap.Logger) *ClientService {
	return &ClientService{store: store, rec: rec, log: log}
}

// Create registers a new client with zeroed aggregates.
func (s *ClientService) Create(ctx context.Context, name string) (*partner.Client, error) {
	var (
		created *partner.Client
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		client, cerr := partner.NewClient(name)
		if cerr != nil {
			err = cerr
			return
		}
		st.Clients.Add(*client)
		s.rec.Success(st, auditlog.EventCreate, auditlog.EntityClient, client.ID,
			fmt.Sprintf("Client %s added", client.Name))
		created = client
	})
	return created, err
}

// Rename changes a client's name.
func (s *ClientService) Rename(ctx context.Context, id, name string) (*partner.Client, error) {
	var (
		updated *partner.Client
		err     error
	)
	s.store.Mutate(func(st *store.State) {
		client, ok := st.Clients.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		oldName := client.Name
		if rerr := client.Rename(name); rerr != nil {
			err = rerr
			return
		}
		st.Clients.Update(client)
		s.rec.Changed(st, auditlog.EventUpdate, auditlog.EntityClient, id,
			fmt.Sprintf("Client %s updated", client.Name),
			shared.NewChanges().Set("name", oldName, client.Name))
		updated = &client
	})
	return updated, err
}

// Get returns one client.
func (s *ClientService) Get(ctx context.Context, id string) (*partner.Client, error) {
	var (
		found *partner.Client
		err   error
	)
	s.store.View(func(st *store.State) {
		client, ok := st.Clients.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}
		found = &client
	})
	return found, err
}

// List returns every live client.
func (s *ClientService) List(ctx context.Context) []partner.Client {
	var clients []partner.Client
	s.store.View(func(st *store.State) {
		clients = st.Clients.All()
	})
	return clients
}

// Delete removes a client and cascades: every sale attributed to the
// client is deleted with its stock restored, then every debt owed by
// the client or attached to one of those sales. Each cascade step gets
// its own audit entry naming the trigger.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	var err error
	s.store.Mutate(func(st *store.State) {
		client, ok := st.Clients.Get(id)
		if !ok {
			err = shared.ErrNotFound
			return
		}

		deletedSales := make(map[string]bool)
		for _, sale := range st.Sales.Where(func(sl *trade.Sale) bool { return sl.BelongsTo(id) }) {
			st.Sales.Delete(sale.ID)
			deletedSales[sale.ID] = true
			s.rec.Success(st, auditlog.EventDelete, auditlog.EntitySale, sale.ID,
				fmt.Sprintf("Sale deleted after client %s was deleted", client.Name))
			RestockSaleItems(st, s.rec, sale, "")
		}

		for _, debt := range st.Debts.Where(func(d *partner.Debt) bool {
			return d.ClientID == id || deletedSales[d.SaleID]
		}) {
			st.Debts.Delete(debt.ID)
			s.rec.Success(st, auditlog.EventDelete, auditlog.EntityDebt, debt.ID,
				fmt.Sprintf("Debt deleted after client %s was deleted", client.Name))
		}

		st.Clients.Delete(id)
		s.rec.Success(st, auditlog.EventDelete, auditlog.EntityClient, id,
			fmt.Sprintf("Client %s deleted", client.Name))
	})
	return err
}

// RestockSaleItems returns a removed sale's quantities to stock.
// skipProductID excludes a product that is itself being deleted in the
// same cascade. A missing product is skipped with a warning entry.
func RestockSaleItems(st *store.State, rec *audit.Recorder, sale trade.Sale, skipProductID string) {
	for _, item := range sale.Items {
		if item.ProductID == skipProductID {
			continue
		}
		product, ok := st.Products.Get(item.ProductID)
		if !ok {
			rec.Warning(st, auditlog.EventUpdate, auditlog.EntityProduct, item.ProductID,
				"Stock restore skipped: referenced product no longer exists")
			continue
		}
		if rerr := product.Restock(item.Quantity); rerr == nil {
			st.Products.Update(product)
		}
	}
}
