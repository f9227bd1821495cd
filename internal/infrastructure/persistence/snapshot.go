package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bizmob/backend/internal/domain/backup"
)

// Key space. Every collection is serialized independently so a large
// audit trail does not force rewriting the product list.
const (
	keyProducts      = "bizmob_products"
	keySales         = "bizmob_sales"
	keyPurchases     = "bizmob_purchases"
	keyClients       = "bizmob_clients"
	keyDebts         = "bizmob_debts"
	keyAuditLogs     = "bizmob_audit_logs"
	keyConfig        = "bizmob_business_data"
	keyMeta          = "bizmob_meta"
	keyAuthenticated = "bizmob_is_authenticated"
)

var allKeys = []string{
	keyProducts, keySales, keyPurchases, keyClients, keyDebts,
	keyAuditLogs, keyConfig, keyMeta, keyAuthenticated,
}

type meta struct {
	Version           int        `json:"version"`
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp,omitempty"`
}

// SnapshotStore reads and writes the full snapshot through a KV
// backend.
type SnapshotStore struct {
	kv  KV
	log *zap.Logger
}

// NewSnapshotStore creates a snapshot store.
func NewSnapshotStore(kv KV, log *zap.Logger) *SnapshotStore {
	return &SnapshotStore{kv: kv, log: log}
}

// Save writes every collection under its own key.
func (s *SnapshotStore) Save(ctx context.Context, data *backup.Data) error {
	parts := map[string]any{
		keyProducts:  data.Products,
		keySales:     data.Sales,
		keyPurchases: data.Purchases,
		keyClients:   data.Clients,
		keyDebts:     data.Debts,
		keyAuditLogs: data.AuditLogs,
		keyMeta:      meta{Version: data.Version, LastSyncTimestamp: data.LastSyncTimestamp},
	}
	for key, part := range parts {
		if err := s.setJSON(ctx, key, part); err != nil {
			return err
		}
	}

	if data.Config == nil {
		return s.kv.Delete(ctx, keyConfig)
	}
	return s.setJSON(ctx, keyConfig, data.Config)
}

// Load reassembles the snapshot. Missing keys yield empty collections,
// so a fresh database loads as an empty, unconfigured state.
func (s *SnapshotStore) Load(ctx context.Context) (*backup.Data, error) {
	data := backup.Empty()

	if err := s.getJSON(ctx, keyProducts, &data.Products); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, keySales, &data.Sales); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, keyPurchases, &data.Purchases); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, keyClients, &data.Clients); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, keyDebts, &data.Debts); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, keyAuditLogs, &data.AuditLogs); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, keyConfig, &data.Config); err != nil {
		return nil, err
	}

	var m meta
	if err := s.getJSON(ctx, keyMeta, &m); err != nil {
		return nil, err
	}
	data.Version = m.Version
	data.LastSyncTimestamp = m.LastSyncTimestamp

	return data, nil
}

// Clear removes every key, including the authenticated flag.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	for _, key := range allKeys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// SetAuthenticated persists the login flag.
func (s *SnapshotStore) SetAuthenticated(ctx context.Context, authenticated bool) error {
	return s.setJSON(ctx, keyAuthenticated, authenticated)
}

// Authenticated reads the login flag; a missing key means logged out.
func (s *SnapshotStore) Authenticated(ctx context.Context) (bool, error) {
	var authenticated bool
	if err := s.getJSON(ctx, keyAuthenticated, &authenticated); err != nil {
		return false, err
	}
	return authenticated, nil
}

func (s *SnapshotStore) setJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// getJSON leaves out untouched when the key does not exist.
func (s *SnapshotStore) getJSON(ctx context.Context, key string, out any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
