// Package backup defines the snapshot document exchanged with the sync
// endpoint and used for export/import. Its JSON shape is the canonical
// interchange format and must stay wire-compatible across devices.
package backup

import (
	"time"

	"github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/catalog"
	"github.com/bizmob/backend/internal/domain/partner"
	"github.com/bizmob/backend/internal/domain/settings"
	"github.com/bizmob/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

func init() {
	// The interchange format carries amounts as bare JSON numbers, not
	// quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Data is the full snapshot: every collection plus the config
// singleton. Version is the global snapshot counter advanced by each
// merge.
type Data struct {
	Products          []catalog.Product   `json:"products"`
	Sales             []trade.Sale        `json:"sales"`
	Purchases         []trade.Purchase    `json:"purchases"`
	Clients           []partner.Client    `json:"clients"`
	Debts             []partner.Debt      `json:"debts"`
	Config            *settings.AppConfig `json:"config"`
	AuditLogs         []audit.Log         `json:"auditLogs"`
	LastSyncTimestamp *time.Time          `json:"lastSyncTimestamp,omitempty"`
	Version           int                 `json:"version"`
}

// Empty returns a snapshot with all collections present but empty.
func Empty() *Data {
	return &Data{
		Products:  []catalog.Product{},
		Sales:     []trade.Sale{},
		Purchases: []trade.Purchase{},
		Clients:   []partner.Client{},
		Debts:     []partner.Debt{},
		AuditLogs: []audit.Log{},
	}
}
