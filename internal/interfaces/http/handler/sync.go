package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	appsync "github.com/bizmob/backend/internal/application/sync"
	auditlog "github.com/bizmob/backend/internal/domain/audit"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/store"
)

// SyncHandler serves both sides of the snapshot exchange: the peer
// contract (GET /fetch, POST /sync) and the local trigger that runs a
// sync cycle against the configured remote.
type SyncHandler struct {
	BaseHandler
	store *store.Store
	syncs *appsync.Service
	rec   *appaudit.Recorder
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(st *store.Store, syncs *appsync.Service, rec *appaudit.Recorder) *SyncHandler {
	return &SyncHandler{store: st, syncs: syncs, rec: rec}
}

// Fetch handles GET /fetch. The body is the raw snapshot document, not
// the API envelope, so any peer can consume it.
func (h *SyncHandler) Fetch(c *gin.Context) {
	var data *backup.Data
	h.store.View(func(st *store.State) {
		data = st.Snapshot()
	})
	c.JSON(http.StatusOK, data)
}

// Receive handles POST /sync: a peer pushing its merged snapshot,
// which replaces this side's state wholesale.
func (h *SyncHandler) Receive(c *gin.Context) {
	data := backup.Empty()
	if err := c.ShouldBindJSON(data); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.store.Mutate(func(st *store.State) {
		st.Load(data)
		h.rec.Success(st, auditlog.EventImport, auditlog.EntityData, "",
			"Snapshot received from peer")
	})
	h.Success(c, gin.H{"version": data.Version})
}

// Run handles POST /sync/run: pull, merge, apply, push against the
// configured remote.
func (h *SyncHandler) Run(c *gin.Context) {
	result, err := h.syncs.Sync(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Compact handles POST /sync/compact.
func (h *SyncHandler) Compact(c *gin.Context) {
	h.Success(c, gin.H{"removed": h.syncs.Compact(c.Request.Context())})
}
