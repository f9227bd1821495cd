package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appbackup "github.com/bizmob/backend/internal/application/backup"
	"github.com/bizmob/backend/internal/domain/backup"
)

// BackupHandler serves export, import and reset.
type BackupHandler struct {
	BaseHandler
	backups *appbackup.Service
}

// NewBackupHandler creates a backup handler.
func NewBackupHandler(backups *appbackup.Service) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// Export handles GET /backup/export. The body is the raw snapshot
// document so it can be re-imported as-is.
func (h *BackupHandler) Export(c *gin.Context) {
	c.JSON(http.StatusOK, h.backups.Export(c.Request.Context()))
}

// Import handles POST /backup/import
func (h *BackupHandler) Import(c *gin.Context) {
	data := backup.Empty()
	if err := c.ShouldBindJSON(data); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.backups.Import(c.Request.Context(), data); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"version": data.Version})
}

// Reset handles POST /backup/reset
func (h *BackupHandler) Reset(c *gin.Context) {
	if err := h.backups.Reset(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
