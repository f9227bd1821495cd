package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appaudit "github.com/bizmob/backend/internal/application/audit"
	appbackup "github.com/bizmob/backend/internal/application/backup"
	appcatalog "github.com/bizmob/backend/internal/application/catalog"
	"github.com/bizmob/backend/internal/application/identity"
	apppartner "github.com/bizmob/backend/internal/application/partner"
	"github.com/bizmob/backend/internal/application/report"
	appsettings "github.com/bizmob/backend/internal/application/settings"
	appsync "github.com/bizmob/backend/internal/application/sync"
	apptrade "github.com/bizmob/backend/internal/application/trade"
	"github.com/bizmob/backend/internal/domain/backup"
	"github.com/bizmob/backend/internal/infrastructure/auth"
	"github.com/bizmob/backend/internal/interfaces/http/handler"
	"github.com/bizmob/backend/internal/interfaces/http/middleware"
	"github.com/bizmob/backend/internal/interfaces/http/router"
	"github.com/bizmob/backend/internal/store"
)

type memFlags struct{ authed bool }

func (m *memFlags) SetAuthenticated(ctx context.Context, v bool) error { m.authed = v; return nil }
func (m *memFlags) Authenticated(ctx context.Context) (bool, error)   { return m.authed, nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestEngine(t *testing.T, jwtService *auth.JWTService, authRequired bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	log := zap.NewNop()
	st := store.New()
	rec := appaudit.NewRecorder(log)

	var guard gin.HandlerFunc
	if jwtService != nil {
		guard = middleware.RequireSyncAuth(jwtService, authRequired)
	}

	engine := gin.New()
	router.Build(engine, router.Handlers{
		Auth: handler.NewAuthHandler(
			identity.NewService(st, &memFlags{}, jwtService, rec, log),
			appsettings.NewService(st, rec, log),
		),
		Products: handler.NewProductHandler(appcatalog.NewProductService(st, rec, log)),
		Trade: handler.NewTradeHandler(
			apptrade.NewSaleService(st, rec, log),
			apptrade.NewPurchaseService(st, rec, log),
		),
		Partners: handler.NewPartnerHandler(
			apppartner.NewClientService(st, rec, log),
			apppartner.NewDebtService(st, rec, log),
		),
		Reports:  handler.NewReportHandler(report.NewService(st, log)),
		Sync:     handler.NewSyncHandler(st, appsync.NewService(st, nil, rec, log), rec),
		Backups:  handler.NewBackupHandler(appbackup.NewService(st, nil, rec, log)),
		SyncAuth: guard,
	})
	return engine
}

func do(t *testing.T, engine *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestProductEndpoints(t *testing.T) {
	engine := newTestEngine(t, nil, false)

	w := do(t, engine, http.MethodPost, "/api/v1/products", gin.H{
		"name":          "Rice 5kg",
		"purchasePrice": 10,
		"salePrice":     15,
		"stock":         20,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ID)

	w = do(t, engine, http.MethodGet, "/api/v1/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []json.RawMessage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	assert.Len(t, listed, 1)

	w = do(t, engine, http.MethodGet, "/api/v1/products/no-such-id", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	env = decodeEnvelope(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w = do(t, engine, http.MethodDelete, "/api/v1/products/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/products", nil, "")
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	assert.Empty(t, listed)
}

func TestValidationRejectsBadSale(t *testing.T) {
	engine := newTestEngine(t, nil, false)

	w := do(t, engine, http.MethodPost, "/api/v1/sales", gin.H{
		"items":         []gin.H{},
		"paymentStatus": "full",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/sales", gin.H{
		"items":         []gin.H{{"productId": "p1", "quantity": 1}},
		"paymentStatus": "maybe",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/products", gin.H{
		"name":          "Broken",
		"purchasePrice": -1,
		"salePrice":     2,
		"stock":         1,
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupLoginAndSettings(t *testing.T) {
	engine := newTestEngine(t, nil, false)

	w := do(t, engine, http.MethodGet, "/api/v1/settings", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/auth/signup", gin.H{
		"businessName": "Corner Shop",
		"userName":     "amina",
		"language":     "fr",
		"password":     "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/auth/login", gin.H{"password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/auth/login", gin.H{"password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/settings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var settings map[string]any
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &settings))
	assert.Equal(t, "Corner Shop", settings["businessName"])
	assert.Empty(t, settings["passwordHash"])
}

func TestPeerExchangeGuardedByToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour, "bizmob")
	engine := newTestEngine(t, jwtService, true)

	w := do(t, engine, http.MethodGet, "/api/v1/fetch", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwtService.Generate("amina")
	require.NoError(t, err)

	// Seed a product, capture the snapshot, delete the product, then
	// push the old snapshot back. The push replaces state wholesale, so
	// the product reappears.
	w = do(t, engine, http.MethodPost, "/api/v1/products", gin.H{
		"name": "Sugar 1kg", "purchasePrice": 1, "salePrice": 2, "stock": 5,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/fetch", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := backup.Empty()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), snapshot))
	require.Len(t, snapshot.Products, 1)

	w = do(t, engine, http.MethodDelete, "/api/v1/products/"+snapshot.Products[0].ID, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, engine, http.MethodPost, "/api/v1/sync", snapshot, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/products", nil, "")
	var listed []json.RawMessage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &listed))
	assert.Len(t, listed, 1)
}

func TestBackupExportRoundTrip(t *testing.T) {
	engine := newTestEngine(t, nil, false)

	w := do(t, engine, http.MethodPost, "/api/v1/products", gin.H{
		"name": "Oil 1L", "purchasePrice": 3, "salePrice": 5, "stock": 10,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, engine, http.MethodGet, "/api/v1/backup/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := backup.Empty()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), snapshot))
	assert.Len(t, snapshot.Products, 1)
	// The export itself is part of the exported trail.
	assert.NotEmpty(t, snapshot.AuditLogs)
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestEngine(t, nil, false)
	w := do(t, engine, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
