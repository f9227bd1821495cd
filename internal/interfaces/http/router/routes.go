package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizmob/backend/internal/interfaces/http/handler"
)

// Handlers bundles everything the API surface is built from. SyncAuth
// guards the peer exchange endpoints and may be a pass-through when
// token auth is disabled.
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Trade    *handler.TradeHandler
	Partners *handler.PartnerHandler
	Reports  *handler.ReportHandler
	Sync     *handler.SyncHandler
	Backups  *handler.BackupHandler
	SyncAuth gin.HandlerFunc
}

// Build registers the full route table on the engine and returns the
// configured router.
func Build(engine *gin.Engine, h Handlers) *Router {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r := NewRouter(engine)
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { authRoutes(rg, h.Auth) }))
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { catalogRoutes(rg, h.Products) }))
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { tradeRoutes(rg, h.Trade) }))
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { partnerRoutes(rg, h.Partners) }))
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { reportRoutes(rg, h.Reports) }))
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { syncRoutes(rg, h.Sync, h.SyncAuth) }))
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) { backupRoutes(rg, h.Backups) }))
	r.Setup()
	return r
}

func authRoutes(rg *gin.RouterGroup, h *handler.AuthHandler) {
	auth := rg.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.POST("/password", h.ChangePassword)

	settings := rg.Group("/settings")
	settings.GET("", h.GetSettings)
	settings.PUT("/business", h.UpdateBusinessInfo)
	settings.PUT("/currency", h.UpdateCurrency)
	settings.PUT("/language", h.UpdateLanguage)
}

func catalogRoutes(rg *gin.RouterGroup, h *handler.ProductHandler) {
	products := rg.Group("/products")
	products.GET("", h.List)
	products.POST("", h.Create)
	products.GET("/:id", h.Get)
	products.PUT("/:id", h.Update)
	products.DELETE("/:id", h.Delete)
}

func tradeRoutes(rg *gin.RouterGroup, h *handler.TradeHandler) {
	sales := rg.Group("/sales")
	sales.GET("", h.ListSales)
	sales.POST("", h.CreateSale)
	sales.GET("/:id", h.GetSale)
	sales.PUT("/:id", h.UpdateSale)
	sales.DELETE("/:id", h.DeleteSale)

	purchases := rg.Group("/purchases")
	purchases.GET("", h.ListPurchases)
	purchases.POST("", h.CreatePurchase)
	purchases.GET("/:id", h.GetPurchase)
	purchases.DELETE("/:id", h.DeletePurchase)
}

func partnerRoutes(rg *gin.RouterGroup, h *handler.PartnerHandler) {
	clients := rg.Group("/clients")
	clients.GET("", h.ListClients)
	clients.POST("", h.CreateClient)
	clients.GET("/:id", h.GetClient)
	clients.PUT("/:id", h.UpdateClient)
	clients.DELETE("/:id", h.DeleteClient)

	debts := rg.Group("/debts")
	debts.GET("", h.ListDebts)
	debts.POST("", h.CreateDebt)
	debts.GET("/:id", h.GetDebt)
	debts.DELETE("/:id", h.DeleteDebt)
	debts.POST("/:id/payments", h.AddPayment)
	debts.DELETE("/:id/payments/:paymentId", h.RemovePayment)
}

func reportRoutes(rg *gin.RouterGroup, h *handler.ReportHandler) {
	reports := rg.Group("/reports")
	reports.GET("/summary", h.Summary)
	reports.GET("/products", h.ProductProfits)
	reports.GET("/monthly", h.ProfitByMonth)
	reports.GET("/clients", h.TopClients)
	reports.GET("/sales/:id/profit", h.SaleProfit)
	reports.GET("/clients/:id/outstanding", h.ClientOutstanding)
}

func syncRoutes(rg *gin.RouterGroup, h *handler.SyncHandler, guard gin.HandlerFunc) {
	peer := rg.Group("")
	if guard != nil {
		peer.Use(guard)
	}
	peer.GET("/fetch", h.Fetch)
	peer.POST("/sync", h.Receive)

	rg.POST("/sync/run", h.Run)
	rg.POST("/sync/compact", h.Compact)
}

func backupRoutes(rg *gin.RouterGroup, h *handler.BackupHandler) {
	backup := rg.Group("/backup")
	backup.GET("/export", h.Export)
	backup.POST("/import", h.Import)
	backup.POST("/reset", h.Reset)
}
