package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/shoyaib4265a/st-shop-poss/internal/config"
	"github.com/shoyaib4265a/st-shop-poss/internal/handler"
	"github.com/shoyaib4265a/st-shop-poss/internal/middleware"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/service"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
	"github.com/shoyaib4265a/st-shop-poss/internal/syncer"
	"github.com/shoyaib4265a/st-shop-poss/internal/trust"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Store
func New(cfg *config.Config, st store.Store, rdb *redis.Client,
	coord *syncer.Coordinator, notifier trust.Notifier) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Services ─────────────────────────────────────────────────────────────
	trustMgr := trust.NewManager(st, cfg, notifier)
	posSvc := service.NewPOSService(st)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(trustMgr, st, coord)
	productsH := handler.NewProductsHandler(posSvc)
	inventoryH := handler.NewInventoryHandler(posSvc)
	adminH := handler.NewAdminHandler(posSvc)
	syncH := handler.NewSyncHandler(coord, st)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.NewHealthHandler(st, coord, rdb).Check)

	// Auth — login and session probing work without an approved session;
	// that is the whole point of the pending flow.
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/logout", authH.Logout)
		auth.GET("/session", authH.CurrentSession)
	}

	// Everything below requires an approved local session.
	sessionMW := middleware.RequireSession(st)
	v1 := r.Group("/v1", sessionMW)
	{
		adminOnly := middleware.RequireRole(model.RoleAdmin)

		v1.POST("/auth/revoke", adminOnly, authH.Revoke)
		v1.PUT("/credentials", adminOnly, authH.SaveCredential)

		v1.GET("/approvals", adminOnly, adminH.ListPending)
		v1.POST("/approvals", adminOnly, authH.Approve)
		v1.GET("/device-logs", adminOnly, adminH.ListDeviceLogs)

		v1.GET("/products", productsH.List)
		v1.PUT("/products/:id", adminOnly, productsH.Upsert)

		v1.GET("/inventories", inventoryH.List)
		v1.POST("/inventories/assign", adminOnly, inventoryH.Assign)
		v1.POST("/sales", inventoryH.RecordSale)

		v1.POST("/sync", syncH.Trigger)
	}

	return r
}
