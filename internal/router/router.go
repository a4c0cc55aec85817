package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"sign_ops/internal/config"
	"sign_ops/internal/gateway"
	"sign_ops/internal/lifecycle"
	"sign_ops/internal/middleware"
	"sign_ops/internal/pricing"
	"sign_ops/internal/promo"
)

// Deps bundles everything the handlers close over.
type Deps struct {
	DB       *gorm.DB
	RDB      *rd.Client
	Cfg      config.AppConfig
	Calc     *pricing.Calculator
	Promos   *promo.Validator
	Engine   *lifecycle.Engine
	Payments gateway.PaymentGateway
	Email    gateway.EmailSender
}

// Setup registers all HTTP routes.
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	// Public catalog listings.
	r.GET("/api/catalog/post-types", listPostTypes(d.DB))
	r.GET("/api/catalog/rider-types", listRiderTypes(d.DB))
	r.GET("/api/catalog/lockbox-types", listLockboxTypes(d.DB))

	// Customer routes: identity required, scoped to the caller's own data.
	user := r.Group("/api", middleware.RequireUser(d.DB))
	user.POST("/orders",
		middleware.CheckoutRateLimit(d.RDB, d.Cfg.CheckoutRateLimit, d.Cfg.CheckoutRateWindow),
		createOrder(d))
	user.GET("/orders", listOrders(d.DB))
	user.GET("/orders/:id", getOrder(d.DB))
	user.GET("/installations/:orderId", getInstallation(d.DB))
	user.GET("/notifications", listNotifications(d.DB))
	user.POST("/promo/validate", validatePromo(d.Promos))
	user.POST("/service-requests", createServiceRequest(d.DB))
	user.GET("/service-requests/:id", getServiceRequest(d.DB))

	// Admin routes: token gated, no side effects on rejection.
	admin := r.Group("/api/admin", middleware.RequireAdmin(d.Cfg.AdminToken))
	admin.PUT("/orders/:id/status", updateOrderStatus(d))
	admin.GET("/orders", listAllOrders(d.DB))
	admin.GET("/orders/:id", getAnyOrder(d.DB))
}
