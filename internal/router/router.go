package router

import (
	"github.com/gin-gonic/gin"

	"invoscan/internal/handler"
	"invoscan/internal/middleware"
	"invoscan/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	allowedOrigins []string,
	authH *handler.AuthHandler,
	invoiceH *handler.InvoiceHandler,
	buyerH *handler.BuyerHandler,
	subH *handler.SubscriptionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	invoices := protected.Group("/invoices")
	invoices.POST("/upload", invoiceH.Upload)
	invoices.POST("/upload-batch", invoiceH.UploadBatch)
	invoices.GET("", invoiceH.List)
	invoices.GET("/export/register", invoiceH.ExportRegister)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.GET("/:id/download", invoiceH.Download)
	invoices.GET("/:id/pdf", invoiceH.PDFLink)
	invoices.DELETE("/:id", invoiceH.Delete)

	buyers := protected.Group("/buyers")
	buyers.POST("", buyerH.Create)
	buyers.GET("", buyerH.List)
	buyers.DELETE("/:id", buyerH.Delete)

	subscription := protected.Group("/subscription")
	subscription.GET("", subH.Current)
	subscription.GET("/quota", subH.Quota)

	return r
}
