package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"facturas/internal/handler"
	"facturas/internal/middleware"
	"facturas/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Invoice    *handler.InvoiceHandler
	Process    *handler.ProcessHandler
	Calculator *handler.CalculatorHandler
	Stats      *handler.StatsHandler
	Checks     *handler.CheckHandler
	Health     *handler.HealthHandler
}

// Options tunes cross-cutting middleware.
type Options struct {
	AllowedOrigins []string
	// Extraction limits the endpoints that call the language model.
	Extraction *middleware.RateLimiter
	// Swagger mounts /swagger/*any when true.
	Swagger bool
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, opts Options) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limit := func(c *gin.Context) { c.Next() }
	if opts.Extraction != nil {
		limit = opts.Extraction.Middleware()
	}

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	protected.GET("/me", h.Auth.Me)

	protected.POST("/process-invoice", limit, h.Process.ProcessText)
	protected.GET("/process/cooldown", h.Process.Cooldown)

	invoices := protected.Group("/invoices")
	invoices.POST("/upload", h.Invoice.Upload)
	invoices.POST("/sync", h.Invoice.Sync)
	invoices.GET("", h.Invoice.List)
	invoices.GET("/export", h.Invoice.Export)
	invoices.GET("/:id", h.Invoice.Get)
	invoices.PUT("/:id/data", h.Invoice.UpdateData)
	invoices.GET("/:id/checks", h.Checks.Report)
	invoices.POST("/:id/process", limit, h.Invoice.Process)
	invoices.DELETE("/:id", h.Invoice.Delete)

	calculator := protected.Group("/calculator")
	calculator.POST("/preview", h.Calculator.Preview)
	calculator.POST("/invoices", h.Calculator.Save)

	stats := protected.Group("/stats")
	stats.GET("", h.Stats.Dashboard)
	stats.GET("/monthly", h.Stats.Monthly)

	return r
}
