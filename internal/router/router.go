package router

import (
	"github.com/gin-gonic/gin"

	"facturaia/internal/domain"
	"facturaia/internal/handler"
	"facturaia/internal/middleware"
	"facturaia/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Company *handler.CompanyHandler
	Contact *handler.ContactHandler
	Invoice *handler.InvoiceHandler
	AI      *handler.AIHandler
	Report  *handler.ReportHandler
	Health  *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/health", h.Health.Liveness)
	r.GET("/health/ready", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	protected.GET("/auth/profile", h.Auth.Profile)

	admins := middleware.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin)

	// User management
	users := protected.Group("/users")
	users.Use(admins)
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.GetByID)
	users.PUT("/:id", h.User.Update)
	users.DELETE("/:id", h.User.Delete)

	// Companies
	companies := protected.Group("/companies")
	companies.POST("", middleware.RequireRole(domain.RoleSuperAdmin), h.Company.Create)
	companies.GET("", h.Company.List)
	companies.GET("/:id", h.Company.GetByID)
	companies.PUT("/:id", admins, h.Company.Update)
	companies.PUT("/:id/config", admins, h.Company.UpdateConfig)

	// Company-scoped data
	scoped := protected.Group("")
	scoped.Use(middleware.CompanyGuard())

	contacts := scoped.Group("/contacts")
	contacts.GET("", h.Contact.List)
	contacts.POST("", h.Contact.Create)
	contacts.GET("/:id", h.Contact.GetByID)
	contacts.PUT("/:id", h.Contact.Update)
	contacts.DELETE("/:id", h.Contact.Delete)
	contacts.GET("/:id/stats", h.Contact.Stats)

	invoices := scoped.Group("/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.POST("", h.Invoice.Create)
	invoices.POST("/upload", h.Invoice.Upload)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.PATCH("/:id/status", h.Invoice.UpdateStatus)
	invoices.DELETE("/:id", h.Invoice.Delete)
	invoices.GET("/:id/file", h.Invoice.File)
	invoices.POST("/:id/payments", h.Invoice.RecordPayment)
	invoices.GET("/:id/payments", h.Invoice.ListPayments)

	ai := scoped.Group("/ai")
	ai.POST("/chat", h.AI.Chat)
	ai.GET("/status", h.AI.Status)

	reports := scoped.Group("/reports")
	reports.GET("/summary", h.Report.Summary)
	reports.GET("/monthly", h.Report.Monthly)
	reports.GET("/invoices/export", h.Report.Export)

	return r
}
