package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Dependencies holds the handlers required for setting up routes.
type Dependencies struct {
	InvoiceHandler *InvoiceHandler
	AlertHandler   *AlertHandler
	HealthHandler  *HealthHandler
	Logger         *slog.Logger
}

// SetupRouter configures and returns the Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(deps.Logger))

	r.GET("/health", deps.HealthHandler.Health)

	v1 := r.Group("/v1")
	{
		invoices := v1.Group("/invoices")
		{
			invoices.POST("/upload", deps.InvoiceHandler.Upload)
			invoices.GET("", deps.InvoiceHandler.List)
			invoices.GET("/export", deps.InvoiceHandler.Export)
			invoices.GET("/:id", deps.InvoiceHandler.Get)
			invoices.POST("/:id/parse", deps.InvoiceHandler.Parse)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", deps.AlertHandler.List)
			alerts.PATCH("/:id/resolve", deps.AlertHandler.Resolve)
		}

		v1.GET("/stats", deps.HealthHandler.Stats)
	}

	return r
}
