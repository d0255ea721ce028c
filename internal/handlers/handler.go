package handlers

import (
	_ "authentication_api/docs" // registers the OpenAPI document served under /swagger
	"authentication_api/internal/logger"
	"authentication_api/internal/metrics"
	"authentication_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services, logging and metrics.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewHandler constructs a new HTTP handler. log and m may be nil.
func NewHandler(services *service.Service, log *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{services: services, log: log, metrics: m}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.observeMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))
	}

	h.registerUserRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerUserRoutes(r *gin.Engine) {
	users := r.Group("/users")
	{
		users.POST("/authenticate", h.authenticate)
		users.POST("/register", h.register)
	}

	protected := users.Group("", h.userIdMiddleware)
	{
		protected.GET("", h.listUsers)
		protected.GET("/:id", h.getUser)
		protected.PUT("/:id", h.updateUser)
		protected.DELETE("/:id", h.deleteUser)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		audit := api.Group("/audit")
		{
			audit.GET("", h.getAuditEvents)
			audit.GET("/ws", h.auditStream)
		}
	}
}
