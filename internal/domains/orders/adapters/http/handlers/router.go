package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/http/mapper"
	apierrors "github.com/Apurer/pallet-labels/internal/shared/errors"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// NewRouter builds the gin engine with every order route registered.
func NewRouter(api *OrderAPI, middleware ...gin.HandlerFunc) *gin.Engine {
	mapper.RegisterValidators()
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(api.logger))
	router.Use(middleware...)
	RegisterRoutes(router, api)
	return router
}

// RegisterRoutes mounts the health check and the /api/v1 routes.
func RegisterRoutes(router gin.IRouter, api *OrderAPI) {
	router.GET("/healthz", Healthz)

	v1 := router.Group("/api/v1")
	v1.GET("/queues", api.ListQueues)
	v1.GET("/queues/:queueId/orders", api.ListQueueOrders)
	v1.GET("/summary", api.GetSummary)

	orders := v1.Group("/orders")
	orders.GET("", api.ListOrders)
	orders.DELETE("", api.ClearOrders)
	orders.GET("/export", api.ExportOrders)
	orders.POST("/import", api.ImportOrders)
	orders.GET("/:orderId", api.GetOrder)
	orders.DELETE("/:orderId", api.DeleteOrder)
	orders.POST("/:orderId/labels", api.PreviewLabels)
	orders.POST("/:orderId/process", api.ProcessOrder)
	orders.POST("/:orderId/restore", api.RestoreOrder)
	orders.DELETE("/:orderId/purge", api.PurgeOrder)
}

// RequestID propagates or assigns an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(apierrors.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString(apierrors.RequestIDKey)),
		)
	}
}
