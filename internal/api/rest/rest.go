package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-webhook-dispatcher/internal/metrics"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Operational endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Subscription management
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("/", handler.CreateSubscription)
		subscriptions.GET("/", handler.ListSubscriptions)
		subscriptions.GET("/:id", handler.GetSubscription)
		subscriptions.PUT("/:id", handler.ToggleSubscription)
		subscriptions.GET("/:id/logs", handler.ListDeliveryLogs)
	}

	// Event intake and delivery status
	router.POST("/events", handler.PublishEvent)
	router.POST("/ingest/:subscription_id", handler.Ingest)
	router.GET("/status/:webhook_id", handler.GetWebhookStatus)
}
