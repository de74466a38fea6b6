package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/constants"
	"github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/dto"
	"github.com/feral-file/ff-webhook-dispatcher/internal/api/shared/executor"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// CreateSubscription registers a new subscription
	// POST /subscriptions/
	CreateSubscription(c *gin.Context)

	// ListSubscriptions returns every subscription
	// GET /subscriptions/
	ListSubscriptions(c *gin.Context)

	// GetSubscription returns one subscription
	// GET /subscriptions/:id
	GetSubscription(c *gin.Context)

	// ToggleSubscription activates or deactivates a subscription
	// PUT /subscriptions/:id
	ToggleSubscription(c *gin.Context)

	// ListDeliveryLogs returns the delivery attempts of a subscription in timestamp order
	// GET /subscriptions/:id/logs?limit=<limit>
	ListDeliveryLogs(c *gin.Context)

	// PublishEvent fans an event out to all matching subscriptions
	// POST /events
	PublishEvent(c *gin.Context)

	// Ingest delivers the raw request body to one subscription
	// POST /ingest/:subscription_id
	Ingest(c *gin.Context)

	// GetWebhookStatus returns the state of a delivery chain
	// GET /status/:webhook_id
	GetWebhookStatus(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{
		executor: exec,
	}
}

func (h *handler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	sub, err := h.executor.CreateSubscription(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (h *handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.executor.ListSubscriptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, subs)
}

func (h *handler) GetSubscription(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid subscription ID", err.Error())
		return
	}

	sub, err := h.executor.GetSubscription(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *handler) ToggleSubscription(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid subscription ID", err.Error())
		return
	}

	var req dto.ToggleSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if req.IsActive == nil {
		respondValidationError(c, "is_active is required")
		return
	}

	sub, err := h.executor.ToggleSubscription(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *handler) ListDeliveryLogs(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondBadRequest(c, "Invalid subscription ID", err.Error())
		return
	}

	queryParams, err := ParseListLogsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	logs, err := h.executor.ListDeliveryLogs(c.Request.Context(), id, queryParams.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (h *handler) PublishEvent(c *gin.Context) {
	var req dto.PublishEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.executor.PublishEvent(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *handler) Ingest(c *gin.Context) {
	id, err := parseIDParam(c, "subscription_id")
	if err != nil {
		respondBadRequest(c, "Invalid subscription ID", err.Error())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MAX_INGEST_BYTES)
	body, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, "Failed to read request body", err.Error())
		return
	}

	resp, err := h.executor.Ingest(c.Request.Context(), id, c.GetHeader(constants.EVENT_TYPE_HEADER), body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *handler) GetWebhookStatus(c *gin.Context) {
	webhookID := c.Param("webhook_id")
	if webhookID == "" {
		respondBadRequest(c, "Webhook ID is required")
		return
	}

	status, err := h.executor.GetWebhookStatus(c.Request.Context(), webhookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-webhook-dispatcher",
	})
}
