package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// DeliveryLogResponse is one delivery attempt
type DeliveryLogResponse struct {
	ID             uint64          `json:"id"`
	SubscriptionID uint64          `json:"subscription_id"`
	WebhookID      string          `json:"webhook_id"`
	AttemptNumber  int             `json:"attempt_number"`
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	TargetURL      string          `json:"target_url"`
	Payload        json.RawMessage `json:"payload"`
	Status         string          `json:"status"`
	HTTPStatus     *int            `json:"http_status"`
	ErrorMessage   *string         `json:"error_message"`
	ResponseBody   *string         `json:"response_body"`
	LatencyMs      *int64          `json:"latency_ms"`
	Timestamp      time.Time       `json:"timestamp"`
	CompletedAt    *time.Time      `json:"completed_at"`
}

// MapDeliveryLogToDTO maps a delivery log row to its response
func MapDeliveryLogToDTO(log *schema.DeliveryLog) DeliveryLogResponse {
	var completedAt *time.Time
	if log.CompletedAt != nil {
		t := log.CompletedAt.UTC()
		completedAt = &t
	}
	return DeliveryLogResponse{
		ID:             log.ID,
		SubscriptionID: log.SubscriptionID,
		WebhookID:      log.WebhookID,
		AttemptNumber:  log.AttemptNumber,
		EventID:        log.EventID,
		EventType:      log.EventType,
		TargetURL:      log.TargetURL,
		Payload:        json.RawMessage(log.Payload),
		Status:         string(log.Status),
		HTTPStatus:     log.HTTPStatus,
		ErrorMessage:   log.ErrorMessage,
		ResponseBody:   log.ResponseBody,
		LatencyMs:      log.LatencyMs,
		Timestamp:      log.Timestamp.UTC(),
		CompletedAt:    completedAt,
	}
}

// MapDeliveryLogsToDTO maps a list of delivery logs, never returning nil
func MapDeliveryLogsToDTO(logs []*schema.DeliveryLog) []DeliveryLogResponse {
	out := make([]DeliveryLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, MapDeliveryLogToDTO(l))
	}
	return out
}
