package schema

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryStatus is the status of one delivery attempt
type DeliveryStatus string

const (
	// DeliveryStatusPending is written before the outbound call is made
	DeliveryStatusPending DeliveryStatus = "pending"
	// DeliveryStatusSuccess means the receiver answered with a 2xx status
	DeliveryStatusSuccess DeliveryStatus = "success"
	// DeliveryStatusFailed covers non-2xx responses, timeouts and network errors
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DeliveryLog represents the delivery_logs table - one row per delivery attempt.
// Rows sharing a webhook_id form a delivery chain numbered 1..k without gaps.
type DeliveryLog struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// SubscriptionID is the subscription this chain delivers to
	SubscriptionID uint64 `gorm:"column:subscription_id;not null;index"`
	// WebhookID identifies the chain (ULID)
	WebhookID string `gorm:"column:webhook_id;not null;type:varchar(26);uniqueIndex:idx_delivery_logs_chain_attempt"`
	// AttemptNumber is 1-based and strictly increasing within a chain
	AttemptNumber int `gorm:"column:attempt_number;not null;uniqueIndex:idx_delivery_logs_chain_attempt"`
	// EventID is the event that spawned this chain. An event has at most one chain per subscription.
	EventID string `gorm:"column:event_id;not null;type:varchar(64);index"`
	// EventType is the matched event type
	EventType string `gorm:"column:event_type;not null;type:varchar(255)"`
	// TargetURL is the endpoint snapshot taken when the chain started
	TargetURL string `gorm:"column:target_url;not null;type:text"`
	// Payload is the exact JSON body sent. Stored as json (not jsonb) to keep the bytes.
	Payload datatypes.JSON `gorm:"column:payload;not null;type:json"`
	// Status is pending until the attempt completes
	Status DeliveryStatus `gorm:"column:status;not null;default:pending;type:varchar(16)"`
	// HTTPStatus is nil for network level failures
	HTTPStatus *int `gorm:"column:http_status"`
	// ErrorMessage is set for failed attempts
	ErrorMessage *string `gorm:"column:error_message;type:text"`
	// ResponseBody holds the first 4KB of the receiver's response
	ResponseBody *string `gorm:"column:response_body;type:text"`
	// LatencyMs is the duration of the outbound call
	LatencyMs *int64 `gorm:"column:latency_ms"`
	// Timestamp is the attempt start
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// CompletedAt is set when the row leaves pending
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamptz"`
}

// TableName specifies the table name for the DeliveryLog model
func (DeliveryLog) TableName() string {
	return "delivery_logs"
}
