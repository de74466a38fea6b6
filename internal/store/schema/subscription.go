package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription represents the subscriptions table - registered interest in a set of event types
type Subscription struct {
	// ID is an auto-incrementing sequence number, assigned on creation
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TargetURL is the absolute http(s) endpoint that receives deliveries
	TargetURL string `gorm:"column:target_url;not null;type:text"`
	// SecretKey is the optional HMAC key used to sign delivered bodies
	SecretKey *string `gorm:"column:secret_key;type:text"`
	// EventTypes is a JSON array of event types this subscription receives.
	// An empty array matches nothing.
	EventTypes datatypes.JSONSlice[string] `gorm:"column:event_types;not null;type:jsonb"`
	// IsActive gates new delivery chains. Deactivation never cancels chains already running.
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// CreatedAt is immutable
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt changes only when is_active actually flips
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}

// HasSecret reports whether deliveries for this subscription are signed
func (s *Subscription) HasSecret() bool {
	return s.SecretKey != nil && *s.SecretKey != ""
}
