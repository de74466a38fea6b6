package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// maxErrorMessageLength bounds error_message values written to the delivery log
const maxErrorMessageLength = 1024

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// MaxIdleConns must not exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// =============================================================================
// Subscriptions
// =============================================================================

// CreateSubscription validates and creates a new subscription
func (s *pgStore) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*schema.Subscription, error) {
	sub, err := newSubscription(input, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

// GetSubscriptionByID retrieves a subscription by ID
func (s *pgStore) GetSubscriptionByID(ctx context.Context, id uint64) (*schema.Subscription, error) {
	var sub schema.Subscription
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// ListSubscriptions retrieves all subscriptions in creation order
func (s *pgStore) ListSubscriptions(ctx context.Context) ([]*schema.Subscription, error) {
	var subs []*schema.Subscription
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// ListActiveSubscriptionsByEventType retrieves the active subscriptions that match the given event type
func (s *pgStore) ListActiveSubscriptionsByEventType(ctx context.Context, eventType string) ([]*schema.Subscription, error) {
	filter, err := json.Marshal([]string{eventType})
	if err != nil {
		return nil, fmt.Errorf("failed to encode event type filter: %w", err)
	}

	// JSONB containment is served by the partial GIN index on active subscriptions
	var subs []*schema.Subscription
	err = s.db.WithContext(ctx).
		Where("is_active").
		Where("event_types @> ?::jsonb", string(filter)).
		Order("id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions by event type: %w", err)
	}
	return subs, nil
}

// SetSubscriptionActive sets is_active under a row lock so concurrent toggles of one id serialize
func (s *pgStore) SetSubscriptionActive(ctx context.Context, id uint64, active bool) (*schema.Subscription, bool, error) {
	var sub schema.Subscription
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&sub).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("subscription", id)
			}
			return fmt.Errorf("failed to lock subscription: %w", err)
		}

		if sub.IsActive == active {
			return nil
		}

		now := time.Now()
		err = tx.Model(&sub).Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update subscription status: %w", err)
		}

		sub.IsActive = active
		sub.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &sub, changed, nil
}

// =============================================================================
// Delivery logs
// =============================================================================

// lockChain takes a transaction scoped advisory lock on the chain so only one writer touches it
func lockChain(tx *gorm.DB, webhookID string) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", webhookID).Error; err != nil {
		return fmt.Errorf("failed to lock delivery chain: %w", err)
	}
	return nil
}

// BeginAttempt appends a pending row after checking it continues the chain
func (s *pgStore) BeginAttempt(ctx context.Context, input BeginAttemptInput) (*schema.DeliveryLog, error) {
	row := newPendingLog(input)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockChain(tx, input.WebhookID); err != nil {
			return err
		}

		var head schema.DeliveryLog
		err := tx.Where("webhook_id = ?", input.WebhookID).
			Order("attempt_number DESC").
			Limit(1).
			Take(&head).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get delivery chain head: %w", err)
		}

		var current *schema.DeliveryLog
		if err == nil {
			current = &head
		}
		if err := checkNextAttempt(current, input.AttemptNumber); err != nil {
			return err
		}

		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: event %s already has a chain for subscription %d",
					domain.ErrAttemptConflict, input.EventID, input.SubscriptionID)
			}
			return fmt.Errorf("failed to create delivery log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return row, nil
}

// CompleteAttempt moves a pending row to its final status
func (s *pgStore) CompleteAttempt(ctx context.Context, input CompleteAttemptInput) (*schema.DeliveryLog, error) {
	var row schema.DeliveryLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockChain(tx, input.WebhookID); err != nil {
			return err
		}

		err := tx.Where("webhook_id = ? AND attempt_number = ?", input.WebhookID, input.AttemptNumber).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s attempt %d", domain.ErrAttemptNotPending, input.WebhookID, input.AttemptNumber)
			}
			return fmt.Errorf("failed to get delivery log: %w", err)
		}
		if row.Status != schema.DeliveryStatusPending {
			return fmt.Errorf("%w: %s attempt %d is %s", domain.ErrAttemptNotPending, input.WebhookID, input.AttemptNumber, row.Status)
		}

		applyCompletion(&row, input)
		err = tx.Model(&schema.DeliveryLog{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"status":        row.Status,
				"http_status":   row.HTTPStatus,
				"error_message": row.ErrorMessage,
				"response_body": row.ResponseBody,
				"latency_ms":    row.LatencyMs,
				"completed_at":  row.CompletedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update delivery log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &row, nil
}

// ListDeliveryLogsBySubscription retrieves delivery logs for a subscription, oldest first
func (s *pgStore) ListDeliveryLogsBySubscription(ctx context.Context, subscriptionID uint64, limit int) ([]*schema.DeliveryLog, error) {
	var logs []*schema.DeliveryLog

	q := s.db.WithContext(ctx)
	if limit > 0 {
		recent := s.db.Model(&schema.DeliveryLog{}).
			Where("subscription_id = ?", subscriptionID).
			Order("timestamp DESC, id DESC").
			Limit(limit)
		q = q.Table("(?) AS recent", recent)
	} else {
		q = q.Model(&schema.DeliveryLog{}).Where("subscription_id = ?", subscriptionID)
	}

	if err := q.Order("timestamp ASC, id ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	return logs, nil
}

// ListDeliveryLogsByWebhookID retrieves one delivery chain ordered by attempt number
func (s *pgStore) ListDeliveryLogsByWebhookID(ctx context.Context, webhookID string) ([]*schema.DeliveryLog, error) {
	var logs []*schema.DeliveryLog
	err := s.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("attempt_number ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery chain: %w", err)
	}
	return logs, nil
}

// chainHeadsSQL selects the latest row of every chain
const chainHeadsSQL = `SELECT DISTINCT ON (webhook_id) * FROM delivery_logs ORDER BY webhook_id, attempt_number DESC`

// GetChainHeadsByEventID retrieves the latest row of every chain of an event
func (s *pgStore) GetChainHeadsByEventID(ctx context.Context, eventID string) ([]*schema.DeliveryLog, error) {
	var heads []*schema.DeliveryLog
	err := s.db.WithContext(ctx).Raw(
		`SELECT DISTINCT ON (webhook_id) * FROM delivery_logs
		WHERE event_id = ?
		ORDER BY webhook_id, attempt_number DESC`,
		eventID,
	).Scan(&heads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery chains of event: %w", err)
	}
	return heads, nil
}

// GetUnfinishedChainHeads retrieves the latest row of every chain that may still need an attempt
func (s *pgStore) GetUnfinishedChainHeads(ctx context.Context, maxAttempts int) ([]*schema.DeliveryLog, error) {
	var heads []*schema.DeliveryLog
	err := s.db.WithContext(ctx).Raw(
		`SELECT * FROM (`+chainHeadsSQL+`) AS heads
		WHERE heads.status = ? OR (heads.status = ? AND heads.attempt_number < ?)
		ORDER BY heads.timestamp ASC, heads.id ASC`,
		schema.DeliveryStatusPending, schema.DeliveryStatusFailed, maxAttempts,
	).Scan(&heads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get unfinished delivery chains: %w", err)
	}
	return heads, nil
}

// DeleteTerminalChainsBefore removes whole finished chains so no gaps are ever left behind
func (s *pgStore) DeleteTerminalChainsBefore(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error) {
	result := s.db.WithContext(ctx).Exec(
		`DELETE FROM delivery_logs WHERE webhook_id IN (
			SELECT heads.webhook_id FROM (`+chainHeadsSQL+`) AS heads
			WHERE heads.timestamp < ?
			AND (heads.status = ? OR (heads.status = ? AND heads.attempt_number >= ?))
		)`,
		cutoff, schema.DeliveryStatusSuccess, schema.DeliveryStatusFailed, maxAttempts,
	)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete delivery logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
