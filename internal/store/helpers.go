package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-webhook-dispatcher/internal/domain"
	"github.com/feral-file/ff-webhook-dispatcher/internal/store/schema"
)

// newSubscription validates the input and builds the row to insert
func newSubscription(input CreateSubscriptionInput, now time.Time) (*schema.Subscription, error) {
	if err := domain.ValidateTargetURL(input.TargetURL); err != nil {
		return nil, err
	}
	eventTypes, err := domain.NormalizeEventTypes(input.EventTypes)
	if err != nil {
		return nil, err
	}

	var secret *string
	if input.SecretKey != nil && *input.SecretKey != "" {
		s := *input.SecretKey
		secret = &s
	}

	return &schema.Subscription{
		TargetURL:  strings.TrimSpace(input.TargetURL),
		SecretKey:  secret,
		EventTypes: datatypes.JSONSlice[string](eventTypes),
		IsActive:   input.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// newPendingLog builds the pending row for an attempt
func newPendingLog(input BeginAttemptInput) *schema.DeliveryLog {
	payload := make([]byte, len(input.Payload))
	copy(payload, input.Payload)

	return &schema.DeliveryLog{
		SubscriptionID: input.SubscriptionID,
		WebhookID:      input.WebhookID,
		AttemptNumber:  input.AttemptNumber,
		EventID:        input.EventID,
		EventType:      input.EventType,
		TargetURL:      input.TargetURL,
		Payload:        datatypes.JSON(payload),
		Status:         schema.DeliveryStatusPending,
		Timestamp:      input.Timestamp,
	}
}

// checkNextAttempt enforces the chain invariants for a new attempt given the current head (nil if none):
// numbering is 1..k without gaps, only a failed head may be followed.
func checkNextAttempt(head *schema.DeliveryLog, attemptNumber int) error {
	if head == nil {
		if attemptNumber != 1 {
			return fmt.Errorf("%w: chain has no attempts, got attempt %d", domain.ErrAttemptConflict, attemptNumber)
		}
		return nil
	}

	if head.Status != schema.DeliveryStatusFailed {
		return fmt.Errorf("%w: latest attempt %d is %s", domain.ErrAttemptConflict, head.AttemptNumber, head.Status)
	}
	if attemptNumber != head.AttemptNumber+1 {
		return fmt.Errorf("%w: expected attempt %d, got %d", domain.ErrAttemptConflict, head.AttemptNumber+1, attemptNumber)
	}
	return nil
}

// applyCompletion copies the outcome of an attempt onto a pending row
func applyCompletion(row *schema.DeliveryLog, input CompleteAttemptInput) {
	row.Status = input.Status
	row.HTTPStatus = input.HTTPStatus
	row.ResponseBody = input.ResponseBody
	row.LatencyMs = input.LatencyMs

	if input.ErrorMessage != nil {
		msg := *input.ErrorMessage
		if len(msg) > maxErrorMessageLength {
			// Cut on a rune boundary: text columns reject invalid UTF-8
			msg = strings.ToValidUTF8(msg[:maxErrorMessageLength], "")
		}
		row.ErrorMessage = &msg
	} else {
		row.ErrorMessage = nil
	}

	completedAt := input.CompletedAt
	row.CompletedAt = &completedAt
}

// isTerminalHead reports whether a chain whose latest row is head can never get another attempt
func isTerminalHead(head *schema.DeliveryLog, maxAttempts int) bool {
	switch head.Status {
	case schema.DeliveryStatusSuccess:
		return true
	case schema.DeliveryStatusFailed:
		return head.AttemptNumber >= maxAttempts
	default:
		return false
	}
}
