package domain

import (
	"net/url"
	"slices"
	"strings"
)

const (
	// MaxEventTypeLength bounds a single event type name
	MaxEventTypeLength = 255
	// MaxTargetURLLength bounds a subscription target URL
	MaxTargetURLLength = 2048
)

// ValidateTargetURL checks that raw is an absolute http(s) URL with a host
func ValidateTargetURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewValidationError("target_url", "is required")
	}
	if len(raw) > MaxTargetURLLength {
		return NewValidationError("target_url", "is too long")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return NewValidationError("target_url", "is not a valid URL")
	}
	if !u.IsAbs() || u.Host == "" {
		return NewValidationError("target_url", "must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("target_url", "scheme must be http or https")
	}
	if u.User != nil {
		return NewValidationError("target_url", "must not embed credentials")
	}

	return nil
}

// NormalizeEventTypes trims and de-duplicates event types, keeping first-seen order.
// An empty result is valid: it is an explicit filter that matches nothing.
func NormalizeEventTypes(eventTypes []string) ([]string, error) {
	normalized := make([]string, 0, len(eventTypes))
	for _, et := range eventTypes {
		et = strings.TrimSpace(et)
		if et == "" {
			return nil, NewValidationError("event_types", "must not contain blank entries")
		}
		if len(et) > MaxEventTypeLength {
			return nil, NewValidationError("event_types", "entry is too long")
		}
		if slices.Contains(normalized, et) {
			continue
		}
		normalized = append(normalized, et)
	}
	return normalized, nil
}

// MatchesEventType is the matcher rule: exact set membership, no wildcards
func MatchesEventType(eventTypes []string, eventType string) bool {
	if eventType == "" {
		return false
	}
	return slices.Contains(eventTypes, eventType)
}
