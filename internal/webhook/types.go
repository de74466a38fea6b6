package webhook

// Headers set on every outbound delivery
const (
	HeaderContentType = "Content-Type"
	HeaderUserAgent   = "User-Agent"

	// HeaderWebhookID carries the delivery chain id, stable across retries
	HeaderWebhookID = "X-Webhook-ID"
	// HeaderEventID carries the id of the event that produced the chain
	HeaderEventID = "X-Webhook-Event-ID"
	// HeaderEventType carries the event type the subscription matched on
	HeaderEventType = "X-Webhook-Event-Type"
	// HeaderAttempt is the 1-based attempt number
	HeaderAttempt = "X-Webhook-Attempt"
	// HeaderTimestamp is the Unix time the attempt started. It is covered by HeaderSignatureV2 only.
	HeaderTimestamp = "X-Webhook-Timestamp"
	// HeaderSignature signs the raw body. Only present when the subscription has a secret.
	HeaderSignature = "X-Webhook-Signature"
	// HeaderSignatureV2 signs "{timestamp}.{event_id}.{body}" so receivers can reject replays.
	// Only present when the subscription has a secret.
	HeaderSignatureV2 = "X-Webhook-Signature-V2"
)

const (
	// ContentTypeJSON is the content type of every delivery body
	ContentTypeJSON = "application/json"
	// DefaultUserAgent identifies the dispatcher to receivers
	DefaultUserAgent = "ff-webhook-dispatcher/1.0"
	// MaxResponseBodyBytes bounds how much of a receiver response is read and kept
	MaxResponseBodyBytes = 4096
)
