package constants

const (
	MAX_LOGS_LIMIT     = 1000
	DEFAULT_LOGS_LIMIT = 0 // all rows
	EVENT_TYPE_HEADER  = "X-Event-Type"
	MAX_INGEST_BYTES   = 1 << 20
)
