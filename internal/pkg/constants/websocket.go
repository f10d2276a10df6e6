package constants

// WebSocket event types
const (
	// Common events
	EventError = "error"
	EventPing  = "ping"
	EventPong  = "pong"

	// Query events, server to client
	EventKeyEntered = "key_entered"
	EventKeyExited  = "key_exited"
	EventKeyMoved   = "key_moved"
	EventKeyChanged = "key_changed"
	EventQueryReady = "query_ready"
	EventQueryError = "query_error"

	// Client to server
	EventSetRegion = "set_region"
)

// WebSocket error codes
const (
	ErrorInvalidFormat    = "invalid_format"
	ErrorValidationFailed = "validation_failed"
	ErrorInternalError    = "internal_error"
	ErrorInvalidLocation  = "invalid_location"
)
