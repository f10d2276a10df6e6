package constants

// NATS Subjects
const (
	// Change feed of one location index. Format: geo.{index}.changes
	SubjectIndexChanges = "geo.%s.changes"

	// Transitions observed by a query session. Format: geo.query.{session_id}.{event}
	SubjectQueryEvent = "geo.query.%s.%s"
	// Wildcard matching every session event
	SubjectQueryEventAll = "geo.query.>"
)

// Operations carried on the index change feed
const (
	ChangeOpSet    = "set"
	ChangeOpDelete = "delete"
)
