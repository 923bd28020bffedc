package logg

// Canonical zap field names used across layers.
const (
	Layer     = "layer"
	Operation = "operation"
	TaskID    = "task_id"
	Action    = "action"
	Tool      = "tool"
	URL       = "url"
	Selector  = "selector"
	AIID      = "ai_id"
)
