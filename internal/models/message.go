package models

// Role classifies who authored a message. It is a closed set: "system" is
// synthesized at invocation time by the context window builder and is never
// persisted as a row.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)
