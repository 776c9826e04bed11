package conversation

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	MessageID string
	TenantID  string
	SessionID string
	Role      Role
	Text      string
	SQL       string
	CreatedAt time.Time
}

// Log is the conversation audit sink. The engine only appends; history reads
// serve the API's session endpoint.
type Log interface {
	Append(ctx context.Context, msg Message) (Message, error)
	ListSession(ctx context.Context, tenantID, sessionID string, limit int) ([]Message, error)
}
