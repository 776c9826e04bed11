package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ventia/ventia/internal/conversation"
)

type Log struct {
	db    *sql.DB
	clock func() time.Time
}

func NewLog(db *sql.DB) *Log {
	return &Log{db: db, clock: time.Now}
}

func (l *Log) Append(ctx context.Context, msg conversation.Message) (conversation.Message, error) {
	if msg.TenantID == "" {
		return conversation.Message{}, fmt.Errorf("tenant id is required")
	}
	if msg.SessionID == "" {
		return conversation.Message{}, fmt.Errorf("session id is required")
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = l.clock().UTC()
	}

	var sqlText any
	if msg.SQL != "" {
		sqlText = msg.SQL
	}

	query := `
INSERT INTO conversation_messages (message_id, tenant_id, session_id, role, text, sql, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := l.db.ExecContext(ctx, query,
		msg.MessageID, msg.TenantID, msg.SessionID, string(msg.Role), msg.Text, sqlText, msg.CreatedAt,
	); err != nil {
		return conversation.Message{}, fmt.Errorf("append conversation message: %w", err)
	}
	return msg, nil
}

func (l *Log) ListSession(ctx context.Context, tenantID, sessionID string, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT message_id, tenant_id, session_id, role, text, COALESCE(sql, ''), created_at
FROM conversation_messages
WHERE tenant_id = $1 AND session_id = $2
ORDER BY created_at ASC
LIMIT $3`
	rows, err := l.db.QueryContext(ctx, query, tenantID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	messages := make([]conversation.Message, 0)
	for rows.Next() {
		var msg conversation.Message
		var role string
		if err := rows.Scan(&msg.MessageID, &msg.TenantID, &msg.SessionID, &role, &msg.Text, &msg.SQL, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation message: %w", err)
		}
		msg.Role = conversation.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation messages: %w", err)
	}
	return messages, nil
}
