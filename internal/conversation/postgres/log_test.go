package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/ventia/ventia/internal/conversation"
)

func TestAppendAssignsMessageID(t *testing.T) {
	db, mock := newSQLMock(t)
	log := NewLog(db)
	log.clock = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO conversation_messages (message_id, tenant_id, session_id, role, text, sql, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`)).
		WithArgs(sqlmock.AnyArg(), "tenant-1", "session-1", "user", "What are my total sales?", nil, time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg, err := log.Append(context.Background(), conversation.Message{
		TenantID:  "tenant-1",
		SessionID: "session-1",
		Role:      conversation.RoleUser,
		Text:      "What are my total sales?",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if msg.MessageID == "" {
		t.Fatal("MessageID should be assigned")
	}
	assertSQLMock(t, mock)
}

func TestAppendStoresSQLWhenPresent(t *testing.T) {
	db, mock := newSQLMock(t)
	log := NewLog(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO conversation_messages`)).
		WithArgs(sqlmock.AnyArg(), "tenant-1", "session-1", "assistant", "Here are the results.", "SELECT 1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := log.Append(context.Background(), conversation.Message{
		TenantID:  "tenant-1",
		SessionID: "session-1",
		Role:      conversation.RoleAssistant,
		Text:      "Here are the results.",
		SQL:       "SELECT 1",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestAppendRequiresTenantAndSession(t *testing.T) {
	db, _ := newSQLMock(t)
	log := NewLog(db)

	if _, err := log.Append(context.Background(), conversation.Message{SessionID: "s"}); err == nil {
		t.Fatal("expected error for missing tenant")
	}
	if _, err := log.Append(context.Background(), conversation.Message{TenantID: "t"}); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestListSession(t *testing.T) {
	db, mock := newSQLMock(t)
	log := NewLog(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT message_id, tenant_id, session_id, role, text, COALESCE(sql, ''), created_at
FROM conversation_messages
WHERE tenant_id = $1 AND session_id = $2
ORDER BY created_at ASC
LIMIT $3`)).
		WithArgs("tenant-1", "session-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "tenant_id", "session_id", "role", "text", "sql", "created_at"}).
			AddRow("m1", "tenant-1", "session-1", "user", "hello", "", now).
			AddRow("m2", "tenant-1", "session-1", "assistant", "Hi!", "", now))

	messages, err := log.ListSession(context.Background(), "tenant-1", "session-1", 0)
	if err != nil {
		t.Fatalf("ListSession() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d", len(messages))
	}
	if messages[1].Role != conversation.RoleAssistant {
		t.Fatalf("Role = %q", messages[1].Role)
	}
	assertSQLMock(t, mock)
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
