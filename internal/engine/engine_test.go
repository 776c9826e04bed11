package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ventia/ventia/internal/config"
	"github.com/ventia/ventia/internal/conversation"
	"github.com/ventia/ventia/internal/sales"
)

type failingQueryExecutor struct {
	calls int
}

func (f *failingQueryExecutor) Query(ctx context.Context, sqlText string, args ...any) (sales.QueryResult, error) {
	f.calls++
	return sales.QueryResult{}, errors.New("store unavailable")
}

type memoryConversationLog struct {
	messages []conversation.Message
}

func (m *memoryConversationLog) Append(_ context.Context, msg conversation.Message) (conversation.Message, error) {
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memoryConversationLog) ListSession(_ context.Context, tenantID, sessionID string, _ int) ([]conversation.Message, error) {
	out := make([]conversation.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.TenantID == tenantID && msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		StatsTTL:     5 * time.Minute,
		StatsTopK:    5,
		QueryTimeout: time.Second,
	}
}

func newTestEngine(store sales.QueryExecutor, reader sales.StatsReader, convo conversation.Log) *Engine {
	return New(store, reader, convo, testEngineConfig(), nil)
}

func TestAnswerGreetingSkipsStore(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{}}
	e := newTestEngine(store, reader, nil)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "Hello there"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Intent != IntentGreeting {
		t.Fatalf("Intent = %q", answer.Intent)
	}
	if !answer.Success {
		t.Fatal("greeting should succeed")
	}
	if answer.Attempts != 0 {
		t.Fatalf("Attempts = %d, want 0", answer.Attempts)
	}
	if len(store.calls) != 0 {
		t.Fatalf("store calls = %d, want 0", len(store.calls))
	}
	if reader.callCount() != 0 {
		t.Fatal("greeting should not refresh stats")
	}
}

func TestAnswerTotalSales(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": *testStats()}}
	convo := &memoryConversationLog{}
	e := newTestEngine(store, reader, convo)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "What are my total sales?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !answer.Success {
		t.Fatal("expected success")
	}
	if answer.Intent != IntentDataQuery || answer.Category != CategoryTotal {
		t.Fatalf("classification = %q/%q", answer.Intent, answer.Category)
	}
	if answer.Presentation != PresentationDirectAnswer {
		t.Fatalf("Presentation = %q", answer.Presentation)
	}
	if !strings.Contains(answer.SQLExecuted, "tenant_id = $1") {
		t.Fatalf("executed SQL is not tenant scoped: %q", answer.SQLExecuted)
	}
	if answer.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", answer.Attempts)
	}
	if !strings.Contains(answer.Reply, "Total sales") {
		t.Fatalf("Reply = %q", answer.Reply)
	}
}

func TestAnswerTopResellers(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": *testStats()}}
	e := newTestEngine(store, reader, nil)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "Who are my top 5 resellers?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Category != CategoryResellerAnalysis {
		t.Fatalf("Category = %q", answer.Category)
	}
	if answer.Presentation != PresentationShowTable {
		t.Fatalf("Presentation = %q", answer.Presentation)
	}
	if !strings.Contains(answer.SQLExecuted, "reseller_name") {
		t.Fatalf("executed SQL does not group resellers: %q", answer.SQLExecuted)
	}
}

func TestAnswerAssignsSessionID(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{}}
	e := newTestEngine(store, reader, nil)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "hi"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.SessionID == "" {
		t.Fatal("expected generated session id")
	}

	answer, err = e.Answer(context.Background(), Utterance{TenantID: "tenant-1", SessionID: "s-1", Text: "hi"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.SessionID != "s-1" {
		t.Fatalf("SessionID = %q, want s-1", answer.SessionID)
	}
}

func TestAnswerRecordsConversation(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": *testStats()}}
	convo := &memoryConversationLog{}
	e := newTestEngine(store, reader, convo)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", SessionID: "s-1", Text: "What are my total sales?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(convo.messages) != 2 {
		t.Fatalf("logged messages = %d, want 2", len(convo.messages))
	}
	if convo.messages[0].Role != conversation.RoleUser {
		t.Fatalf("first role = %q", convo.messages[0].Role)
	}
	if convo.messages[1].Role != conversation.RoleAssistant {
		t.Fatalf("second role = %q", convo.messages[1].Role)
	}
	if convo.messages[1].SQL != answer.SQLExecuted {
		t.Fatalf("assistant SQL = %q, want %q", convo.messages[1].SQL, answer.SQLExecuted)
	}
}

func TestAnswerUsesConfiguredResultLimit(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": *testStats()}}
	cfg := testEngineConfig()
	cfg.DefaultResultLimit = 25
	e := New(store, reader, nil, cfg, nil)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "Who are my top resellers?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(answer.SQLExecuted, "LIMIT") {
		t.Fatalf("executed SQL has no limit: %q", answer.SQLExecuted)
	}
	if len(store.argCalls) == 0 {
		t.Fatal("store was never queried")
	}
	args := store.argCalls[0]
	if args[len(args)-1] != 25 {
		t.Fatalf("bound args = %v, want limit 25", args)
	}
}

func TestAnswerDegradesWithoutStats(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{err: errors.New("stats query failed")}
	e := newTestEngine(store, reader, nil)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "What are my total sales?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !answer.Success {
		t.Fatal("expected degraded request to still succeed")
	}
}

func TestAnswerExhaustedFallbackPropagates(t *testing.T) {
	store := &failingQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": *testStats()}}
	e := newTestEngine(store, reader, nil)

	answer, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "What are my total sales?"})
	if !errors.Is(err, ErrExhaustedFallback) {
		t.Fatalf("expected ErrExhaustedFallback, got %v", err)
	}
	if answer.Success {
		t.Fatal("expected failure")
	}
	if answer.Reply != failureReply {
		t.Fatalf("Reply = %q", answer.Reply)
	}
	if answer.Attempts != store.calls {
		t.Fatalf("Attempts = %d, store calls = %d", answer.Attempts, store.calls)
	}
}

func TestAnswerIsIdempotentWhileCacheIsWarm(t *testing.T) {
	store := &fakeQueryExecutor{}
	reader := &fakeStatsReader{stats: map[string]sales.TenantStats{"tenant-1": *testStats()}}
	e := newTestEngine(store, reader, nil)

	utt := Utterance{TenantID: "tenant-1", SessionID: "s-1", Text: "Who are my top 5 resellers in 2024?"}
	first, err := e.Answer(context.Background(), utt)
	if err != nil {
		t.Fatalf("first Answer() error = %v", err)
	}
	second, err := e.Answer(context.Background(), utt)
	if err != nil {
		t.Fatalf("second Answer() error = %v", err)
	}
	if first.Category != second.Category {
		t.Fatalf("categories differ: %q vs %q", first.Category, second.Category)
	}
	if first.Presentation != second.Presentation {
		t.Fatalf("presentation differs: %q vs %q", first.Presentation, second.Presentation)
	}
	if first.SQLExecuted != second.SQLExecuted {
		t.Fatalf("executed SQL differs:\n%q\n%q", first.SQLExecuted, second.SQLExecuted)
	}
	if reader.callCount() != 1 {
		t.Fatalf("stats reads = %d, want 1", reader.callCount())
	}
}

func TestAnswerValidatesInput(t *testing.T) {
	e := newTestEngine(&fakeQueryExecutor{}, &fakeStatsReader{}, nil)

	if _, err := e.Answer(context.Background(), Utterance{Text: "hi"}); err == nil {
		t.Fatal("expected error for missing tenant")
	}
	if _, err := e.Answer(context.Background(), Utterance{TenantID: "tenant-1", Text: "  "}); err == nil {
		t.Fatal("expected error for empty text")
	}
}
