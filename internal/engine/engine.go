package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ventia/ventia/internal/config"
	"github.com/ventia/ventia/internal/conversation"
	"github.com/ventia/ventia/internal/observability"
	"github.com/ventia/ventia/internal/sales"
)

const (
	greetingReply = `Hello! Ask me anything about your sales, for example "What are my total sales?" or "Who are my top 5 resellers?"`

	capabilityReply = "I can answer questions about your sales data: totals, top products, top resellers, trends over time, comparisons between entities, and averages."

	unsupportedReply = "I can only help with questions about your sales data. Try asking about totals, products, resellers, or time periods."

	failureReply = "I wasn't able to answer that right now. Please try again in a moment."
)

// Engine answers natural-language sales questions, one utterance per call.
// All shared state lives in the stats cache; everything else is per-request.
type Engine struct {
	executor     *Executor
	stats        *StatsCache
	convo        conversation.Log
	defaultLimit int
	logger       *slog.Logger
	clock        func() time.Time
}

func New(store sales.QueryExecutor, statsReader sales.StatsReader, convo conversation.Log, cfg config.EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		executor:     NewExecutor(store, cfg.QueryTimeout, logger),
		stats:        NewStatsCache(statsReader, cfg.StatsTTL, cfg.StatsTopK),
		convo:        convo,
		defaultLimit: cfg.DefaultResultLimit,
		logger:       logger,
		clock:        time.Now,
	}
}

// Stats exposes the shared tenant stats cache for the API's stats endpoint.
func (e *Engine) Stats() *StatsCache {
	return e.stats
}

// Answer runs the full pipeline for one utterance. Only an exhausted
// last-resort query or an invalid request surfaces as an error; every other
// failure is absorbed into the answer metadata.
func (e *Engine) Answer(ctx context.Context, utt Utterance) (Answer, error) {
	start := e.clock()
	if utt.TenantID == "" {
		return Answer{}, fmt.Errorf("tenant id is required")
	}
	if strings.TrimSpace(utt.Text) == "" {
		return Answer{}, fmt.Errorf("message text is required")
	}
	sessionID := utt.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	e.record(ctx, utt.TenantID, sessionID, conversation.RoleUser, utt.Text, "")

	norm := Normalize(utt.Text, e.clock())
	classification := Classify(norm, utt.Text)

	answer := Answer{SessionID: sessionID, Intent: classification.Intent}

	if reply, ok := cannedReply(classification.Intent); ok {
		answer.Success = classification.Intent != IntentUnsupported
		answer.Presentation = PresentationDirectAnswer
		answer.Reply = reply
		e.record(ctx, utt.TenantID, sessionID, conversation.RoleAssistant, reply, "")
		observability.ObserveChatAnswer(string(classification.Intent), 0, e.clock().Sub(start))
		return answer, nil
	}

	var statsEntry *sales.TenantStats
	if stats, err := e.stats.Get(ctx, utt.TenantID); err != nil {
		// Degraded mode: template-only candidates, context-aware skipped.
		e.logger.WarnContext(ctx, "tenant stats unavailable",
			slog.String("tenant_id", utt.TenantID),
			slog.Any("error", err),
		)
	} else {
		statsEntry = &stats
	}

	params := ExtractParameters(norm, utt.Text, entityVocabulary(statsEntry))
	candidates := GenerateCandidates(utt.TenantID, classification.Category, params, statsEntry, e.defaultLimit)
	candidates = ScoreCandidates(candidates, classification, params)

	result, err := e.executor.Run(ctx, utt.TenantID, candidates)
	answer.Category = classification.Category
	answer.Attempts = result.Attempts
	if err != nil {
		answer.Success = false
		answer.Reply = failureReply
		e.logger.ErrorContext(ctx, "answer pipeline failed",
			slog.String("tenant_id", utt.TenantID),
			slog.String("session_id", sessionID),
			slog.Int("attempts", result.Attempts),
			slog.Any("error", err),
		)
		e.record(ctx, utt.TenantID, sessionID, conversation.RoleAssistant, failureReply, "")
		observability.ObserveChatAnswer(string(classification.Intent), result.Attempts, e.clock().Sub(start))
		return answer, err
	}

	answer.Success = true
	answer.Presentation = ShapePresentation(classification.Category, utt.Text)
	if result.Winner != nil {
		answer.SQLExecuted = result.Winner.SQL
	}
	answer.Columns = result.Result.Columns
	answer.Rows = result.Result.Rows
	answer.Reply = formatReply(answer.Presentation, result.Result)

	e.record(ctx, utt.TenantID, sessionID, conversation.RoleAssistant, answer.Reply, answer.SQLExecuted)
	observability.ObserveChatAnswer(string(classification.Intent), result.Attempts, e.clock().Sub(start))
	return answer, nil
}

func cannedReply(intent Intent) (string, bool) {
	switch intent {
	case IntentGreeting:
		return greetingReply, true
	case IntentCapabilityQuestion:
		return capabilityReply, true
	case IntentUnsupported:
		return unsupportedReply, true
	default:
		return "", false
	}
}

func entityVocabulary(stats *sales.TenantStats) []string {
	if stats == nil {
		return nil
	}
	vocab := make([]string, 0, len(stats.TopProducts)+len(stats.TopResellers))
	vocab = append(vocab, stats.TopResellers...)
	vocab = append(vocab, stats.TopProducts...)
	return vocab
}

func formatReply(mode PresentationMode, result sales.QueryResult) string {
	if len(result.Rows) == 0 {
		return "I didn't find any matching data for that question."
	}
	if mode == PresentationDirectAnswer && len(result.Rows) == 1 && len(result.Columns) == 1 {
		return fmt.Sprintf("%s: %v", humanizeColumn(result.Columns[0]), result.Rows[0][0])
	}
	if len(result.Rows) == 1 {
		return "Here is what I found."
	}
	return fmt.Sprintf("Here is what I found (%d rows).", len(result.Rows))
}

func humanizeColumn(name string) string {
	cleaned := strings.ReplaceAll(name, "_", " ")
	if cleaned == "" {
		return "Result"
	}
	return strings.ToUpper(cleaned[:1]) + cleaned[1:]
}

// record appends to the conversation log best-effort; audit failures never
// fail the answer.
func (e *Engine) record(ctx context.Context, tenantID, sessionID string, role conversation.Role, text, sqlText string) {
	if e.convo == nil {
		return
	}
	_, err := e.convo.Append(ctx, conversation.Message{
		TenantID:  tenantID,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		SQL:       sqlText,
		CreatedAt: e.clock(),
	})
	if err != nil {
		e.logger.WarnContext(ctx, "conversation append failed",
			slog.String("tenant_id", tenantID),
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
}
