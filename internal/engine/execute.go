package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ventia/ventia/internal/observability"
	"github.com/ventia/ventia/internal/sales"
)

// lastResortSQL is the executor's own safety net, distinct from the fallback
// category's generated candidate: it runs only after every candidate failed
// and is not itself retried.
const lastResortSQL = "SELECT COALESCE(SUM(gross_value), 0) AS total_sales FROM sales_entries WHERE " + tenantPredicate

// Executor runs candidates in descending confidence order against the
// tenant-scoped store, stopping at the first success.
type Executor struct {
	store   sales.QueryExecutor
	timeout time.Duration
	logger  *slog.Logger
}

func NewExecutor(store sales.QueryExecutor, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: store, timeout: timeout, logger: logger}
}

// Run tries each candidate in order. A well-formed empty result set is
// success. Timeouts and store errors are ordinary candidate failures; the
// next candidate is tried. Cancellation stops further attempts. When every
// candidate fails, one last-resort aggregate runs; its failure is terminal.
func (x *Executor) Run(ctx context.Context, tenantID string, candidates []Candidate) (ExecutionResult, error) {
	attempts := 0

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return ExecutionResult{Attempts: attempts}, fmt.Errorf("execution cancelled: %w", err)
		}
		candidate := candidates[i]

		if !strings.Contains(candidate.SQL, tenantPredicate) {
			// A candidate without the tenant predicate must never reach the
			// store; treat it as a failed attempt.
			attempts++
			x.logger.ErrorContext(ctx, "rejected unscoped candidate",
				slog.String("tenant_id", tenantID),
				slog.String("strategy", string(candidate.Strategy)),
			)
			continue
		}

		attempts++
		result, err := x.query(ctx, candidate.SQL, candidate.Args)
		if err != nil {
			observability.IncrementCandidateFailure(string(candidate.Strategy))
			x.logger.WarnContext(ctx, "candidate execution failed",
				slog.String("tenant_id", tenantID),
				slog.String("strategy", string(candidate.Strategy)),
				slog.Int("attempt", attempts),
				slog.Any("error", err),
			)
			continue
		}
		return ExecutionResult{Success: true, Result: result, Winner: &candidates[i], Attempts: attempts}, nil
	}

	if err := ctx.Err(); err != nil {
		return ExecutionResult{Attempts: attempts}, fmt.Errorf("execution cancelled: %w", err)
	}

	attempts++
	observability.IncrementLastResort()
	result, err := x.query(ctx, lastResortSQL, []any{tenantID})
	if err != nil {
		return ExecutionResult{Attempts: attempts}, fmt.Errorf("%w: %v", ErrExhaustedFallback, err)
	}

	winner := Candidate{SQL: lastResortSQL, Args: []any{tenantID}, Strategy: StrategyIntentTemplate}
	return ExecutionResult{Success: true, Result: result, Winner: &winner, Attempts: attempts}, nil
}

func (x *Executor) query(ctx context.Context, sqlText string, args []any) (sales.QueryResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	return x.store.Query(queryCtx, sqlText, args...)
}
