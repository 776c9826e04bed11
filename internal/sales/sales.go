package sales

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Tenant struct {
	TenantID  string
	Name      string
	Status    string
	CreatedAt time.Time
}

// TenantStats holds per-tenant descriptive statistics used to bias and
// validate SQL generation without re-querying metadata per request.
type TenantStats struct {
	TenantID     string
	CapturedAt   time.Time
	SalesRows    int64
	ProductRows  int64
	ResellerRows int64
	TopProducts  []string
	TopResellers []string
	MinYear      int
	MaxYear      int
}

func (s TenantStats) HasYearBounds() bool {
	return s.MinYear > 0 && s.MaxYear >= s.MinYear
}

// QueryResult is one well-formed result set from the fact store. Empty rows
// are a valid result, not a failure.
type QueryResult struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// QueryExecutor runs one read-only parameterized query against the tenant's
// fact table family. The SQL carries numbered placeholders; the caller is
// responsible for including the tenant-scoping predicate.
type QueryExecutor interface {
	Query(ctx context.Context, sqlText string, args ...any) (QueryResult, error)
}

// StatsReader computes fresh tenant statistics, scoped to one tenant.
type StatsReader interface {
	ReadTenantStats(ctx context.Context, tenantID string, topK int) (TenantStats, error)
}
