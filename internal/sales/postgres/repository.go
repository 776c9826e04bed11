package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ventia/ventia/internal/sales"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping store db: %w", err)
	}
	return nil
}

func (r *Repository) GetTenant(ctx context.Context, tenantID string) (sales.Tenant, error) {
	query := `
SELECT tenant_id, name, status, created_at
FROM tenant
WHERE tenant_id = $1`

	var tenant sales.Tenant
	if err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&tenant.TenantID,
		&tenant.Name,
		&tenant.Status,
		&tenant.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sales.Tenant{}, sales.ErrNotFound
		}
		return sales.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}
	return tenant, nil
}

// Query executes a read-only parameterized statement and materializes the
// full result set. Column order follows the statement's select list.
func (r *Repository) Query(ctx context.Context, sqlText string, args ...any) (sales.QueryResult, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return sales.QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return sales.QueryResult{}, fmt.Errorf("read query columns: %w", err)
	}

	result := sales.QueryResult{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return sales.QueryResult{}, fmt.Errorf("scan query row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return sales.QueryResult{}, fmt.Errorf("iterate query rows: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// ReadTenantStats computes fresh descriptive statistics for one tenant. Every
// statement is tenant-scoped; a tenant with no sales rows yields zero counts
// and empty top lists rather than an error.
func (r *Repository) ReadTenantStats(ctx context.Context, tenantID string, topK int) (sales.TenantStats, error) {
	if topK <= 0 {
		topK = 5
	}

	stats := sales.TenantStats{TenantID: tenantID}

	countQuery := `
SELECT
    (SELECT COUNT(*) FROM sales_entries WHERE tenant_id = $1),
    (SELECT COUNT(*) FROM products WHERE tenant_id = $1),
    (SELECT COUNT(*) FROM resellers WHERE tenant_id = $1)`
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID).Scan(
		&stats.SalesRows,
		&stats.ProductRows,
		&stats.ResellerRows,
	); err != nil {
		return sales.TenantStats{}, fmt.Errorf("count tenant rows: %w", err)
	}

	yearQuery := `
SELECT COALESCE(MIN(sale_year), 0), COALESCE(MAX(sale_year), 0)
FROM sales_entries
WHERE tenant_id = $1`
	if err := r.db.QueryRowContext(ctx, yearQuery, tenantID).Scan(&stats.MinYear, &stats.MaxYear); err != nil {
		return sales.TenantStats{}, fmt.Errorf("read tenant year bounds: %w", err)
	}

	topProducts, err := r.topNames(ctx, tenantID, topK, `
SELECT functional_name
FROM sales_entries
WHERE tenant_id = $1
GROUP BY functional_name
ORDER BY SUM(gross_value) DESC
LIMIT $2`)
	if err != nil {
		return sales.TenantStats{}, fmt.Errorf("read top products: %w", err)
	}
	stats.TopProducts = topProducts

	topResellers, err := r.topNames(ctx, tenantID, topK, `
SELECT reseller_name
FROM sales_entries
WHERE tenant_id = $1
GROUP BY reseller_name
ORDER BY SUM(gross_value) DESC
LIMIT $2`)
	if err != nil {
		return sales.TenantStats{}, fmt.Errorf("read top resellers: %w", err)
	}
	stats.TopResellers = topResellers

	return stats, nil
}

func (r *Repository) topNames(ctx context.Context, tenantID string, topK int, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, tenantID, topK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0, topK)
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name.Valid && name.String != "" {
			names = append(names, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
