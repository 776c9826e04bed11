package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ventia/ventia/internal/sales"
)

const defaultResultLimit = 10

// tenantPredicate is mandatory in every candidate regardless of strategy;
// the executor refuses anything without it.
const tenantPredicate = "tenant_id = $1"

type generatorInput struct {
	tenantID     string
	category     Category
	params       ParameterSet
	stats        *sales.TenantStats
	defaultLimit int
}

type strategyFunc func(generatorInput) (Candidate, bool)

// generationStrategies is the strategy table. Order here is the emission
// order; ranking happens later in the scorer.
var generationStrategies = []struct {
	strategy Strategy
	build    strategyFunc
}{
	{StrategyContextAware, buildContextAware},
	{StrategyIntentTemplate, buildIntentTemplate},
	{StrategyTemplateVariation, buildTemplateVariation},
}

// GenerateCandidates produces 1-3 distinct SQL candidates for a data query.
// Every candidate is parameterized and tenant-scoped. A fallback category
// produces exactly one unconditional aggregate. defaultLimit bounds ranked
// results when the utterance names no limit; zero selects the builtin.
func GenerateCandidates(tenantID string, category Category, params ParameterSet, stats *sales.TenantStats, defaultLimit int) []Candidate {
	input := generatorInput{tenantID: tenantID, category: category, params: params, stats: stats, defaultLimit: defaultLimit}

	if category == CategoryFallback {
		candidate := fallbackAggregate(tenantID)
		candidate.Params = params
		return []Candidate{candidate}
	}

	candidates := make([]Candidate, 0, len(generationStrategies))
	seen := map[string]struct{}{}
	for _, entry := range generationStrategies {
		candidate, ok := entry.build(input)
		if !ok {
			continue
		}
		candidate.Strategy = entry.strategy
		key := candidate.SQL + "|" + fmt.Sprint(candidate.Args...)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		candidate := fallbackAggregate(tenantID)
		candidate.Params = params
		candidates = append(candidates, candidate)
	}
	return candidates
}

func fallbackAggregate(tenantID string) Candidate {
	return Candidate{
		SQL:      "SELECT COALESCE(SUM(gross_value), 0) AS total_sales FROM sales_entries WHERE " + tenantPredicate,
		Args:     []any{tenantID},
		Strategy: StrategyIntentTemplate,
	}
}

// sqlBuilder assigns numbered placeholders in argument order.
type sqlBuilder struct {
	args []any
}

func newSQLBuilder(tenantID string) *sqlBuilder {
	return &sqlBuilder{args: []any{tenantID}}
}

func (b *sqlBuilder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) timePredicates(params ParameterSet) []string {
	predicates := make([]string, 0, 2)
	if params.Year != nil {
		predicates = append(predicates, "sale_year = "+b.bind(*params.Year))
	}
	switch {
	case params.Quarter != nil:
		firstMonth := (*params.Quarter-1)*3 + 1
		predicates = append(predicates, "sale_month BETWEEN "+b.bind(firstMonth)+" AND "+b.bind(firstMonth+2))
	case params.Month != nil:
		predicates = append(predicates, "sale_month = "+b.bind(*params.Month))
	}
	return predicates
}

func whereClause(predicates []string) string {
	return "WHERE " + strings.Join(append([]string{tenantPredicate}, predicates...), " AND ")
}

func (in generatorInput) resultLimit(params ParameterSet) int {
	if params.Limit != nil && *params.Limit > 0 {
		return *params.Limit
	}
	if in.defaultLimit > 0 {
		return in.defaultLimit
	}
	return defaultResultLimit
}

func buildIntentTemplate(in generatorInput) (Candidate, bool) {
	candidate, ok := buildTemplate(in, in.params)
	if !ok {
		return Candidate{}, false
	}
	candidate.Params = in.params
	return candidate, true
}

// buildContextAware emits the intent template shape with schema-cache-derived
// bounds: year filters clamped to the tenant's observed range and entity
// fragments validated against the cached top names. Skipped entirely when
// stats are unavailable (degraded mode after a refresh failure).
func buildContextAware(in generatorInput) (Candidate, bool) {
	if in.stats == nil {
		return Candidate{}, false
	}

	params := in.params
	if params.Year != nil && in.stats.HasYearBounds() {
		year := *params.Year
		if year < in.stats.MinYear {
			year = in.stats.MinYear
		}
		if year > in.stats.MaxYear {
			year = in.stats.MaxYear
		}
		params.Year = &year
	}
	params.EntityFragments = validateFragments(in.params.EntityFragments, knownNamesFor(in.category, in.stats))

	candidate, ok := buildTemplate(in, params)
	if !ok {
		return Candidate{}, false
	}
	candidate.Params = params
	return candidate, true
}

func knownNamesFor(category Category, stats *sales.TenantStats) []string {
	if category == CategoryProductAnalysis {
		return stats.TopProducts
	}
	return append(append([]string{}, stats.TopResellers...), stats.TopProducts...)
}

// validateFragments keeps fragments confirmed by the tenant's known names,
// replacing each with the canonical stored name so equality filters work.
func validateFragments(fragments, known []string) []string {
	validated := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		lowerFragment := strings.ToLower(fragment)
		for _, name := range known {
			lowerName := strings.ToLower(name)
			if strings.Contains(lowerName, lowerFragment) || strings.Contains(lowerFragment, lowerName) {
				validated = append(validated, name)
				break
			}
		}
	}
	return validated
}

func buildTemplate(in generatorInput, params ParameterSet) (Candidate, bool) {
	b := newSQLBuilder(in.tenantID)
	predicates := b.timePredicates(params)

	var sqlText string
	switch in.category {
	case CategoryTotal:
		sqlText = "SELECT COALESCE(SUM(gross_value), 0) AS total_sales FROM sales_entries " + whereClause(predicates)
	case CategoryAverageMetric:
		sqlText = "SELECT COALESCE(AVG(gross_value), 0) AS average_sale FROM sales_entries " + whereClause(predicates)
	case CategoryProductAnalysis:
		if fragment, ok := firstFragment(params); ok {
			predicates = append(predicates, "functional_name ILIKE "+b.bind("%"+fragment+"%"))
		}
		sqlText = "SELECT functional_name, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY functional_name ORDER BY total_revenue DESC LIMIT " + b.bind(in.resultLimit(params))
	case CategoryResellerAnalysis:
		if fragment, ok := firstFragment(params); ok {
			predicates = append(predicates, "reseller_name ILIKE "+b.bind("%"+fragment+"%"))
		}
		sqlText = "SELECT reseller_name, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY reseller_name ORDER BY total_revenue DESC LIMIT " + b.bind(in.resultLimit(params))
	case CategoryTimeAnalysis:
		sqlText = "SELECT sale_year, sale_month, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY sale_year, sale_month ORDER BY sale_year ASC, sale_month ASC"
	case CategoryComparison:
		if len(params.EntityFragments) >= 2 {
			first := b.bind("%" + params.EntityFragments[0] + "%")
			second := b.bind("%" + params.EntityFragments[1] + "%")
			predicates = append(predicates, "(reseller_name ILIKE "+first+" OR reseller_name ILIKE "+second+")")
		}
		sqlText = "SELECT reseller_name, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY reseller_name ORDER BY total_revenue DESC LIMIT " + b.bind(in.resultLimit(params))
	default:
		return Candidate{}, false
	}

	return Candidate{SQL: sqlText, Args: b.args}, true
}

// buildTemplateVariation emits a business-phrased alternative grouping meant
// to diversify results when the primary template under-answers.
func buildTemplateVariation(in generatorInput) (Candidate, bool) {
	b := newSQLBuilder(in.tenantID)
	predicates := b.timePredicates(in.params)

	var sqlText string
	switch in.category {
	case CategoryTotal:
		sqlText = "SELECT sale_year, SUM(gross_value) AS total_sales FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY sale_year ORDER BY sale_year ASC"
	case CategoryAverageMetric:
		sqlText = "SELECT sale_year, sale_month, AVG(gross_value) AS average_sale FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY sale_year, sale_month ORDER BY sale_year ASC, sale_month ASC"
	case CategoryProductAnalysis:
		sqlText = "SELECT functional_name, sale_month, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY functional_name, sale_month ORDER BY total_revenue DESC LIMIT " + b.bind(in.resultLimit(in.params))
	case CategoryResellerAnalysis:
		sqlText = "SELECT reseller_name, SUM(quantity) AS total_units, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY reseller_name ORDER BY total_units DESC LIMIT " + b.bind(in.resultLimit(in.params))
	case CategoryTimeAnalysis:
		sqlText = "SELECT sale_year, ((sale_month - 1) / 3) + 1 AS sale_quarter, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY sale_year, ((sale_month - 1) / 3) + 1 ORDER BY sale_year ASC, sale_quarter ASC"
	case CategoryComparison:
		if len(in.params.EntityFragments) < 2 {
			return Candidate{}, false
		}
		first := b.bind("%" + in.params.EntityFragments[0] + "%")
		second := b.bind("%" + in.params.EntityFragments[1] + "%")
		predicates = append(predicates, "(reseller_name ILIKE "+first+" OR reseller_name ILIKE "+second+")")
		sqlText = "SELECT reseller_name, sale_year, sale_month, SUM(gross_value) AS total_revenue FROM sales_entries " +
			whereClause(predicates) +
			" GROUP BY reseller_name, sale_year, sale_month ORDER BY sale_year ASC, sale_month ASC"
	default:
		return Candidate{}, false
	}

	return Candidate{SQL: sqlText, Args: b.args, Params: in.params}, true
}

func firstFragment(params ParameterSet) (string, bool) {
	if len(params.EntityFragments) == 0 {
		return "", false
	}
	return params.EntityFragments[0], true
}
