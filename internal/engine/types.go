package engine

import (
	"errors"

	"github.com/ventia/ventia/internal/sales"
)

// ErrExhaustedFallback reports that every generated candidate and the final
// last-resort aggregate failed against the store.
var ErrExhaustedFallback = errors.New("all candidates and the last-resort query failed")

// Utterance is one raw user message, scoped to a tenant and session.
type Utterance struct {
	TenantID  string
	SessionID string
	Text      string
}

type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentCapabilityQuestion Intent = "capability_question"
	IntentDataQuery          Intent = "data_query"
	IntentUnsupported        Intent = "unsupported"
)

type Category string

const (
	CategoryTotal            Category = "total"
	CategoryProductAnalysis  Category = "product_analysis"
	CategoryResellerAnalysis Category = "reseller_analysis"
	CategoryTimeAnalysis     Category = "time_analysis"
	CategoryComparison       Category = "comparison"
	CategoryAverageMetric    Category = "average_metric"
	CategoryFallback         Category = "fallback"
)

type Strategy string

const (
	StrategyIntentTemplate    Strategy = "intent_template"
	StrategyContextAware      Strategy = "context_aware"
	StrategyTemplateVariation Strategy = "template_variation"
)

// strategyPriority breaks confidence ties; higher wins.
func strategyPriority(s Strategy) int {
	switch s {
	case StrategyContextAware:
		return 3
	case StrategyIntentTemplate:
		return 2
	case StrategyTemplateVariation:
		return 1
	default:
		return 0
	}
}

// ParameterSet carries the structured filters recognized in an utterance.
// Nil pointers mean "unfiltered". Month and Quarter are mutually exclusive;
// Quarter wins when both are inferred.
type ParameterSet struct {
	Year            *int
	Month           *int
	Quarter         *int
	Limit           *int
	EntityFragments []string
}

func (p ParameterSet) Empty() bool {
	return p.Year == nil && p.Month == nil && p.Quarter == nil && p.Limit == nil && len(p.EntityFragments) == 0
}

// Candidate is one generated SQL proposal, bound to a strategy and the
// parameters it was built with.
type Candidate struct {
	SQL        string
	Args       []any
	Strategy   Strategy
	Params     ParameterSet
	Confidence float64
}

type PresentationMode string

const (
	PresentationDirectAnswer PresentationMode = "direct_answer"
	PresentationShowTable    PresentationMode = "show_table"
)

// ExecutionResult is the outcome of running the candidate sequence.
type ExecutionResult struct {
	Success  bool
	Result   sales.QueryResult
	Winner   *Candidate
	Attempts int
}

// Answer is the engine's reply to one utterance.
type Answer struct {
	Success      bool             `json:"success"`
	SessionID    string           `json:"session_id"`
	Intent       Intent           `json:"intent"`
	Category     Category         `json:"category,omitempty"`
	Presentation PresentationMode `json:"presentation_mode,omitempty"`
	SQLExecuted  string           `json:"sql_executed,omitempty"`
	Columns      []string         `json:"columns,omitempty"`
	Rows         [][]any          `json:"rows,omitempty"`
	Attempts     int              `json:"attempts"`
	Reply        string           `json:"answer"`
}
