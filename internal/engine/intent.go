package engine

import (
	"strings"
)

// Classification is the classifier's verdict for one utterance. The
// classifier is total: every input string maps to exactly one outcome.
type Classification struct {
	Intent         Intent
	Category       Category
	MatchedClasses []string
	DataVocabulary bool
}

var (
	greetingWords = []string{
		"hello", "hi", "hey", "howdy", "good morning", "good afternoon",
		"good evening", "thanks", "thank you", "bye", "goodbye",
	}
	capabilityPhrases = []string{
		"what can you do", "what can you tell", "can you help", "how do you work",
		"what do you know", "capabilities", "what kind of questions", "help me get started",
	}
	analysisVerbs = []string{
		"top", "best", "who", "which", "most", "highest", "biggest", "largest",
		"show", "list", "rank", "ranking", "worst", "lowest", "leading",
		"perform", "performance", "performed", "analyze", "analysis", "breakdown",
	}
	resellerWords = []string{
		"reseller", "resellers", "customer", "customers", "client", "clients",
		"buyer", "buyers", "partner", "partners",
	}
	productWords = []string{
		"product", "products", "item", "items", "sku", "skus", "article",
		"articles", "functional name",
	}
	comparisonWords = []string{"vs", "versus", "compare", "compared", "comparison", "against"}
	temporalWords   = []string{
		"trend", "trends", "monthly", "quarterly", "yearly", "over time",
		"by month", "by year", "per month", "per quarter", "season", "seasonal",
	}
	averageWords = []string{"average", "avg", "mean", "per sale", "typical"}
	totalWords   = []string{
		"total", "how much", "revenue", "sales", "sum", "overall", "turnover",
		"income", "earned", "gross",
	}
	genericDataWords = []string{"data", "numbers", "figures", "report", "stats", "statistics"}
)

type intentRule struct {
	class    string
	match    func(c classifierInput) bool
	intent   Intent
	category Category
}

type classifierInput struct {
	norm      NormalizedQuery
	raw       string
	words     map[string]struct{}
	fragments []string
}

// intentRules is evaluated strictly in order; the first matching rule wins.
// The reseller rule sits above the product rule on purpose: reseller-style
// questions also satisfy the looser product keyword bag, and the ordering is
// what guarantees they resolve to reseller_analysis.
var intentRules = []intentRule{
	{
		class: "greeting",
		match: func(c classifierInput) bool {
			return wordCount(c.norm.Text) <= 4 && matchesAny(c, greetingWords)
		},
		intent: IntentGreeting,
	},
	{
		class: "capability",
		match: func(c classifierInput) bool {
			return containsAnyPhrase(c.norm.Text, capabilityPhrases)
		},
		intent: IntentCapabilityQuestion,
	},
	{
		class: "reseller",
		match: func(c classifierInput) bool {
			return matchesAny(c, resellerWords) && matchesAny(c, analysisVerbs)
		},
		intent:   IntentDataQuery,
		category: CategoryResellerAnalysis,
	},
	{
		class: "product",
		match: func(c classifierInput) bool {
			return matchesAny(c, productWords) && matchesAny(c, analysisVerbs)
		},
		intent:   IntentDataQuery,
		category: CategoryProductAnalysis,
	},
	{
		class: "comparison",
		match: func(c classifierInput) bool {
			return matchesAny(c, comparisonWords) || len(c.fragments) >= 2
		},
		intent:   IntentDataQuery,
		category: CategoryComparison,
	},
	{
		class: "temporal",
		match: func(c classifierInput) bool {
			return len(c.norm.Tokens) > 0 || matchesAny(c, temporalWords)
		},
		intent:   IntentDataQuery,
		category: CategoryTimeAnalysis,
	},
	{
		class: "average",
		match: func(c classifierInput) bool {
			return matchesAny(c, averageWords)
		},
		intent:   IntentDataQuery,
		category: CategoryAverageMetric,
	},
	{
		class: "total",
		match: func(c classifierInput) bool {
			return matchesAny(c, totalWords)
		},
		intent:   IntentDataQuery,
		category: CategoryTotal,
	},
	{
		class: "data",
		match: func(c classifierInput) bool {
			return hasDataVocabulary(c)
		},
		intent:   IntentDataQuery,
		category: CategoryFallback,
	},
}

// Classify assigns an intent (and category for data queries) to an
// utterance. It never fails; anything not data-shaped is unsupported.
func Classify(norm NormalizedQuery, raw string) Classification {
	input := classifierInput{
		norm:      norm,
		raw:       raw,
		words:     wordSet(norm.Text),
		fragments: extractEntityFragments(raw, nil),
	}

	result := Classification{
		Intent:         IntentUnsupported,
		DataVocabulary: hasDataVocabulary(input),
	}
	for _, rule := range intentRules {
		if rule.match(input) {
			result.Intent = rule.intent
			result.Category = rule.category
			break
		}
	}
	if result.Intent == IntentDataQuery {
		result.MatchedClasses = matchedKeywordClasses(input)
	}
	return result
}

func matchedKeywordClasses(c classifierInput) []string {
	classes := make([]string, 0, 4)
	if matchesAny(c, resellerWords) {
		classes = append(classes, "reseller")
	}
	if matchesAny(c, productWords) {
		classes = append(classes, "product")
	}
	if matchesAny(c, comparisonWords) {
		classes = append(classes, "comparison")
	}
	if len(c.norm.Tokens) > 0 || matchesAny(c, temporalWords) {
		classes = append(classes, "temporal")
	}
	if matchesAny(c, averageWords) {
		classes = append(classes, "average")
	}
	if matchesAny(c, totalWords) {
		classes = append(classes, "total")
	}
	if matchesAny(c, analysisVerbs) {
		classes = append(classes, "analysis")
	}
	return classes
}

func hasDataVocabulary(c classifierInput) bool {
	return matchesAny(c, resellerWords) ||
		matchesAny(c, productWords) ||
		matchesAny(c, temporalWords) ||
		matchesAny(c, averageWords) ||
		matchesAny(c, totalWords) ||
		matchesAny(c, genericDataWords) ||
		len(c.norm.Tokens) > 0
}

func matchesAny(c classifierInput, bag []string) bool {
	for _, entry := range bag {
		if strings.ContainsRune(entry, ' ') {
			if strings.Contains(c.norm.Text, entry) {
				return true
			}
			continue
		}
		if _, ok := c.words[entry]; ok {
			return true
		}
	}
	return false
}

func containsAnyPhrase(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func wordSet(text string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		words[word] = struct{}{}
	}
	return words
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
