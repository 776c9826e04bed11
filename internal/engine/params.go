package engine

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	limitPattern        = regexp.MustCompile(`\b(?:top|first|best|leading|limit)\s+(\d{1,3})\b`)
	capitalizedPattern  = regexp.MustCompile(`[A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*)*`)
	quarterLabelPattern = regexp.MustCompile(`^[Qq][1-4]$`)
	numericPattern      = regexp.MustCompile(`^\d+$`)
)

// phraseStopwords filters query vocabulary out of the capitalized-phrase
// entity heuristic. Month names are included so "Sales in June" does not
// produce a fragment.
var phraseStopwords = map[string]struct{}{
	"who": {}, "what": {}, "when": {}, "where": {}, "which": {}, "how": {},
	"show": {}, "list": {}, "give": {}, "tell": {}, "compare": {}, "versus": {},
	"vs": {}, "and": {}, "or": {}, "the": {}, "my": {}, "me": {}, "our": {},
	"in": {}, "for": {}, "of": {}, "by": {}, "per": {}, "are": {}, "is": {},
	"was": {}, "were": {}, "sales": {}, "sale": {}, "revenue": {}, "total": {},
	"top": {}, "best": {}, "first": {}, "last": {}, "this": {}, "average": {},
	"reseller": {}, "resellers": {}, "product": {}, "products": {}, "item": {},
	"items": {}, "customer": {}, "customers": {}, "client": {}, "clients": {},
	"much": {}, "many": {}, "please": {}, "hello": {}, "hi": {}, "hey": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {},
	"june": {}, "july": {}, "august": {}, "september": {}, "october": {},
	"november": {}, "december": {}, "quarter": {}, "year": {}, "month": {},
	"monthly": {}, "yearly": {}, "trend": {}, "trends": {},
}

// ExtractParameters pulls structured filters out of an utterance. Extraction
// never fails; anything unrecognized degrades to an unfiltered parameter.
// knownEntities (cached tenant top-K names) widen the entity search beyond
// the capitalized-phrase heuristic when available.
func ExtractParameters(norm NormalizedQuery, raw string, knownEntities []string) ParameterSet {
	var params ParameterSet

	for _, token := range norm.Tokens {
		switch token.Kind {
		case TokenYear:
			if params.Year == nil {
				value := token.Value
				params.Year = &value
			}
		case TokenMonth:
			if params.Month == nil {
				value := token.Value
				params.Month = &value
			}
		case TokenQuarter:
			if params.Quarter == nil {
				value := token.Value
				params.Quarter = &value
			}
		}
	}
	// Quarter and month are mutually exclusive; quarter wins.
	if params.Quarter != nil {
		params.Month = nil
	}

	if match := limitPattern.FindStringSubmatch(norm.Text); match != nil {
		if value, err := strconv.Atoi(match[1]); err == nil && value > 0 {
			params.Limit = &value
		}
	}

	params.EntityFragments = extractEntityFragments(raw, knownEntities)
	return params
}

func extractEntityFragments(raw string, knownEntities []string) []string {
	type positioned struct {
		pos  int
		name string
	}
	found := make([]positioned, 0, 2)
	seen := map[string]struct{}{}

	lowerRaw := strings.ToLower(raw)
	for _, name := range knownEntities {
		lowerName := strings.ToLower(name)
		if lowerName == "" {
			continue
		}
		if pos := strings.Index(lowerRaw, lowerName); pos >= 0 {
			if _, dup := seen[lowerName]; !dup {
				seen[lowerName] = struct{}{}
				found = append(found, positioned{pos: pos, name: name})
			}
		}
	}

	for _, match := range capitalizedPattern.FindAllStringIndex(raw, -1) {
		phrase := trimStopwords(raw[match[0]:match[1]])
		if phrase == "" {
			continue
		}
		key := strings.ToLower(phrase)
		if _, dup := seen[key]; dup {
			continue
		}
		covered := false
		for existing := range seen {
			if strings.Contains(existing, key) || strings.Contains(key, existing) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		seen[key] = struct{}{}
		found = append(found, positioned{pos: match[0], name: phrase})
	}

	for i := 0; i < len(found); i++ {
		for j := i + 1; j < len(found); j++ {
			if found[j].pos < found[i].pos {
				found[i], found[j] = found[j], found[i]
			}
		}
	}

	fragments := make([]string, 0, len(found))
	for _, item := range found {
		fragments = append(fragments, item.name)
	}
	return fragments
}

func trimStopwords(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 && isPhraseStopword(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && isPhraseStopword(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isPhraseStopword(word string) bool {
	if quarterLabelPattern.MatchString(word) || numericPattern.MatchString(word) {
		return true
	}
	_, ok := phraseStopwords[strings.ToLower(word)]
	return ok
}
