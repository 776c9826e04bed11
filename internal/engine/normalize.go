package engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type TokenKind string

const (
	TokenMonth   TokenKind = "month"
	TokenQuarter TokenKind = "quarter"
	TokenYear    TokenKind = "year"
)

// TemporalToken is one recognized temporal reference, in utterance order.
type TemporalToken struct {
	Kind  TokenKind
	Value int
}

// NormalizedQuery is the canonical lowercase form of an utterance plus its
// recognized temporal tokens.
type NormalizedQuery struct {
	Text   string
	Tokens []TemporalToken
}

var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may": 5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sept": 9, "sep": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

var quarterWords = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4, "final": 4,
}

var (
	whitespacePattern      = regexp.MustCompile(`\s+`)
	monthPattern           = regexp.MustCompile(`\b(january|february|march|april|june|july|august|september|october|november|december|jan|feb|mar|apr|may|jun|jul|aug|sept|sep|oct|nov|dec)\b`)
	quarterShortPattern    = regexp.MustCompile(`\bq([1-4])\b`)
	quarterWordPattern     = regexp.MustCompile(`\b(first|second|third|fourth|1st|2nd|3rd|4th|final)\s+quarter\b`)
	relativeQuarterPattern = regexp.MustCompile(`\b(last|previous)\s+quarter\b`)
	relativeYearPattern    = regexp.MustCompile(`\b(this|current|last|previous)\s+year\b`)
	yearPattern            = regexp.MustCompile(`\b(19[7-9]\d|20\d{2})\b`)
)

type positionedToken struct {
	pos   int
	token TemporalToken
}

// Normalize rewrites free text into the canonical form the rest of the
// pipeline pattern-matches. Purely textual and deterministic for a fixed
// clock value; it never touches the database.
func Normalize(raw string, now time.Time) NormalizedQuery {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = whitespacePattern.ReplaceAllString(text, " ")

	// Relative phrases are rewritten in place so the absolute patterns below
	// pick them up. "last quarter" resolves against the clock, same as
	// relative years; in Q1 it wraps to Q4 of the previous year.
	text = relativeQuarterPattern.ReplaceAllStringFunc(text, func(string) string {
		quarter := (int(now.Month())-1)/3 + 1
		year := now.Year()
		quarter--
		if quarter == 0 {
			quarter = 4
			year--
		}
		return "q" + strconv.Itoa(quarter) + " " + strconv.Itoa(year)
	})
	text = relativeYearPattern.ReplaceAllStringFunc(text, func(match string) string {
		year := now.Year()
		if strings.HasPrefix(match, "last") || strings.HasPrefix(match, "previous") {
			year--
		}
		return "year " + strconv.Itoa(year)
	})

	positioned := make([]positionedToken, 0, 4)

	for _, match := range monthPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[match[2]:match[3]]
		if value, ok := monthNames[name]; ok {
			positioned = append(positioned, positionedToken{pos: match[0], token: TemporalToken{Kind: TokenMonth, Value: value}})
		}
	}
	for _, match := range quarterShortPattern.FindAllStringSubmatchIndex(text, -1) {
		value, _ := strconv.Atoi(text[match[2]:match[3]])
		positioned = append(positioned, positionedToken{pos: match[0], token: TemporalToken{Kind: TokenQuarter, Value: value}})
	}
	for _, match := range quarterWordPattern.FindAllStringSubmatchIndex(text, -1) {
		word := text[match[2]:match[3]]
		if value, ok := quarterWords[word]; ok {
			positioned = append(positioned, positionedToken{pos: match[0], token: TemporalToken{Kind: TokenQuarter, Value: value}})
		}
	}
	for _, match := range yearPattern.FindAllStringSubmatchIndex(text, -1) {
		value, _ := strconv.Atoi(text[match[2]:match[3]])
		positioned = append(positioned, positionedToken{pos: match[0], token: TemporalToken{Kind: TokenYear, Value: value}})
	}

	sort.SliceStable(positioned, func(i, j int) bool { return positioned[i].pos < positioned[j].pos })

	tokens := make([]TemporalToken, 0, len(positioned))
	for _, item := range positioned {
		tokens = append(tokens, item.token)
	}

	return NormalizedQuery{Text: text, Tokens: tokens}
}
