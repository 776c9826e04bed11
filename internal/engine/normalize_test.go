package engine

import (
	"testing"
	"time"
)

var normalizeClock = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

func TestNormalizeLowercasesAndCollapsesWhitespace(t *testing.T) {
	got := Normalize("  What   ARE my\tSales?  ", normalizeClock)
	if got.Text != "what are my sales?" {
		t.Fatalf("Text = %q", got.Text)
	}
	if len(got.Tokens) != 0 {
		t.Fatalf("Tokens = %v", got.Tokens)
	}
}

func TestNormalizeRecognizesMonths(t *testing.T) {
	cases := []struct {
		in    string
		month int
	}{
		{"sales in January", 1},
		{"sales in jan 2024", 1},
		{"revenue for September", 9},
		{"revenue for sept", 9},
		{"december numbers", 12},
	}
	for _, tc := range cases {
		got := Normalize(tc.in, normalizeClock)
		found := false
		for _, token := range got.Tokens {
			if token.Kind == TokenMonth && token.Value == tc.month {
				found = true
			}
		}
		if !found {
			t.Fatalf("Normalize(%q) tokens = %v, want month %d", tc.in, got.Tokens, tc.month)
		}
	}
}

func TestNormalizeRecognizesQuarters(t *testing.T) {
	cases := []struct {
		in      string
		quarter int
	}{
		{"Sales in Q3 2024", 3},
		{"first quarter revenue", 1},
		{"the 3rd quarter", 3},
		{"final quarter results", 4},
	}
	for _, tc := range cases {
		got := Normalize(tc.in, normalizeClock)
		found := false
		for _, token := range got.Tokens {
			if token.Kind == TokenQuarter && token.Value == tc.quarter {
				found = true
			}
		}
		if !found {
			t.Fatalf("Normalize(%q) tokens = %v, want quarter %d", tc.in, got.Tokens, tc.quarter)
		}
	}
}

func TestNormalizeResolvesRelativeYears(t *testing.T) {
	got := Normalize("sales this year", normalizeClock)
	if len(got.Tokens) != 1 || got.Tokens[0].Kind != TokenYear || got.Tokens[0].Value != 2024 {
		t.Fatalf("Tokens = %v", got.Tokens)
	}

	got = Normalize("sales last year", normalizeClock)
	if len(got.Tokens) != 1 || got.Tokens[0].Value != 2023 {
		t.Fatalf("Tokens = %v", got.Tokens)
	}
}

func TestNormalizeResolvesRelativeQuarters(t *testing.T) {
	got := Normalize("last quarter performance", normalizeClock)
	if len(got.Tokens) != 2 {
		t.Fatalf("Tokens = %v", got.Tokens)
	}
	if got.Tokens[0].Kind != TokenQuarter || got.Tokens[0].Value != 3 {
		t.Fatalf("Tokens[0] = %v, want Q3", got.Tokens[0])
	}
	if got.Tokens[1].Kind != TokenYear || got.Tokens[1].Value != 2024 {
		t.Fatalf("Tokens[1] = %v, want year 2024", got.Tokens[1])
	}

	february := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	got = Normalize("previous quarter revenue", february)
	if len(got.Tokens) != 2 {
		t.Fatalf("Tokens = %v", got.Tokens)
	}
	if got.Tokens[0].Kind != TokenQuarter || got.Tokens[0].Value != 4 {
		t.Fatalf("Tokens[0] = %v, want Q4", got.Tokens[0])
	}
	if got.Tokens[1].Kind != TokenYear || got.Tokens[1].Value != 2024 {
		t.Fatalf("Tokens[1] = %v, want year 2024", got.Tokens[1])
	}
}

func TestNormalizeOrdersTokensByPosition(t *testing.T) {
	got := Normalize("Sales in Q3 2024", normalizeClock)
	if len(got.Tokens) != 2 {
		t.Fatalf("Tokens = %v", got.Tokens)
	}
	if got.Tokens[0].Kind != TokenQuarter || got.Tokens[0].Value != 3 {
		t.Fatalf("Tokens[0] = %v", got.Tokens[0])
	}
	if got.Tokens[1].Kind != TokenYear || got.Tokens[1].Value != 2024 {
		t.Fatalf("Tokens[1] = %v", got.Tokens[1])
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	first := Normalize("Sales in Q3 2024 for June", normalizeClock)
	second := Normalize("Sales in Q3 2024 for June", normalizeClock)
	if first.Text != second.Text || len(first.Tokens) != len(second.Tokens) {
		t.Fatalf("Normalize is not deterministic: %v vs %v", first, second)
	}
}
