package engine

import "strings"

var directAnswerPhrases = []string{
	"how many",
	"how much",
	"what is the total",
	"what are my total",
	"what were my total",
}

// ShapePresentation picks a presentation mode from the classified category
// and the original phrasing. It never re-classifies the utterance.
func ShapePresentation(category Category, rawText string) PresentationMode {
	switch category {
	case CategoryProductAnalysis, CategoryResellerAnalysis, CategoryTimeAnalysis, CategoryComparison:
		return PresentationShowTable
	}

	lowered := strings.ToLower(rawText)
	for _, phrase := range directAnswerPhrases {
		if strings.Contains(lowered, phrase) {
			return PresentationDirectAnswer
		}
	}

	if len(strings.Fields(rawText)) > 4 {
		return PresentationShowTable
	}
	return PresentationDirectAnswer
}
