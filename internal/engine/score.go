package engine

import "sort"

const (
	keywordClassBonus   = 0.05
	keywordBonusCap     = 0.15
	unusedParamsPenalty = 0.1
	weakFallbackPenalty = 0.15
	confidenceFloor     = 0.0
	confidenceCeiling   = 1.0
)

func strategyBaseWeight(s Strategy) float64 {
	switch s {
	case StrategyContextAware:
		return 0.8
	case StrategyIntentTemplate:
		return 0.7
	case StrategyTemplateVariation:
		return 0.6
	default:
		return 0.5
	}
}

// ScoreCandidates assigns confidence to each candidate and orders the slice
// by descending confidence, ties broken by static strategy priority.
func ScoreCandidates(candidates []Candidate, classification Classification, extracted ParameterSet) []Candidate {
	for i := range candidates {
		candidates[i].Confidence = scoreCandidate(candidates[i], classification, extracted)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return strategyPriority(candidates[i].Strategy) > strategyPriority(candidates[j].Strategy)
	})
	return candidates
}

func scoreCandidate(candidate Candidate, classification Classification, extracted ParameterSet) float64 {
	score := strategyBaseWeight(candidate.Strategy)

	bonus := float64(len(classification.MatchedClasses)) * keywordClassBonus
	if bonus > keywordBonusCap {
		bonus = keywordBonusCap
	}
	score += bonus

	// The utterance offered filters the candidate did not use.
	if candidate.Params.Empty() && !extracted.Empty() {
		score -= unusedParamsPenalty
	}

	// A fallback answer to something that looked like a real data question
	// should rank below any more specific candidate.
	if classification.Category == CategoryFallback && classification.DataVocabulary {
		score -= weakFallbackPenalty
	}

	if score < confidenceFloor {
		return confidenceFloor
	}
	if score > confidenceCeiling {
		return confidenceCeiling
	}
	return score
}
