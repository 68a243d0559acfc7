package model

// MatchCandidate pairs a case with its similarity to the query
type MatchCandidate struct {
	Case  Case    `json:"case"`
	Score float64 `json:"score"` // 0..1
}

// Band is the presentation-only confidence bucket derived from a score
type Band string

const (
	BandHigh     Band = "high"
	BandModerate Band = "moderate"
	BandLow      Band = "low"
)

// BandFor buckets a score with the default cut points
func BandFor(score float64) Band {
	return BandWith(score, DefaultConfig().Thresholds)
}

// BandWith buckets a score with the configured cut points
func BandWith(score float64, t Thresholds) Band {
	switch {
	case score >= t.BandHigh:
		return BandHigh
	case score >= t.BandModerate:
		return BandModerate
	default:
		return BandLow
	}
}

// Tier records which resolver tier produced a canonical symptom
type Tier string

const (
	TierExact       Tier = "exact"       // every word of a table key appears in the fragment
	TierFuzzy       Tier = "fuzzy"       // character-ratio match against a table key
	TierSemantic    Tier = "semantic"    // blended match against a known library symptom
	TierPassthrough Tier = "passthrough" // novel symptom, fragment kept as is
)

// Resolution is the outcome of mapping one fragment to a canonical symptom
type Resolution struct {
	Input     string  `json:"input"`
	Canonical string  `json:"canonical"`
	Tier      Tier    `json:"tier"`
	Score     float64 `json:"score"`
	Key       string  `json:"key,omitempty"` // table key or library symptom that matched
}

// Signal carries a transparent scoring breakdown
type Signal struct {
	Type        SignalType             `json:"type"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalFuzzyJaccard SignalType = "fuzzy_jaccard"
	SignalAcceptance   SignalType = "acceptance"
)
