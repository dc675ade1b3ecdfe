package model

// Confidence tiers derived from the best score. Presentation only; the
// matcher stores raw scores.
const (
	TierExact      = "exact"      // score 100, whole-word hit
	TierHigh       = "high"       // score >= 80
	TierAcceptable = "acceptable" // score >= 60
)

// Detection is the accumulated matching outcome for one catalog item across
// an entire batch of comments. Created lazily on the first qualifying match
// and updated in place by the matcher; descriptive fields and Contract are
// immutable after creation.
type Detection struct {
	ItemID        string  `json:"item_id"`
	Description   string  `json:"description"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	UnitPrice     float64 `json:"unit_price"`

	// Count increments once per qualifying match event. It never decreases
	// within a run.
	Count int `json:"count"`

	// BestScore, MatchedFragment and EvaluatedText form an atomic triple:
	// they are replaced together, and only when a new match strictly beats
	// the stored score.
	BestScore       int    `json:"best_score"`
	MatchedFragment string `json:"matched_fragment"`
	EvaluatedText   string `json:"evaluated_text"`

	Contract ContractInfo `json:"contract"`
}

// Total is the derived billing amount for the detection.
func (d *Detection) Total() float64 {
	return float64(d.Count) * d.UnitPrice
}

// Tier buckets BestScore for presentation. Callers only see detections that
// met the acceptance threshold, so every detection falls in a tier.
func (d *Detection) Tier() string {
	switch {
	case d.BestScore >= 100:
		return TierExact
	case d.BestScore >= 80:
		return TierHigh
	default:
		return TierAcceptable
	}
}
