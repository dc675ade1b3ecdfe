package model

// CatalogItem is one billable contract line item ("partida") together with
// the keyword vocabulary used to detect it in field comments. Items are
// read-only inputs for the duration of a run.
type CatalogItem struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	UnitPrice     float64 `json:"unit_price"`
	// RawKeywords is the source comma-separated phrase list as delivered by
	// the catalog API. The matcher works on its normalized derivation.
	RawKeywords string `json:"raw_keywords"`
}

// Comment is one free-text remark from an input row.
type Comment struct {
	// Row is the 1-based source row, kept for traceability in logs.
	Row  int    `json:"row"`
	Text string `json:"text"`
}
