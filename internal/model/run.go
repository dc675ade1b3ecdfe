package model

import "time"

// Run records the outcome of one validation batch for the run-history store.
// The engine itself holds no state between batches; a Run is a snapshot taken
// after the batch completes.
type Run struct {
	ID           string               `json:"id"`
	Contract     ContractKey          `json:"contract"`
	Info         ContractInfo         `json:"info"`
	Detections   map[string]Detection `json:"detections"`
	CommentCount int                  `json:"comment_count"`
	ItemCount    int                  `json:"item_count"`
	CreatedAt    time.Time            `json:"created_at"`
}

// DetectionCount returns the number of catalog items with at least one match.
func (r *Run) DetectionCount() int {
	return len(r.Detections)
}
