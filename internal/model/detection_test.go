package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectionTotal(t *testing.T) {
	d := Detection{Count: 3, UnitPrice: 125.50}
	assert.InDelta(t, 376.50, d.Total(), 0.001)

	d = Detection{Count: 1, UnitPrice: 0}
	assert.Zero(t, d.Total())
}

func TestDetectionTier(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  string
	}{
		{"exact", 100, TierExact},
		{"high upper", 99, TierHigh},
		{"high lower", 80, TierHigh},
		{"acceptable upper", 79, TierAcceptable},
		{"acceptable lower", 60, TierAcceptable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detection{BestScore: tt.score}
			assert.Equal(t, tt.want, d.Tier())
		})
	}
}

func TestRunDetectionCount(t *testing.T) {
	r := Run{Detections: map[string]Detection{
		"P-100": {ItemID: "P-100"},
		"P-200": {ItemID: "P-200"},
	}}
	assert.Equal(t, 2, r.DetectionCount())

	empty := Run{}
	assert.Zero(t, empty.DetectionCount())
}
