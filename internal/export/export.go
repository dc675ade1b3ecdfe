// Package export renders the detections of a completed run as CSV, XLSX or
// a terminal table.
package export

import (
	"sort"
	"strconv"

	"github.com/igrtec/partida-cli/internal/model"
)

// Format selects an output renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatTable, FormatCSV, FormatXLSX:
		return Format(s), true
	default:
		return "", false
	}
}

// columns defines the ordered output columns, shared by every renderer.
var columns = []string{
	"Partida",
	"Description",
	"Unit",
	"Unit Price",
	"Count",
	"Total",
	"Score",
	"Tier",
	"Matched Fragment",
	"Evaluated Comment",
}

// Rows flattens a run's detections into render order: best score first,
// item id as the tiebreak so output is stable across runs.
func Rows(run *model.Run) []model.Detection {
	rows := make([]model.Detection, 0, len(run.Detections))
	for _, d := range run.Detections {
		rows = append(rows, d)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BestScore != rows[j].BestScore {
			return rows[i].BestScore > rows[j].BestScore
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	return rows
}

func buildRow(d *model.Detection) []string {
	return []string{
		d.ItemID,
		d.Description,
		d.UnitOfMeasure,
		strconv.FormatFloat(d.UnitPrice, 'f', 2, 64),
		strconv.Itoa(d.Count),
		strconv.FormatFloat(d.Total(), 'f', 2, 64),
		strconv.Itoa(d.BestScore),
		d.Tier(),
		d.MatchedFragment,
		d.EvaluatedText,
	}
}
