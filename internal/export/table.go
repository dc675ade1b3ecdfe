package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/igrtec/partida-cli/internal/model"
)

const maxCommentWidth = 40

// WriteTable renders the run's detections as an aligned terminal table with
// a totals line at the bottom.
func WriteTable(out io.Writer, run *model.Run) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PARTIDA\tDESCRIPTION\tUNIT\tUNIT PRICE\tCOUNT\tTOTAL\tSCORE\tTIER\tFRAGMENT\tCOMMENT")

	var grand float64
	for _, d := range Rows(run) {
		comment := d.EvaluatedText
		if len(comment) > maxCommentWidth {
			comment = comment[:maxCommentWidth-3] + "..."
		}
		grand += d.Total()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%.2f\t%d\t%s\t%s\t%s\n",
			d.ItemID, d.Description, d.UnitOfMeasure, d.UnitPrice,
			d.Count, d.Total(), d.BestScore, d.Tier(), d.MatchedFragment, comment)
	}

	_, _ = fmt.Fprintf(w, "\t\t\t\t\t%.2f\t\t\t\t\n", grand)
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\n%d detections across %d comments (%s)\n",
		len(run.Detections), run.CommentCount, strings.ToUpper(string(run.Contract)))
	return nil
}
