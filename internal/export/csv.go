package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/igrtec/partida-cli/internal/model"
)

// WriteCSV renders the run's detections as CSV with a header row.
func WriteCSV(out io.Writer, run *model.Run) error {
	w := csv.NewWriter(out)

	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, d := range Rows(run) {
		if err := w.Write(buildRow(&d)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", d.ItemID)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}
