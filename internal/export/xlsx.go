package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/igrtec/partida-cli/internal/model"
)

// WriteXLSX renders the run's detections as a single-sheet workbook.
func WriteXLSX(path string, run *model.Run) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Detections")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}

	for _, d := range Rows(run) {
		row := sheet.AddRow()
		row.AddCell().SetString(d.ItemID)
		row.AddCell().SetString(d.Description)
		row.AddCell().SetString(d.UnitOfMeasure)
		row.AddCell().SetFloat(d.UnitPrice)
		row.AddCell().SetInt(d.Count)
		row.AddCell().SetFloat(d.Total())
		row.AddCell().SetInt(d.BestScore)
		row.AddCell().SetString(d.Tier())
		row.AddCell().SetString(d.MatchedFragment)
		row.AddCell().SetString(d.EvaluatedText)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}
