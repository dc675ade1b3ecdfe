package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/igrtec/partida-cli/internal/model"
)

// XLSXOptions configures the workbook reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	// CommentsColumn names the header of the free-text column. Default
	// "comments" (case-insensitive comparison).
	CommentsColumn string
}

// ReadComments reads the comment column out of a daily-report workbook. The
// first row is the header; the comments column is located by name. Blank and
// missing cells come back as empty-string comments, never as errors.
func ReadComments(path string, opts XLSXOptions) ([]model.Comment, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	col, err := commentsColumn(sheet.Rows[0], opts)
	if err != nil {
		return nil, err
	}

	comments := make([]model.Comment, 0, len(sheet.Rows)-1)
	for i, row := range sheet.Rows[1:] {
		text := ""
		if col < len(row.Cells) {
			text = row.Cells[col].String()
		}
		comments = append(comments, model.Comment{Row: i + 2, Text: text})
	}

	return comments, nil
}

// ReadXLSX reads a sheet and returns all rows as string slices.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}

	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func commentsColumn(header *xlsx.Row, opts XLSXOptions) (int, error) {
	want := opts.CommentsColumn
	if want == "" {
		want = "comments"
	}

	for j, cell := range header.Cells {
		if strings.EqualFold(strings.TrimSpace(cell.String()), want) {
			return j, nil
		}
	}

	return 0, eris.Errorf("xlsx: column %q not found in header", want)
}
