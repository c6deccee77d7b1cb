package releasenote

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/errors"
)

const defaultSheet = "Sheet1"

// Workbook is an .xlsx file with one worksheet per environment.
type Workbook struct {
	path string
	file *excelize.File
	// a new workbook starts with a placeholder sheet, removed once
	// there's another
	placeholder bool
}

func OpenWorkbook(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Workbook{path: path, file: excelize.NewFile(), placeholder: true}, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.IOError(err, "opening workbook %s", path)
	}
	return &Workbook{path: path, file: f}, nil
}

func (w *Workbook) Sheets() []string {
	if w.placeholder {
		return nil
	}
	return w.file.GetSheetList()
}

func (w *Workbook) Rows(sheet string) ([][]string, error) {
	if !hasSheet(w, sheet) {
		return nil, errors.IOError(os.ErrNotExist, "reading sheet %q of %s", sheet, w.path)
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, errors.IOError(err, "reading sheet %q of %s", sheet, w.path)
	}
	return rows, nil
}

func (w *Workbook) SetRows(sheet string, rows [][]string) error {
	var previous [][]string
	switch {
	case w.placeholder:
		w.file.SetSheetName(defaultSheet, sheet)
		w.placeholder = false
	case hasSheet(w, sheet):
		var err error
		if previous, err = w.file.GetRows(sheet); err != nil {
			return errors.IOError(err, "reading sheet %q of %s", sheet, w.path)
		}
	default:
		w.file.NewSheet(sheet)
	}

	width := len(headers)
	for _, grid := range [][][]string{previous, rows} {
		for _, row := range grid {
			if len(row) > width {
				width = len(row)
			}
		}
	}
	for i := 0; i < len(rows) || i < len(previous); i++ {
		cells := make([]interface{}, width)
		for j := range cells {
			cells[j] = ""
		}
		if i < len(rows) {
			for j, v := range rows[i] {
				cells[j] = v
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.IOError(err, "writing sheet %q of %s", sheet, w.path)
		}
		if err := w.file.SetSheetRow(sheet, axis, &cells); err != nil {
			return errors.IOError(err, "writing sheet %q of %s", sheet, w.path)
		}
	}
	return w.decorate(sheet, len(rows))
}

// decorate makes the header bold, widens the columns, and offers the
// known change requests as a drop-down.
func (w *Workbook) decorate(sheet string, nrows int) error {
	bold, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.IOError(err, "styling sheet %q of %s", sheet, w.path)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := w.file.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return errors.IOError(err, "styling sheet %q of %s", sheet, w.path)
	}
	if err := w.file.SetColWidth(sheet, "A", "C", 24); err != nil {
		return errors.IOError(err, "styling sheet %q of %s", sheet, w.path)
	}
	if err := w.file.SetColWidth(sheet, "D", "E", 48); err != nil {
		return errors.IOError(err, "styling sheet %q of %s", sheet, w.path)
	}
	if nrows > 1 {
		last, _ := excelize.CoordinatesToCellName(2, nrows)
		dv := excelize.NewDataValidation(true)
		dv.Sqref = "B2:" + last
		dv.SetDropList([]string{string(changeset.Add), string(changeset.Modify), string(changeset.Delete)})
		w.file.AddDataValidation(sheet, dv)
	}
	return nil
}

func (w *Workbook) Save() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return errors.IOError(err, "creating %s", filepath.Dir(w.path))
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return errors.IOError(err, "saving workbook %s", w.path)
	}
	return nil
}
