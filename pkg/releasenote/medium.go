package releasenote

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fluxcd/promote/pkg/errors"
)

// Medium is a workbook-like store of named sheets, each a grid of
// text cells. It is where change records live between being produced
// and being applied, and where people review and edit them.
type Medium interface {
	// Sheets lists the sheet names, in order.
	Sheets() []string
	// Rows returns the rows of a sheet; rows may have differing
	// lengths. It is an error if the sheet doesn't exist.
	Rows(sheet string) ([][]string, error)
	// SetRows replaces the contents of a sheet, creating it if
	// necessary.
	SetRows(sheet string, rows [][]string) error
	// Save writes any changes out.
	Save() error
}

// Open opens the medium at path, choosing the implementation by the
// file extension. The file need not exist yet; it is created when
// saved.
func Open(path string) (Medium, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return OpenWorkbook(path)
	case ".csv":
		return OpenCSV(path)
	}
	unsupported := fmt.Errorf("unsupported format %q; use .xlsx or .csv", filepath.Ext(path))
	return nil, errors.IOError(unsupported, "release note %s", path)
}

func hasSheet(m Medium, sheet string) bool {
	for _, s := range m.Sheets() {
		if s == sheet {
			return true
		}
	}
	return false
}
