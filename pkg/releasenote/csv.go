package releasenote

import (
	"encoding/csv"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluxcd/promote/pkg/errors"
)

// CSVFiles keeps each sheet in its own CSV file next to the path it
// was opened with: for `notes.csv`, sheet `sit` is `notes.sit.csv`.
type CSVFiles struct {
	dir    string
	prefix string
	sheets []string
	rows   map[string][][]string
	dirty  map[string]bool
}

func OpenCSV(path string) (*CSVFiles, error) {
	c := &CSVFiles{
		dir:    filepath.Dir(path),
		prefix: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".",
		rows:   map[string][][]string{},
		dirty:  map[string]bool{},
	}
	infos, err := ioutil.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, errors.IOError(err, "listing %s", c.dir)
	}
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, c.prefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		sheet := strings.TrimSuffix(strings.TrimPrefix(name, c.prefix), ".csv")
		if sheet != "" {
			c.sheets = append(c.sheets, sheet)
		}
	}
	return c, nil
}

func (c *CSVFiles) file(sheet string) string {
	return filepath.Join(c.dir, c.prefix+sheet+".csv")
}

func (c *CSVFiles) Sheets() []string {
	return append([]string(nil), c.sheets...)
}

func (c *CSVFiles) Rows(sheet string) ([][]string, error) {
	if rows, ok := c.rows[sheet]; ok {
		return rows, nil
	}
	if !hasSheet(c, sheet) {
		return nil, errors.IOError(os.ErrNotExist, "reading sheet %q (%s)", sheet, c.file(sheet))
	}
	f, err := os.Open(c.file(sheet))
	if err != nil {
		return nil, errors.IOError(err, "reading sheet %q", sheet)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.IOError(err, "reading %s", c.file(sheet))
	}
	c.rows[sheet] = rows
	return rows, nil
}

func (c *CSVFiles) SetRows(sheet string, rows [][]string) error {
	if !hasSheet(c, sheet) {
		c.sheets = append(c.sheets, sheet)
	}
	c.rows[sheet] = rows
	c.dirty[sheet] = true
	return nil
}

func (c *CSVFiles) Save() error {
	if len(c.dirty) == 0 {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return errors.IOError(err, "creating %s", c.dir)
	}
	for _, sheet := range c.sheets {
		if !c.dirty[sheet] {
			continue
		}
		if err := c.write(sheet); err != nil {
			return err
		}
		delete(c.dirty, sheet)
	}
	return nil
}

func (c *CSVFiles) write(sheet string) error {
	path := c.file(sheet)
	f, err := os.Create(path)
	if err != nil {
		return errors.IOError(err, "writing %s", path)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(c.rows[sheet]); err != nil {
		f.Close()
		return errors.IOError(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.IOError(err, "writing %s", path)
	}
	return nil
}
