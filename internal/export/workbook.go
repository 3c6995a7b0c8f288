// Package export writes session results: the subject's multi-sheet workbook
// and flat CSV/JSON renderings of each result table for the archive.
package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"cogbattery/pkg/domain"

	"github.com/m-mizutani/goerr/v2"
	"github.com/xuri/excelize/v2"
)

// ErrOutputExists is returned when the subject's workbook is already on disk.
var ErrOutputExists = errors.New("output file already exists")

const maxSheetName = 31

// PathFor returns <dataDir>/<sub_num>_<condition>.xlsx.
func PathFor(dataDir string, subject domain.Subject) string {
	return filepath.Join(dataDir, subject.FileStem()+".xlsx")
}

// CheckAvailable fails with ErrOutputExists if path is taken.
func CheckAvailable(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return goerr.Wrap(ErrOutputExists, "refusing to overwrite workbook", goerr.V("path", path))
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return goerr.Wrap(err, "failed to stat workbook", goerr.V("path", path))
	}
}

// Workbook is the subject's output spreadsheet. Every mutation is saved
// straight away so completed tasks survive a later crash or abort.
type Workbook struct {
	path   string
	f      *excelize.File
	header int
	sheets []string
}

// Create starts a new workbook at path with the subject's info sheet and
// saves it. It refuses to overwrite an existing file.
func Create(path string, subject domain.Subject) (*Workbook, error) {
	if err := CheckAvailable(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("path", path))
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, goerr.Wrap(err, "failed to create header style")
	}
	w := &Workbook{path: path, f: f, header: header}

	info := subject.InfoTable()
	if err := f.SetSheetName(f.GetSheetName(0), info.Name); err != nil {
		_ = f.Close()
		return nil, goerr.Wrap(err, "failed to name info sheet")
	}
	if err := w.writeTable(info.Name, info); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.sheets = append(w.sheets, info.Name)
	if err := w.save(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// AddResult appends one sheet per table of r and saves.
func (w *Workbook) AddResult(r domain.TaskResult) error {
	for _, t := range r.Tables() {
		name := w.uniqueName(t.Name)
		if _, err := w.f.NewSheet(name); err != nil {
			return goerr.Wrap(err, "failed to add sheet", goerr.V("sheet", name))
		}
		if err := w.writeTable(name, t); err != nil {
			return err
		}
		w.sheets = append(w.sheets, name)
	}
	return w.save()
}

// Sheets returns the sheet names in the order they were written.
func (w *Workbook) Sheets() []string { return append([]string(nil), w.sheets...) }

// Path returns the file location.
func (w *Workbook) Path() string { return w.path }

// Bytes renders the current workbook for archiving.
func (w *Workbook) Bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render workbook")
	}
	return buf.Bytes(), nil
}

// Close releases the workbook. It does not save.
func (w *Workbook) Close() error { return w.f.Close() }

func (w *Workbook) save() error {
	if err := w.f.SaveAs(w.path); err != nil {
		return goerr.Wrap(err, "failed to save workbook", goerr.V("path", w.path))
	}
	return nil
}

func (w *Workbook) writeTable(sheet string, t domain.Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return goerr.Wrap(err, "failed to write header", goerr.V("sheet", sheet))
	}
	if len(t.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return goerr.Wrap(err, "failed to address header")
		}
		if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
			return goerr.Wrap(err, "failed to style header", goerr.V("sheet", sheet))
		}
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return goerr.Wrap(err, "failed to address row", goerr.V("row", i+2))
		}
		values := append([]any(nil), row...)
		if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
			return goerr.Wrap(err, "failed to write row", goerr.V("sheet", sheet), goerr.V("row", i+2))
		}
	}
	return nil
}

// uniqueName trims to the sheet-name limit and suffixes " (n)" on clashes.
func (w *Workbook) uniqueName(name string) string {
	name = truncateRunes(name, maxSheetName)
	taken := func(n string) bool {
		idx, _ := w.f.GetSheetIndex(n)
		return idx >= 0
	}
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		base := truncateRunes(name, maxSheetName-len(suffix))
		if candidate := base + suffix; !taken(candidate) {
			return candidate
		}
	}
}

// truncateRunes keeps at most n characters of s without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
