package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cogbattery/pkg/domain"

	"github.com/m-mizutani/gt"
	"github.com/xuri/excelize/v2"
)

func testSubject() domain.Subject {
	return domain.Subject{
		SessionID: "0b8e",
		StartedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		SubNum:    "12",
		Condition: "1",
		Age:       "22",
		Sex:       domain.SexFemale,
		RA:        "mm",
		Tasks:     []string{"sternberg"},
		Seed:      7,
	}
}

func testResult() domain.TaskResult {
	cols := []string{"trialNum", "block", "setSize", "probeType", "set", "probe", "response", "RT", "correct"}
	return domain.TaskResult{
		Task:  "Sternberg Task",
		Sheet: "Sternberg",
		Main: domain.Table{Name: "Sternberg", Columns: cols, Rows: [][]any{
			{1, "1", 2, "present", "37", "3", "present", 512, 1},
			{2, "1", 6, "absent", "014589", "2", "", 0, 0},
		}},
		Practice: domain.Table{Name: "Sternberg practice", Columns: cols, Rows: [][]any{
			{1, "", 2, "absent", "12", "9", "absent", 400, 1},
		}},
	}
}

func TestPathFor(t *testing.T) {
	gt.Equal(t, PathFor("data", testSubject()), filepath.Join("data", "12_1.xlsx"))
}

func TestCreateWritesInfoSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "12_1.xlsx")
	w, err := Create(path, testSubject())
	gt.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	gt.Equal(t, w.Path(), path)
	gt.Equal(t, w.Sheets(), []string{"info"})

	f, err := excelize.OpenFile(path)
	gt.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("info")
	gt.NoError(t, err)
	gt.A(t, rows).Length(2)
	gt.Equal(t, rows[0], domain.InfoColumns)
	gt.Equal(t, rows[1][0], "2026-03-02 09:30")
	gt.Equal(t, rows[1][1], "12")
	gt.Equal(t, rows[1][3], "22")
	gt.Equal(t, rows[1][7], "0b8e")
}

func TestCreateRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "12_1.xlsx")
	gt.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Create(path, testSubject())
	gt.True(t, errors.Is(err, ErrOutputExists))
	b, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(b), "x")
}

func TestAddResultSavesEachTask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "12_1.xlsx")
	w, err := Create(path, testSubject())
	gt.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	gt.NoError(t, w.AddResult(testResult()))
	gt.Equal(t, w.Sheets(), []string{"info", "Sternberg", "Sternberg practice"})

	f, err := excelize.OpenFile(path)
	gt.NoError(t, err)
	defer f.Close()
	gt.Equal(t, f.GetSheetList(), []string{"info", "Sternberg", "Sternberg practice"})
	rows, err := f.GetRows("Sternberg")
	gt.NoError(t, err)
	gt.A(t, rows).Length(3)
	gt.Equal(t, rows[0][7], "RT")
	gt.Equal(t, rows[1], []string{"1", "1", "2", "present", "37", "3", "present", "512", "1"})
	gt.Equal(t, rows[2][4], "014589")

	// a second run of the same task gets distinct sheets
	gt.NoError(t, w.AddResult(testResult()))
	gt.Equal(t, w.Sheets()[3:], []string{"Sternberg (2)", "Sternberg practice (2)"})

	body, err := w.Bytes()
	gt.NoError(t, err)
	fromBuf, err := excelize.OpenReader(bytes.NewReader(body))
	gt.NoError(t, err)
	defer fromBuf.Close()
	gt.A(t, fromBuf.GetSheetList()).Length(5)
}

func TestResultWithoutPracticeAddsOneSheet(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "x.xlsx"), testSubject())
	gt.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	r := testResult()
	r.Practice = domain.Table{}
	gt.NoError(t, w.AddResult(r))
	gt.Equal(t, w.Sheets(), []string{"info", "Sternberg"})
}

func TestUniqueNameTruncates(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "x.xlsx"), testSubject())
	gt.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	long := strings.Repeat("a", 40)
	gt.Equal(t, w.uniqueName(long), strings.Repeat("a", 31))
	gt.Equal(t, w.uniqueName("info"), "info (2)")
}

func TestUniqueNameKeepsMultibyteRunesWhole(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "x.xlsx"), testSubject())
	gt.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	long := strings.Repeat("é", 40)
	r := domain.TaskResult{Main: domain.Table{Name: long, Columns: []string{"a"}, Rows: [][]any{{1}}}}
	gt.NoError(t, w.AddResult(r))
	gt.NoError(t, w.AddResult(r))

	sheets := w.Sheets()
	gt.Equal(t, sheets, []string{"info", strings.Repeat("é", 31), strings.Repeat("é", 27) + " (2)"})
	for _, s := range sheets {
		gt.True(t, utf8.ValidString(s))
	}
}
