package domain_test

import (
	"testing"

	"cogbattery/pkg/domain"

	"github.com/m-mizutani/gt"
)

func TestTableRecords(t *testing.T) {
	tbl := domain.Table{
		Name:    "Sternberg",
		Columns: []string{"block", "rt"},
		Rows:    [][]any{{1, 512}, {2}},
	}
	gt.Equal(t, tbl.Len(), 2)
	gt.Equal(t, tbl.Records(), []map[string]any{
		{"block": 1, "rt": 512},
		{"block": 2},
	})
	gt.A(t, domain.Table{}.Records()).Length(0)
}

func TestTaskResultTablesSkipsEmptyPractice(t *testing.T) {
	main := domain.Table{Name: "Sternberg", Rows: [][]any{{1}}}
	practice := domain.Table{Name: "Sternberg practice", Rows: [][]any{{0}}}

	r := domain.TaskResult{Main: main}
	gt.Equal(t, r.Tables(), []domain.Table{main})

	r.Practice = practice
	gt.Equal(t, r.Tables(), []domain.Table{main, practice})
}
