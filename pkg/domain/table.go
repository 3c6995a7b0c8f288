package domain

import "time"

// Table is a named, column-ordered result set. Every task converts its typed
// trial records into a Table so exporters and stores stay task-agnostic.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Records returns the rows keyed by column name.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// TaskResult is what a completed task hands back to the battery runner.
// Main holds the scored blocks; Practice holds the practice block and may be
// empty for tasks without one.
type TaskResult struct {
	Task        string    `json:"task"`
	Sheet       string    `json:"sheet"`
	Main        Table     `json:"main"`
	Practice    Table     `json:"practice"`
	CompletedAt time.Time `json:"completed_at"`
}

// Tables returns the non-empty sheets of the result in export order.
func (r TaskResult) Tables() []Table {
	out := []Table{r.Main}
	if r.Practice.Len() > 0 {
		out = append(out, r.Practice)
	}
	return out
}
