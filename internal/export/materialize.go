package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cogbattery/pkg/domain"

	"github.com/m-mizutani/goerr/v2"
)

// Format is a flat rendering of a result table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Formats lists every supported format in the order artifacts are produced.
var Formats = []Format{FormatCSV, FormatJSON}

// Rendered is one materialized table.
type Rendered struct {
	Name        string
	Format      Format
	ContentType string
	Rows        int
	Payload     []byte
}

// Materialize renders t in format. The file name is derived from the table
// name with spaces replaced by underscores.
func Materialize(format Format, t domain.Table) (Rendered, error) {
	base := strings.ReplaceAll(t.Name, " ", "_")
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(struct {
			Name    string           `json:"name"`
			Columns []string         `json:"columns"`
			Rows    []map[string]any `json:"rows"`
		}{t.Name, t.Columns, t.Records()}, "", "  ")
		if err != nil {
			return Rendered{}, goerr.Wrap(err, "failed to marshal json", goerr.V("table", t.Name))
		}
		return Rendered{Name: base + ".json", Format: FormatJSON, ContentType: "application/json", Rows: t.Len(), Payload: payload}, nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(t.Columns); err != nil {
			return Rendered{}, goerr.Wrap(err, "failed to write csv header")
		}
		for _, row := range t.Rows {
			record := make([]string, len(t.Columns))
			for i := range t.Columns {
				if i < len(row) {
					record[i] = formatValue(row[i])
				}
			}
			if err := writer.Write(record); err != nil {
				return Rendered{}, goerr.Wrap(err, "failed to write csv row")
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return Rendered{}, goerr.Wrap(err, "failed to flush csv")
		}
		return Rendered{Name: base + ".csv", Format: FormatCSV, ContentType: "text/csv", Rows: t.Len(), Payload: buf.Bytes()}, nil
	default:
		return Rendered{}, goerr.New("unsupported export format", goerr.V("format", format))
	}
}

// MaterializeResult renders every table of r in every format.
func MaterializeResult(r domain.TaskResult) ([]Rendered, error) {
	var out []Rendered
	for _, t := range r.Tables() {
		for _, f := range Formats {
			rendered, err := Materialize(f, t)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
	}
	return out, nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case float32:
		return fmt.Sprintf("%g", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprint(v)
	}
}
