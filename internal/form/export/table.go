package export

import (
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/response"
	"cmp"
	"slices"
	"time"
)

const (
	SubmittedAtHeader = "Submitted At"
	TimestampLayout   = "2006-01-02 15:04:05"

	// EmptyFileCell fills missing answers in downloaded files.
	EmptyFileCell = ""
	// EmptyViewCell fills missing answers in the table view.
	EmptyViewCell = "-"
)

type TableOptions struct {
	Location  *time.Location
	EmptyCell string
}

// orderedFields returns the schema fields sorted by their order.
func orderedFields(schema form.Schema) []form.Field {
	fields := slices.Clone(schema.Fields)
	slices.SortStableFunc(fields, func(a, b form.Field) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return fields
}

// ToTable projects responses onto the current schema. The first row is the
// header, each following row is one response in the given order.
func ToTable(schema form.Schema, records []response.Record, opts TableOptions) [][]string {
	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	fields := orderedFields(schema)

	header := make([]string, 0, len(fields)+1)
	header = append(header, SubmittedAtHeader)
	for _, f := range fields {
		header = append(header, f.Label)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)

	for _, record := range records {
		row := make([]string, 0, len(fields)+1)
		row = append(row, record.SubmittedAt.In(location).Format(TimestampLayout))
		for _, f := range fields {
			value, ok := record.Answers[f.ID]
			if !ok || value == "" {
				value = opts.EmptyCell
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}

	return rows
}
