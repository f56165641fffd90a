package export

import "fmt"

// Column is one field of an exported sheet.
type Column struct {
	Key   string
	Title string
}

// Dataset defines tabular export content. Rows are keyed by Column.Key.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

func (d Dataset) validate(format string) error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("%s requires at least one column", format)
	}
	return nil
}

func (d Dataset) titles() []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = col.Title
		if out[i] == "" {
			out[i] = col.Key
		}
	}
	return out
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = row[col.Key]
	}
	return out
}
