package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

func write(w io.Writer, format string, t tabular) error {
	switch format {
	case "json":
		return writeJSON(w, t)
	default:
		return writeCSV(w, t)
	}
}

func writeCSV(w io.Writer, t tabular) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// writeJSON emits one object per record keyed by column name.
func writeJSON(w io.Writer, t tabular) error {
	header := t.Header()
	records := t.Records()
	out := make([]map[string]string, len(records))
	for i, rec := range records {
		obj := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(rec) {
				obj[col] = rec[j]
			}
		}
		out[i] = obj
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
