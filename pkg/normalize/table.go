package normalize

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/Sternrassler/epias-client/pkg/epias"
)

// Row is one normalized record. A zero Timestamp marks an invalid date.
type Row interface {
	Timestamp() time.Time
	// Values renders the row in column order.
	Values() []string
}

// Table is a timestamp-ordered result for one domain. Rows with an invalid
// timestamp sort after all valid rows, keeping their relative order.
type Table[R Row] struct {
	Domain   string
	Columns  []string
	Rows     []R
	Warnings []PartialDataWarning
}

// NewTable returns an empty table.
func NewTable[R Row](domain string, columns []string) *Table[R] {
	return &Table[R]{Domain: domain, Columns: columns}
}

// Len returns the number of rows.
func (t *Table[R]) Len() int {
	return len(t.rows())
}

// rows lets every accessor treat a nil table as empty.
func (t *Table[R]) rows() []R {
	if t == nil {
		return nil
	}
	return t.Rows
}

// Index returns the row timestamps in row order.
func (t *Table[R]) Index() []time.Time {
	rows := t.rows()
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Timestamp()
	}
	return out
}

// InvalidCount returns the number of rows carrying the invalid-timestamp sentinel.
func (t *Table[R]) InvalidCount() int {
	n := 0
	for _, r := range t.rows() {
		if r.Timestamp().IsZero() {
			n++
		}
	}
	return n
}

// Valid returns the rows with a parseable timestamp.
func (t *Table[R]) Valid() []R {
	rows := t.rows()
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if !r.Timestamp().IsZero() {
			out = append(out, r)
		}
	}
	return out
}

// Header returns the column names.
func (t *Table[R]) Header() []string {
	if t == nil {
		return nil
	}
	return t.Columns
}

// Records renders every row.
func (t *Table[R]) Records() [][]string {
	rows := t.rows()
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

func (t *Table[R]) sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return timestampLess(t.Rows[i].Timestamp(), t.Rows[j].Timestamp())
	})
}

// timestampLess orders valid instants ascending, invalid ones last.
func timestampLess(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	default:
		return a.Before(b)
	}
}

// Concat merges tables of one domain into a single ordered table.
func Concat[R Row](tables ...*Table[R]) *Table[R] {
	out := &Table[R]{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		if out.Columns == nil {
			out.Domain, out.Columns = t.Domain, t.Columns
		}
		out.Rows = append(out.Rows, t.Rows...)
		out.Warnings = append(out.Warnings, t.Warnings...)
	}
	out.sort()
	return out
}

// Column projects one numeric field of every row.
func Column[R Row](t *Table[R], field func(R) float64) []float64 {
	rows := t.rows()
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = field(r)
	}
	return out
}

// FromResponse extracts the content of a raw response envelope and
// normalizes it with fn.
func FromResponse[R Row](raw json.RawMessage, fn func([]json.RawMessage) *Table[R]) (*Table[R], error) {
	content, err := epias.ExtractContent(raw)
	if err != nil {
		return nil, err
	}
	return fn(content), nil
}

// run decodes each record, parses its date and hands it to emit. Records
// that are not JSON objects are skipped with a warning.
func run[R Row](domain string, columns []string, raw []json.RawMessage, emit func(c *collector, it item) []R) *Table[R] {
	t := NewTable[R](domain, columns)
	c := newCollector(domain)

	for i, data := range raw {
		rec, ok := decodeRecord(data)
		if !ok {
			c.warn(item{index: i}, "record", "not a JSON object, skipped")
			continue
		}
		it := item{index: i, rec: rec, rawDate: rec.str("date")}
		var valid bool
		if it.ts, valid = ParseTimestamp(it.rawDate); !valid {
			c.warn(it, "date", "unparseable timestamp, row marked invalid")
		}
		t.Rows = append(t.Rows, emit(c, it)...)
	}

	t.sort()
	t.Warnings = c.warnings
	c.logger.Debug().
		Int("rows", t.Len()).
		Int("invalid", t.InvalidCount()).
		Int("warnings", len(t.Warnings)).
		Msg("Normalized records")
	return t
}
