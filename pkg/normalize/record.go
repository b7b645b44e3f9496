package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// record is one decoded wire object. Numbers are kept as json.Number.
type record map[string]any

func decodeRecord(raw json.RawMessage) (record, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return record(m), ok
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// id reads an integer identifier given as a number or numeric string.
func (r record) id(key string) *int64 {
	d, ok := toDecimal(r[key])
	if !ok || !d.IsInteger() {
		return nil
	}
	n := d.IntPart()
	return &n
}

// item is a record together with its position and parsed timestamp.
type item struct {
	index   int
	rec     record
	rawDate string
	ts      time.Time
}

// toDecimal coerces a JSON number or numeric string.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	default:
		return decimal.Zero, false
	}
}

// parseHour accepts 3, "3", "03" and "03:00".
func parseHour(v any) (int, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if i := strings.IndexByte(s, ':'); i >= 0 {
			s = s[:i]
		}
		v = s
	}
	d, ok := toDecimal(v)
	if !ok || !d.IsInteger() || d.IsNegative() {
		return 0, false
	}
	return int(d.IntPart()), true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
