package normalize

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

// DomainDashboard labels dashboard panel tables.
const DomainDashboard = "dashboard"

// DashboardColumns are the columns of a dashboard panel table.
var DashboardColumns = []string{"datetime", "metric", "value", "change"}

// DashboardRow is one metric of a dashboard panel.
type DashboardRow struct {
	Time   time.Time
	Metric string
	Value  float64
	Change float64
}

func (r DashboardRow) Timestamp() time.Time { return r.Time }

func (r DashboardRow) Values() []string {
	return []string{formatTime(r.Time), r.Metric, formatFloat(r.Value), formatFloat(r.Change)}
}

// Dashboard normalizes a dashboard panel response. A body.summary object
// yields one row per metric, in metric name order, stamped with fetchedAt.
// A body.data list yields one row per entry, stamped with the entry's date.
func Dashboard(raw json.RawMessage, fetchedAt time.Time) *Table[DashboardRow] {
	t := NewTable[DashboardRow](DomainDashboard, DashboardColumns)
	c := newCollector(DomainDashboard)

	var envelope struct {
		Body map[string]any `json:"body"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil || envelope.Body == nil {
		c.warn(item{}, "body", "response has no body object")
		t.Warnings = c.warnings
		return t
	}

	switch summary, data := envelope.Body["summary"], envelope.Body["data"]; {
	case summary != nil:
		metrics, ok := summary.(map[string]any)
		if !ok {
			c.warn(item{}, "summary", "summary is not an object")
			break
		}
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			it := item{index: i, rec: record{"value": metrics[name]}, ts: fetchedAt}
			t.Rows = append(t.Rows, DashboardRow{
				Time:   fetchedAt,
				Metric: name,
				Value:  c.value(it, "value", "value"),
			})
		}

	case data != nil:
		entries, ok := data.([]any)
		if !ok {
			c.warn(item{}, "data", "data is not a list")
			break
		}
		for i, e := range entries {
			m, ok := e.(map[string]any)
			if !ok {
				c.warn(item{index: i}, "record", "not a JSON object, skipped")
				continue
			}
			it := item{index: i, rec: record(m)}
			it.rawDate = it.rec.str("date")
			var valid bool
			if it.ts, valid = ParseTimestamp(it.rawDate); !valid {
				c.warn(it, "date", "unparseable timestamp, row marked invalid")
			}
			var change float64
			if d, ok := toDecimal(it.rec["change"]); ok {
				change = d.InexactFloat64()
			}
			t.Rows = append(t.Rows, DashboardRow{
				Time:   it.ts,
				Metric: it.rec.str("name"),
				Value:  c.value(it, "value", "value"),
				Change: change,
			})
		}

	default:
		c.warn(item{}, "body", "body has neither summary nor data")
	}

	t.sort()
	t.Warnings = c.warnings
	return t
}
