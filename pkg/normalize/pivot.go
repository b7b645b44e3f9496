package normalize

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Side tags dual-sided records before they are merged.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// PivotKey is a pivot column: side and contract type.
type PivotKey struct {
	Side         Side
	ContractType string
}

func (k PivotKey) String() string {
	return string(k.Side) + ":" + k.ContractType
}

// PivotTable has one row per timestamp and one column per (side, contract
// type) seen in the input. Duplicate cells are averaged; absent
// combinations are 0.
type PivotTable struct {
	Domain  string
	Index   []time.Time
	Columns []PivotKey
	Values  [][]float64 // [row][column]

	// InvalidCount rows had no parseable timestamp and are not in the pivot.
	InvalidCount int
	Warnings     []PartialDataWarning
}

// Len returns the number of pivot rows.
func (p *PivotTable) Len() int {
	return len(p.Index)
}

// Value returns the cell at (ts, key). ok is false when either the row or
// the column does not exist.
func (p *PivotTable) Value(ts time.Time, key PivotKey) (float64, bool) {
	row := sort.Search(len(p.Index), func(i int) bool { return !p.Index[i].Before(ts) })
	if row == len(p.Index) || !p.Index[row].Equal(ts) {
		return 0, false
	}
	for col, k := range p.Columns {
		if k == key {
			return p.Values[row][col], true
		}
	}
	return 0, false
}

// Header returns "datetime" followed by the side:contract_type columns.
func (p *PivotTable) Header() []string {
	out := make([]string, 0, len(p.Columns)+1)
	out = append(out, "datetime")
	for _, k := range p.Columns {
		out = append(out, k.String())
	}
	return out
}

// Records renders every pivot row.
func (p *PivotTable) Records() [][]string {
	out := make([][]string, len(p.Index))
	for i, ts := range p.Index {
		rec := make([]string, 0, len(p.Columns)+1)
		rec = append(rec, formatTime(ts))
		for _, v := range p.Values[i] {
			rec = append(rec, formatFloat(v))
		}
		out[i] = rec
	}
	return out
}

// sidedRow is a tagged bilateral record prior to pivoting.
type sidedRow struct {
	Time     time.Time
	Key      PivotKey
	Quantity float64
}

func (r sidedRow) Timestamp() time.Time { return r.Time }

func (r sidedRow) Values() []string {
	return []string{formatTime(r.Time), string(r.Key.Side), r.Key.ContractType, formatFloat(r.Quantity)}
}

func bilateralSide(side Side, raw []json.RawMessage) *Table[sidedRow] {
	return run(DomainBilateral, nil, raw, func(c *collector, it item) []sidedRow {
		return []sidedRow{{
			Time:     it.ts,
			Key:      PivotKey{Side: side, ContractType: it.rec.str("contractType")},
			Quantity: c.value(it, "quantity", "quantity", "value"),
		}}
	})
}

// BilateralContracts tags buy and sell records with their side and pivots
// them on (side, contract type) with the timestamp as row key.
func BilateralContracts(buy, sell []json.RawMessage) *PivotTable {
	buyRows := bilateralSide(SideBuy, buy)
	sellRows := bilateralSide(SideSell, sell)
	rows := Concat(buyRows, sellRows)

	type cell struct {
		sum   float64
		count int
	}
	cells := make(map[int64]map[PivotKey]*cell)
	stamps := make(map[int64]time.Time)
	keys := make(map[PivotKey]struct{})

	p := &PivotTable{Domain: DomainBilateral, Warnings: rows.Warnings}
	for _, r := range rows.Rows {
		if r.Time.IsZero() {
			p.InvalidCount++
			continue
		}
		k := r.Time.UnixNano()
		if cells[k] == nil {
			cells[k] = make(map[PivotKey]*cell)
			stamps[k] = r.Time
		}
		cl := cells[k][r.Key]
		if cl == nil {
			cl = &cell{}
			cells[k][r.Key] = cl
		}
		cl.sum += r.Quantity
		cl.count++
		keys[r.Key] = struct{}{}
	}

	for k := range keys {
		p.Columns = append(p.Columns, k)
	}
	sort.Slice(p.Columns, func(i, j int) bool {
		a, b := p.Columns[i], p.Columns[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.ContractType < b.ContractType
	})

	order := make([]int64, 0, len(stamps))
	for k := range stamps {
		order = append(order, k)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	p.Index = make([]time.Time, len(order))
	p.Values = make([][]float64, len(order))
	for i, k := range order {
		p.Index[i] = stamps[k]
		row := make([]float64, len(p.Columns))
		for j, key := range p.Columns {
			if cl := cells[k][key]; cl != nil {
				row[j] = cl.sum / float64(cl.count)
			}
		}
		p.Values[i] = row
	}

	if p.InvalidCount > 0 {
		log.Warn().
			Str("component", "normalize").
			Str("domain", DomainBilateral).
			Int("invalid", p.InvalidCount).
			Msg("Rows without timestamp excluded from pivot")
	}
	return p
}
