package normalize

// Breakdown keys holding per-hour sub-records.
const (
	hourlyGenerationsKey = "hourlyGenerations"
	hourlyPlansKey       = "hourlyPlans"
)

// entry is either a flat record or a record carrying a per-hour breakdown,
// decided by the presence of the breakdown key.
type entry interface {
	isEntry()
}

type flatEntry struct {
	item
}

type hourlyEntry struct {
	parent item
	hours  []item
}

func (flatEntry) isEntry()   {}
func (hourlyEntry) isEntry() {}

// resolveEntry classifies it by its breakdown field. Each hour becomes an
// item timestamped at the parent day plus the hour offset.
func resolveEntry(c *collector, it item, breakdownKey string) entry {
	v, ok := it.rec[breakdownKey]
	if !ok || v == nil {
		return flatEntry{it}
	}
	list, ok := v.([]any)
	if !ok {
		c.warn(it, breakdownKey, "breakdown is not a list, treated as a flat record")
		return flatEntry{it}
	}

	hours := make([]item, 0, len(list))
	for _, h := range list {
		m, ok := h.(map[string]any)
		if !ok {
			c.warn(it, breakdownKey, "breakdown entry is not an object, skipped")
			continue
		}
		child := item{index: it.index, rec: record(m), rawDate: it.rawDate}

		hour := 0
		if raw, ok := child.rec["hour"]; ok && raw != nil {
			if hour, ok = parseHour(raw); !ok {
				c.warn(child, "hour", "unparseable hour, defaulted to 0")
			}
		}
		child.ts = hourTimestamp(it.ts, hour)
		hours = append(hours, child)
	}
	if len(hours) == 0 {
		c.warn(it, breakdownKey, "empty breakdown, record produced no rows")
	}
	return hourlyEntry{parent: it, hours: hours}
}
