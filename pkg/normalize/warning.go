package normalize

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var normalizeWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epias_normalize_warnings_total",
	Help: "Fields defaulted or marked invalid during normalization",
}, []string{"domain", "field"})

// PartialDataWarning records a field that was defaulted or marked invalid.
// The affected row is kept.
type PartialDataWarning struct {
	Domain  string
	Record  int // position in the source content list
	RawDate string
	Field   string
	Reason  string
}

// Error implements the error interface so warnings can travel as errors.
func (w PartialDataWarning) Error() string {
	return fmt.Sprintf("%s record %d (date %q) field %s: %s", w.Domain, w.Record, w.RawDate, w.Field, w.Reason)
}

// collector gathers warnings for one normalization run.
type collector struct {
	domain   string
	warnings []PartialDataWarning
	logger   zerolog.Logger
}

func newCollector(domain string) *collector {
	return &collector{
		domain: domain,
		logger: log.With().Str("component", "normalize").Str("domain", domain).Logger(),
	}
}

func (c *collector) warn(it item, field, reason string) {
	w := PartialDataWarning{
		Domain:  c.domain,
		Record:  it.index,
		RawDate: it.rawDate,
		Field:   field,
		Reason:  reason,
	}
	c.warnings = append(c.warnings, w)
	normalizeWarningsTotal.WithLabelValues(c.domain, field).Inc()
	c.logger.Warn().
		Int("record", it.index).
		Str("date", it.rawDate).
		Str("field", field).
		Msg(reason)
}

// value returns the first alias holding a non-zero number. A present zero
// falls through to the next alias. When no alias is present the result is
// 0 and a warning is recorded against field.
func (c *collector) value(it item, field string, aliases ...string) float64 {
	present := false
	for _, key := range aliases {
		v, ok := it.rec[key]
		if !ok || v == nil {
			continue
		}
		present = true
		d, ok := toDecimal(v)
		if !ok {
			c.warn(it, field, fmt.Sprintf("unparseable number %v in %s", v, key))
			continue
		}
		if !d.IsZero() {
			return d.InexactFloat64()
		}
	}
	if !present {
		c.warn(it, field, fmt.Sprintf("none of [%s] present, defaulted to 0", strings.Join(aliases, " ")))
	}
	return 0
}
