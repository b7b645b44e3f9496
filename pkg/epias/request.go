package epias

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// DateTimeLayout is the request date format expected by the data endpoints.
const DateTimeLayout = "2006-01-02T15:04:05-07:00"

// DateLayout is a calendar day.
const DateLayout = "2006-01-02"

// MarketLocation is Turkey time (fixed UTC+3, no DST since 2016).
var MarketLocation = time.FixedZone("TRT", 3*60*60)

// ValidationError reports request parameters rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DateRange is an inclusive time interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DayRange spans whole calendar days in MarketLocation: start at 00:00:00,
// end at 23:59:59 of the respective days.
func DayRange(start, end time.Time) DateRange {
	s := start.In(MarketLocation)
	e := end.In(MarketLocation)
	return DateRange{
		Start: time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, MarketLocation),
		End:   time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, MarketLocation),
	}
}

// Validate rejects zero bounds and ranges whose end precedes the start.
func (r DateRange) Validate() error {
	if r.Start.IsZero() {
		return &ValidationError{Field: "startDate", Message: "is required"}
	}
	if r.End.IsZero() {
		return &ValidationError{Field: "endDate", Message: "is required"}
	}
	if r.End.Before(r.Start) {
		return &ValidationError{
			Field:   "endDate",
			Message: fmt.Sprintf("%s precedes startDate %s", r.End.Format(DateTimeLayout), r.Start.Format(DateTimeLayout)),
		}
	}
	return nil
}

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// PageSort orders a paginated result.
type PageSort struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// PageRequest is the page cursor sent with paginated requests. Number is 1-based.
type PageRequest struct {
	Number int       `json:"number"`
	Size   int       `json:"size"`
	Sort   *PageSort `json:"sort,omitempty"`
}

// FilterKey names the request field carrying an entity id.
type FilterKey string

const (
	FilterKeyOrganization FilterKey = "organizationId"
	// FilterKeyOrganisation is the spelling the market endpoints document.
	FilterKeyOrganisation FilterKey = "organisationId"
	FilterKeyPowerPlant   FilterKey = "powerPlantId"
)

// FilterKeys lists every accepted filter key.
var FilterKeys = []FilterKey{FilterKeyPowerPlant, FilterKeyOrganization, FilterKeyOrganisation}

// Valid reports whether k is a known filter key.
func (k FilterKey) Valid() bool {
	return slices.Contains(FilterKeys, k)
}

// Filters are the optional request fields. Nil/empty values are omitted.
type Filters struct {
	OrganizationID *int64
	OrganisationID *int64
	PowerPlantID   *int64
	UEVCBID        *int64
	ProvinceID     *int64
	DistrictID     *int64
	ContractType   string
	ProfileGroup   string
	Period         string // HOURLY, DAILY, MONTHLY
}

// Query is an immutable request descriptor: a date range, filters and an
// optional page cursor. Use the With* methods to derive modified copies.
type Query struct {
	rng     DateRange
	hasRng  bool
	filters Filters
	page    *PageRequest
}

// NewQuery builds a validated descriptor for a date range.
func NewQuery(rng DateRange, filters Filters) (Query, error) {
	if err := rng.Validate(); err != nil {
		return Query{}, err
	}
	return Query{rng: rng, hasRng: true, filters: filters}, nil
}

// NewFilterQuery builds a descriptor without a date range (reference lists).
func NewFilterQuery(filters Filters) Query {
	return Query{filters: filters}
}

// Range returns the date range and whether one is set.
func (q Query) Range() (DateRange, bool) {
	return q.rng, q.hasRng
}

// Filters returns a copy of the filters.
func (q Query) Filters() Filters {
	return q.filters
}

// Page returns the page cursor, or nil.
func (q Query) Page() *PageRequest {
	if q.page == nil {
		return nil
	}
	p := *q.page
	return &p
}

// WithPage returns a copy of q carrying the given page cursor.
func (q Query) WithPage(p PageRequest) Query {
	q.page = &p
	return q
}

// WithEntity returns a copy of q with id set under the given filter key.
func (q Query) WithEntity(key FilterKey, id int64) Query {
	switch key {
	case FilterKeyPowerPlant:
		q.filters.PowerPlantID = &id
	case FilterKeyOrganisation:
		q.filters.OrganisationID = &id
	default:
		q.filters.OrganizationID = &id
	}
	return q
}

// MarshalJSON emits the EPİAŞ request body.
func (q Query) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	if q.hasRng {
		body["startDate"] = q.rng.Start.Format(DateTimeLayout)
		body["endDate"] = q.rng.End.Format(DateTimeLayout)
	}

	f := q.filters
	setID := func(key string, v *int64) {
		if v != nil {
			body[key] = *v
		}
	}
	setID("organizationId", f.OrganizationID)
	setID("organisationId", f.OrganisationID)
	setID("powerPlantId", f.PowerPlantID)
	setID("uevcbId", f.UEVCBID)
	setID("provinceId", f.ProvinceID)
	setID("districtId", f.DistrictID)
	if f.ContractType != "" {
		body["contractType"] = f.ContractType
	}
	if f.ProfileGroup != "" {
		body["profileGroup"] = f.ProfileGroup
	}
	if f.Period != "" {
		body["period"] = f.Period
	}

	if q.page != nil {
		body["page"] = q.page
	}
	return json.Marshal(body)
}

// ID is a convenience for building optional id filters.
func ID(v int64) *int64 {
	return &v
}
