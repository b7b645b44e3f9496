// Package normalize turns loosely-typed EPİAŞ records into timestamp-ordered
// tables with stable column names per data domain.
package normalize

import (
	"encoding/json"
	"strconv"
	"time"
)

// Domain names used in tables, warnings and metrics.
const (
	DomainPTF         = "ptf"
	DomainSMF         = "smf"
	DomainGeneration  = "generation"
	DomainKGUP        = "kgup"
	DomainConsumption = "consumption"
	DomainClearing    = "clearing_quantity"
	DomainBilateral   = "bilateral_contracts"
)

// Column sets per domain.
var (
	PriceColumns             = []string{"datetime", "price", "hour"}
	MarginalPriceColumns     = []string{"datetime", "price", "up_price", "down_price", "direction"}
	GenerationColumns        = []string{"datetime", "power_plant", "power_plant_id", "type", "value"}
	PlannedGenerationColumns = []string{"datetime", "uevcb", "uevcb_id", "planned_generation"}
	ConsumptionColumns       = []string{"datetime", "province", "district", "profile_group", "subscriber_type", "value"}
	ClearingColumns          = []string{"datetime", "matched_bids", "matched_offers"}
)

// System directions reported with marginal prices.
const (
	DirectionSurplus  = "Enerji Fazlası"
	DirectionDeficit  = "Enerji Açığı"
	DirectionBalanced = "Dengede"
)

// PriceRow is one day-ahead market clearing price (PTF).
type PriceRow struct {
	Time  time.Time
	Price float64
	Hour  int
}

func (r PriceRow) Timestamp() time.Time { return r.Time }

func (r PriceRow) Values() []string {
	return []string{formatTime(r.Time), formatFloat(r.Price), strconv.Itoa(r.Hour)}
}

// MarginalPriceRow is one system marginal price (SMF) with regulation prices.
type MarginalPriceRow struct {
	Time      time.Time
	Price     float64
	UpPrice   float64
	DownPrice float64
	Direction string
}

func (r MarginalPriceRow) Timestamp() time.Time { return r.Time }

func (r MarginalPriceRow) Values() []string {
	return []string{formatTime(r.Time), formatFloat(r.Price), formatFloat(r.UpPrice), formatFloat(r.DownPrice), r.Direction}
}

// GenerationRow is realtime generation of one plant for one hour.
type GenerationRow struct {
	Time         time.Time
	PowerPlant   string
	PowerPlantID *int64
	Type         string
	Value        float64
}

func (r GenerationRow) Timestamp() time.Time { return r.Time }

func (r GenerationRow) Values() []string {
	return []string{formatTime(r.Time), r.PowerPlant, formatID(r.PowerPlantID), r.Type, formatFloat(r.Value)}
}

// PlannedGenerationRow is one KGÜP (final daily production plan) value.
type PlannedGenerationRow struct {
	Time              time.Time
	UEVCB             string
	UEVCBID           *int64
	PlannedGeneration float64
}

func (r PlannedGenerationRow) Timestamp() time.Time { return r.Time }

func (r PlannedGenerationRow) Values() []string {
	return []string{formatTime(r.Time), r.UEVCB, formatID(r.UEVCBID), formatFloat(r.PlannedGeneration)}
}

// ConsumptionRow is one consumption quantity.
type ConsumptionRow struct {
	Time           time.Time
	Province       string
	District       string
	ProfileGroup   string
	SubscriberType string
	Value          float64
}

func (r ConsumptionRow) Timestamp() time.Time { return r.Time }

func (r ConsumptionRow) Values() []string {
	return []string{formatTime(r.Time), r.Province, r.District, r.ProfileGroup, r.SubscriberType, formatFloat(r.Value)}
}

// ClearingRow is one hour of matched day-ahead bid and offer quantities.
type ClearingRow struct {
	Time          time.Time
	MatchedBids   float64
	MatchedOffers float64
}

func (r ClearingRow) Timestamp() time.Time { return r.Time }

func (r ClearingRow) Values() []string {
	return []string{formatTime(r.Time), formatFloat(r.MatchedBids), formatFloat(r.MatchedOffers)}
}

// PTF normalizes day-ahead market clearing prices. The hour column comes
// from the record's hour field, or the timestamp's hour when absent; it is
// not folded into the timestamp.
func PTF(raw []json.RawMessage) *Table[PriceRow] {
	return run(DomainPTF, PriceColumns, raw, func(c *collector, it item) []PriceRow {
		hour := it.ts.Hour()
		if v, ok := it.rec["hour"]; ok && v != nil {
			h, ok := parseHour(v)
			if ok {
				hour = h
			} else {
				c.warn(it, "hour", "unparseable hour, taken from timestamp")
			}
		}
		return []PriceRow{{
			Time:  it.ts,
			Price: c.value(it, "price", "price", "value"),
			Hour:  hour,
		}}
	})
}

// SMF normalizes system marginal prices.
func SMF(raw []json.RawMessage) *Table[MarginalPriceRow] {
	return run(DomainSMF, MarginalPriceColumns, raw, func(c *collector, it item) []MarginalPriceRow {
		return []MarginalPriceRow{{
			Time:      it.ts,
			Price:     c.value(it, "price", "systemMarginalPrice", "price", "value"),
			UpPrice:   c.value(it, "up_price", "upRegulationPrice", "yalPrice"),
			DownPrice: c.value(it, "down_price", "downRegulationPrice", "yatPrice"),
			Direction: it.rec.str("systemDirection"),
		}}
	})
}

// Generation normalizes realtime generation. Records carrying an
// hourlyGenerations breakdown expand to one row per hour.
func Generation(raw []json.RawMessage) *Table[GenerationRow] {
	return run(DomainGeneration, GenerationColumns, raw, func(c *collector, it item) []GenerationRow {
		plant := it.rec.str("powerPlantName")
		plantID := it.rec.id("powerPlantId")

		switch e := resolveEntry(c, it, hourlyGenerationsKey).(type) {
		case hourlyEntry:
			rows := make([]GenerationRow, 0, len(e.hours))
			for _, h := range e.hours {
				typ := h.rec.str("generationType")
				if typ == "" {
					typ = it.rec.str("generationType")
				}
				rows = append(rows, GenerationRow{
					Time:         h.ts,
					PowerPlant:   plant,
					PowerPlantID: plantID,
					Type:         typ,
					Value:        c.value(h, "value", "generation", "value"),
				})
			}
			return rows
		default:
			return []GenerationRow{{
				Time:         it.ts,
				PowerPlant:   plant,
				PowerPlantID: plantID,
				Type:         it.rec.str("generationType"),
				Value:        c.value(it, "value", "generation", "value"),
			}}
		}
	})
}

// KGUP normalizes final daily production plans. Records carrying an
// hourlyPlans breakdown expand to one row per hour.
func KGUP(raw []json.RawMessage) *Table[PlannedGenerationRow] {
	return run(DomainKGUP, PlannedGenerationColumns, raw, func(c *collector, it item) []PlannedGenerationRow {
		name := it.rec.str("uevcbName")
		id := it.rec.id("uevcbId")

		switch e := resolveEntry(c, it, hourlyPlansKey).(type) {
		case hourlyEntry:
			rows := make([]PlannedGenerationRow, 0, len(e.hours))
			for _, h := range e.hours {
				rows = append(rows, PlannedGenerationRow{
					Time:              h.ts,
					UEVCB:             name,
					UEVCBID:           id,
					PlannedGeneration: c.value(h, "planned_generation", "plannedGeneration", "value"),
				})
			}
			return rows
		default:
			return []PlannedGenerationRow{{
				Time:              it.ts,
				UEVCB:             name,
				UEVCBID:           id,
				PlannedGeneration: c.value(it, "planned_generation", "plannedGeneration", "value"),
			}}
		}
	})
}

// Consumption normalizes consumption quantities.
func Consumption(raw []json.RawMessage) *Table[ConsumptionRow] {
	return run(DomainConsumption, ConsumptionColumns, raw, func(c *collector, it item) []ConsumptionRow {
		return []ConsumptionRow{{
			Time:           it.ts,
			Province:       it.rec.str("province"),
			District:       it.rec.str("district"),
			ProfileGroup:   it.rec.str("profileGroup"),
			SubscriberType: it.rec.str("subscriberType"),
			Value:          c.value(it, "value", "consumption", "value"),
		}}
	})
}

// ClearingQuantity normalizes day-ahead matched bid and offer quantities.
func ClearingQuantity(raw []json.RawMessage) *Table[ClearingRow] {
	return run(DomainClearing, ClearingColumns, raw, func(c *collector, it item) []ClearingRow {
		return []ClearingRow{{
			Time:          it.ts,
			MatchedBids:   c.value(it, "matched_bids", "matchedBids"),
			MatchedOffers: c.value(it, "matched_offers", "matchedOffers"),
		}}
	})
}
