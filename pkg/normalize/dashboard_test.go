package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Summary(t *testing.T) {
	fetched := day(2024, 3, 10, 14)
	table := Dashboard(json.RawMessage(`{"body":{"summary":{"volume":"1200","ptf":2450.5,"status":"open"}}}`), fetched)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"ptf", "status", "volume"}, []string{table.Rows[0].Metric, table.Rows[1].Metric, table.Rows[2].Metric})
	assert.Equal(t, 2450.5, table.Rows[0].Value)
	assert.Equal(t, 0.0, table.Rows[1].Value)
	assert.Equal(t, 1200.0, table.Rows[2].Value)
	for _, r := range table.Rows {
		assert.Equal(t, fetched, r.Time)
	}

	require.Len(t, table.Warnings, 1)
	assert.Equal(t, DomainDashboard, table.Warnings[0].Domain)
	assert.Equal(t, 1, table.Warnings[0].Record)
}

func TestDashboard_DataList(t *testing.T) {
	table := Dashboard(json.RawMessage(`{"body":{"data":[
		{"name":"b","value":2,"change":"0.5","date":"2024-03-10T02:00:00+03:00"},
		{"name":"a","value":1,"date":"2024-03-10T01:00:00+03:00"},
		{"name":"c","value":3,"date":"later"},
		7
	]}}`), day(2024, 3, 11, 0))

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "a", table.Rows[0].Metric)
	assert.Equal(t, day(2024, 3, 10, 1), table.Rows[0].Time)
	assert.Equal(t, 0.0, table.Rows[0].Change)
	assert.Equal(t, 0.5, table.Rows[1].Change)
	assert.Equal(t, "c", table.Rows[2].Metric)
	assert.True(t, table.Rows[2].Time.IsZero())
	assert.Equal(t, 1, table.InvalidCount())

	require.Len(t, table.Warnings, 2)
	assert.Equal(t, "date", table.Warnings[0].Field)
	assert.Equal(t, "record", table.Warnings[1].Field)

	assert.Equal(t, []string{"datetime", "metric", "value", "change"}, table.Header())
	assert.Equal(t, []string{"2024-03-10T02:00:00+03:00", "b", "2", "0.5"}, table.Records()[1])
}

func TestDashboard_UnrecognizedBody(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "no body", raw: `{"resultCode":"0"}`, field: "body"},
		{name: "not json", raw: `<html>`, field: "body"},
		{name: "neither summary nor data", raw: `{"body":{"other":1}}`, field: "body"},
		{name: "summary not an object", raw: `{"body":{"summary":[1]}}`, field: "summary"},
		{name: "data not a list", raw: `{"body":{"data":{}}}`, field: "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Dashboard(json.RawMessage(tt.raw), day(2024, 3, 10, 0))

			assert.Equal(t, 0, table.Len())
			require.Len(t, table.Warnings, 1)
			assert.Equal(t, tt.field, table.Warnings[0].Field)
		})
	}
}
