package epias

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContent_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"body.content", `{"resultCode":"0","body":{"content":[{"a":1},{"a":2}],"page":{"number":1,"size":2,"total":2}}}`, 2},
		{"body list", `{"body":[{"a":1}]}`, 1},
		{"top-level content", `{"content":[{"a":1},{"a":2},{"a":3}]}`, 3},
		{"items", `{"items":[{"a":1}]}`, 1},
		{"bare list", `[{"a":1},{"a":2}]`, 2},
		{"null", `null`, 0},
		{"empty input", ``, 0},
		{"null content", `{"body":{"content":null}}`, 0},
		{"empty content", `{"body":{"content":[]}}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractContent(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestExtractContent_PriorityOrder(t *testing.T) {
	raw := `{"body":{"content":[{"src":"body"}]},"content":[{"src":"top"},{"src":"top"}],"items":[]}`

	got, err := ExtractContent(json.RawMessage(raw))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"src":"body"}`, string(got[0]))
}

func TestExtractContent_UnknownShape(t *testing.T) {
	tests := []string{
		`{"resultCode":"0","body":{"summary":{"a":1}}}`,
		`{"something":"else"}`,
		`"just a string"`,
		`{"content":{"not":"a list"}}`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ExtractContent(json.RawMessage(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownEnvelope))
		})
	}
}

func TestDecodePage_Metadata(t *testing.T) {
	raw := `{"resultCode":"0","resultDescription":"success","body":{"content":[{"a":1}],"page":{"number":2,"size":100,"total":250}}}`

	page, err := DecodePage(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, "0", page.ResultCode)
	assert.Equal(t, "success", page.ResultDescription)
	assert.Equal(t, "body.content", page.Shape)
	require.NotNil(t, page.Info)
	assert.Equal(t, PageInfo{Number: 2, Size: 100, Total: 250, TotalPages: 3}, *page.Info)
}

func TestDecodePage_ExplicitTotalPagesAndNumericResultCode(t *testing.T) {
	raw := `{"resultCode":200,"content":[],"page":{"number":1,"size":10,"total":95,"totalPages":7}}`

	page, err := DecodePage(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, "200", page.ResultCode)
	require.NotNil(t, page.Info)
	assert.Equal(t, 7, page.Info.TotalPages)
}

func TestDecodePage_NoMetadata(t *testing.T) {
	for _, raw := range []string{
		`{"items":[{"a":1}]}`,
		`[{"a":1}]`,
		`{"body":{"content":[],"page":{"number":1}}}`,
	} {
		page, err := DecodePage(json.RawMessage(raw))
		require.NoError(t, err)
		assert.Nil(t, page.Info, raw)
	}
}

func TestDecodeList_ReferenceKeys(t *testing.T) {
	raw := `{"body":{"organizations":[{"id":7,"name":"Enerji A.Ş.","eic":"40X000000000001"},{"id":9,"name":"Üretim Ltd."}]}}`

	orgs, err := DecodeList[Organization](json.RawMessage(raw), KeyOrganizations)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, int64(7), orgs[0].ID)
	assert.Equal(t, "40X000000000001", orgs[0].EIC)
	assert.Equal(t, "Üretim Ltd.", orgs[1].Name)
}

func TestDecodeList_FallsBackToContent(t *testing.T) {
	raw := `{"body":{"content":[{"id":1,"name":"Plant","organizationId":3,"eic":"X"}]}}`

	units, err := DecodeList[UEVCB](json.RawMessage(raw), KeyUEVCBs)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, int64(3), units[0].OrganizationID)
}
