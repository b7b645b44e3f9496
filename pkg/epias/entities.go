package epias

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Organization is a market participant.
type Organization struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	EIC    string `json:"eic,omitempty"`
	Status string `json:"status,omitempty"`
}

// PowerPlant is a generation facility.
type PowerPlant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	EIC       string `json:"eic,omitempty"`
	ShortName string `json:"shortName,omitempty"`
	Status    string `json:"status,omitempty"`
}

// UEVCB is a settlement-basis injection/withdrawal unit of an organization.
type UEVCB struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	EIC              string `json:"eic"`
	OrganizationID   int64  `json:"organizationId"`
	OrganizationName string `json:"organizationName,omitempty"`
}

// Reference list keys inside the response body.
const (
	KeyOrganizations = "organizations"
	KeyPowerPlants   = "powerPlantList"
	KeyUEVCBs        = "uevcbList"
)

// DecodeList decodes a reference list found under body.<key>. When the body
// has no such key the generic content shapes of ExtractContent are tried.
func DecodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	var env struct {
		Body map[string]json.RawMessage `json:"body"`
	}
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '{' {
		if err := json.Unmarshal(t, &env); err == nil {
			if list, ok := env.Body[key]; ok {
				var out []T
				if err := json.Unmarshal(list, &out); err != nil {
					return nil, fmt.Errorf("decode %s: %w", key, err)
				}
				return out, nil
			}
		}
	}

	items, err := ExtractContent(raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", key, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
