package epias

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownEnvelope is returned when a response matches none of the known shapes.
var ErrUnknownEnvelope = errors.New("unrecognized response envelope")

// PageInfo is the pagination metadata reported by the server.
type PageInfo struct {
	Number     int
	Size       int
	Total      int // total records
	TotalPages int
}

// Page is one decoded response: status fields, the content list and
// optional page metadata.
type Page struct {
	ResultCode        string
	ResultDescription string
	Content           []json.RawMessage
	Info              *PageInfo

	// Shape names the envelope layout the content was found in.
	Shape string
}

// envelopeShape names the layouts tried by ExtractContent, in priority order.
type envelopeShape int

const (
	shapeBodyContent envelopeShape = iota
	shapeBodyList
	shapeContent
	shapeItems
	shapeBareList
	shapeEmpty
)

func (s envelopeShape) String() string {
	switch s {
	case shapeBodyContent:
		return "body.content"
	case shapeBodyList:
		return "body"
	case shapeContent:
		return "content"
	case shapeItems:
		return "items"
	case shapeBareList:
		return "list"
	default:
		return "empty"
	}
}

// ExtractContent returns the record list of a response regardless of whether
// it is nested under body.content, is the body itself, sits under a top-level
// content or items key, or is a bare list. null and empty input yield no records.
func ExtractContent(raw json.RawMessage) ([]json.RawMessage, error) {
	content, _, _, err := extract(raw)
	return content, err
}

// DecodePage decodes a full response including status and page metadata.
func DecodePage(raw json.RawMessage) (Page, error) {
	content, obj, shape, err := extract(raw)
	if err != nil {
		return Page{}, err
	}

	page := Page{Content: content, Shape: shape.String()}
	if obj == nil {
		return page, nil
	}
	page.ResultCode = flexString(obj["resultCode"])
	page.ResultDescription = flexString(obj["resultDescription"])

	info, err := pageInfo(obj)
	if err != nil {
		return Page{}, err
	}
	page.Info = info
	return page, nil
}

func extract(raw json.RawMessage) ([]json.RawMessage, map[string]json.RawMessage, envelopeShape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil, shapeEmpty, nil
	}

	switch trimmed[0] {
	case '[':
		list, err := decodeList(trimmed)
		return list, nil, shapeBareList, err
	case '{':
	default:
		return nil, nil, shapeEmpty, fmt.Errorf("%w: top-level %q", ErrUnknownEnvelope, string(trimmed[:1]))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, nil, shapeEmpty, fmt.Errorf("decode envelope: %w", err)
	}

	shape, list, err := matchShape(obj)
	if err != nil {
		return nil, nil, shape, err
	}
	if shape == shapeEmpty {
		return nil, obj, shape, fmt.Errorf("%w: keys %s", ErrUnknownEnvelope, keyList(obj))
	}
	return list, obj, shape, nil
}

func matchShape(obj map[string]json.RawMessage) (envelopeShape, []json.RawMessage, error) {
	if body, ok := obj["body"]; ok {
		b := bytes.TrimSpace(body)
		if len(b) > 0 && b[0] == '{' {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(b, &inner); err != nil {
				return shapeEmpty, nil, fmt.Errorf("decode body: %w", err)
			}
			if content, ok := inner["content"]; ok {
				list, err := decodeList(content)
				return shapeBodyContent, list, err
			}
		}
		if len(b) > 0 && b[0] == '[' {
			list, err := decodeList(b)
			return shapeBodyList, list, err
		}
	}
	if content, ok := obj["content"]; ok {
		list, err := decodeList(content)
		return shapeContent, list, err
	}
	if items, ok := obj["items"]; ok {
		list, err := decodeList(items)
		return shapeItems, list, err
	}
	return shapeEmpty, nil, nil
}

func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: content is not a list", ErrUnknownEnvelope)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return list, nil
}

type wirePage struct {
	Number     *int `json:"number"`
	Size       *int `json:"size"`
	Total      *int `json:"total"`
	TotalPages *int `json:"totalPages"`
}

// pageInfo reads body.page, falling back to a top-level page object.
func pageInfo(obj map[string]json.RawMessage) (*PageInfo, error) {
	raw, ok := lookupPage(obj)
	if !ok {
		return nil, nil
	}

	var wp wirePage
	if err := json.Unmarshal(raw, &wp); err != nil {
		return nil, fmt.Errorf("decode page metadata: %w", err)
	}
	if wp.Total == nil && wp.TotalPages == nil {
		return nil, nil
	}

	info := &PageInfo{Number: 1}
	if wp.Number != nil {
		info.Number = *wp.Number
	}
	if wp.Size != nil {
		info.Size = *wp.Size
	}
	if wp.Total != nil {
		info.Total = *wp.Total
	}
	switch {
	case wp.TotalPages != nil:
		info.TotalPages = *wp.TotalPages
	case info.Size > 0:
		info.TotalPages = (info.Total + info.Size - 1) / info.Size
	default:
		info.TotalPages = 1
	}
	return info, nil
}

func lookupPage(obj map[string]json.RawMessage) (json.RawMessage, bool) {
	if body, ok := obj["body"]; ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(body, &inner) == nil {
			if p, ok := inner["page"]; ok && isObject(p) {
				return p, true
			}
		}
	}
	if p, ok := obj["page"]; ok && isObject(p) {
		return p, true
	}
	return nil, false
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

// flexString renders a JSON string or number as a Go string.
func flexString(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(t, &s) == nil {
		return s
	}
	return string(t)
}

func keyList(obj map[string]json.RawMessage) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "[" + strings.Join(keys, ",") + "]"
}
