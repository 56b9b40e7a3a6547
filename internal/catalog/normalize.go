// Package catalog is the read-through adapter over the upstream launch catalog.
//
// Upstream records are loosely typed JSON objects. Normalize is the only place
// that knows their field names; everything else works with model.Launch.
package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/launchdeck/launchdeck/internal/model"
)

// Normalize maps one upstream launch record into a model.Launch.
// It never fails: missing or mistyped fields become zero values or nil.
func Normalize(raw map[string]any) model.Launch {
	site := object(raw, "launch_site")
	links := object(raw, "links")
	rocket := object(raw, "rocket")

	return model.Launch{
		ID:     flightNumber(raw["flight_number"]),
		Cursor: scalarText(raw["launch_date_unix"]),
		Site:   optionalString(site, "site_name"),
		Mission: model.Mission{
			Name:              text(raw, "mission_name"),
			MissionPatchSmall: optionalString(links, "mission_patch_small"),
			MissionPatchLarge: optionalString(links, "mission_patch"),
		},
		Rocket: model.Rocket{
			ID:   text(rocket, "rocket_id"),
			Name: text(rocket, "rocket_name"),
			Type: text(rocket, "rocket_type"),
		},
	}
}

// decodeRecords parses a listing body. ok is false when the body is not a JSON array.
// Elements that are not objects are skipped.
func decodeRecords(body []byte) (records []map[string]any, ok bool) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}

	items, isList := doc.([]any)
	if !isList {
		return nil, false
	}

	records = make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, isObj := item.(map[string]any); isObj {
			records = append(records, rec)
		}
	}
	return records, true
}

func object(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func text(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func optionalString(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// scalarText renders a number or string field as the text the upstream sent.
func scalarText(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func flightNumber(v any) int {
	var n int64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = i
		} else if f, err := t.Float64(); err == nil && !math.IsInf(f, 0) {
			n = int64(f)
		}
	case float64:
		n = int64(t)
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			n = i
		}
	}

	if n <= 0 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}
