package sidecar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Candidate time fields in fixed priority order. The first field that
// yields any value wins; fields are never merged or cross-validated.
var probeOrder = []string{
	"photoTakenTime.timestamp",
	"creationTime.timestamp",
	"creationTime.formatted",
	"modificationTime.formatted",
}

// Formatted-date layouts tried in order. The first is a naive local layout
// anchored to UTC; the second is ISO-8601 with a literal Z suffix.
var formattedLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02T15:04:05Z",
}

// FieldError describes a candidate field that was present but failed to
// parse. Not fatal: resolution proceeds to the next field.
type FieldError struct {
	Field string
	Err   error
}

// Resolution is a successfully resolved timestamp and the field it came from.
type Resolution struct {
	Time        time.Time
	Field       string
	FieldErrors []FieldError
}

// Resolve extracts the authoritative capture time from rec by probing the
// candidate fields in priority order. Returns false when every field is
// absent or fails to parse; FieldErrors in the returned Resolution carry the
// per-field parse failures either way.
func Resolve(rec *Record) (Resolution, bool) {
	var res Resolution
	for _, field := range probeOrder {
		v, ok := fieldValue(rec, field)
		if !ok {
			continue
		}
		t, err := parseValue(v)
		if err != nil {
			res.FieldErrors = append(res.FieldErrors, FieldError{Field: field, Err: err})
			continue
		}
		res.Time = t
		res.Field = field
		return res, true
	}
	return res, false
}

// fieldValue looks up one probe path in rec. Raw timestamp values decode to
// float64 or string; formatted values are plain strings. ok is false when
// the field is absent or empty.
func fieldValue(rec *Record, field string) (interface{}, bool) {
	switch field {
	case "photoTakenTime.timestamp":
		return rawValue(rec.PhotoTakenTime.Timestamp)
	case "creationTime.timestamp":
		return rawValue(rec.CreationTime.Timestamp)
	case "creationTime.formatted":
		return stringValue(rec.CreationTime.Formatted)
	case "modificationTime.formatted":
		return stringValue(rec.ModificationTime.Formatted)
	}
	return nil, false
}

func rawValue(raw json.RawMessage) (interface{}, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	if s, ok := v.(string); ok && s == "" {
		return nil, false
	}
	return v, true
}

func stringValue(s string) (interface{}, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

// parseValue interprets one field value: a JSON number or a digits-only
// string is a UTC epoch-seconds integer; anything else is tried against the
// known formatted layouts, anchored to UTC.
func parseValue(v interface{}) (time.Time, error) {
	switch val := v.(type) {
	case float64:
		return time.Unix(int64(val), 0).UTC(), nil
	case string:
		if isDigits(val) {
			sec, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return time.Time{}, err
			}
			return time.Unix(sec, 0).UTC(), nil
		}
		for _, layout := range formattedLayouts {
			if t, err := time.ParseInLocation(layout, val, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date format %q", val)
	default:
		return time.Time{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
