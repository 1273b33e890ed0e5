// Package sidecar reads the JSON metadata files that accompany exported
// media and resolves a single authoritative capture timestamp from them.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoCoordinates is returned by [Record.Coordinates] when the sidecar
// carries no usable GPS data.
var ErrNoCoordinates = errors.New("no coordinates in sidecar")

// timeField is one named time entry in a sidecar. Exports are inconsistent
// about the timestamp's JSON type (number vs string), so it is kept raw
// until probed.
type timeField struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Formatted string          `json:"formatted"`
}

type geoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Record is the parsed contents of one sidecar. Only the fields the
// resolver consults are decoded; any subset may be absent. A Record is read
// once per sidecar and never mutated.
type Record struct {
	Title            string    `json:"title"`
	PhotoTakenTime   timeField `json:"photoTakenTime"`
	CreationTime     timeField `json:"creationTime"`
	ModificationTime timeField `json:"modificationTime"`
	GeoData          geoData   `json:"geoData"`
}

// Load reads and decodes the sidecar at path. Content is UTF-8 JSON; a
// leading byte-order mark is tolerated and stripped before decoding.
func Load(path string) (*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	clean, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(clean, &rec); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return &rec, nil
}

// Coordinates returns the sidecar's GPS position. (0,0) means the export
// carried no fix and is treated as absent (ErrNoCoordinates); out-of-range
// values return a descriptive error so the caller can warn.
func (r *Record) Coordinates() (lat, lon float64, err error) {
	lat, lon = r.GeoData.Latitude, r.GeoData.Longitude
	if lat == 0 && lon == 0 {
		return 0, 0, ErrNoCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range: lat=%v lon=%v", lat, lon)
	}
	return lat, lon, nil
}
