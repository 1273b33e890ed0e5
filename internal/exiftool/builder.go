// Package exiftool builds and runs exiftool invocations that rewrite a media
// file's embedded and filesystem dates, with outcome classification and
// bounded retry on transient lock contention.
package exiftool

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Extensions that take the video tag set; everything else gets image tags.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
	".wmv": true,
}

// Coordinates is a GPS position to write alongside the timestamp.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// FormatTimestamp renders a UTC instant in the display timezone using
// exiftool's expected syntax (YYYY:MM:DD HH:MM:SS±HHMM).
func FormatTimestamp(t time.Time, offsetHours int) string {
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	return t.In(zone).Format("2006:01:02 15:04:05-0700")
}

// Build constructs the complete exiftool argument slice for one file: global
// flags (minor-warning suppression, UTF-8 filename charset, in-place
// overwrite), date tag assignments chosen by the target's extension, optional
// GPS tags, and the target path last. stamp must come from [FormatTimestamp].
func Build(target, stamp string, coords *Coordinates) []string {
	args := make([]string, 0, 16)
	args = append(args, "exiftool",
		"-m",
		"-overwrite_original",
		"-charset", "filename=utf8",
	)

	ext := strings.ToLower(filepath.Ext(target))
	if videoExtensions[ext] {
		args = append(args,
			"-CreateDate="+stamp,
			"-MediaCreateDate="+stamp,
			"-TrackCreateDate="+stamp,
			"-MediaModifyDate="+stamp,
		)
	} else {
		args = append(args,
			"-DateTimeOriginal="+stamp,
			"-CreateDate="+stamp,
		)
	}
	args = append(args,
		"-FileCreateDate="+stamp,
		"-FileModifyDate="+stamp,
	)

	if coords != nil {
		args = appendGPSTags(args, coords, ext)
	}

	return append(args, target)
}

// appendGPSTags adds coordinate assignments. XMP tags are written for every
// format; EXIF GPS tags with hemisphere refs are skipped for GIF, which has
// no EXIF block.
func appendGPSTags(args []string, coords *Coordinates, ext string) []string {
	lat := formatCoord(coords.Latitude)
	lon := formatCoord(coords.Longitude)

	args = append(args,
		"-XMP:GPSLatitude="+lat,
		"-XMP:GPSLongitude="+lon,
	)

	if ext == ".gif" {
		return args
	}

	latRef, lonRef := "N", "E"
	if coords.Latitude < 0 {
		latRef = "S"
	}
	if coords.Longitude < 0 {
		lonRef = "W"
	}
	return append(args,
		"-GPSLatitude="+lat,
		"-GPSLatitudeRef="+latRef,
		"-GPSLongitude="+lon,
		"-GPSLongitudeRef="+lonRef,
	)
}

func formatCoord(v float64) string {
	if v < 0 {
		v = -v
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
