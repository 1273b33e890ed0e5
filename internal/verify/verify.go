// Package verify probes media files for an already-present embedded capture
// date, so --skip-tagged runs can leave correctly tagged files untouched.
package verify

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Formats the EXIF decoder understands. Other formats are never skipped;
// exiftool rewrites them unconditionally.
var probeExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// HasCaptureDate reports whether path already carries an embedded capture
// date (DateTimeOriginal or equivalent). Unreadable or non-probeable files
// report false so they still get rewritten.
func HasCaptureDate(path string) bool {
	if !probeExtensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return false
	}
	_, err = x.DateTime()
	return err == nil
}
