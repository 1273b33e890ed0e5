// Package match locates the media file paired with a JSON sidecar.
//
// Export tools truncate, append, or duplicate-suffix media filenames
// inconsistently; a single exact-match strategy misses too many real files,
// so three strategies of decreasing specificity are tried in order and the
// first real hit wins.
package match

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel errors returned by Match. Their text doubles as the recorded
// failure reason.
var (
	ErrUnrecognizedName = errors.New("filename format not recognized")
	ErrNoMediaFile      = errors.New("no media file found")
)

// Supported media file extensions (lowercase, with leading dot).
var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".mp4":  true,
	".mov":  true,
	".heic": true,
	".webp": true,
}

// canonicalSupplemental is the full supplemental-suffix marker some export
// tools insert between the media extension and ".json". Exports truncate
// long filenames, so any prefix of it counts (e.g. ".supplemental-metad",
// ".su"), optionally carrying a "(n)" duplicate counter.
const canonicalSupplemental = "supplemental-metadata"

var reDupCounter = regexp.MustCompile(`\(\d+\)$`)

// SplitSidecarName splits a sidecar basename into the media base name and
// its primary extension, discarding a recognized supplemental suffix and the
// ".json" extension (both case-insensitive). The returned extension keeps
// its original case and leading dot.
func SplitSidecarName(name string) (base, ext string, err error) {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".json") {
		return "", "", ErrUnrecognizedName
	}
	rest := name[:len(name)-len(".json")]

	i := strings.LastIndex(rest, ".")
	if i <= 0 {
		return "", "", ErrUnrecognizedName
	}
	if isSupplementalSuffix(rest[i+1:]) {
		rest = rest[:i]
		i = strings.LastIndex(rest, ".")
		if i <= 0 {
			return "", "", ErrUnrecognizedName
		}
	}

	base = rest[:i]
	ext = rest[i:]
	if len(ext) < 2 {
		return "", "", ErrUnrecognizedName
	}
	return base, ext, nil
}

// isSupplementalSuffix reports whether seg is a (possibly truncated)
// supplemental-metadata marker, ignoring case and a trailing duplicate
// counter like "(1)".
func isSupplementalSuffix(seg string) bool {
	seg = reDupCounter.ReplaceAllString(seg, "")
	if seg == "" {
		return false
	}
	return strings.HasPrefix(canonicalSupplemental, strings.ToLower(seg))
}

// Match locates the media file paired with sidecarPath in the same
// directory. Strategies are tried in strict priority order: exact name,
// reconstructed-name prefix (renamed duplicates like "(1)"), then loose
// prefix on the portion of the base name before its first dot. Within one
// strategy, entries are scanned in lexicographic order so ties resolve
// deterministically. Returns ErrUnrecognizedName or ErrNoMediaFile on
// failure.
func Match(sidecarPath string) (string, error) {
	base, ext, err := SplitSidecarName(filepath.Base(sidecarPath))
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(sidecarPath)
	entries, err := os.ReadDir(dir) // sorted by filename
	if err != nil {
		return "", err
	}

	want := base + ext
	loose := base
	if j := strings.Index(base, "."); j > 0 {
		loose = base[:j]
	}

	strategies := []func(name string) bool{
		func(name string) bool { return name == want },
		func(name string) bool { return strings.HasPrefix(name, want) },
		func(name string) bool { return strings.HasPrefix(name, loose) },
	}

	for _, accepts := range strategies {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if !accepts(name) || !eligibleMedia(name) {
				continue
			}
			return filepath.Join(dir, name), nil
		}
	}
	return "", ErrNoMediaFile
}

// eligibleMedia reports whether name has a supported media extension and is
// not itself a sidecar.
func eligibleMedia(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".json") {
		return false
	}
	return mediaExtensions[filepath.Ext(lower)]
}
