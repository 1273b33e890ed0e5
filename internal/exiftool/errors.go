package exiftool

import (
	"regexp"
	"strings"
)

// Pre-compiled regexes for classifying exiftool stderr output. A file-in-use
// match marks the attempt as transient lock contention, which is retried;
// "minor" lines are non-actionable warnings stripped before logging.
var (
	reFileInUse = regexp.MustCompile(
		`(?i)file is in use|` +
			`being used by another process|` +
			`sharing violation`)

	reMinor = regexp.MustCompile(`(?i)minor`)
)

// MatchFileInUse reports whether stderr contains a locked-file signature.
func MatchFileInUse(stderr string) bool {
	return reFileInUse.MatchString(stderr)
}

// FilterMinor strips lines containing a case-insensitive "minor" marker from
// tool output, preserving real diagnostics.
func FilterMinor(stderr string) string {
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if reMinor.MatchString(l) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
