// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Timezone offsets accepted for --tz, matching the range of real UTC offsets.
const (
	TZOffsetMin = -12
	TZOffsetMax = 14
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Root directory to walk for sidecar files (positional arg).
	RootDir string

	// Display timezone for written timestamps, as a whole-hour UTC offset.
	// Default: 8 (UTC+8), matching the archive owner's locale.
	TZOffsetHours int

	// Behavior flags.
	DryRun     bool // Log commands without invoking exiftool.
	SkipTagged bool // Skip files that already carry an embedded capture date.
	WriteGPS   bool // Default: true. Write geoData coordinates when present.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path; the failure report is written beside it.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with all defaults applied. Used as the base
// before [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		TZOffsetHours: 8,
		WriteGPS:      true,
		ColorMode:     ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and the timezone offset range. When not in
// CheckOnly mode, it also requires a non-empty root directory.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.TZOffsetHours < TZOffsetMin || c.TZOffsetHours > TZOffsetMax {
		return fmt.Errorf("timezone offset %+d out of range (%+d..%+d)",
			c.TZOffsetHours, TZOffsetMin, TZOffsetMax)
	}

	if c.CheckOnly {
		return nil
	}
	if c.RootDir == "" {
		return errors.New("need exactly one target directory")
	}
	return nil
}
