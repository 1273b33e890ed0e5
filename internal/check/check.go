// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation for exiftool.
package check

import (
	"errors"
	"os/exec"
	"strings"
)

// ErrExiftoolNotFound is returned by CheckDeps when exiftool is missing.
var ErrExiftoolNotFound = errors.New("exiftool not found on PATH")

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints exiftool availability
// and version. Returns false when the tool is unusable.
func RunCheck(log Logger) bool {
	log.Info("=== System Check ===")

	path, err := exec.LookPath("exiftool")
	if err != nil {
		log.Error("exiftool not found on PATH")
		return false
	}
	log.Success("exiftool: %s", path)

	out, err := exec.Command("exiftool", "-ver").Output()
	if err != nil {
		log.Warn("exiftool found but -ver failed: %v", err)
		return false
	}
	log.Success("version: %s", strings.TrimSpace(string(out)))
	return true
}

// CheckDeps fails fast when exiftool is unavailable, before the batch starts.
func CheckDeps() error {
	if _, err := exec.LookPath("exiftool"); err != nil {
		return ErrExiftoolNotFound
	}
	return nil
}
