// Package logging provides the structured logger used across gmfetch and
// helpers for the field names it logs.
package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging.
const (
	FieldRunID    = "run_id"
	FieldService  = "service"
	FieldStation  = "station"
	FieldCadence  = "cadence"
	FieldRange    = "range"
	FieldURL      = "url"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldDatasets = "datasets"
	FieldFiles    = "files"
	FieldDest     = "dest"
)

// Service returns a slog attribute for the data service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Station returns a slog attribute for the observatory code.
func Station(code string) slog.Attr {
	return slog.String(FieldStation, code)
}

// Cadence returns a slog attribute for the sampling cadence.
func Cadence(c string) slog.Attr {
	return slog.String(FieldCadence, c)
}

// Range returns a slog attribute for a date range.
func Range(r string) slog.Attr {
	return slog.String(FieldRange, r)
}

// URL returns a slog attribute for the request URL.
func URL(u string) slog.Attr {
	return slog.String(FieldURL, u)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for a duration in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Datasets returns a slog attribute for the requested dataset list.
func Datasets(ds string) slog.Attr {
	return slog.String(FieldDatasets, ds)
}

// Files returns a slog attribute for the number of files extracted.
func Files(n int) slog.Attr {
	return slog.Int(FieldFiles, n)
}

// Dest returns a slog attribute for the extraction directory.
func Dest(dir string) slog.Attr {
	return slog.String(FieldDest, dir)
}
