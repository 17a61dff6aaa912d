// Package dataset builds the dataset identifiers a geomagnetic data service
// expects in the "datasets" form field of a download request.
package dataset

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted by ParseDateRange.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar dates.
// Start after End is not rejected. Such a range has no days, so minute
// cadence yields no identifiers; hour cadence still yields the year when
// both dates fall in the same year, and nothing otherwise.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates start and end to calendar dates in UTC.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: civil(start), End: civil(end)}
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return NewDateRange(s, e), nil
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Days returns every calendar day in the range, both ends included.
func (r DateRange) Days() []time.Time {
	start, end := civil(r.Start), civil(r.End)
	if start.After(end) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Identifiers returns the dataset identifiers covering r for station at the
// given cadence on service.
//
// Hour cadence yields one identifier per calendar year, minute cadence one per
// distinct (year, month) touched by any day in the range. Callers should treat
// the result as a set; duplicates never occur.
func Identifiers(r DateRange, station string, cadence Cadence, service string) ([]string, error) {
	if err := cadence.Validate(); err != nil {
		return nil, err
	}

	base := Root(service, cadence) + strings.ToLower(station)

	var ids []string
	switch cadence {
	case Hour:
		for year := r.Start.Year(); year <= r.End.Year(); year++ {
			ids = append(ids, fmt.Sprintf("%s%d", base, year))
		}
	case Minute:
		// Walk day by day; month and year boundaries fall out naturally.
		seen := make(map[string]struct{})
		for _, day := range r.Days() {
			id := fmt.Sprintf("%s%d%02d", base, day.Year(), int(day.Month()))
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Build returns the comma-joined identifiers for the "datasets" form field.
func Build(r DateRange, station string, cadence Cadence, service string) (string, error) {
	ids, err := Identifiers(r, station, cadence, service)
	if err != nil {
		return "", err
	}
	return strings.Join(ids, ","), nil
}

// Root returns the identifier prefix shared by every dataset of a service and
// cadence, e.g. "/wdc/datasets/minute/".
func Root(service string, cadence Cadence) string {
	return "/" + strings.ToLower(service) + "/datasets/" + string(cadence) + "/"
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
