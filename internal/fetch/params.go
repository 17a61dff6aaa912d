package fetch

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/telhawk-systems/gmfetch/internal/dataset"
)

// ErrInvalidParams matches every parameter validation failure.
var ErrInvalidParams = errors.New("invalid fetch parameters")

var validate = validator.New()

// Params describes one station fetch. An empty ConfigPath selects the
// built-in service configuration.
type Params struct {
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required"`
	Station    string    `validate:"required,alpha"`
	Cadence    string
	Service    string    `validate:"required"`
	Dest       string    `validate:"required"`
	ConfigPath string
}

// Validate checks the parameters. The cadence, empty or not, is checked
// separately by dataset.ParseCadence so its error names the supported values.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fieldMessage(e))
		}
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(msgs, "; "))
	}
	return nil
}

// DateRange returns the requested range as calendar dates.
func (p Params) DateRange() dataset.DateRange {
	return dataset.NewDateRange(p.Start, p.End)
}

// WithStation returns a copy of p for another station.
func (p Params) WithStation(station string) Params {
	p.Station = station
	return p
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(e.Field()))
	case "alpha":
		return fmt.Sprintf("%s %q must be alphabetic", strings.ToLower(e.Field()), e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", strings.ToLower(e.Field()), e.Tag())
	}
}

// checkDest rejects a missing or non-directory destination before any
// request is made. A missing directory still matches os.ErrNotExist.
func checkDest(dest string) error {
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("%w: destination directory: %w", ErrInvalidParams, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: destination %s is not a directory", ErrInvalidParams, dest)
	}
	return nil
}

// SplitStations flattens station arguments, splitting each on whitespace so
// "ESK NGK" and []string{"ESK", "NGK"} name the same stations.
func SplitStations(stations ...string) []string {
	var out []string
	for _, s := range stations {
		out = append(out, strings.Fields(s)...)
	}
	return out
}
