package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Cadence is the sampling frequency of the requested data.
type Cadence string

const (
	Minute Cadence = "minute"
	Hour   Cadence = "hour"
)

// SupportedCadences lists every cadence the builder understands.
var SupportedCadences = []Cadence{Minute, Hour}

// ErrInvalidArgument matches every InvalidArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports an argument value the builder cannot handle.
type InvalidArgumentError struct {
	Name      string
	Value     string
	Supported []string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s %q cannot be handled; should be one of: %s",
		e.Name, e.Value, strings.Join(e.Supported, ", "))
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ParseCadence converts s (case-insensitive) into a Cadence.
func ParseCadence(s string) (Cadence, error) {
	c := Cadence(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", &InvalidArgumentError{Name: "cadence", Value: s, Supported: supportedNames()}
	}
	return c, nil
}

// Validate returns an InvalidArgumentError when c is not supported.
func (c Cadence) Validate() error {
	for _, s := range SupportedCadences {
		if c == s {
			return nil
		}
	}
	return &InvalidArgumentError{Name: "cadence", Value: string(c), Supported: supportedNames()}
}

func (c Cadence) String() string {
	return string(c)
}

func supportedNames() []string {
	names := make([]string, len(SupportedCadences))
	for i, c := range SupportedCadences {
		names[i] = string(c)
	}
	return names
}
