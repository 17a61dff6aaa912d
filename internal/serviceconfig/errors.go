package serviceconfig

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfig matches every ConfigError.
var ErrConfig = errors.New("service config error")

// ConfigError reports a service section or option that is missing from the
// configuration, or an option value that cannot be used.
type ConfigError struct {
	Service  string
	Reason   string
	Required []string
	Missing  []string
	// Found holds the options (or sections, when the service itself is
	// missing) that the configuration does define.
	Found []string
	Err   error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Reason)
	if len(e.Required) > 0 {
		fmt.Fprintf(&sb, "; require values for %s under section for service [%s]", quoteList(e.Required), e.Service)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, "; missing %s", quoteList(e.Missing))
	}
	if e.Found != nil {
		fmt.Fprintf(&sb, "; found only %s", quoteList(e.Found))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
