// Package serviceconfig reads the per-service request settings (headers,
// endpoint and output format) for the remote geomagnetic data services.
package serviceconfig

import (
	"fmt"
	"maps"
	"strings"

	"github.com/telhawk-systems/gmfetch/internal/safeformat"
)

// Option names every service section must define.
const (
	KeyAccept         = "Accept"
	KeyAcceptEncoding = "Accept-Encoding"
	KeyContentType    = "Content-Type"
	KeyHostname       = "Hostname"
	KeyRoute          = "Route"
	KeyFileFormat     = "FileFormat"
	KeyFormatTemplate = "_format_template"
)

var (
	// HeaderKeys are the request headers read from a service section.
	HeaderKeys = []string{KeyAccept, KeyAcceptEncoding, KeyContentType}
	// URLKeys are joined with "/" to form the request URL.
	URLKeys = []string{KeyHostname, KeyRoute}
	formatKeys = []string{KeyFormatTemplate, KeyFileFormat}
	// RequiredKeys lists every option a service section must define.
	RequiredKeys = []string{
		KeyAccept, KeyAcceptEncoding, KeyContentType,
		KeyHostname, KeyRoute, KeyFileFormat, KeyFormatTemplate,
	}
)

// ServiceConfig is the resolved request configuration for one service.
// It is immutable once built.
type ServiceConfig struct {
	service      string
	source       string
	headers      map[string]string
	url          string
	outputFormat string
}

// New builds a ServiceConfig from already resolved values.
func New(service string, headers map[string]string, url, outputFormat string) *ServiceConfig {
	return &ServiceConfig{
		service:      service,
		headers:      maps.Clone(headers),
		url:          url,
		outputFormat: outputFormat,
	}
}

// Load reads the configuration file at path and resolves service from it.
// An empty path selects the built-in configuration.
func Load(path, service string) (*ServiceConfig, error) {
	var (
		store Store
		err   error
	)
	if path == "" {
		store = DefaultStore()
	} else {
		store, err = OpenStore(path)
		if err != nil {
			return nil, err
		}
	}
	return FromStore(store, service)
}

// FromStore resolves service from an already opened Store.
func FromStore(store Store, service string) (*ServiceConfig, error) {
	if err := CheckService(store, service); err != nil {
		return nil, err
	}

	headers, err := Headers(store, service)
	if err != nil {
		return nil, err
	}
	url, err := URL(store, service)
	if err != nil {
		return nil, err
	}
	format, err := OutputFormat(store, service)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		service:      service,
		source:       store.Path(),
		headers:      headers,
		url:          url,
		outputFormat: format,
	}, nil
}

// CheckService fails unless store defines a section for service.
func CheckService(store Store, service string) error {
	if store.HasSection(service) {
		return nil
	}
	found := store.Sections()
	if found == nil {
		found = []string{}
	}
	return &ConfigError{
		Service:  service,
		Reason:   fmt.Sprintf("cannot find service %s in configuration %s (should look like [%s])", service, store.Path(), service),
		Required: RequiredKeys,
		Found:    found,
	}
}

// Headers returns the request headers configured for service.
func Headers(store Store, service string) (map[string]string, error) {
	return requireKeys(store, service, "cannot load request headers from config", HeaderKeys)
}

// URL returns Hostname and Route joined with "/".
func URL(store Store, service string) (string, error) {
	values, err := requireKeys(store, service, "cannot load request url from config", URLKeys)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(URLKeys))
	for i, k := range URLKeys {
		parts[i] = values[k]
	}
	return strings.Join(parts, "/"), nil
}

// OutputFormat renders the _format_template option with the FileFormat
// option substituted into its single placeholder.
func OutputFormat(store Store, service string) (string, error) {
	template, ok := store.Get(service, KeyFormatTemplate)
	if !ok {
		return "", &ConfigError{
			Service:  service,
			Reason:   fmt.Sprintf("cannot find required value %s in config for service [%s]", KeyFormatTemplate, service),
			Required: formatKeys,
			Missing:  []string{KeyFormatTemplate},
			Found:    foundKeys(store, service),
		}
	}
	fileType, ok := store.Get(service, KeyFileFormat)
	if !ok {
		return "", &ConfigError{
			Service:  service,
			Reason:   fmt.Sprintf("cannot find output file type option %s in config for service [%s]", KeyFileFormat, service),
			Required: formatKeys,
			Missing:  []string{KeyFileFormat},
			Found:    foundKeys(store, service),
		}
	}

	n, err := safeformat.Placeholders(template)
	if err == nil && n != 1 {
		err = fmt.Errorf("%w: %q has %d placeholders, want exactly 1", safeformat.ErrTemplate, template, n)
	}
	if err != nil {
		return "", &ConfigError{
			Service:  service,
			Reason:   fmt.Sprintf("invalid %s in config for service [%s]", KeyFormatTemplate, service),
			Required: formatKeys,
			Err:      err,
		}
	}

	out, err := safeformat.Format(template, fileType)
	if err != nil {
		return "", &ConfigError{
			Service:  service,
			Reason:   fmt.Sprintf("invalid %s in config for service [%s]", KeyFormatTemplate, service),
			Required: formatKeys,
			Err:      err,
		}
	}
	return out, nil
}

func requireKeys(store Store, service, reason string, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		v, ok := store.Get(service, k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		values[k] = v
	}
	if len(missing) > 0 {
		return nil, &ConfigError{
			Service:  service,
			Reason:   reason,
			Required: keys,
			Missing:  missing,
			Found:    foundKeys(store, service),
		}
	}
	return values, nil
}

func foundKeys(store Store, service string) []string {
	keys := store.Keys(service)
	if keys == nil {
		return []string{}
	}
	return keys
}

// Service is the section name the configuration was resolved from.
func (c *ServiceConfig) Service() string { return c.service }

// Source is the path of the configuration file, if any.
func (c *ServiceConfig) Source() string { return c.source }

// Headers returns a copy of the configured request headers.
func (c *ServiceConfig) Headers() map[string]string { return maps.Clone(c.headers) }

// URL is the full request URL.
func (c *ServiceConfig) URL() string { return c.url }

// OutputFormat is the rendered output format, e.g. "text/x-iaga2002".
func (c *ServiceConfig) OutputFormat() string { return c.outputFormat }

func (c *ServiceConfig) String() string {
	return fmt.Sprintf("ServiceConfig(%q, %q)", c.source, c.service)
}
