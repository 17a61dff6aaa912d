// Package request assembles, sends and validates the HTTP POST requests made
// to a geomagnetic data service, and unpacks the archives it returns.
package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// State tracks how far a DataRequest has been populated.
type State int

const (
	Empty State = iota
	PartiallyPopulated
	Ready
	Sent
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case PartiallyPopulated:
		return "partially populated"
	case Ready:
		return "ready"
	case Sent:
		return "sent"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidRequest matches every InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAlreadySent is returned when Send is called a second time.
	ErrAlreadySent = errors.New("request already sent")
)

// Part is a component of a DataRequest and the setter that populates it.
type Part struct {
	Name   string
	Setter string
}

var (
	PartHeaders  = Part{Name: "headers", Setter: "SetHeadersFromConfig(cfg)"}
	PartURL      = Part{Name: "url", Setter: "SetURLFromConfig(cfg)"}
	PartFormData = Part{Name: "form data", Setter: "SetFormFields(fields)"}
)

// InvalidRequestError is returned by Send when parts of the request are unset.
type InvalidRequestError struct {
	Missing []Part
}

func (e *InvalidRequestError) Error() string {
	msgs := make([]string, len(e.Missing))
	for i, p := range e.Missing {
		msgs[i] = fmt.Sprintf("missing %s; set by calling `%s` method", p.Name, p.Setter)
	}
	return "cannot send request: " + strings.Join(msgs, "; ")
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// URLSource supplies the request URL.
type URLSource interface {
	URL() string
}

// HeaderSource supplies the request headers.
type HeaderSource interface {
	Headers() map[string]string
}

// ConfigSource supplies everything a DataRequest reads from configuration.
type ConfigSource interface {
	URLSource
	HeaderSource
}

// DataRequest is the POST request for one batch of datasets.
//
// A request starts empty and is populated through its setters or options.
// It can be sent once URL, Headers and FormFields are all non-empty.
type DataRequest struct {
	URL        string
	Headers    map[string]string
	FormFields map[string]string

	client *resty.Client
	sent   bool
}

// Option configures a DataRequest.
type Option func(*DataRequest)

func WithURL(u string) Option {
	return func(r *DataRequest) { r.URL = u }
}

func WithHeaders(h map[string]string) Option {
	return func(r *DataRequest) { r.Headers = maps.Clone(h) }
}

func WithFormFields(f map[string]string) Option {
	return func(r *DataRequest) { r.FormFields = maps.Clone(f) }
}

// WithClient sets the HTTP client used by Send.
func WithClient(c *resty.Client) Option {
	return func(r *DataRequest) { r.client = c }
}

// New creates a DataRequest. Without options the request is Empty.
func New(opts ...Option) *DataRequest {
	r := &DataRequest{
		Headers:    map[string]string{},
		FormFields: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	if r.FormFields == nil {
		r.FormFields = map[string]string{}
	}
	return r
}

// NewClient returns an HTTP client suitable for Send. A zero timeout means
// no client-side timeout. Requests are never retried.
func NewClient(timeout time.Duration) *resty.Client {
	c := resty.New().SetRetryCount(0)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// SetURLFromConfig reads the request URL from cfg.
func (r *DataRequest) SetURLFromConfig(cfg URLSource) {
	r.URL = cfg.URL()
}

// SetHeadersFromConfig reads the request headers from cfg.
func (r *DataRequest) SetHeadersFromConfig(cfg HeaderSource) {
	r.Headers = maps.Clone(cfg.Headers())
}

// SetFromConfig reads both URL and headers from cfg.
func (r *DataRequest) SetFromConfig(cfg ConfigSource) {
	r.SetURLFromConfig(cfg)
	r.SetHeadersFromConfig(cfg)
}

// SetFormFields replaces the form body.
func (r *DataRequest) SetFormFields(fields map[string]string) {
	r.FormFields = maps.Clone(fields)
}

// SetFormData replaces the form body with a completed FormData.
func (r *DataRequest) SetFormData(fd *FormData) error {
	fields, err := fd.AsMap()
	if err != nil {
		return err
	}
	r.FormFields = fields
	return nil
}

// CanSend reports whether URL, Headers and FormFields are all populated.
// It does no deeper validation.
func (r *DataRequest) CanSend() bool {
	return len(r.Missing()) == 0
}

// Missing lists the parts that still need to be set, in the order
// headers, url, form data.
func (r *DataRequest) Missing() []Part {
	var missing []Part
	if len(r.Headers) == 0 {
		missing = append(missing, PartHeaders)
	}
	if r.URL == "" {
		missing = append(missing, PartURL)
	}
	if len(r.FormFields) == 0 {
		missing = append(missing, PartFormData)
	}
	return missing
}

// State reports the current lifecycle state.
func (r *DataRequest) State() State {
	if r.sent {
		return Sent
	}
	switch len(r.Missing()) {
	case 0:
		return Ready
	case 3:
		return Empty
	default:
		return PartiallyPopulated
	}
}

// Encode returns the form-urlencoded request body.
func (r *DataRequest) Encode() string {
	values := url.Values{}
	for k, v := range r.FormFields {
		values.Set(k, v)
	}
	return values.Encode()
}

// Response is the raw outcome of a sent request.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Check validates the response; see CheckResponse.
func (resp *Response) Check() error {
	return CheckResponse(resp.StatusCode, resp.Body)
}

// Send posts the form to URL with the configured headers. It is only valid
// when the request is Ready; otherwise an InvalidRequestError lists what is
// missing. The HTTP status is not inspected here, use Response.Check.
// Transport failures are returned wrapped and are never retried.
func (r *DataRequest) Send(ctx context.Context) (*Response, error) {
	if r.sent {
		return nil, ErrAlreadySent
	}
	if missing := r.Missing(); len(missing) > 0 {
		return nil, &InvalidRequestError{Missing: missing}
	}

	client := r.client
	if client == nil {
		client = NewClient(0)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeaders(r.Headers).
		SetBody(r.Encode()).
		Post(r.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", r.URL, err)
	}
	r.sent = true

	body, err := decodeBody(resp.Header().Get("Content-Encoding"), resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", r.URL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Header:     resp.Header(),
		Body:       body,
	}, nil
}

// decodeBody undoes a deflate Content-Encoding. Resty already decodes gzip,
// and the explicit Accept-Encoding header turns off the transport's own
// decompression. Deflate is tried as zlib first, then as a raw stream.
func decodeBody(encoding string, body []byte) ([]byte, error) {
	if !strings.EqualFold(strings.TrimSpace(encoding), "deflate") || len(body) == 0 {
		return body, nil
	}

	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		out, err := io.ReadAll(zr)
		zr.Close()
		if err == nil {
			return out, nil
		}
	}

	fr := flate.NewReader(bytes.NewReader(body))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("invalid deflate body: %w", err)
	}
	return out, nil
}
