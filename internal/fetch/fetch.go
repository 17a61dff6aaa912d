// Package fetch downloads observatory data for one or more stations: it
// resolves the service configuration, builds the dataset list, posts the
// request and extracts the returned archive.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/telhawk-systems/gmfetch/internal/dataset"
	"github.com/telhawk-systems/gmfetch/internal/logging"
	"github.com/telhawk-systems/gmfetch/internal/metrics"
	"github.com/telhawk-systems/gmfetch/internal/notify"
	"github.com/telhawk-systems/gmfetch/internal/request"
	"github.com/telhawk-systems/gmfetch/internal/serviceconfig"
)

// ErrExtract matches failures while unpacking a valid archive. The
// underlying filesystem error stays reachable through errors.Is.
var ErrExtract = errors.New("archive extraction failed")

// Result summarises one successful station fetch.
type Result struct {
	RunID    string        `json:"run_id"`
	Service  string        `json:"service"`
	Station  string        `json:"station"`
	Cadence  string        `json:"cadence"`
	Range    string        `json:"range"`
	Datasets []string      `json:"datasets"`
	Files    []string      `json:"files"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration_ns"`
}

// Fetcher runs station fetches. The zero collaborators are replaced by
// defaults in New: a discarding logger, a client without timeout, and no
// metrics or notifications.
type Fetcher struct {
	logger   *logging.Logger
	client   *resty.Client
	metrics  *metrics.Metrics
	notifier *notify.Notifier
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithLogger(l *logging.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func WithClient(c *resty.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

func WithNotifier(n *notify.Notifier) Option {
	return func(f *Fetcher) { f.notifier = n }
}

func New(opts ...Option) *Fetcher {
	f := &Fetcher{}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.Discard()
	}
	if f.client == nil {
		f.client = request.NewClient(0)
	}
	return f
}

// FetchStation downloads the data for p.Station and extracts it into p.Dest.
// Any failure ends the fetch; files already extracted are left in place.
func (f *Fetcher) FetchStation(ctx context.Context, p Params) (res *Result, err error) {
	ctx = ensureRunID(ctx)
	started := time.Now()
	r := p.DateRange()

	var datasets []string
	var bytes int
	cadenceLabel := "unknown"
	defer func() {
		elapsed := time.Since(started)
		files := 0
		if res != nil {
			files = len(res.Files)
		}
		f.metrics.ObserveFetch(p.Service, p.Station, cadenceLabel, outcome(err), elapsed, files, bytes)
		f.notify(ctx, p, r, datasets, res, err)
	}()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	cadence, err := dataset.ParseCadence(p.Cadence)
	if err != nil {
		return nil, err
	}
	cadenceLabel = cadence.String()
	if err := checkDest(p.Dest); err != nil {
		return nil, err
	}

	log := f.logger.With(
		logging.Service(p.Service),
		logging.Station(p.Station),
		logging.Cadence(cadence.String()),
		logging.Range(r.String()),
	)

	cfg, err := serviceconfig.Load(p.ConfigPath, p.Service)
	if err != nil {
		return nil, err
	}

	form := request.NewFormData(cfg)
	if err := form.SetDatasets(r, p.Station, cadence, p.Service); err != nil {
		return nil, err
	}
	datasets = splitDatasets(*form.Datasets)

	req := request.New(request.WithClient(f.client))
	req.SetFromConfig(cfg)
	if err := req.SetFormData(form); err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "sending data request", logging.URL(req.URL), logging.Datasets(*form.Datasets))
	resp, err := req.Send(ctx)
	if err != nil {
		log.ErrorContext(ctx, "data request failed", logging.URL(req.URL), logging.Error(err))
		return nil, err
	}
	bytes = len(resp.Body)

	if err := resp.Check(); err != nil {
		log.WarnContext(ctx, "service returned no usable data",
			logging.Status(resp.StatusCode), logging.Error(err))
		return nil, err
	}

	written, err := resp.Extract(p.Dest)
	if err != nil {
		log.ErrorContext(ctx, "archive extraction failed",
			logging.Dest(p.Dest), logging.Files(len(written)), logging.Error(err))
		return nil, fmt.Errorf("%w for station %s: %w", ErrExtract, p.Station, err)
	}

	res = &Result{
		RunID:    logging.RunID(ctx),
		Service:  cfg.Service(),
		Station:  p.Station,
		Cadence:  cadence.String(),
		Range:    r.String(),
		Datasets: datasets,
		Files:    written,
		Bytes:    bytes,
		Duration: time.Since(started),
	}
	log.InfoContext(ctx, "station data extracted",
		logging.Files(len(written)), logging.Dest(p.Dest), logging.Duration(res.Duration))
	return res, nil
}

// FetchStations fetches each station in turn with the remaining parameters
// of p. Entries are split on whitespace; with no entries p.Station is used.
// The first failure stops the run and is returned with the results so far.
func (f *Fetcher) FetchStations(ctx context.Context, p Params, stations ...string) ([]*Result, error) {
	ctx = ensureRunID(ctx)
	if len(stations) == 0 {
		stations = []string{p.Station}
	}
	codes := SplitStations(stations...)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: no stations given", ErrInvalidParams)
	}

	results := make([]*Result, 0, len(codes))
	for _, code := range codes {
		res, err := f.FetchStation(ctx, p.WithStation(code))
		if err != nil {
			return results, fmt.Errorf("station %s: %w", code, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (f *Fetcher) notify(ctx context.Context, p Params, r dataset.DateRange, datasets []string, res *Result, err error) {
	if f.notifier == nil {
		return
	}
	e := &notify.Event{
		RunID:    logging.RunID(ctx),
		Service:  p.Service,
		Station:  p.Station,
		Cadence:  p.Cadence,
		Start:    r.Start.Format(dataset.DateLayout),
		End:      r.End.Format(dataset.DateLayout),
		Datasets: datasets,
	}
	if res != nil {
		e.Files = res.Files
		e.Bytes = res.Bytes
	}
	if err != nil {
		e.Error = err.Error()
	}
	if nerr := f.notifier.Notify(ctx, e); nerr != nil {
		f.logger.WarnContext(ctx, "failed to publish fetch event", logging.Station(p.Station), logging.Error(nerr))
	}
}

// splitDatasets recovers the identifiers from the datasets form field.
func splitDatasets(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, ",")
}

func ensureRunID(ctx context.Context) context.Context {
	if logging.RunID(ctx) != "" {
		return ctx
	}
	return logging.WithRunID(ctx, uuid.NewString())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, serviceconfig.ErrConfig):
		return metrics.OutcomeConfigError
	case errors.Is(err, dataset.ErrInvalidArgument), errors.Is(err, ErrInvalidParams):
		return metrics.OutcomeInvalidArgument
	case errors.Is(err, request.ErrInvalidRequest), errors.Is(err, request.ErrDatasetsNotSet):
		return metrics.OutcomeInvalidRequest
	case errors.Is(err, request.ErrResponse):
		return metrics.OutcomeResponseError
	case errors.Is(err, ErrExtract):
		return metrics.OutcomeExtractError
	default:
		return metrics.OutcomeTransportError
	}
}

// FetchStationData fetches one station with a default Fetcher.
func FetchStationData(ctx context.Context, p Params) (*Result, error) {
	return New().FetchStation(ctx, p)
}

// FetchData fetches several stations in sequence with a default Fetcher.
func FetchData(ctx context.Context, p Params, stations ...string) ([]*Result, error) {
	return New().FetchStations(ctx, p, stations...)
}
