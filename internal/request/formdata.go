package request

import (
	"errors"
	"fmt"

	"github.com/telhawk-systems/gmfetch/internal/dataset"
)

// Form field names understood by the data services.
const (
	FieldFormat   = "format"
	FieldDatasets = "datasets"
)

// ErrDatasetsNotSet is returned by FormData.AsMap before SetDatasets succeeded.
var ErrDatasetsNotSet = errors.New("datasets not set; use SetDatasets to populate")

// FormatSource supplies the output format requested from the service.
type FormatSource interface {
	OutputFormat() string
}

// FormData is the body of a download request. The format comes from the
// service configuration; the datasets are computed per request.
type FormData struct {
	Format   string
	Datasets *string
}

// NewFormData starts a FormData with the configured output format and no datasets.
func NewFormData(src FormatSource) *FormData {
	return &FormData{Format: src.OutputFormat()}
}

// SetDatasets computes the dataset identifiers for the request. The span
// actually downloaded is widened to whole years (hour cadence) or whole
// months (minute cadence) so both ends of r are included.
func (f *FormData) SetDatasets(r dataset.DateRange, station string, cadence dataset.Cadence, service string) error {
	ds, err := dataset.Build(r, station, cadence, service)
	if err != nil {
		return err
	}
	f.Datasets = &ds
	return nil
}

// AsMap returns the form fields, or ErrDatasetsNotSet.
func (f *FormData) AsMap() (map[string]string, error) {
	if f.Datasets == nil {
		return nil, ErrDatasetsNotSet
	}
	return map[string]string{
		FieldFormat:   f.Format,
		FieldDatasets: *f.Datasets,
	}, nil
}

// Equal reports whether both forms request the same format and datasets.
func (f *FormData) Equal(other *FormData) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Format != other.Format {
		return false
	}
	if f.Datasets == nil || other.Datasets == nil {
		return f.Datasets == other.Datasets
	}
	return *f.Datasets == *other.Datasets
}

func (f *FormData) String() string {
	datasets := "<unset>"
	if f.Datasets != nil {
		datasets = *f.Datasets
	}
	return fmt.Sprintf("FormData{format: %q, datasets: %q}", f.Format, datasets)
}
