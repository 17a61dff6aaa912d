package dataset

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCadence(t *testing.T) {
	tests := []struct {
		in   string
		want Cadence
	}{
		{"minute", Minute},
		{"hour", Hour},
		{"Minute", Minute},
		{" HOUR ", Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCadence(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCadence_Unsupported(t *testing.T) {
	for _, in := range []string{"second", "daily", "", "minutes"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCadence(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)

			var argErr *InvalidArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, "cadence", argErr.Name)
			assert.Contains(t, err.Error(), in)
			assert.Contains(t, err.Error(), "minute")
			assert.Contains(t, err.Error(), "hour")
		})
	}
}

func TestIdentifiers_UnsupportedCadence(t *testing.T) {
	r := NewDateRange(date(2015, 1, 1), date(2015, 2, 1))
	_, err := Identifiers(r, "ESK", Cadence("fortnightly"), "WDC")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "fortnightly")
	assert.Contains(t, err.Error(), "minute")
	assert.Contains(t, err.Error(), "hour")
}

func TestIdentifiers_Hour(t *testing.T) {
	r := NewDateRange(date(1999, 6, 30), date(2002, 1, 1))
	ids, err := Identifiers(r, "NGK", Hour, "WDC")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/wdc/datasets/hour/ngk1999",
		"/wdc/datasets/hour/ngk2000",
		"/wdc/datasets/hour/ngk2001",
		"/wdc/datasets/hour/ngk2002",
	}, ids)
}

func TestIdentifiers_HourSingleYear(t *testing.T) {
	r := NewDateRange(date(2015, 4, 1), date(2015, 4, 30))
	got, err := Build(r, "NGK", Hour, "WDC")
	require.NoError(t, err)
	assert.Equal(t, "/wdc/datasets/hour/ngk2015", got)
}

func TestIdentifiers_MinuteAcrossYearBoundary(t *testing.T) {
	r := NewDateRange(date(1999, 12, 31), date(2000, 1, 2))
	ids, err := Identifiers(r, "XXX", Minute, "YYY")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"/yyy/datasets/minute/xxx199912",
		"/yyy/datasets/minute/xxx200001",
	}, ids)
}

func TestIdentifiers_MinuteSingleDay(t *testing.T) {
	r := NewDateRange(date(2016, 2, 29), date(2016, 2, 29))
	got, err := Build(r, "esk", Minute, "wdc")
	require.NoError(t, err)
	assert.Equal(t, "/wdc/datasets/minute/esk201602", got)
}

func TestIdentifiers_MinuteFullMonth(t *testing.T) {
	r := NewDateRange(date(2015, 4, 1), date(2015, 4, 30))
	got, err := Build(r, "ESK", Minute, "WDC")
	require.NoError(t, err)
	assert.Equal(t, "/wdc/datasets/minute/esk201504", got)
}

func TestIdentifiers_MinuteYearSpan(t *testing.T) {
	r := NewDateRange(date(2015, 1, 15), date(2015, 12, 1))
	ids, err := Identifiers(r, "ESK", Minute, "WDC")
	require.NoError(t, err)
	assert.Len(t, ids, 12)
	for m := 1; m <= 12; m++ {
		assert.Contains(t, ids, fmt.Sprintf("/wdc/datasets/minute/esk2015%02d", m))
	}
}

func TestIdentifiers_StartAfterEnd(t *testing.T) {
	r := NewDateRange(date(2016, 1, 1), date(2015, 1, 1))

	ids, err := Identifiers(r, "ESK", Minute, "WDC")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = Identifiers(r, "ESK", Hour, "WDC")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Hour cadence compares years only, so a reversed range inside one
	// year still names that year.
	sameYear := NewDateRange(date(2015, 6, 1), date(2015, 1, 1))
	ids, err = Identifiers(sameYear, "XXX", Hour, "WDC")
	require.NoError(t, err)
	assert.Equal(t, []string{"/wdc/datasets/hour/xxx2015"}, ids)

	ids, err = Identifiers(sameYear, "XXX", Minute, "WDC")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewDateRange_DropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	r := NewDateRange(time.Date(2015, 3, 31, 23, 30, 0, 0, loc), time.Date(2015, 4, 1, 0, 15, 0, 0, loc))
	assert.Equal(t, date(2015, 3, 31), r.Start)
	assert.Equal(t, date(2015, 4, 1), r.End)
	assert.Len(t, r.Days(), 2)
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2015-04-01", "2015-04-30")
	require.NoError(t, err)
	assert.Equal(t, "2015-04-01..2015-04-30", r.String())

	_, err = ParseDateRange("2015-13-01", "2015-04-30")
	assert.ErrorContains(t, err, "invalid start date")

	_, err = ParseDateRange("2015-04-01", "yesterday")
	assert.ErrorContains(t, err, "invalid end date")
}

func TestRoot(t *testing.T) {
	assert.Equal(t, "/wdc/datasets/minute/", Root("WDC", Minute))
	assert.Equal(t, "/intermagnet/datasets/hour/", Root("INTERMAGNET", Hour))
}

// Randomised ranges: the hour identifiers are one per year and the minute
// identifiers are exactly the distinct months of the days in range.
func TestIdentifiers_RandomRanges(t *testing.T) {
	faker := gofakeit.New(20150401)
	lo, hi := date(1900, 1, 1), date(2030, 12, 31)

	for i := 0; i < 200; i++ {
		a := faker.DateRange(lo, hi)
		span := faker.IntRange(0, 800)
		r := NewDateRange(a, a.AddDate(0, 0, span))
		station := faker.LetterN(3)
		service := faker.LetterN(4)

		hours, err := Identifiers(r, station, Hour, service)
		require.NoError(t, err)
		require.Len(t, hours, r.End.Year()-r.Start.Year()+1)
		for _, id := range hours {
			assert.Contains(t, id, strings.ToLower(station))
			assert.True(t, strings.HasPrefix(id, "/"+strings.ToLower(service)+"/datasets/hour/"))
		}

		want := make(map[string]struct{})
		for _, d := range r.Days() {
			want[d.Format("200601")] = struct{}{}
		}
		minutes, err := Identifiers(r, station, Minute, service)
		require.NoError(t, err)
		require.Len(t, minutes, len(want))
		prefix := Root(service, Minute) + strings.ToLower(station)
		for _, id := range minutes {
			require.True(t, strings.HasPrefix(id, prefix))
			_, ok := want[strings.TrimPrefix(id, prefix)]
			assert.True(t, ok, "unexpected identifier %s for range %s", id, r)
		}
	}
}
