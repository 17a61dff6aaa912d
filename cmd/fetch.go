package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/gmfetch/internal/dataset"
	"github.com/telhawk-systems/gmfetch/internal/fetch"
	"github.com/telhawk-systems/gmfetch/internal/logging"
	"github.com/telhawk-systems/gmfetch/internal/metrics"
	"github.com/telhawk-systems/gmfetch/internal/notify"
	"github.com/telhawk-systems/gmfetch/internal/request"
	"github.com/telhawk-systems/gmfetch/pkg/output"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download observatory data",
	Long: `Download data for one or more stations and extract it into a directory.

Stations are fetched one after another; the first failure stops the run.`,
	Example: `  gmfetch fetch --start 2015-04-01 --end 2015-04-30 --station ESK --dest ./data
  gmfetch fetch --start 2013-01-01 --end 2015-12-31 --station ESK --station NGK --cadence hour
  gmfetch fetch --start 2015-04-01 --end 2015-04-30 --station "ESK NGK LER" --config ./services.ini`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		r, err := dataset.ParseDateRange(start, end)
		if err != nil {
			return err
		}

		stations, _ := cmd.Flags().GetStringSlice("station")
		if len(fetch.SplitStations(stations...)) == 0 {
			return fmt.Errorf("at least one --station is required")
		}

		timeout := settings.Timeout
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetDuration("timeout")
		}
		metricsFile := stringFlagOr(cmd, "metrics-file", settings.MetricsFile)

		p := fetch.Params{
			Start:      r.Start,
			End:        r.End,
			Cadence:    stringFlagOr(cmd, "cadence", settings.DefaultCadence),
			Service:    stringFlagOr(cmd, "service", settings.DefaultService),
			Dest:       stringFlagOr(cmd, "dest", "."),
			ConfigPath: serviceConfigPath(cmd),
		}

		m := metrics.New()
		opts := []fetch.Option{
			fetch.WithLogger(logger),
			fetch.WithClient(request.NewClient(timeout)),
			fetch.WithMetrics(m),
		}

		if settings.NATSEnabled() {
			notifier, err := newNotifier()
			if err != nil {
				// Events are best effort; the download itself does not depend on them.
				logger.Warn("fetch events disabled", logging.Error(err))
			} else {
				defer notifier.Close()
				opts = append(opts, fetch.WithNotifier(notifier))
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logging.WithRunID(ctx, uuid.NewString())

		results, fetchErr := fetch.New(opts...).FetchStations(ctx, p, stations...)

		if metricsFile != "" {
			if err := m.WriteTextfile(metricsFile); err != nil {
				logger.Warn("failed to write metrics file", logging.Error(err))
			}
		}

		if err := renderResults(format, results); err != nil {
			return err
		}
		if fetchErr != nil {
			return fmt.Errorf("fetch failed: %w", fetchErr)
		}
		if format == "table" {
			output.Success("Fetched %d station(s) into %s", len(results), p.Dest)
		}
		return nil
	},
}

func newNotifier() (*notify.Notifier, error) {
	cfg := notify.DefaultNATSConfig()
	cfg.URL = settings.NATS.URL
	cfg.Username = settings.NATS.Username
	cfg.Password = settings.NATS.Password
	cfg.Token = settings.NATS.Token

	pub, err := notify.NewNATSPublisher(cfg, logger.Logger)
	if err != nil {
		return nil, err
	}
	return notify.New(pub, settings.NATS.SubjectPrefix), nil
}

func renderResults(format string, results []*fetch.Result) error {
	if format == "json" {
		if results == nil {
			results = []*fetch.Result{}
		}
		return output.JSON(results)
	}
	if len(results) == 0 {
		return nil
	}

	table := output.NewTable([]string{"STATION", "SERVICE", "CADENCE", "RANGE", "FILES", "BYTES", "DURATION"})
	for _, res := range results {
		table.AddRow([]string{
			res.Station,
			res.Service,
			res.Cadence,
			res.Range,
			strconv.Itoa(len(res.Files)),
			strconv.Itoa(res.Bytes),
			res.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
	return nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("start", "", "first date wanted (YYYY-MM-DD)")
	fetchCmd.Flags().String("end", "", "last date wanted (YYYY-MM-DD)")
	fetchCmd.Flags().StringSlice("station", nil, "station code; repeat or space-separate for several")
	fetchCmd.Flags().String("cadence", "", "data cadence: minute or hour (default from settings)")
	fetchCmd.Flags().String("service", "", "service section name (default from settings)")
	fetchCmd.Flags().String("dest", ".", "existing directory to extract files into")
	fetchCmd.Flags().String("config", "", "service config file (default: built-in)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP timeout per station (default from settings)")
	fetchCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")
	_ = fetchCmd.MarkFlagRequired("start")
	_ = fetchCmd.MarkFlagRequired("end")
}
