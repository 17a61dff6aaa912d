package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/gmfetch/internal/dataset"
	"github.com/telhawk-systems/gmfetch/internal/fetch"
	"github.com/telhawk-systems/gmfetch/pkg/output"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Print the dataset identifiers a fetch would request",
	Long:  "Compute the dataset identifiers for a date range without contacting the service",
	Example: `  gmfetch datasets --start 2015-04-01 --end 2015-04-30 --station ESK
  gmfetch datasets --start 2013-01-01 --end 2015-12-31 --station "ESK NGK" --cadence hour --output json`,
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

		cadence, err := dataset.ParseCadence(stringFlagOr(cmd, "cadence", settings.DefaultCadence))
		if err != nil {
			return err
		}
		service := stringFlagOr(cmd, "service", settings.DefaultService)

		rawStations, _ := cmd.Flags().GetStringSlice("station")
		stations := fetch.SplitStations(rawStations...)
		if len(stations) == 0 {
			return fmt.Errorf("at least one --station is required")
		}

		type stationDatasets struct {
			Station  string   `json:"station"`
			Service  string   `json:"service"`
			Cadence  string   `json:"cadence"`
			Range    string   `json:"range"`
			Datasets []string `json:"datasets"`
		}
		all := make([]stationDatasets, 0, len(stations))
		for _, station := range stations {
			ids, err := dataset.Identifiers(r, station, cadence, service)
			if err != nil {
				return err
			}
			all = append(all, stationDatasets{
				Station:  station,
				Service:  service,
				Cadence:  cadence.String(),
				Range:    r.String(),
				Datasets: ids,
			})
		}

		if format == "json" {
			return output.JSON(all)
		}
		for _, sd := range all {
			for _, id := range sd.Datasets {
				output.Plain("%s", id)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)

	datasetsCmd.Flags().String("start", "", "first date wanted (YYYY-MM-DD)")
	datasetsCmd.Flags().String("end", "", "last date wanted (YYYY-MM-DD)")
	datasetsCmd.Flags().StringSlice("station", nil, "station code; repeat or space-separate for several")
	datasetsCmd.Flags().String("cadence", "", "data cadence: minute or hour (default from settings)")
	datasetsCmd.Flags().String("service", "", "service section name (default from settings)")
	_ = datasetsCmd.MarkFlagRequired("start")
	_ = datasetsCmd.MarkFlagRequired("end")
}
