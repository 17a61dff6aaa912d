package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/gmfetch/internal/serviceconfig"
	"github.com/telhawk-systems/gmfetch/pkg/output"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List configured data services",
	Long:  "List the services defined in the service config and whether each is complete",
	Example: `  gmfetch services
  gmfetch services --config ./services.ini --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		store, err := openServiceStore(serviceConfigPath(cmd))
		if err != nil {
			return err
		}

		type serviceRow struct {
			Service string `json:"service"`
			URL     string `json:"url,omitempty"`
			Format  string `json:"format,omitempty"`
			Error   string `json:"error,omitempty"`
		}
		rows := make([]serviceRow, 0)
		for _, section := range store.Sections() {
			row := serviceRow{Service: section}
			cfg, err := serviceconfig.FromStore(store, section)
			if err != nil {
				row.Error = err.Error()
			} else {
				row.URL = cfg.URL()
				row.Format = cfg.OutputFormat()
			}
			rows = append(rows, row)
		}

		if format == "json" {
			return output.JSON(map[string]interface{}{
				"source":   store.Path(),
				"services": rows,
			})
		}

		if len(rows) == 0 {
			output.Info("No services defined in %s", store.Path())
			return nil
		}
		table := output.NewTable([]string{"SERVICE", "URL", "FORMAT", "ERROR"})
		for _, r := range rows {
			table.AddRow([]string{r.Service, r.URL, r.Format, r.Error})
		}
		table.Render()
		return nil
	},
}

func openServiceStore(path string) (serviceconfig.Store, error) {
	if path == "" {
		return serviceconfig.DefaultStore(), nil
	}
	return serviceconfig.OpenStore(path)
}

func init() {
	rootCmd.AddCommand(servicesCmd)

	servicesCmd.Flags().String("config", "", "service config file (default: built-in)")
}
