package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/gmfetch/internal/config"
	"github.com/telhawk-systems/gmfetch/internal/logging"
)

var (
	settingsFile string
	settings     *config.Settings
	logger       *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gmfetch",
	Short: "Geomagnetic observatory data fetcher",
	Long: `gmfetch downloads geomagnetic observatory data from web data services
such as the World Data Centre and unpacks the returned archives.

Services are described in an INI (or YAML) file with one section per
service; a WDC definition is built in.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initSettings)

	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default: $HOME/.gmfetch/gmfetch.yaml)")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json")
}

func initSettings() {
	var err error
	settings, err = config.Load(settingsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load settings: %v\n", err)
		settings = config.Default()
	}

	level := settings.Logging.Level
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		level = v
	}
	format := settings.Logging.Format
	if v, _ := rootCmd.PersistentFlags().GetString("log-format"); v != "" {
		format = v
	}
	logger = logging.New(logging.ParseLevel(level), format)
	logging.SetDefault(logger)
}

// serviceConfigPath prefers the --config flag over the settings file.
func serviceConfigPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return settings.ServiceConfig
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: use table or json", format)
	}
}

func stringFlagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}
