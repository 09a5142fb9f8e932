package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/config"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/session"
	"github.com/vantage-modeller/vantage/wizard"
)

var (
	logLevel   string // Log verbosity level; overrides log_level from the config file
	configPath string // Path to config.yaml

	// Loaded once per invocation by rootCmd's PersistentPreRun.
	cfg   config.Config
	store *session.Store
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Monte Carlo and SIPmath simulations from the terminal",
	Long: `vantage walks through choosing an asset, setting simulation parameters and
reading the resulting investor report. Simulations run on the Vantage backend;
sign in with 'vantage login' first.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, store, err = loadEnvironment(configPath, logLevel)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// loadEnvironment resolves config, applies the log level and opens the
// session file. level wins over the config file when set.
func loadEnvironment(path, level string) (config.Config, *session.Store, error) {
	c, err := config.Load(path)
	if err != nil {
		return c, nil, fmt.Errorf("loading config: %w", err)
	}
	if level == "" {
		level = c.LogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return c, nil, fmt.Errorf("invalid log level: %s", level)
	}
	logrus.SetLevel(lvl)

	s, err := session.Open(c.Session.Path)
	if err != nil {
		return c, nil, err
	}
	return c, s, nil
}

// newClient builds a backend client for the resolved endpoint using the
// stored session as credentials.
func newClient() *client.Client {
	endpoint := cfg.ResolveEndpoint(store.Endpoint())
	logrus.Debugf("backend %s", endpoint)
	return client.New(endpoint, store, cfg.API.Timeout)
}

func defaultParams(c config.Config) wizard.Params {
	return wizard.Params{
		Distribution: c.Wizard.Distribution,
		Pipeline:     wizard.Simple,
		HistoryYears: c.Wizard.HistoryYears,
		HorizonYears: float64(c.Wizard.HorizonYears),
		Trials:       c.Wizard.Trials,
	}
}

func reportOptions(c config.Config) report.Options {
	return report.Options{Bins: c.Report.HistogramBins, VolatilityThreshold: c.Report.VolatilityThreshold}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "Log level (trace, debug, info, warn, error, fatal, panic); defaults to log_level from the config")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config.yaml")
}
