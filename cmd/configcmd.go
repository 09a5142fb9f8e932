package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vantage-modeller/vantage/config"
	"github.com/vantage-modeller/vantage/session"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective settings or change the stored overrides",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeConfig(cmd.OutOrStdout(), cfg, store); err != nil {
			logrus.Fatalf("config show: %v", err)
		}
	},
}

var setEndpointCmd = &cobra.Command{
	Use:   "set-endpoint URL",
	Short: "Use URL as the backend for this user; an empty URL clears the override",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		endpoint := ""
		if len(args) == 1 {
			endpoint = args[0]
		}
		if err := setEndpoint(store, endpoint); err != nil {
			logrus.Fatalf("config set-endpoint: %v", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", cfg.ResolveEndpoint(store.Endpoint()))
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key KEY",
	Short: "Store the assistant API key; an empty KEY clears it",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := ""
		if len(args) == 1 {
			key = strings.TrimSpace(args[0])
		}
		if err := store.SetAPIKey(key); err != nil {
			logrus.Fatalf("config set-key: %v", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
	},
}

func setEndpoint(s *session.Store, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("endpoint %q: want an http(s) URL", endpoint)
		}
	}
	return s.SetEndpoint(endpoint)
}

// writeConfig prints c plus the session overrides. The API key is masked.
func writeConfig(out io.Writer, c config.Config, s *session.Store) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	snap := s.Snapshot()
	key := ""
	if snap.APIKey != "" {
		key = "set"
	}
	_, err = fmt.Fprintf(out, "# session %s\n#   api_endpoint: %s\n#   api_key: %s\n#   effective endpoint: %s\n",
		s.Path(), snap.APIEndpoint, key, c.ResolveEndpoint(snap.APIEndpoint))
	return err
}

func init() {
	configCmd.AddCommand(configShowCmd, setEndpointCmd, setKeyCmd)
	rootCmd.AddCommand(configCmd)
}
