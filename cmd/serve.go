package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve wizard sessions over HTTP for a browser front end",
	Long: `Starts the JSON API under /api/v1, on 127.0.0.1:8080 unless configured
otherwise. Requests carrying a bearer token are forwarded to the backend with
it; others use the token stored by 'vantage login'. Browser pages from other
origins are refused unless listed in serve.allowed_origins.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr := cfg.Serve.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(serverOptions())
		if err := srv.ListenAndServe(addr); err != nil {
			logrus.Fatalf("serve: %v", err)
		}
	},
}

func serverOptions() server.Options {
	return server.Options{
		Backend:        cfg.ResolveEndpoint(store.Endpoint()),
		Timeout:        cfg.API.Timeout,
		Creds:          store,
		AllowedOrigins: cfg.Serve.AllowedOrigins,
		Report:         reportOptions(cfg),
		Mode:           cfg.Serve.Mode,
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default serve.addr from the config)")
	rootCmd.AddCommand(serveCmd)
}
