package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/session"
	"github.com/vantage-modeller/vantage/wizard"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Step through data source, asset, column, parameters and report",
	Long: `Interactive five-step simulation wizard. Type 'back' to return to the
previous step, 'restart' to start over and 'quit' to leave at any prompt.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		api := newClient()
		if !store.LoggedIn() {
			logrus.Warnf("not signed in; you will be asked for credentials when the backend requires them")
		}
		runner := wizard.NewRunner(wizard.NewController(api), wizard.RunnerConfig{
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
			Defaults:  defaultParams(cfg),
			Report:    reportOptions(cfg),
			ReportDir: cfg.Report.OutputDir,
			Auth:      session.NewAuth(store, api),
			Search:    api,
		})
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			logrus.Fatalf("wizard: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}
