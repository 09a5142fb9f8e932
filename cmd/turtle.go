package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/report"
)

var (
	turtleAccount   float64
	turtleRisk      float64
	turtleATR       float64
	turtleEntry     float64
	turtleDirection string
	turtlePDF       string
)

var turtleCmd = &cobra.Command{
	Use:   "turtle",
	Short: "Size a position with the Turtle ATR rules",
	Long: `Risks --risk percent of --account on a 2 ATR adverse move. Stops sit
2 ATR from entry, targets 4 ATR, and pyramid adds every half ATR.`,
	Example: `  vantage turtle --account 100000 --risk 1 --atr 2.5 --entry 50 --direction long`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := report.ParseDirection(turtleDirection)
		if err != nil {
			logrus.Fatalf("turtle: %v", err)
		}
		in := report.TurtleInput{
			AccountSize: turtleAccount,
			RiskPercent: turtleRisk,
			ATR:         turtleATR,
			Entry:       turtleEntry,
			Direction:   dir,
		}
		if err := runTurtle(cmd.OutOrStdout(), in, turtlePDF); err != nil {
			logrus.Fatalf("turtle: %v", err)
		}
	},
}

func runTurtle(out io.Writer, in report.TurtleInput, pdfPath string) error {
	plan, err := report.Turtle(in)
	if err != nil {
		return err
	}
	return emit(out, report.TurtleSheet(plan), pdfPath)
}

func init() {
	turtleCmd.Flags().Float64Var(&turtleAccount, "account", 0, "Account size")
	turtleCmd.Flags().Float64Var(&turtleRisk, "risk", 1, "Risk per trade, percent of account")
	turtleCmd.Flags().Float64Var(&turtleATR, "atr", 0, "Average true range")
	turtleCmd.Flags().Float64Var(&turtleEntry, "entry", 0, "Entry price")
	turtleCmd.Flags().StringVar(&turtleDirection, "direction", "long", "long or short")
	turtleCmd.Flags().StringVar(&turtlePDF, "pdf", "", "Also export the sheet to this PDF file")
	rootCmd.AddCommand(turtleCmd)
}
