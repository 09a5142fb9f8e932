package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
)

// StrategyAPI is the backend surface used by backtest and optimise.
type StrategyAPI interface {
	RunBacktester(ctx context.Context, req client.BacktestRequest) (*client.BacktestResult, error)
	OptimiseStrategy(ctx context.Context, req client.OptimiseRequest) (*client.OptimiseResult, error)
}

var (
	backtestYears    int
	backtestTrials   int
	backtestHorizon  int
	backtestTP       float64
	backtestSL       float64
	backtestSlurp    []string
	optimiseYears    int
	optimiseSims     int
	optimiseLookback int
	optimiseCount    int
	strategyPDF      string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest TICKER",
	Short: "Backtest the percentile entry/exit strategy on a ticker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req := client.DefaultBacktestRequest(lexicon.NormalizeTicker(args[0]))
		req.Years = backtestYears
		req.NumTrials = backtestTrials
		req.ForecastHorizon = backtestHorizon
		req.TakeProfitPct = backtestTP
		req.StopLossPct = backtestSL
		if len(backtestSlurp) > 0 {
			req.UseSlurp = true
			req.SlurpColumns = backtestSlurp
		}
		if err := runBacktest(cmd.Context(), cmd.OutOrStdout(), newClient(), req, strategyPDF); err != nil {
			logrus.Fatalf("backtest: %s", client.UserMessage(err))
		}
	},
}

var optimiseCmd = &cobra.Command{
	Use:     "optimise TICKER",
	Aliases: []string{"optimize"},
	Short:   "Rank SIPmath trading strategies for a ticker",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req := client.DefaultOptimiseRequest(lexicon.NormalizeTicker(args[0]))
		req.Years = optimiseYears
		req.NumSimulations = optimiseSims
		req.VolatilityLookbackDays = optimiseLookback
		req.StrategyCount = optimiseCount
		if err := runOptimise(cmd.Context(), cmd.OutOrStdout(), newClient(), req, strategyPDF); err != nil {
			logrus.Fatalf("optimise: %s", client.UserMessage(err))
		}
	},
}

func runBacktest(ctx context.Context, out io.Writer, api StrategyAPI, req client.BacktestRequest, pdfPath string) error {
	if req.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	logrus.Infof("backtesting %s over %d years", req.Ticker, req.Years)
	res, err := api.RunBacktester(ctx, req)
	if err != nil {
		return err
	}
	return emit(out, report.Backtest(req.Ticker, res), pdfPath)
}

func runOptimise(ctx context.Context, out io.Writer, api StrategyAPI, req client.OptimiseRequest, pdfPath string) error {
	if req.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	logrus.Infof("optimising %d strategies for %s", req.StrategyCount, req.Ticker)
	res, err := api.OptimiseStrategy(ctx, req)
	if err != nil {
		return err
	}
	return emit(out, report.Strategies(req.Ticker, res), pdfPath)
}

// emit prints doc and, when pdfPath is set, saves it as PDF too.
func emit(out io.Writer, doc *report.Document, pdfPath string) error {
	if err := report.WriteText(out, doc); err != nil {
		return err
	}
	if pdfPath == "" {
		return nil
	}
	path, err := report.SavePDF(filepath.Dir(pdfPath), filepath.Base(pdfPath), doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Saved %s\n", path)
	return err
}

func init() {
	bt := client.DefaultBacktestRequest("")
	backtestCmd.Flags().IntVar(&backtestYears, "years", bt.Years, "Years of history")
	backtestCmd.Flags().IntVar(&backtestTrials, "trials", bt.NumTrials, "Monte Carlo trials per forecast")
	backtestCmd.Flags().IntVar(&backtestHorizon, "horizon", bt.ForecastHorizon, "Forecast horizon in trading days")
	backtestCmd.Flags().Float64Var(&backtestTP, "take-profit", bt.TakeProfitPct, "Take-profit as a fraction of entry")
	backtestCmd.Flags().Float64Var(&backtestSL, "stop-loss", bt.StopLossPct, "Stop-loss as a fraction of entry")
	backtestCmd.Flags().StringSliceVar(&backtestSlurp, "slurp", nil, "Correlated columns to simulate as a SLURP")
	backtestCmd.Flags().StringVar(&strategyPDF, "pdf", "", "Also export the report to this PDF file")

	op := client.DefaultOptimiseRequest("")
	optimiseCmd.Flags().IntVar(&optimiseYears, "years", op.Years, "Years of history")
	optimiseCmd.Flags().IntVar(&optimiseSims, "simulations", op.NumSimulations, "Number of simulations")
	optimiseCmd.Flags().IntVar(&optimiseLookback, "lookback", op.VolatilityLookbackDays, "Volatility lookback in days")
	optimiseCmd.Flags().IntVar(&optimiseCount, "strategies", op.StrategyCount, "Number of ranked strategies")
	optimiseCmd.Flags().StringVar(&strategyPDF, "pdf", "", "Also export the report to this PDF file")

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(optimiseCmd)
}
