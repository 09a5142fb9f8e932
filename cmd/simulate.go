package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/wizard"
)

// simulateOptions mirrors the simulate flags. Zero values fall back to the
// configured wizard defaults.
type simulateOptions struct {
	ticker       string
	file         string
	column       string
	listColumns  bool
	holdings     []string
	distribution string
	pipeline     string
	historyYears int
	horizonYears float64
	trials       int
	percentiles  []float64
	plan         string
	initial      float64
	monthly      float64
	pdfPath      string
}

var simOpts simulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation non-interactively and print the report",
	Example: `  vantage simulate --ticker AAPL --years 5 --distribution Normal
  vantage simulate --file prices.csv --column Close --pipeline full --pdf report.pdf
  vantage simulate --holding AAPL=10 --holding MSFT=5 --plan sip --initial 10000 --monthly 250`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSimulate(cmd.Context(), cmd.OutOrStdout(), newClient(), simOpts, defaultParams(cfg), reportOptions(cfg))
		if err != nil {
			logrus.Fatalf("simulate: %s", client.UserMessage(err))
		}
	},
}

func runSimulate(ctx context.Context, out io.Writer, api wizard.Simulator, o simulateOptions, defaults wizard.Params, ropts report.Options) error {
	sources := 0
	for _, set := range []bool{o.ticker != "", o.file != "", len(o.holdings) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("give exactly one of --ticker, --file or --holding")
	}

	ctrl := wizard.NewController(api)
	mode := wizard.SingleAsset
	if len(o.holdings) > 0 {
		mode = wizard.Portfolio
	}
	if _, err := ctrl.SelectMode(mode); err != nil {
		return err
	}

	switch {
	case o.ticker != "":
		if _, err := ctrl.SelectTicker(o.ticker); err != nil {
			return err
		}
	case o.file != "":
		f, err := os.Open(o.file)
		if err != nil {
			return fmt.Errorf("opening %s: %w", o.file, err)
		}
		_, err = ctrl.UploadFile(ctx, filepath.Base(o.file), f)
		_ = f.Close()
		if err != nil {
			return err
		}
		if o.listColumns {
			cols, err := ctrl.Columns(ctx)
			if err != nil {
				return err
			}
			for _, c := range cols {
				_, _ = fmt.Fprintln(out, c)
			}
			return nil
		}
		if _, err := ctrl.SelectColumn(o.column); err != nil {
			return err
		}
	default:
		holdings, err := parseHoldings(o.holdings)
		if err != nil {
			return err
		}
		if _, err := ctrl.SelectPortfolio(holdings); err != nil {
			return err
		}
	}

	p, err := o.params(defaults, mode)
	if err != nil {
		return err
	}
	if _, err := ctrl.Submit(ctx, p); err != nil {
		return err
	}
	doc, err := ctrl.Report(ropts)
	if err != nil {
		return err
	}
	return emit(out, doc, o.pdfPath)
}

func (o simulateOptions) params(p wizard.Params, mode wizard.Mode) (wizard.Params, error) {
	if o.distribution != "" {
		d, err := client.ParseDistribution(o.distribution)
		if err != nil {
			return p, err
		}
		p.Distribution = d
	}
	if o.pipeline != "" {
		p.Pipeline = wizard.Pipeline(strings.ToLower(o.pipeline))
	}
	if o.historyYears != 0 {
		p.HistoryYears = o.historyYears
	}
	if o.horizonYears != 0 {
		p.HorizonYears = o.horizonYears
	}
	if o.trials != 0 {
		p.Trials = o.trials
	}
	p.Percentiles = o.percentiles
	if mode == wizard.Portfolio {
		switch strings.ToLower(o.plan) {
		case "", "lump":
			p.Plan = client.LumpSum
		case "sip":
			p.Plan = client.SIP
		default:
			return p, fmt.Errorf("--plan %q: want lump or sip", o.plan)
		}
		p.InitialInvestment = o.initial
		p.MonthlyContribution = o.monthly
	}
	return p, p.Validate(mode)
}

// parseHoldings reads TICKER=QTY pairs; a bare ticker means one share.
func parseHoldings(specs []string) ([]wizard.Holding, error) {
	out := make([]wizard.Holding, 0, len(specs))
	for _, s := range specs {
		ticker, qty, found := strings.Cut(s, "=")
		h := wizard.Holding{Ticker: ticker, Quantity: 1}
		if found {
			q, err := strconv.ParseFloat(strings.TrimSpace(qty), 64)
			if err != nil {
				return nil, fmt.Errorf("holding %q: quantity is not a number", s)
			}
			h.Quantity = q
		}
		out = append(out, h)
	}
	return out, nil
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simOpts.ticker, "ticker", "", "Ticker symbol, e.g. AAPL, EURUSD=X, GC=F")
	f.StringVar(&simOpts.file, "file", "", "CSV or XLSX file with historical prices to upload")
	f.StringVar(&simOpts.column, "column", "", "Column of --file to simulate (default: chosen by the backend)")
	f.BoolVar(&simOpts.listColumns, "list-columns", false, "Upload --file, print its columns and exit")
	f.StringArrayVar(&simOpts.holdings, "holding", nil, "Portfolio holding as TICKER=QUANTITY (repeatable)")
	f.StringVar(&simOpts.distribution, "distribution", "", "Normal, Log-Normal, Uniform, Beta or Empirical")
	f.StringVar(&simOpts.pipeline, "pipeline", "", "simple (fit the distribution) or full (SIPmath)")
	f.IntVar(&simOpts.historyYears, "years", 0, "Years of ticker history to fit")
	f.Float64Var(&simOpts.horizonYears, "horizon", 0, "Portfolio time horizon in years")
	f.IntVar(&simOpts.trials, "trials", 0, "Number of Monte Carlo trials for portfolio runs")
	f.Float64SliceVar(&simOpts.percentiles, "percentiles", nil, "Percentile thresholds, e.g. 0.05,0.95")
	f.StringVar(&simOpts.plan, "plan", "", "Portfolio plan: lump or sip")
	f.Float64Var(&simOpts.initial, "initial", 0, "Portfolio initial investment ($)")
	f.Float64Var(&simOpts.monthly, "monthly", 0, "Monthly contribution for sip plans ($)")
	f.StringVar(&simOpts.pdfPath, "pdf", "", "Also export the report to this PDF file")

	rootCmd.AddCommand(simulateCmd)
}
