// Package report turns backend results into printable documents: summary
// tables, a histogram of the simulated sample, trading narrative, strategy
// cards and turtle sizing. Documents render to styled terminal text or PDF.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vantage-modeller/vantage/client"
)

// Document is a renderer-neutral report.
type Document struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Sections []Section `json:"sections"`
}

// Section is a heading followed by any of rows, paragraphs, bullets and a
// histogram, rendered in that order.
type Section struct {
	Heading    string   `json:"heading"`
	Rows       []Row    `json:"rows,omitempty"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Bullets    []string `json:"bullets,omitempty"`
	Histogram  []Bin    `json:"histogram,omitempty"`
}

// Row is a label/value pair.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options tunes report assembly.
type Options struct {
	Bins                int
	VolatilityThreshold float64
}

// Section returns the first section with the given heading.
func (d *Document) Section(heading string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Heading == heading {
			return s, true
		}
	}
	return Section{}, false
}

// Simulation builds the single-asset investor report. Without summary
// statistics only the histogram and AI text are shown.
func Simulation(subject string, res *client.SimulationResult, opts Options) *Document {
	doc := &Document{Title: "Investor Simulation Report", Subtitle: subject}
	if res == nil {
		return doc
	}
	if s := res.SummaryStats; s != nil {
		doc.Sections = append(doc.Sections, Section{
			Heading: "Summary Statistics",
			Rows: []Row{
				{"Mean", Fixed(s.Mean, 2)},
				{"Standard Deviation", Fixed(s.StdDev, 2)},
				{"Minimum", Fixed(s.Min, 2)},
				{"Maximum", Fixed(s.Max, 2)},
				{"5th Percentile", Fixed(s.Percentile5th, 2)},
				{"50th Percentile (Median)", Fixed(s.Percentile50th, 2)},
				{"95th Percentile", Fixed(s.Percentile95th, 2)},
			},
		})
	}
	if bins := Histogram(res.SimulationData, opts.Bins); bins != nil {
		doc.Sections = append(doc.Sections, Section{
			Heading:   "Simulated Price Distribution",
			Histogram: bins,
		})
	}
	if s := res.SummaryStats; s != nil {
		doc.Sections = append(doc.Sections, Section{
			Heading:    "Example Trading Scenarios (Based on Price Distribution)",
			Paragraphs: []string{ScenarioIntro},
		})
		for _, sc := range Scenarios(*s) {
			doc.Sections = append(doc.Sections, Section{
				Heading:    sc.Title,
				Paragraphs: []string{sc.Summary},
				Bullets:    sc.Points,
			})
		}
		vol := AssessVolatility(*s, opts.VolatilityThreshold)
		doc.Sections = append(doc.Sections, Section{
			Heading:    "Risk Assessment based on Volatility",
			Paragraphs: []string{VolatilityIntro(s.StdDev), "Analysis: " + vol.Analysis, "Strategic Recommendation:"},
			Bullets:    vol.Recommendations,
		})
	}
	if res.AIRecommendation != "" {
		doc.Sections = append(doc.Sections, Section{
			Heading:    "AI Recommendation",
			Paragraphs: []string{res.AIRecommendation},
		})
	}
	return doc
}

// Portfolio builds the final portfolio report.
func Portfolio(res *client.PortfolioResult, assets []client.PortfolioAsset, params client.PortfolioSimulationParams) *Document {
	doc := &Document{Title: "Final Report", Subtitle: "A summary of your portfolio simulation."}
	if res == nil {
		return doc
	}
	doc.Sections = append(doc.Sections, Section{
		Heading: "Simulation Summary",
		Rows: []Row{
			{"Portfolio Risk Score", Fixed(res.RiskScore, 1)},
			{"Median Outcome", USD(res.MedianOutcome)},
			{"Best Case (95th %)", USD(res.BestCase)},
			{"Worst Case (5th %)", USD(res.WorstCase)},
			{"Confidence Interval", USD(res.ConfidenceInterval.Lower) + " to " + USD(res.ConfidenceInterval.Upper)},
			{"Sharpe Ratio", Fixed(res.SharpeRatio, 2)},
			{"Max Drawdown", Percent(res.MaxDrawdown, 1)},
			{"CVaR (95%)", Percent(res.CVaR, 1)},
			{"Prob. of Loss (1yr)", Percent(res.ProbNegativeReturn, 1)},
		},
	})
	if res.AnalysisSummary != "" {
		doc.Sections = append(doc.Sections, Section{
			Heading:    "AI Analyst Conclusion",
			Paragraphs: []string{res.AnalysisSummary},
		})
	}

	inputs := []Row{{"Investment Strategy", orDash(params.Type)}}
	if params.InitialInvestment > 0 {
		inputs = append(inputs, Row{"Initial Investment", USD(params.InitialInvestment)})
	}
	if params.Type == client.SIP {
		inputs = append(inputs, Row{"Monthly Contribution", USD(params.MonthlyContribution)})
	}
	inputs = append(inputs,
		Row{"Time Horizon", strconv.FormatFloat(params.TimeHorizon, 'f', -1, 64) + " Years"},
		Row{"Simulations", strconv.Itoa(params.MonteCarloSimulations)},
	)
	doc.Sections = append(doc.Sections, Section{Heading: "Simulation Inputs", Rows: inputs})

	alloc := make([]Row, 0, len(assets))
	for _, a := range assets {
		alloc = append(alloc, Row{Label: a.Ticker + " - " + a.Name, Value: strconv.FormatFloat(a.Weight, 'f', -1, 64) + "%"})
	}
	doc.Sections = append(doc.Sections, Section{Heading: "Portfolio Allocation", Rows: alloc})

	if len(res.ScenarioDistribution) > 0 {
		rows := make([]Row, 0, len(res.ScenarioDistribution))
		for _, p := range res.ScenarioDistribution {
			rows = append(rows, Row{Label: "P" + strconv.FormatFloat(p.Percentile, 'f', -1, 64), Value: USD(p.Value)})
		}
		doc.Sections = append(doc.Sections, Section{Heading: "Scenario Distribution", Rows: rows})
	}
	return doc
}

// Strategies builds the optimiser report, one section per ranked strategy.
func Strategies(ticker string, res *client.OptimiseResult) *Document {
	doc := &Document{Title: "Strategy Optimiser (SIPmath)", Subtitle: ticker}
	if res == nil {
		return doc
	}
	doc.Sections = append(doc.Sections, Section{
		Heading: "Market",
		Rows:    []Row{{"Last Close", Fixed(res.LastClosePrice, 4)}},
	})
	for _, c := range StrategyCards(res) {
		doc.Sections = append(doc.Sections, Section{
			Heading: fmt.Sprintf("%s: %s", c.Label, c.Name),
			Rows: []Row{
				{"Enter at", Fixed(c.Entry, 4)},
				{"Exit at", Fixed(c.Exit, 4)},
				{"Stop Loss at", Fixed(c.StopLoss, 4)},
				{"Take Profit at", Fixed(c.TakeProfit, 4)},
				{"Total PnL", Percent(c.TotalPnLPct, 2)},
				{"Max Drawdown", Percent(c.MaxDrawdownPct, 2)},
				{"Win Rate", Percent(c.WinRatePct, 2)},
				{"Risk Score", c.RiskScore},
				{"Rating", starString(c.Stars)},
			},
		})
	}
	if res.AIRecommendation != "" {
		doc.Sections = append(doc.Sections, Section{Heading: "AI Recommendation", Paragraphs: []string{res.AIRecommendation}})
	}
	return doc
}

// Backtest builds the backtester report. Trade log rows are shown as
// compact JSON.
func Backtest(ticker string, res *client.BacktestResult) *Document {
	doc := &Document{Title: "Backtester Results", Subtitle: ticker}
	if res == nil {
		return doc
	}
	doc.Sections = append(doc.Sections, Section{
		Heading: "Performance",
		Rows: []Row{
			{"Final Portfolio Value", Fixed(res.FinalPortfolioValue, 2)},
			{"Total PnL", Fixed(res.TotalPnL, 2)},
			{"Trades", strconv.Itoa(len(res.TradeLog))},
		},
	})
	if res.AIRecommendation != "" {
		doc.Sections = append(doc.Sections, Section{Heading: "AI Recommendation", Paragraphs: []string{res.AIRecommendation}})
	}
	if len(res.TradeLog) > 0 {
		log := make([]string, 0, len(res.TradeLog))
		for _, raw := range res.TradeLog {
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err != nil {
				log = append(log, string(raw))
				continue
			}
			log = append(log, buf.String())
		}
		doc.Sections = append(doc.Sections, Section{Heading: "Trade Log", Bullets: log})
	}
	return doc
}

// TurtleSheet builds the turtle calculator result sheet.
func TurtleSheet(p TurtlePlan) *Document {
	return &Document{
		Title:    "Turtle Trading Calculator",
		Subtitle: fmt.Sprintf("%s entry at %s", p.Input.Direction, Fixed(p.Input.Entry, 4)),
		Sections: []Section{
			{
				Heading: "Results",
				Rows: []Row{
					{"Risk Amount", Fixed(p.RiskAmount, 2)},
					{"Position Size", fmt.Sprintf("%d units", p.Units)},
					{"Stop-Loss", Fixed(p.StopLoss, 4)},
					{"Take-Profit", Fixed(p.TakeProfit, 4)},
				},
			},
			{
				Heading: "Pyramid/Scale-in Prices",
				Rows: []Row{
					{"Add 1", Fixed(p.Adds[0], 4)},
					{"Add 2", Fixed(p.Adds[1], 4)},
					{"Add 3", Fixed(p.Adds[2], 4)},
				},
			},
		},
	}
}

func starString(n int) string {
	s := ""
	for i := 0; i < 5; i++ {
		if i < n {
			s += "*"
		} else {
			s += "-"
		}
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
