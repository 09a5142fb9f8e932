package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-modeller/vantage/client"
)

var stats = client.SummaryStats{
	Mean: 100, StdDev: 10, Min: 70, Max: 135,
	Percentile5th: 84.5, Percentile50th: 100.25, Percentile95th: 117,
}

func TestScenarios_LevelsFromPercentiles(t *testing.T) {
	sc := Scenarios(stats)
	require.Len(t, sc, 4)

	assert.Equal(t, "Conservative Long Strategy", sc[0].Title)
	assert.Equal(t, [3]float64{84.5, 117, 70}, [3]float64{sc[0].Entry, sc[0].TakeProfit, sc[0].StopLoss})
	assert.Equal(t, [3]float64{100.25, 117, 84.5}, [3]float64{sc[1].Entry, sc[1].TakeProfit, sc[1].StopLoss})
	assert.Equal(t, [3]float64{117, 84.5, 135}, [3]float64{sc[2].Entry, sc[2].TakeProfit, sc[2].StopLoss})
	assert.Equal(t, [3]float64{100.25, 84.5, 117}, [3]float64{sc[3].Entry, sc[3].TakeProfit, sc[3].StopLoss})
	assert.Equal(t, "short", sc[3].Position)
	assert.Contains(t, sc[1].Points[1], "135.00")
}

func TestAssessVolatility(t *testing.T) {
	tests := []struct {
		name     string
		mean     float64
		std      float64
		wantHigh bool
	}{
		{"low", 100, 10, false},
		{"at threshold is low", 100, 15, false},
		{"high", 100, 20, true},
		{"zero mean with spread", 0, 1, true},
		{"negative mean", -100, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := AssessVolatility(client.SummaryStats{Mean: tt.mean, StdDev: tt.std}, 0)
			assert.Equal(t, tt.wantHigh, v.High)
			assert.Len(t, v.Recommendations, 3)
			if tt.wantHigh {
				assert.Contains(t, v.Analysis, "more than 15%")
			} else {
				assert.Contains(t, v.Analysis, "less than 15%")
			}
		})
	}
}

func TestAssessVolatility_CustomThreshold(t *testing.T) {
	v := AssessVolatility(stats, 0.05)
	assert.True(t, v.High)
	assert.Contains(t, v.Analysis, "more than 5%")
}

func TestStrategyCard_Pricing(t *testing.T) {
	s := client.RankedStrategy{
		Name: "P25/P75", EntryThresholdReturn: -0.02, ExitThresholdReturn: 0.01, StopThresholdReturn: -0.05,
		TotalPnL: 12.5, MaxDrawdown: 0.083, WinRate: 61, SharpeRatio: 1.4, CompositeScore: 71,
	}
	c := NewStrategyCard(0, s, 100)

	assert.InDelta(t, 98, c.Entry, 1e-9)
	assert.InDelta(t, 101, c.Exit, 1e-9)
	assert.InDelta(t, 95, c.StopLoss, 1e-9)
	assert.InDelta(t, 98*(1-0.03), c.TakeProfit, 1e-9)
	assert.InDelta(t, 8.3, c.MaxDrawdownPct, 1e-9)
	assert.Equal(t, "Fair", c.RiskScore)
	assert.Equal(t, 4, c.Stars)
	assert.Equal(t, "Best Overall", c.Label)
	assert.Equal(t, 1, c.Rank)
}

func TestRankLabel(t *testing.T) {
	assert.Equal(t, []string{"Best Overall", "High Risk/High Reward", "Defensive Option", "Strategy 4", "Strategy 5"},
		[]string{RankLabel(0), RankLabel(1), RankLabel(2), RankLabel(3), RankLabel(4)})
}

func TestSharpeRatingAndStars(t *testing.T) {
	assert.Equal(t, "Good", SharpeRating(2.01))
	assert.Equal(t, "Fair", SharpeRating(2.0))
	assert.Equal(t, "Poor", SharpeRating(1.0))

	assert.Equal(t, 1, Stars(-40))
	assert.Equal(t, 1, Stars(5))
	assert.Equal(t, 3, Stars(50))
	assert.Equal(t, 5, Stars(250))
	assert.Equal(t, 1, Stars(math.NaN()))
}

func TestTurtle(t *testing.T) {
	// GIVEN a $100k account risking 1% with ATR 2.5
	in := TurtleInput{AccountSize: 100000, RiskPercent: 1, ATR: 2.5, Entry: 50, Direction: Long}

	plan, err := Turtle(in)

	// THEN 1000 at risk buys 200 units with stops and adds a multiple of ATR away
	require.NoError(t, err)
	assert.InDelta(t, 1000, plan.RiskAmount, 1e-9)
	assert.Equal(t, 200, plan.Units)
	assert.InDelta(t, 45, plan.StopLoss, 1e-9)
	assert.InDelta(t, 60, plan.TakeProfit, 1e-9)
	assert.InDeltaSlice(t, []float64{51.25, 52.5, 53.75}, plan.Adds[:], 1e-9)

	in.Direction = Short
	plan, err = Turtle(in)
	require.NoError(t, err)
	assert.InDelta(t, 55, plan.StopLoss, 1e-9)
	assert.InDelta(t, 40, plan.TakeProfit, 1e-9)
	assert.InDeltaSlice(t, []float64{48.75, 47.5, 46.25}, plan.Adds[:], 1e-9)
}

func TestTurtle_Validation(t *testing.T) {
	good := TurtleInput{AccountSize: 1000, RiskPercent: 2, ATR: 1, Entry: 10, Direction: Long}
	tests := []struct {
		name   string
		mutate func(*TurtleInput)
	}{
		{"zero ATR", func(in *TurtleInput) { in.ATR = 0 }},
		{"NaN account", func(in *TurtleInput) { in.AccountSize = math.NaN() }},
		{"risk over 100", func(in *TurtleInput) { in.RiskPercent = 101 }},
		{"bad direction", func(in *TurtleInput) { in.Direction = "sideways" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := good
			tt.mutate(&in)
			_, err := Turtle(in)
			assert.Error(t, err)
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" SHORT ")
	require.NoError(t, err)
	assert.Equal(t, Short, d)
	_, err = ParseDirection("up")
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$12,346", USD(12345.6))
	assert.Equal(t, "-$1,000,000", USD(-1000000.2))
	assert.Equal(t, "$0", USD(0.4))
	assert.Equal(t, "$999", USD(999))
	assert.Equal(t, "3.14", Fixed(3.14159, 2))
	assert.Equal(t, "8.3%", Percent(8.25, 1))
	assert.Equal(t, "NaN", Fixed(math.NaN(), 2))
}

func TestSimulationDocument(t *testing.T) {
	res := &client.SimulationResult{
		SummaryStats:     &stats,
		SimulationData:   []float64{80, 90, 100, 110, 120},
		AIRecommendation: "Accumulate below 90.",
	}
	doc := Simulation("AAPL", res, Options{Bins: 5})

	summary, ok := doc.Section("Summary Statistics")
	require.True(t, ok)
	assert.Equal(t, Row{"Mean", "100.00"}, summary.Rows[0])

	hist, ok := doc.Section("Simulated Price Distribution")
	require.True(t, ok)
	assert.Len(t, hist.Histogram, 5)

	_, ok = doc.Section("Aggressive Short Strategy")
	assert.True(t, ok)
	vol, ok := doc.Section("Risk Assessment based on Volatility")
	require.True(t, ok)
	assert.Contains(t, vol.Paragraphs[1], "low")

	ai, ok := doc.Section("AI Recommendation")
	require.True(t, ok)
	assert.Equal(t, []string{"Accumulate below 90."}, ai.Paragraphs)
}

func TestSimulationDocument_WithoutStats(t *testing.T) {
	doc := Simulation("f.csv", &client.SimulationResult{SimulationData: []float64{1, 2}}, Options{})
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Simulated Price Distribution", doc.Sections[0].Heading)
}

func TestPortfolioDocument(t *testing.T) {
	res := &client.PortfolioResult{
		RiskScore: 6.25, MedianOutcome: 12500.4, BestCase: 20000, WorstCase: 8000.5,
		SharpeRatio: 1.234, MaxDrawdown: 22.45, CVaR: -12.3, ProbNegativeReturn: 18,
		AnalysisSummary:      "Balanced.",
		ScenarioDistribution: []client.ScenarioPoint{{Percentile: 5, Value: 8000}},
	}
	params := client.PortfolioSimulationParams{Type: client.SIP, TimeHorizon: 10, MonteCarloSimulations: 1000, InitialInvestment: 10000, MonthlyContribution: 250}
	assets := []client.PortfolioAsset{{Ticker: "AAPL", Name: "Apple", Weight: 60}, {Ticker: "MSFT", Name: "Microsoft", Weight: 40}}

	doc := Portfolio(res, assets, params)

	summary, ok := doc.Section("Simulation Summary")
	require.True(t, ok)
	assert.Contains(t, summary.Rows, Row{"Median Outcome", "$12,500"})
	assert.Contains(t, summary.Rows, Row{"Portfolio Risk Score", "6.3"})
	assert.Contains(t, summary.Rows, Row{"Max Drawdown", "22.5%"})

	inputs, _ := doc.Section("Simulation Inputs")
	assert.Contains(t, inputs.Rows, Row{"Monthly Contribution", "$250"})
	assert.Contains(t, inputs.Rows, Row{"Time Horizon", "10 Years"})

	alloc, _ := doc.Section("Portfolio Allocation")
	assert.Equal(t, Row{"AAPL - Apple", "60%"}, alloc.Rows[0])
}

func TestStrategiesAndBacktestDocuments(t *testing.T) {
	opt := &client.OptimiseResult{
		LastClosePrice:   1.1,
		RankedStrategies: []client.RankedStrategy{{Name: "A", SharpeRatio: 2.5, CompositeScore: 80}, {Name: "B"}},
	}
	doc := Strategies("EURUSD=X", opt)
	best, ok := doc.Section("Best Overall: A")
	require.True(t, ok)
	assert.Contains(t, best.Rows, Row{"Risk Score", "Good"})
	assert.Contains(t, best.Rows, Row{"Rating", "****-"})
	_, ok = doc.Section("High Risk/High Reward: B")
	assert.True(t, ok)

	bt := &client.BacktestResult{
		FinalPortfolioValue: 101234.567, TotalPnL: 1234.567,
		TradeLog: []json.RawMessage{json.RawMessage(`{ "side": "long",  "pnl": 12 }`)},
	}
	bdoc := Backtest("EURUSD=X", bt)
	perf, _ := bdoc.Section("Performance")
	assert.Contains(t, perf.Rows, Row{"Final Portfolio Value", "101234.57"})
	log, ok := bdoc.Section("Trade Log")
	require.True(t, ok)
	assert.Equal(t, []string{`{"side":"long","pnl":12}`}, log.Bullets)
}

func TestRenderText_PlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	doc := Simulation("AAPL", &client.SimulationResult{SummaryStats: &stats, SimulationData: []float64{1, 2, 2, 3}}, Options{Bins: 3})

	require.NoError(t, WriteText(&buf, doc))

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escape codes when not writing to a terminal")
	assert.Contains(t, out, "Investor Simulation Report")
	assert.Contains(t, out, "Standard Deviation")
	assert.Contains(t, out, "4 samples in 3 bins")
	assert.Contains(t, out, "- Tighter Stops")
	assert.True(t, strings.Contains(out, "█"))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	doc := Simulation("AAPL", &client.SimulationResult{SummaryStats: &stats, SimulationData: []float64{1, 2, 3}}, Options{})

	require.NoError(t, WritePDF(&buf, doc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestSavePDF_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	plan, err := Turtle(TurtleInput{AccountSize: 1000, RiskPercent: 1, ATR: 1, Entry: 10, Direction: Long})
	require.NoError(t, err)

	path, err := SavePDF(dir, "turtle.pdf", TurtleSheet(plan))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "turtle.pdf"), path)
	assert.FileExists(t, path)
}

func TestWriteFile_RemovesPartialOutput(t *testing.T) {
	// GIVEN a writer that fails after emitting some bytes
	path := filepath.Join(t.TempDir(), "broken.pdf")
	boom := errors.New("render failed")

	// WHEN the file is written
	err := writeFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("%PDF-1.3 truncated"))
		return boom
	})

	// THEN the error surfaces and nothing is left on disk
	require.ErrorIs(t, err, boom)
	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestSavePDF_UnwritableDirectory(t *testing.T) {
	// a regular file where the directory should be
	parent := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(parent, nil, 0o600))
	plan, err := Turtle(TurtleInput{AccountSize: 1000, RiskPercent: 1, ATR: 1, Entry: 10, Direction: Long})
	require.NoError(t, err)

	_, err = SavePDF(parent, "turtle.pdf", TurtleSheet(plan))
	assert.Error(t, err)
}
