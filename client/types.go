package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Distribution names accepted by the simple simulation endpoints.
const (
	Normal    = "Normal"
	LogNormal = "Log-Normal"
	Uniform   = "Uniform"
	Beta      = "Beta"
	Empirical = "Empirical"
)

// Distributions lists the supported distributions in menu order.
var Distributions = []string{Normal, LogNormal, Uniform, Beta, Empirical}

// ParseDistribution matches name case-insensitively against Distributions.
func ParseDistribution(name string) (string, error) {
	n := strings.TrimSpace(name)
	for _, d := range Distributions {
		if strings.EqualFold(n, d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unsupported distribution %q (want one of %s)", name, strings.Join(Distributions, ", "))
}

// Token is the /token response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Registration is the /register confirmation.
type Registration struct {
	ID      int    `json:"id,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

// UploadResult is the server-assigned reference to an uploaded data file.
type UploadResult struct {
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`
}

// FileSimulationRequest drives /api/run_simulation/ and /api/simple_file_simulation/.
// A nil ColumnName is omitted so the backend picks its default column.
type FileSimulationRequest struct {
	FilePath     string  `json:"file_path"`
	ColumnName   *string `json:"column_name,omitempty"`
	Distribution string  `json:"distribution,omitempty"`
}

// TickerSimulationRequest drives /api/run_ticker_simulation/ and /api/simple_ticker_simulation.
type TickerSimulationRequest struct {
	Ticker       string `json:"ticker"`
	Years        int    `json:"years"`
	Distribution string `json:"distribution,omitempty"`
}

// SummaryStats are the descriptive statistics of the simulated sample.
type SummaryStats struct {
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"std_dev"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Percentile5th  float64 `json:"percentile_5th"`
	Percentile50th float64 `json:"percentile_50th"`
	Percentile95th float64 `json:"percentile_95th"`
}

// SimulationResult is returned by the single-asset simulation endpoints.
// Its statistical content is never recomputed client-side.
type SimulationResult struct {
	SummaryStats     *SummaryStats `json:"summary_stats,omitempty"`
	SimulationData   []float64     `json:"simulation_data,omitempty"`
	AIRecommendation string        `json:"ai_recommendation,omitempty"`
	Error            string        `json:"error,omitempty"`
}

func (r *SimulationResult) resultError() string { return r.Error }

// PortfolioAsset is one holding of a portfolio simulation.
// Weight is the displayed allocation; Quantity is what the backend prices.
type PortfolioAsset struct {
	ID       string  `json:"id,omitempty"`
	Ticker   string  `json:"ticker"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Quantity float64 `json:"quantity"`
}

type Portfolio struct {
	Assets []PortfolioAsset `json:"assets"`
}

// Investment plans for portfolio runs.
const (
	LumpSum = "Lump Sum Investment"
	SIP     = "Systematic Investment Plan (SIP)"
)

type PortfolioSimulationParams struct {
	Mode                  string  `json:"mode"`
	Type                  string  `json:"type,omitempty"`
	TimeHorizon           float64 `json:"timeHorizon"`
	MonteCarloSimulations int     `json:"monteCarloSimulations"`
	InitialInvestment     float64 `json:"initialInvestment,omitempty"`
	MonthlyContribution   float64 `json:"monthlyContribution,omitempty"`
	Distribution          string  `json:"distribution,omitempty"`
}

// PortfolioRequest drives /simulate.
type PortfolioRequest struct {
	Portfolio        Portfolio                 `json:"portfolio"`
	SimulationParams PortfolioSimulationParams `json:"simulationParams"`
}

type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type ScenarioPoint struct {
	Percentile float64 `json:"percentile"`
	Value      float64 `json:"value"`
}

// PortfolioResult is the /simulate response.
type PortfolioResult struct {
	RiskScore            float64            `json:"riskScore"`
	BestCase             float64            `json:"bestCase"`
	WorstCase            float64            `json:"worstCase"`
	MedianOutcome        float64            `json:"medianOutcome"`
	ConfidenceInterval   ConfidenceInterval `json:"confidenceInterval"`
	SharpeRatio          float64            `json:"sharpeRatio"`
	MaxDrawdown          float64            `json:"maxDrawdown"`
	CVaR                 float64            `json:"cvar"`
	ProbNegativeReturn   float64            `json:"probNegativeReturn"`
	AnalysisSummary      string             `json:"analysisSummary"`
	ScenarioDistribution []ScenarioPoint    `json:"scenarioDistribution"`
	Error                string             `json:"error,omitempty"`
}

func (r *PortfolioResult) resultError() string { return r.Error }

// BacktestRequest drives /api/run_backtester_simulation/.
type BacktestRequest struct {
	Ticker               string   `json:"ticker"`
	Years                int      `json:"years"`
	TakeProfitPct        float64  `json:"take_profit_pct"`
	StopLossPct          float64  `json:"stop_loss_pct"`
	NumTrials            int      `json:"num_trials"`
	UseSlurp             bool     `json:"use_slurp"`
	SlurpColumns         []string `json:"slurp_columns,omitempty"`
	ForecastHorizon      int      `json:"forecast_horizon"`
	EntryLongPercentile  float64  `json:"entry_long_percentile"`
	EntryShortPercentile float64  `json:"entry_short_percentile"`
	ExitLongPercentile   float64  `json:"exit_long_percentile"`
	ExitShortPercentile  float64  `json:"exit_short_percentile"`
	EntryThresholdFactor float64  `json:"entry_threshold_factor"`
	ExitThresholdFactor  float64  `json:"exit_threshold_factor"`
}

// DefaultBacktestRequest returns the stock backtester settings for ticker.
func DefaultBacktestRequest(ticker string) BacktestRequest {
	return BacktestRequest{
		Ticker:               ticker,
		Years:                5,
		TakeProfitPct:        0.02,
		StopLossPct:          0.01,
		NumTrials:            10000,
		ForecastHorizon:      5,
		EntryLongPercentile:  0.75,
		EntryShortPercentile: 0.25,
		ExitLongPercentile:   0.25,
		ExitShortPercentile:  0.75,
		EntryThresholdFactor: 1.005,
		ExitThresholdFactor:  0.995,
	}
}

// BacktestResult is the backtester response. Trade log rows are passed
// through untouched.
type BacktestResult struct {
	FinalPortfolioValue float64           `json:"final_portfolio_value"`
	TotalPnL            float64           `json:"total_pnl"`
	TradeLog            []json.RawMessage `json:"trade_log"`
	AIRecommendation    string            `json:"ai_recommendation"`
	Error               string            `json:"error,omitempty"`
}

func (r *BacktestResult) resultError() string { return r.Error }

// OptimiseRequest drives /api/optimise_strategy/.
type OptimiseRequest struct {
	Ticker                        string    `json:"ticker"`
	Years                         int       `json:"years"`
	NumSimulations                int       `json:"num_simulations"`
	VolatilityLookbackDays        int       `json:"volatility_lookback_days"`
	ReturnDistributionPercentiles []float64 `json:"return_distribution_percentiles"`
	StrategyCount                 int       `json:"strategy_count"`
}

// DefaultOptimiseRequest returns the stock optimiser settings for ticker.
func DefaultOptimiseRequest(ticker string) OptimiseRequest {
	return OptimiseRequest{
		Ticker:                        ticker,
		Years:                         5,
		NumSimulations:                1000,
		VolatilityLookbackDays:        20,
		ReturnDistributionPercentiles: []float64{0.05, 0.1, 0.25, 0.75, 0.9, 0.95},
		StrategyCount:                 5,
	}
}

// RankedStrategy is one optimiser candidate. Threshold returns are
// fractions relative to the last close.
type RankedStrategy struct {
	Name                 string  `json:"name"`
	EntryThresholdReturn float64 `json:"entry_threshold_return"`
	ExitThresholdReturn  float64 `json:"exit_threshold_return"`
	StopThresholdReturn  float64 `json:"stop_threshold_return"`
	TotalPnL             float64 `json:"total_pnl"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	WinRate              float64 `json:"win_rate"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	CompositeScore       float64 `json:"composite_score"`
}

// OptimiseResult is the optimiser response.
type OptimiseResult struct {
	RankedStrategies []RankedStrategy `json:"ranked_strategies"`
	AIRecommendation string           `json:"ai_recommendation"`
	LastClosePrice   float64          `json:"last_close_price"`
	Error            string           `json:"error,omitempty"`
}

func (r *OptimiseResult) resultError() string { return r.Error }

// TickerMatch is one /api/search_tickers/ hit.
type TickerMatch struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

type chatResponse struct {
	Response string `json:"response"`
}
