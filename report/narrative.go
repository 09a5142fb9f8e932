package report

import (
	"fmt"

	"github.com/vantage-modeller/vantage/client"
)

// DefaultVolatilityThreshold is the std/mean ratio above which volatility
// is called high.
const DefaultVolatilityThreshold = 0.15

// Scenario is an illustrative trade plan read off the simulated distribution.
type Scenario struct {
	Title      string   `json:"title"`
	Position   string   `json:"position"` // long | short
	Summary    string   `json:"summary"`
	Entry      float64  `json:"entry"`
	TakeProfit float64  `json:"take_profit"`
	StopLoss   float64  `json:"stop_loss"`
	Points     []string `json:"points"`
}

// ScenarioIntro precedes the scenario list.
const ScenarioIntro = "The following scenarios are derived from the statistical distribution of the simulation data. " +
	"They provide potential strategies for both long and short positions based on conservative and aggressive approaches. " +
	"These are not financial advice but illustrative examples based on the simulation."

// Scenarios returns the conservative and aggressive plans for each side,
// longs first.
func Scenarios(s client.SummaryStats) []Scenario {
	p5, p50, p95 := Fixed(s.Percentile5th, 2), Fixed(s.Percentile50th, 2), Fixed(s.Percentile95th, 2)
	lo, hi := Fixed(s.Min, 2), Fixed(s.Max, 2)

	return []Scenario{
		{
			Title:      "Conservative Long Strategy",
			Position:   "long",
			Summary:    "Enter a long position at a level of strong statistical support, targeting a reversion to the upper end of the distribution.",
			Entry:      s.Percentile5th,
			TakeProfit: s.Percentile95th,
			StopLoss:   s.Min,
			Points: []string{
				fmt.Sprintf("Entry Point: consider entering near %s (5th Percentile). Only 5%% of simulated outcomes were lower, suggesting a potential price floor.", p5),
				fmt.Sprintf("Take-Profit Target: a potential exit to lock in gains is %s (95th Percentile), a statistically optimistic outcome.", p95),
				fmt.Sprintf("Stop-Loss: place it below %s (Simulated Minimum) to exit if the price breaks this support.", lo),
			},
		},
		{
			Title:      "Aggressive Long Strategy",
			Position:   "long",
			Summary:    "Enter closer to the center of the distribution, anticipating continued upward movement.",
			Entry:      s.Percentile50th,
			TakeProfit: s.Percentile95th,
			StopLoss:   s.Percentile5th,
			Points: []string{
				fmt.Sprintf("Entry Point: consider entering near %s (Median), the central tendency of the simulation. The price has already moved up from the lows.", p50),
				fmt.Sprintf("Take-Profit Target: %s (95th Percentile), or near %s (Simulated Maximum) for a more optimistic target.", p95, hi),
				fmt.Sprintf("Stop-Loss: place it below %s (5th Percentile), a wider risk margin than the conservative plan.", p5),
			},
		},
		{
			Title:      "Conservative Short Strategy",
			Position:   "short",
			Summary:    "Enter a short position at a level of strong statistical resistance, targeting a reversion to the lower end of the distribution.",
			Entry:      s.Percentile95th,
			TakeProfit: s.Percentile5th,
			StopLoss:   s.Max,
			Points: []string{
				fmt.Sprintf("Entry Point: consider entering near %s (95th Percentile). Only 5%% of simulated outcomes were higher, suggesting a potential price ceiling.", p95),
				fmt.Sprintf("Take-Profit Target: a potential exit to lock in gains is %s (5th Percentile), a statistically pessimistic outcome.", p5),
				fmt.Sprintf("Stop-Loss: place it above %s (Simulated Maximum) to exit if the price breaks this resistance.", hi),
			},
		},
		{
			Title:      "Aggressive Short Strategy",
			Position:   "short",
			Summary:    "Enter closer to the center of the distribution, anticipating continued downward movement.",
			Entry:      s.Percentile50th,
			TakeProfit: s.Percentile5th,
			StopLoss:   s.Percentile95th,
			Points: []string{
				fmt.Sprintf("Entry Point: consider entering near %s (Median). The price has not yet reached the peak of the distribution.", p50),
				fmt.Sprintf("Take-Profit Target: %s (5th Percentile), or near %s (Simulated Minimum) for a more optimistic target.", p5, lo),
				fmt.Sprintf("Stop-Loss: place it above %s (95th Percentile), a wider risk margin.", p95),
			},
		},
	}
}

// Volatility is the risk assessment derived from std/mean.
type Volatility struct {
	StdDev          float64  `json:"std_dev"`
	Threshold       float64  `json:"threshold"`
	High            bool     `json:"high"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
}

// VolatilityIntro explains what the standard deviation measures.
func VolatilityIntro(stdDev float64) string {
	return fmt.Sprintf("Volatility, represented by the Standard Deviation of %s, is a critical factor in risk management. "+
		"It measures how spread out the simulated price outcomes are from the average (mean) price.", Fixed(stdDev, 2))
}

// AssessVolatility compares std/mean to threshold (DefaultVolatilityThreshold
// when non-positive). A zero mean with positive spread counts as high; a
// negative ratio counts as low.
func AssessVolatility(s client.SummaryStats, threshold float64) Volatility {
	if threshold <= 0 {
		threshold = DefaultVolatilityThreshold
	}
	pct := Fixed(threshold*100, 0)
	v := Volatility{StdDev: s.StdDev, Threshold: threshold}
	if s.StdDev/s.Mean > threshold {
		v.High = true
		v.Analysis = fmt.Sprintf("The current volatility is relatively high (Standard Deviation is more than %s%% of the Mean). "+
			"This implies a wide range of possible outcomes and significant price swings.", pct)
		v.Recommendations = []string{
			"Use Wider Stops: stop-loss orders may need to sit further from the entry point to avoid being stopped out by normal market noise.",
			"Reduce Position Size: consider a smaller position to manage the increased risk. The turtle calculator sizes positions from your risk tolerance.",
			"Favor Conservative Entries: wait for clearer entry signals at the 5th or 95th percentiles.",
		}
		return v
	}
	v.Analysis = fmt.Sprintf("The current volatility is relatively low (Standard Deviation is less than %s%% of the Mean). "+
		"Price movements are expected to be more contained and less erratic.", pct)
	v.Recommendations = []string{
		"Tighter Stops: tighter stop-loss orders may work as the risk of large, unexpected swings is lower.",
		"Range-Bound Strategies: low volatility can indicate the lack of a strong trend, so buying at support and selling at resistance may be more effective.",
		"Monitor for Breakouts: a quiet period is often followed by a significant breakout. Watch for price leaving its range with increasing momentum.",
	}
	return v
}
