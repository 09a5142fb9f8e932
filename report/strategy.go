package report

import (
	"fmt"
	"math"

	"github.com/vantage-modeller/vantage/client"
)

// StrategyCard is one optimiser candidate priced from the last close.
type StrategyCard struct {
	Rank           int     `json:"rank"`
	Label          string  `json:"label"`
	Name           string  `json:"name"`
	Entry          float64 `json:"entry"`
	Exit           float64 `json:"exit"`
	StopLoss       float64 `json:"stop_loss"`
	TakeProfit     float64 `json:"take_profit"`
	TotalPnLPct    float64 `json:"total_pnl_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	Sharpe         float64 `json:"sharpe"`
	RiskScore      string  `json:"risk_score"`
	Stars          int     `json:"stars"`
}

// RankLabel names the strategy at zero-based position i.
func RankLabel(i int) string {
	switch i {
	case 0:
		return "Best Overall"
	case 1:
		return "High Risk/High Reward"
	case 2:
		return "Defensive Option"
	default:
		return fmt.Sprintf("Strategy %d", i+1)
	}
}

// SharpeRating grades a Sharpe ratio as Good, Fair or Poor.
func SharpeRating(sharpe float64) string {
	switch {
	case sharpe > 2.0:
		return "Good"
	case sharpe > 1.0:
		return "Fair"
	default:
		return "Poor"
	}
}

// Stars maps a 0-100 composite score onto 1-5 stars.
func Stars(composite float64) int {
	if math.IsNaN(composite) {
		return 1
	}
	return int(math.Max(1, math.Min(5, math.Round(composite/20))))
}

// NewStrategyCard prices s against lastClose. The take-profit widens the
// entry by the entry/exit return spread.
func NewStrategyCard(i int, s client.RankedStrategy, lastClose float64) StrategyCard {
	entry := lastClose * (1 + s.EntryThresholdReturn)
	return StrategyCard{
		Rank:           i + 1,
		Label:          RankLabel(i),
		Name:           s.Name,
		Entry:          entry,
		Exit:           lastClose * (1 + s.ExitThresholdReturn),
		StopLoss:       lastClose * (1 + s.StopThresholdReturn),
		TakeProfit:     entry * (1 + (s.EntryThresholdReturn - s.ExitThresholdReturn)),
		TotalPnLPct:    s.TotalPnL,
		MaxDrawdownPct: s.MaxDrawdown * 100,
		WinRatePct:     s.WinRate,
		Sharpe:         s.SharpeRatio,
		RiskScore:      SharpeRating(s.SharpeRatio),
		Stars:          Stars(s.CompositeScore),
	}
}

// StrategyCards prices every ranked strategy in backend order.
func StrategyCards(res *client.OptimiseResult) []StrategyCard {
	cards := make([]StrategyCard, 0, len(res.RankedStrategies))
	for i, s := range res.RankedStrategies {
		cards = append(cards, NewStrategyCard(i, s, res.LastClosePrice))
	}
	return cards
}
