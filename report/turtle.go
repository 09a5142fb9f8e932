package report

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// ParseDirection accepts long or short in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Long:
		return Long, nil
	case Short:
		return Short, nil
	}
	return "", fmt.Errorf("direction %q: want long or short", s)
}

// TurtleInput holds the turtle calculator fields.
type TurtleInput struct {
	AccountSize float64   `json:"account_size"`
	RiskPercent float64   `json:"risk_percent"`
	ATR         float64   `json:"atr"`
	Entry       float64   `json:"entry"`
	Direction   Direction `json:"direction"`
}

// Validate rejects non-finite and non-positive inputs before any sizing.
func (in TurtleInput) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"account size", in.AccountSize},
		{"risk percentage", in.RiskPercent},
		{"ATR", in.ATR},
		{"entry price", in.Entry},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be a number", f.name)
		}
		if f.v <= 0 {
			return fmt.Errorf("%s must be positive", f.name)
		}
	}
	if in.RiskPercent > 100 {
		return errors.New("risk percentage must not exceed 100")
	}
	if in.Direction != Long && in.Direction != Short {
		return fmt.Errorf("direction %q: want long or short", in.Direction)
	}
	return nil
}

// TurtlePlan is the sized position with its exit and pyramid levels.
type TurtlePlan struct {
	Input      TurtleInput `json:"input"`
	RiskAmount float64     `json:"risk_amount"`
	Units      int         `json:"units"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	Adds       [3]float64  `json:"adds"`
}

// Turtle sizes a position so that a 2 ATR adverse move loses the risked
// amount. Stops sit 2 ATR away, targets 4 ATR, and pyramid adds every half ATR.
func Turtle(in TurtleInput) (TurtlePlan, error) {
	if err := in.Validate(); err != nil {
		return TurtlePlan{}, err
	}
	risk := in.AccountSize * in.RiskPercent / 100
	sign := 1.0
	if in.Direction == Short {
		sign = -1
	}
	at := func(k float64) float64 { return in.Entry + sign*k*in.ATR }
	return TurtlePlan{
		Input:      in,
		RiskAmount: risk,
		Units:      int(math.Floor(risk / (2 * in.ATR))),
		StopLoss:   at(-2),
		TakeProfit: at(4),
		Adds:       [3]float64{at(0.5), at(1), at(1.5)},
	}, nil
}
