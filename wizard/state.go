// Package wizard drives the five-step simulation flow: pick a data source,
// define the asset, choose a column for uploaded files, set parameters and
// view the report. State changes only through Reduce; the Controller runs
// the backend calls and feeds their outcome back as events.
package wizard

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
)

// Step identifies a wizard screen.
type Step int

const (
	DataSource Step = iota
	DefineAsset
	DefineColumns
	SetParams
	ViewReport
)

var stepNames = [...]string{"dataSource", "defineAsset", "defineColumns", "setParams", "viewReport"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Title is the heading shown on the step's screen.
func (s Step) Title() string {
	switch s {
	case DataSource:
		return "Step 1: Choose a Data Source"
	case DefineAsset:
		return "Step 2: Define the Asset"
	case DefineColumns:
		return "Step 3: Choose a Column"
	case SetParams:
		return "Step 4: Simulation Parameters"
	case ViewReport:
		return "Step 5: Report"
	}
	return s.String()
}

// Mode selects between one asset and a basket of holdings.
type Mode string

const (
	SingleAsset Mode = "singleAsset"
	Portfolio   Mode = "portfolio"
)

// ParseMode accepts the mode names and the menu shortcuts 1 and 2.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "single", "singleasset", "single asset":
		return SingleAsset, nil
	case "2", "portfolio":
		return Portfolio, nil
	}
	return "", fmt.Errorf("unknown mode %q: want singleAsset or portfolio", s)
}

type AssetKind string

const (
	TickerAsset    AssetKind = "ticker"
	FileAsset      AssetKind = "file"
	PortfolioAsset AssetKind = "portfolio"
)

// Holding is one portfolio line.
type Holding struct {
	Ticker   string  `json:"ticker"`
	Quantity float64 `json:"quantity"`
}

// Asset is the selection made on DefineAsset. Values are never mutated;
// WithColumn returns a copy.
type Asset struct {
	Kind     AssetKind `json:"kind"`
	Ticker   string    `json:"ticker,omitempty"`
	FilePath string    `json:"file_path,omitempty"`
	FileName string    `json:"file_name,omitempty"`
	Column   string    `json:"column,omitempty"` // "" lets the backend choose
	Holdings []Holding `json:"holdings,omitempty"`
}

func NewTickerAsset(symbol string) (Asset, error) {
	t := lexicon.NormalizeTicker(symbol)
	if t == "" {
		return Asset{}, errors.New("ticker is required")
	}
	if strings.ContainsAny(t, " \t/") {
		return Asset{}, fmt.Errorf("ticker %q must not contain spaces or slashes", t)
	}
	return Asset{Kind: TickerAsset, Ticker: t}, nil
}

// NewFileAsset references a file already uploaded to the backend.
func NewFileAsset(serverPath, fileName string) (Asset, error) {
	if strings.TrimSpace(serverPath) == "" {
		return Asset{}, errors.New("uploaded file path is required")
	}
	if fileName == "" {
		fileName = filepath.Base(serverPath)
	}
	return Asset{Kind: FileAsset, FilePath: serverPath, FileName: fileName}, nil
}

// NewPortfolioAsset validates and copies holdings. Tickers are normalised
// and must be unique.
func NewPortfolioAsset(holdings []Holding) (Asset, error) {
	if len(holdings) == 0 {
		return Asset{}, errors.New("add at least one holding")
	}
	seen := make(map[string]bool, len(holdings))
	out := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		t := lexicon.NormalizeTicker(h.Ticker)
		if t == "" {
			return Asset{}, errors.New("every holding needs a ticker")
		}
		if seen[t] {
			return Asset{}, fmt.Errorf("%s is listed twice", t)
		}
		if math.IsNaN(h.Quantity) || math.IsInf(h.Quantity, 0) || h.Quantity <= 0 {
			return Asset{}, fmt.Errorf("%s: quantity must be positive", t)
		}
		seen[t] = true
		out = append(out, Holding{Ticker: t, Quantity: h.Quantity})
	}
	return Asset{Kind: PortfolioAsset, Holdings: out}, nil
}

// WithColumn returns a copy with the column set.
func (a Asset) WithColumn(col string) Asset {
	a.Column = strings.TrimSpace(col)
	a.Holdings = append([]Holding(nil), a.Holdings...)
	return a
}

// Label is a short human description.
func (a Asset) Label() string {
	switch a.Kind {
	case TickerAsset:
		return a.Ticker
	case FileAsset:
		if a.Column != "" {
			return a.FileName + " [" + a.Column + "]"
		}
		return a.FileName
	case PortfolioAsset:
		parts := make([]string, 0, len(a.Holdings))
		for _, h := range a.Holdings {
			parts = append(parts, h.Ticker)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// PortfolioAssets expands holdings into request rows, weighting by quantity.
func (a Asset) PortfolioAssets(cat lexicon.Catalog) []client.PortfolioAsset {
	total := 0.0
	for _, h := range a.Holdings {
		total += h.Quantity
	}
	out := make([]client.PortfolioAsset, 0, len(a.Holdings))
	for i, h := range a.Holdings {
		name := h.Ticker
		if e, ok := cat.Lookup(h.Ticker); ok {
			name = e.Name
		}
		out = append(out, client.PortfolioAsset{
			ID:       fmt.Sprint(i + 1),
			Ticker:   h.Ticker,
			Name:     name,
			Weight:   math.Round(h.Quantity/total*1000) / 10,
			Quantity: h.Quantity,
		})
	}
	return out
}

// Pipeline picks the backend endpoint family for single-asset runs.
type Pipeline string

const (
	// Simple fits the chosen distribution (simple_*_simulation).
	Simple Pipeline = "simple"
	// Full runs the SIPmath pipeline (run_*_simulation); distribution is ignored.
	Full Pipeline = "full"
)

// Params are the values collected on SetParams.
type Params struct {
	Distribution        string    `json:"distribution"`
	Pipeline            Pipeline  `json:"pipeline"`
	HistoryYears        int       `json:"history_years"`
	HorizonYears        float64   `json:"horizon_years"`
	Trials              int       `json:"trials"`
	Percentiles         []float64 `json:"percentiles,omitempty"`
	Plan                string    `json:"plan,omitempty"`
	InitialInvestment   float64   `json:"initial_investment,omitempty"`
	MonthlyContribution float64   `json:"monthly_contribution,omitempty"`
}

// Validate checks numeric well-formedness only.
func (p Params) Validate(mode Mode) error {
	if _, err := client.ParseDistribution(p.Distribution); err != nil {
		return err
	}
	switch p.Pipeline {
	case Simple, Full, "":
	default:
		return fmt.Errorf("pipeline %q: want simple or full", p.Pipeline)
	}
	if p.HistoryYears <= 0 {
		return errors.New("history years must be positive")
	}
	if math.IsNaN(p.HorizonYears) || math.IsInf(p.HorizonYears, 0) || p.HorizonYears <= 0 {
		return errors.New("horizon years must be positive")
	}
	if p.Trials <= 0 {
		return errors.New("number of simulations must be positive")
	}
	for _, q := range p.Percentiles {
		if !(q > 0 && q < 1) {
			return fmt.Errorf("percentile threshold %v must lie strictly between 0 and 1", q)
		}
	}
	if mode == Portfolio {
		switch p.Plan {
		case client.LumpSum, client.SIP:
		default:
			return fmt.Errorf("investment plan %q: want %q or %q", p.Plan, client.LumpSum, client.SIP)
		}
		if !(p.InitialInvestment >= 0) || math.IsInf(p.InitialInvestment, 0) {
			return errors.New("initial investment must not be negative")
		}
		if !(p.MonthlyContribution >= 0) || math.IsInf(p.MonthlyContribution, 0) {
			return errors.New("monthly contribution must not be negative")
		}
	}
	return nil
}

// Result holds exactly one of the two result shapes.
type Result struct {
	Simulation *client.SimulationResult `json:"simulation,omitempty"`
	Portfolio  *client.PortfolioResult  `json:"portfolio,omitempty"`
}

// State is the whole wizard. Result is non-nil exactly when Step is
// ViewReport. Run numbers every submitted simulation; Pending marks the run
// still awaiting its outcome.
type State struct {
	Step    Step    `json:"step"`
	Mode    Mode    `json:"mode,omitempty"`
	Asset   *Asset  `json:"asset,omitempty"`
	Params  *Params `json:"params,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
	Pending bool    `json:"pending"`
	Run     int     `json:"run"`
}

// Initial is the state of a fresh wizard.
func Initial() State {
	return State{Step: DataSource}
}
