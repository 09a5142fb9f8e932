package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
)

// Simulator is the backend surface the wizard needs. *client.Client
// implements it.
type Simulator interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (*client.UploadResult, error)
	CSVColumns(ctx context.Context, filePath string) ([]string, error)
	SimpleTickerSimulation(ctx context.Context, req client.TickerSimulationRequest) (*client.SimulationResult, error)
	SimpleFileSimulation(ctx context.Context, req client.FileSimulationRequest) (*client.SimulationResult, error)
	RunTickerSimulation(ctx context.Context, req client.TickerSimulationRequest) (*client.SimulationResult, error)
	RunFileSimulation(ctx context.Context, req client.FileSimulationRequest) (*client.SimulationResult, error)
	PortfolioSimulation(ctx context.Context, req client.PortfolioRequest) (*client.PortfolioResult, error)
}

var _ Simulator = (*client.Client)(nil)

// Controller owns one wizard's state and performs its backend calls.
// It is safe for concurrent use; backend calls run without the lock held.
type Controller struct {
	api     Simulator
	catalog lexicon.Catalog

	mu       sync.Mutex
	state    State
	columns  map[string][]string // by server file path
	watchers map[int]chan State
	watchSeq int
}

func NewController(api Simulator) *Controller {
	return &Controller{
		api:      api,
		catalog:  lexicon.Default(),
		state:    Initial(),
		columns:  make(map[string][]string),
		watchers: make(map[int]chan State),
	}
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Watch delivers the current state and then every change until ctx is
// done, when the channel is closed. A slow reader only sees the latest
// state.
func (c *Controller) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, 1)
	c.mu.Lock()
	id := c.watchSeq
	c.watchSeq++
	c.watchers[id] = ch
	ch <- c.state
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.watchers, id)
		close(ch)
		c.mu.Unlock()
	}()
	return ch
}

// setLocked replaces the state and notifies watchers. c.mu must be held.
func (c *Controller) setLocked(s State) {
	c.state = s
	for _, ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Dispatch applies a navigation or selection event.
func (c *Controller) Dispatch(ev Event) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := Reduce(c.state, ev)
	if err != nil {
		return c.state, err
	}
	c.setLocked(next)
	return next, nil
}

// SelectMode is Dispatch(ModeSelected).
func (c *Controller) SelectMode(m Mode) (State, error) {
	return c.Dispatch(ModeSelected{Mode: m})
}

// SelectTicker validates symbol and selects it.
func (c *Controller) SelectTicker(symbol string) (State, error) {
	a, err := NewTickerAsset(symbol)
	if err != nil {
		return c.State(), err
	}
	return c.Dispatch(AssetSelected{Asset: a})
}

// SelectPortfolio validates holdings and selects them.
func (c *Controller) SelectPortfolio(holdings []Holding) (State, error) {
	a, err := NewPortfolioAsset(holdings)
	if err != nil {
		return c.State(), err
	}
	return c.Dispatch(AssetSelected{Asset: a})
}

// SelectColumn is Dispatch(ColumnSelected); "" keeps the backend default.
func (c *Controller) SelectColumn(col string) (State, error) {
	return c.Dispatch(ColumnSelected{Column: col})
}

// UploadFile sends a data file and selects it as the asset.
func (c *Controller) UploadFile(ctx context.Context, filename string, r io.Reader) (State, error) {
	s := c.State()
	if s.Step != DefineAsset || s.Mode != SingleAsset {
		return s, fmt.Errorf("%w: upload at %s", ErrInvalidTransition, s.Step)
	}
	up, err := c.api.UploadFile(ctx, filename, r)
	if err != nil {
		return c.fail(err)
	}
	a, err := NewFileAsset(up.FilePath, up.Filename)
	if err != nil {
		return c.fail(err)
	}
	logrus.Infof("uploaded %s as %s", filename, up.FilePath)
	return c.Dispatch(AssetSelected{Asset: a})
}

// Columns lists the uploaded file's columns. Results are cached per file.
func (c *Controller) Columns(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	s := c.state
	var cached []string
	if s.Asset != nil {
		cached = c.columns[s.Asset.FilePath]
	}
	c.mu.Unlock()

	if s.Step != DefineColumns || s.Asset == nil || s.Asset.Kind != FileAsset {
		return nil, fmt.Errorf("%w: columns at %s", ErrInvalidTransition, s.Step)
	}
	if cached != nil {
		return append([]string(nil), cached...), nil
	}
	cols, err := c.api.CSVColumns(ctx, s.Asset.FilePath)
	if err != nil {
		_, _ = c.fail(err)
		return nil, err
	}
	c.mu.Lock()
	c.columns[s.Asset.FilePath] = cols
	c.mu.Unlock()
	return append([]string(nil), cols...), nil
}

// Submit records p, issues the simulation call matching the asset and
// applies its outcome. The returned error is the backend error, if any, so
// callers can react to client.IsUnauthorized. A completion for a run that
// was abandoned meanwhile (back, restart) is discarded.
func (c *Controller) Submit(ctx context.Context, p Params) (State, error) {
	c.mu.Lock()
	next, err := Reduce(c.state, ParamsSubmitted{Params: p})
	if err != nil {
		s := c.state
		c.mu.Unlock()
		return s, err
	}
	c.setLocked(next)
	c.mu.Unlock()

	run, mode, asset, params := next.Run, next.Mode, *next.Asset, *next.Params
	logrus.Debugf("run %d: simulating %s (%s)", run, asset.Label(), mode)
	res, simErr := c.simulate(ctx, asset, params)
	if simErr == nil && res.Simulation == nil && res.Portfolio == nil {
		simErr = &client.APIError{Op: "run simulation", Message: "Failed to run simulation."}
	}

	var ev Event
	if simErr != nil {
		ev = SimulationFailed{Run: run, Message: client.UserMessage(simErr)}
	} else {
		ev = SimulationSucceeded{Run: run, Result: res}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	applied, err := Reduce(c.state, ev)
	switch {
	case errors.Is(err, ErrStale):
		logrus.Debugf("run %d: outcome discarded, wizard moved on", run)
	case err != nil:
		logrus.Warnf("run %d: %v", run, err)
	default:
		c.setLocked(applied)
	}
	return c.state, simErr
}

func (c *Controller) simulate(ctx context.Context, a Asset, p Params) (Result, error) {
	switch a.Kind {
	case TickerAsset:
		req := client.TickerSimulationRequest{Ticker: a.Ticker, Years: p.HistoryYears, Distribution: p.Distribution}
		var res *client.SimulationResult
		var err error
		if p.Pipeline == Full {
			res, err = c.api.RunTickerSimulation(ctx, req)
		} else {
			res, err = c.api.SimpleTickerSimulation(ctx, req)
		}
		return Result{Simulation: res}, err

	case FileAsset:
		req := client.FileSimulationRequest{FilePath: a.FilePath, Distribution: p.Distribution}
		if a.Column != "" {
			col := a.Column
			req.ColumnName = &col
		}
		var res *client.SimulationResult
		var err error
		if p.Pipeline == Full {
			res, err = c.api.RunFileSimulation(ctx, req)
		} else {
			res, err = c.api.SimpleFileSimulation(ctx, req)
		}
		return Result{Simulation: res}, err

	case PortfolioAsset:
		res, err := c.api.PortfolioSimulation(ctx, c.portfolioRequest(a, p))
		return Result{Portfolio: res}, err
	}
	return Result{}, fmt.Errorf("unknown asset kind %q", a.Kind)
}

func (c *Controller) portfolioRequest(a Asset, p Params) client.PortfolioRequest {
	params := client.PortfolioSimulationParams{
		Mode:                  string(Portfolio),
		Type:                  p.Plan,
		TimeHorizon:           p.HorizonYears,
		MonteCarloSimulations: p.Trials,
		InitialInvestment:     p.InitialInvestment,
		Distribution:          p.Distribution,
	}
	if p.Plan == client.SIP {
		params.MonthlyContribution = p.MonthlyContribution
	}
	return client.PortfolioRequest{
		Portfolio:        client.Portfolio{Assets: a.PortfolioAssets(c.catalog)},
		SimulationParams: params,
	}
}

// Back is Dispatch(Back{}).
func (c *Controller) Back() (State, error) { return c.Dispatch(Back{}) }

// Restart is Dispatch(Restart{}).
func (c *Controller) Restart() (State, error) { return c.Dispatch(Restart{}) }

// Report builds the document for the current result.
func (c *Controller) Report(opts report.Options) (*report.Document, error) {
	s := c.State()
	if s.Step != ViewReport || s.Result == nil {
		return nil, errors.New("no report yet: run a simulation first")
	}
	if s.Result.Portfolio != nil {
		req := c.portfolioRequest(*s.Asset, *s.Params)
		return report.Portfolio(s.Result.Portfolio, req.Portfolio.Assets, req.SimulationParams), nil
	}
	doc := report.Simulation(s.Asset.Label(), s.Result.Simulation, opts)
	if sim := s.Result.Simulation; sim != nil {
		if sec, ok := report.PercentileSection(sim.SimulationData, s.Params.Percentiles); ok {
			doc.Sections = append(doc.Sections, sec)
		}
	}
	doc.Sections = append(doc.Sections, inputsSection(*s.Asset, *s.Params))
	return doc, nil
}

func inputsSection(a Asset, p Params) report.Section {
	rows := []report.Row{{Label: "Asset", Value: a.Label()}}
	if p.Pipeline == Full {
		rows = append(rows, report.Row{Label: "Pipeline", Value: "SIPmath"})
	} else {
		rows = append(rows, report.Row{Label: "Distribution", Value: p.Distribution})
	}
	if a.Kind == TickerAsset {
		rows = append(rows, report.Row{Label: "History", Value: fmt.Sprintf("%d years", p.HistoryYears)})
	}
	for _, q := range p.Percentiles {
		rows = append(rows, report.Row{Label: "Percentile threshold", Value: report.Fixed(q*100, 1) + "th"})
	}
	return report.Section{Heading: "Simulation Inputs", Rows: rows}
}

func (c *Controller) fail(err error) (State, error) {
	s, _ := c.Dispatch(ErrorRaised{Message: client.UserMessage(err)})
	return s, err
}
