package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-modeller/vantage/client"
)

func validParams() Params {
	return Params{Distribution: client.Normal, Pipeline: Simple, HistoryYears: 5, HorizonYears: 10, Trials: 1000}
}

func mustReduce(t *testing.T, s State, evs ...Event) State {
	t.Helper()
	for _, ev := range evs {
		var err error
		s, err = Reduce(s, ev)
		require.NoError(t, err, "event %T at %s", ev, s.Step)
	}
	return s
}

func tickerAsset(t *testing.T, sym string) Asset {
	t.Helper()
	a, err := NewTickerAsset(sym)
	require.NoError(t, err)
	return a
}

func fileAsset(t *testing.T) Asset {
	t.Helper()
	a, err := NewFileAsset("uploads/prices.csv", "prices.csv")
	require.NoError(t, err)
	return a
}

func okResult() Result {
	return Result{Simulation: &client.SimulationResult{SimulationData: []float64{1, 2}}}
}

// assertResultIffReport checks that a result is present exactly on ViewReport.
func assertResultIffReport(t *testing.T, s State) {
	t.Helper()
	assert.Equal(t, s.Step == ViewReport, s.Result != nil, "step %s result %v", s.Step, s.Result)
}

func TestReduce_TickerPath_SkipsColumns(t *testing.T) {
	s := mustReduce(t, Initial(),
		ModeSelected{Mode: SingleAsset},
		AssetSelected{Asset: tickerAsset(t, "aapl")},
	)
	assert.Equal(t, SetParams, s.Step)
	assert.Equal(t, "AAPL", s.Asset.Ticker)

	_, err := Reduce(s, ColumnSelected{Column: "Close"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_FilePath_AlwaysThroughColumns(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: fileAsset(t)})
	assert.Equal(t, DefineColumns, s.Step)

	_, err := Reduce(s, ParamsSubmitted{Params: validParams()})
	assert.ErrorIs(t, err, ErrInvalidTransition, "params cannot be submitted before a column is chosen")

	s = mustReduce(t, s, ColumnSelected{Column: ""})
	assert.Equal(t, SetParams, s.Step)
	assert.Empty(t, s.Asset.Column, "empty choice keeps the backend default")
}

func TestReduce_ViewReportOnlyAfterSuccess(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")})

	// Submitting marks a pending run but does not advance.
	s = mustReduce(t, s, ParamsSubmitted{Params: validParams()})
	assert.Equal(t, SetParams, s.Step)
	assert.True(t, s.Pending)
	assert.Equal(t, 1, s.Run)
	assertResultIffReport(t, s)

	// Failure stays on SetParams with the message.
	s = mustReduce(t, s, SimulationFailed{Run: 1, Message: "No data found"})
	assert.Equal(t, SetParams, s.Step)
	assert.Equal(t, "No data found", s.Error)
	assert.False(t, s.Pending)
	assertResultIffReport(t, s)

	// A success with no run outstanding is stale.
	_, err := Reduce(s, SimulationSucceeded{Run: 1, Result: okResult()})
	assert.ErrorIs(t, err, ErrStale)

	// Resubmitting clears the error; success advances.
	s = mustReduce(t, s, ParamsSubmitted{Params: validParams()})
	assert.Empty(t, s.Error)
	s = mustReduce(t, s, SimulationSucceeded{Run: 2, Result: okResult()})
	assert.Equal(t, ViewReport, s.Step)
	assertResultIffReport(t, s)
}

func TestReduce_DoubleSubmitRejected(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")},
		ParamsSubmitted{Params: validParams()})
	_, err := Reduce(s, ParamsSubmitted{Params: validParams()})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestReduce_StaleCompletionAfterBack(t *testing.T) {
	// GIVEN a pending run
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")},
		ParamsSubmitted{Params: validParams()})

	// WHEN the user navigates back before it completes
	s = mustReduce(t, s, Back{})

	// THEN the late completion is dropped
	after, err := Reduce(s, SimulationSucceeded{Run: 1, Result: okResult()})
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, s, after)
	assert.Equal(t, DefineAsset, after.Step)
}

func TestReduce_OldRunIgnored(t *testing.T) {
	s := State{Step: SetParams, Mode: SingleAsset, Pending: true, Run: 3}
	a := tickerAsset(t, "AAPL")
	s.Asset = &a
	_, err := Reduce(s, SimulationFailed{Run: 2, Message: "late"})
	assert.ErrorIs(t, err, ErrStale)
}

func TestReduce_Back(t *testing.T) {
	base := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset})
	tests := []struct {
		name  string
		evs   []Event
		want  Step
		clear bool
	}{
		{"asset to source", nil, DataSource, false},
		{"columns to asset", []Event{AssetSelected{Asset: fileAsset(t)}}, DefineAsset, false},
		{"file params to columns", []Event{AssetSelected{Asset: fileAsset(t)}, ColumnSelected{Column: "Close"}}, DefineColumns, false},
		{"ticker params to asset", []Event{AssetSelected{Asset: tickerAsset(t, "AAPL")}}, DefineAsset, false},
		{"report to params drops result", []Event{
			AssetSelected{Asset: tickerAsset(t, "AAPL")},
			ParamsSubmitted{Params: validParams()},
			SimulationSucceeded{Run: 1, Result: okResult()},
		}, SetParams, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustReduce(t, base, tt.evs...)
			s = mustReduce(t, s, Back{})
			assert.Equal(t, tt.want, s.Step)
			assertResultIffReport(t, s)
			if tt.clear {
				assert.NotNil(t, s.Params, "parameters survive for editing")
			}
		})
	}

	_, err := Reduce(Initial(), Back{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_RestartClearsEverything(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")},
		ParamsSubmitted{Params: validParams()}, SimulationSucceeded{Run: 1, Result: okResult()})

	s = mustReduce(t, s, Restart{})

	assert.Equal(t, DataSource, s.Step)
	assert.Nil(t, s.Asset)
	assert.Nil(t, s.Params)
	assert.Nil(t, s.Result)
	assert.Empty(t, s.Error)
	assert.False(t, s.Pending)
	assert.Equal(t, 1, s.Run, "run counter keeps counting so older outcomes stay stale")
}

func TestReduce_RestartFromEveryStep(t *testing.T) {
	steps := [][]Event{
		nil,
		{ModeSelected{Mode: SingleAsset}},
		{ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: fileAsset(t)}},
		{ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")}},
	}
	for _, evs := range steps {
		s := mustReduce(t, Initial(), evs...)
		s = mustReduce(t, s, Restart{})
		assert.Equal(t, Initial(), s)
	}
}

func TestReduce_InvalidEventsLeaveStateUnchanged(t *testing.T) {
	s := Initial()
	for _, ev := range []Event{
		AssetSelected{Asset: tickerAsset(t, "AAPL")},
		ColumnSelected{},
		ParamsSubmitted{Params: validParams()},
	} {
		next, err := Reduce(s, ev)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, s, next)
	}
}

func TestReduce_AssetMustFitMode(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: Portfolio})
	_, err := Reduce(s, AssetSelected{Asset: tickerAsset(t, "AAPL")})
	assert.Error(t, err)

	p, err := NewPortfolioAsset([]Holding{{Ticker: "aapl", Quantity: 3}, {Ticker: "MSFT", Quantity: 1}})
	require.NoError(t, err)
	s = mustReduce(t, s, AssetSelected{Asset: p})
	assert.Equal(t, SetParams, s.Step)

	s = mustReduce(t, s, Back{})
	assert.Equal(t, DefineAsset, s.Step, "portfolio assets skip the column step")
}

func TestReduce_ModeChangeDropsSelection(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")}, Back{}, Back{})
	require.Equal(t, DataSource, s.Step)
	require.NotNil(t, s.Asset)

	s = mustReduce(t, s, ModeSelected{Mode: Portfolio})
	assert.Nil(t, s.Asset)
}

func TestReduce_InvalidParams(t *testing.T) {
	s := mustReduce(t, Initial(), ModeSelected{Mode: SingleAsset}, AssetSelected{Asset: tickerAsset(t, "AAPL")})
	bad := validParams()
	bad.Trials = 0
	next, err := Reduce(s, ParamsSubmitted{Params: bad})
	assert.Error(t, err)
	assert.Equal(t, s, next)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		mutate func(*Params)
		ok     bool
	}{
		{"valid", SingleAsset, func(*Params) {}, true},
		{"unknown distribution", SingleAsset, func(p *Params) { p.Distribution = "Cauchy" }, false},
		{"bad pipeline", SingleAsset, func(p *Params) { p.Pipeline = "turbo" }, false},
		{"zero history", SingleAsset, func(p *Params) { p.HistoryYears = 0 }, false},
		{"percentile out of range", SingleAsset, func(p *Params) { p.Percentiles = []float64{0.05, 1} }, false},
		{"portfolio needs plan", Portfolio, func(*Params) {}, false},
		{"portfolio lump sum", Portfolio, func(p *Params) { p.Plan = client.LumpSum; p.InitialInvestment = 1000 }, true},
		{"negative contribution", Portfolio, func(p *Params) { p.Plan = client.SIP; p.MonthlyContribution = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate(tt.mode)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewPortfolioAsset(t *testing.T) {
	_, err := NewPortfolioAsset(nil)
	assert.Error(t, err)
	_, err = NewPortfolioAsset([]Holding{{Ticker: "AAPL", Quantity: 1}, {Ticker: "aapl", Quantity: 2}})
	assert.Error(t, err)
	_, err = NewPortfolioAsset([]Holding{{Ticker: "AAPL", Quantity: 0}})
	assert.Error(t, err)
}

func TestStepText(t *testing.T) {
	assert.Equal(t, "defineColumns", DefineColumns.String())
	b, err := ViewReport.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "viewReport", string(b))
}
