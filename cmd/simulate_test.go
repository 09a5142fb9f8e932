package cmd

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/internal/testutil"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/wizard"
)

func testClient(b *testutil.Backend) *client.Client {
	return client.New(b.URL, testutil.Creds{Token: "tok"}, 5*time.Second)
}

func testDefaults() wizard.Params {
	return wizard.Params{Distribution: "Normal", Pipeline: wizard.Simple, HistoryYears: 5, HorizonYears: 1, Trials: 1000}
}

func TestRunSimulate_Ticker(t *testing.T) {
	// GIVEN a backend that answers simple ticker simulations
	b := testutil.NewBackend(t)
	b.Reply("/api/simple_ticker_simulation", http.StatusOK, testutil.SimulationReply())
	var out bytes.Buffer

	// WHEN simulating AAPL with an overridden distribution and history
	o := simulateOptions{ticker: "aapl", distribution: "beta", historyYears: 3}
	err := runSimulate(context.Background(), &out, testClient(b), o, testDefaults(), report.Options{Bins: 4})

	// THEN the request carries the overrides and the report is printed
	require.NoError(t, err)
	calls := b.CallsTo("/api/simple_ticker_simulation")
	require.Len(t, calls, 1)
	body := calls[0].JSON(t)
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, "Beta", body["distribution"])
	assert.Equal(t, float64(3), body["years"])
	assert.Contains(t, out.String(), "Investor Simulation Report")
	assert.Contains(t, out.String(), "Hold.")
}

func TestRunSimulate_ExactlyOneSource(t *testing.T) {
	b := testutil.NewBackend(t)
	for name, o := range map[string]simulateOptions{
		"none": {},
		"two":  {ticker: "AAPL", holdings: []string{"MSFT=1"}},
	} {
		t.Run(name, func(t *testing.T) {
			err := runSimulate(context.Background(), &bytes.Buffer{}, testClient(b), o, testDefaults(), report.Options{})
			assert.ErrorContains(t, err, "exactly one")
		})
	}
	assert.Empty(t, b.Calls())
}

func TestRunSimulate_FileListColumns(t *testing.T) {
	// GIVEN an uploaded CSV whose columns the backend reports
	b := testutil.NewBackend(t)
	b.Reply("/api/uploadfile/", http.StatusOK, map[string]any{"file_path": "uploads/p.csv", "filename": "p.csv"})
	b.Reply("/api/get_csv_columns/", http.StatusOK, map[string]any{"columns": []string{"Date", "Close"}})
	path := filepath.Join(t.TempDir(), "p.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Close\n2024-01-02,10\n"), 0o600))
	var out bytes.Buffer

	// WHEN only listing columns
	err := runSimulate(context.Background(), &out, testClient(b), simulateOptions{file: path, listColumns: true}, testDefaults(), report.Options{})

	// THEN the columns are printed and nothing is simulated
	require.NoError(t, err)
	assert.Equal(t, "Date\nClose\n", out.String())
	assert.Len(t, b.CallsTo("/api/uploadfile/"), 1)
	assert.Empty(t, b.CallsTo("/api/simple_file_simulation/"))
}

func TestRunSimulate_FileFullPipelineWithPDF(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/api/uploadfile/", http.StatusOK, map[string]any{"file_path": "uploads/p.csv", "filename": "p.csv"})
	b.Reply("/api/run_simulation/", http.StatusOK, testutil.SimulationReply())
	dir := t.TempDir()
	path := filepath.Join(dir, "p.csv")
	require.NoError(t, os.WriteFile(path, []byte("Close\n10\n"), 0o600))
	pdf := filepath.Join(dir, "out.pdf")
	var out bytes.Buffer

	o := simulateOptions{file: path, column: "Close", pipeline: "FULL", pdfPath: pdf}
	err := runSimulate(context.Background(), &out, testClient(b), o, testDefaults(), report.Options{Bins: 4})

	require.NoError(t, err)
	calls := b.CallsTo("/api/run_simulation/")
	require.Len(t, calls, 1)
	assert.Equal(t, "uploads/p.csv", calls[0].JSON(t)["file_path"])
	assert.Equal(t, "Close", calls[0].JSON(t)["column_name"])
	assert.Contains(t, out.String(), "Saved "+pdf)
	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRunSimulate_MissingFile(t *testing.T) {
	b := testutil.NewBackend(t)
	o := simulateOptions{file: filepath.Join(t.TempDir(), "absent.csv")}
	err := runSimulate(context.Background(), &bytes.Buffer{}, testClient(b), o, testDefaults(), report.Options{})
	assert.ErrorContains(t, err, "opening")
	assert.Empty(t, b.Calls())
}

func TestRunSimulate_PortfolioSIP(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/simulate", http.StatusOK, map[string]any{
		"riskScore": 30, "bestCase": 15000, "worstCase": 9000, "medianOutcome": 11000,
		"confidenceInterval": map[string]any{"lower": 9500, "upper": 14000},
	})
	var out bytes.Buffer

	o := simulateOptions{holdings: []string{"AAPL=10", "MSFT"}, plan: "sip", initial: 10000, monthly: 250, horizonYears: 5}
	err := runSimulate(context.Background(), &out, testClient(b), o, testDefaults(), report.Options{})

	require.NoError(t, err)
	calls := b.CallsTo("/simulate")
	require.Len(t, calls, 1)
	params := calls[0].JSON(t)["simulationParams"].(map[string]any)
	assert.Equal(t, client.SIP, params["type"])
	assert.Equal(t, float64(250), params["monthlyContribution"])
	assert.Equal(t, float64(10000), params["initialInvestment"])
}

func TestRunSimulate_BadPlan(t *testing.T) {
	b := testutil.NewBackend(t)
	o := simulateOptions{holdings: []string{"AAPL=1"}, plan: "weekly", initial: 1000}
	err := runSimulate(context.Background(), &bytes.Buffer{}, testClient(b), o, testDefaults(), report.Options{})
	assert.ErrorContains(t, err, "want lump or sip")
	assert.Empty(t, b.Calls())
}

func TestRunSimulate_BackendErrorSurfaces(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/api/simple_ticker_simulation", http.StatusOK, map[string]any{"error": "No data found"})

	err := runSimulate(context.Background(), &bytes.Buffer{}, testClient(b), simulateOptions{ticker: "ZZZZ"}, testDefaults(), report.Options{})

	require.Error(t, err)
	assert.Equal(t, "No data found", client.UserMessage(err))
}

func TestParseHoldings(t *testing.T) {
	tests := []struct {
		in      []string
		want    []wizard.Holding
		wantErr bool
	}{
		{in: []string{"AAPL=10", "MSFT"}, want: []wizard.Holding{{Ticker: "AAPL", Quantity: 10}, {Ticker: "MSFT", Quantity: 1}}},
		{in: []string{"GC=F=2"}, wantErr: true},
		{in: []string{"AAPL= 2.5"}, want: []wizard.Holding{{Ticker: "AAPL", Quantity: 2.5}}},
		{in: []string{"AAPL=lots"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseHoldings(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
