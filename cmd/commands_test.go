package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/config"
	"github.com/vantage-modeller/vantage/internal/testutil"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/session"
)

type fakeSearch struct {
	matches []client.TickerMatch
	err     error
	queries []string
}

func (f *fakeSearch) SearchTickers(_ context.Context, q string) ([]client.TickerMatch, error) {
	f.queries = append(f.queries, q)
	return f.matches, f.err
}

func TestRunTickers_LocalFilter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runTickers(context.Background(), &out, "gold", nil))

	text := out.String()
	assert.Contains(t, text, "Commodities")
	assert.Contains(t, text, "GC=F")
	assert.NotContains(t, text, "Indices")
	assert.NotContains(t, text, "No listed symbol")
}

func TestRunTickers_RemoteResults(t *testing.T) {
	search := &fakeSearch{matches: []client.TickerMatch{{Ticker: "NVDA", Name: "NVIDIA Corp"}}}
	var out bytes.Buffer

	require.NoError(t, runTickers(context.Background(), &out, "nvidia", search))

	assert.Equal(t, []string{"nvidia"}, search.queries)
	assert.Contains(t, out.String(), "Search results")
	assert.Contains(t, out.String(), "NVIDIA Corp")
	assert.NotContains(t, out.String(), "No listed symbol")
}

func TestRunTickers_NoMatchShowsHints(t *testing.T) {
	search := &fakeSearch{}
	var out bytes.Buffer

	require.NoError(t, runTickers(context.Background(), &out, "zzqx", search))

	assert.Contains(t, out.String(), `No listed symbol matches "zzqx".`)
	for _, h := range lexicon.Hints() {
		assert.Contains(t, out.String(), h.Title)
	}
}

func TestRunTickers_EmptyQuerySkipsRemote(t *testing.T) {
	search := &fakeSearch{}
	require.NoError(t, runTickers(context.Background(), &bytes.Buffer{}, "", search))
	assert.Empty(t, search.queries)
}

func TestRunTickers_RemoteError(t *testing.T) {
	search := &fakeSearch{err: errors.New("boom")}
	err := runTickers(context.Background(), &bytes.Buffer{}, "x", search)
	assert.EqualError(t, err, "boom")
}

func TestRunChat_UsesAPIKey(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Reply("/chat", http.StatusOK, map[string]any{"response": "  Diversify.  "})
	api := client.New(b.URL, testutil.Creds{Token: "tok", APIKey: "key"}, 0)
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), &out, api, " what now? "))

	assert.Equal(t, "Diversify.\n", out.String())
	calls := b.CallsTo("/chat")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer key", calls[0].Authorization)
	assert.Equal(t, "what now?", calls[0].JSON(t)["prompt"])
}

func TestRunChat_EmptyPrompt(t *testing.T) {
	b := testutil.NewBackend(t)
	err := runChat(context.Background(), &bytes.Buffer{}, testClient(b), "   ")
	assert.EqualError(t, err, "prompt is empty")
	assert.Empty(t, b.Calls())
}

type fakeLogin struct {
	email, password string
	registered      bool
	err             error
}

func (f *fakeLogin) Login(_ context.Context, email, password string) error {
	f.email, f.password = email, password
	return f.err
}

func (f *fakeLogin) Register(_ context.Context, email, password string) error {
	f.email, f.password, f.registered = email, password, true
	return f.err
}

func TestRunLogin_PromptsForMissingValues(t *testing.T) {
	auth := &fakeLogin{}
	var out bytes.Buffer

	err := runLogin(context.Background(), strings.NewReader("ann@example.com\nhunter2\n"), &out, auth, "", "", false)

	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", auth.email)
	assert.Equal(t, "hunter2", auth.password)
	assert.False(t, auth.registered)
	assert.Equal(t, "Email: Password: Signed in as ann@example.com.\n", out.String())
}

func TestRunLogin_RegisterWithFlags(t *testing.T) {
	auth := &fakeLogin{}
	var out bytes.Buffer

	err := runLogin(context.Background(), strings.NewReader(""), &out, auth, "bo@example.com", "pw", true)

	require.NoError(t, err)
	assert.True(t, auth.registered)
	assert.Equal(t, "Signed in as bo@example.com.\n", out.String())
}

func TestRunLogin_Errors(t *testing.T) {
	// input ends before the password prompt
	err := runLogin(context.Background(), strings.NewReader("ann@example.com\n"), &bytes.Buffer{}, &fakeLogin{}, "", "", false)
	assert.ErrorContains(t, err, "reading password")

	auth := &fakeLogin{err: &client.APIError{Op: "log in", Message: "Incorrect username or password"}}
	var out bytes.Buffer
	err = runLogin(context.Background(), strings.NewReader(""), &out, auth, "a@b.c", "x", false)
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", client.UserMessage(err))
	assert.NotContains(t, out.String(), "Signed in")
}

func TestWriteWhoami(t *testing.T) {
	s := session.NewMemory()
	var out bytes.Buffer
	writeWhoami(&out, s, "http://localhost:8000")
	assert.Equal(t, "Not signed in\nBackend: http://localhost:8000\n", out.String())

	require.NoError(t, s.SetAuth("tok", "ann@example.com"))
	out.Reset()
	writeWhoami(&out, s, "http://localhost:8000")
	assert.Equal(t, "Signed in as ann@example.com\nBackend: http://localhost:8000\n", out.String())
}

func TestSetEndpoint(t *testing.T) {
	s := session.NewMemory()

	require.NoError(t, setEndpoint(s, " https://api.example.com "))
	assert.Equal(t, "https://api.example.com", s.Endpoint())

	for _, bad := range []string{"api.example.com", "ftp://x", "http://"} {
		assert.Error(t, setEndpoint(s, bad), bad)
	}
	assert.Equal(t, "https://api.example.com", s.Endpoint())

	require.NoError(t, setEndpoint(s, ""))
	assert.Empty(t, s.Endpoint())
}

func TestWriteConfig_MasksKey(t *testing.T) {
	s := session.NewMemory()
	require.NoError(t, s.SetAPIKey("sk-very-secret"))
	require.NoError(t, s.SetEndpoint("http://override:1"))
	var out bytes.Buffer

	require.NoError(t, writeConfig(&out, config.Default(), s))

	text := out.String()
	assert.Contains(t, text, "log_level: warn")
	assert.Contains(t, text, "#   api_key: set")
	assert.Contains(t, text, "#   effective endpoint: http://override:1")
	assert.NotContains(t, text, "sk-very-secret")
}

func TestRunTurtle(t *testing.T) {
	in := report.TurtleInput{AccountSize: 100000, RiskPercent: 1, ATR: 2.5, Entry: 50, Direction: report.Long}
	var out bytes.Buffer

	require.NoError(t, runTurtle(&out, in, ""))

	text := out.String()
	assert.Contains(t, text, "Turtle Trading Calculator")
	assert.Contains(t, text, "200 units")
	assert.Contains(t, text, "45.0000")
	assert.Contains(t, text, "60.0000")
}

func TestRunTurtle_InvalidInput(t *testing.T) {
	in := report.TurtleInput{AccountSize: 100000, RiskPercent: 1, ATR: 0, Entry: 50, Direction: report.Long}
	var out bytes.Buffer
	assert.Error(t, runTurtle(&out, in, ""))
	assert.Empty(t, out.String())
}
