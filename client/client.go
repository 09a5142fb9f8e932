// Package client maps each backend action to exactly one HTTP call.
// It never retries, batches or caches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Credentials supplies the identity attached to outgoing requests.
// *session.Store satisfies it.
type Credentials interface {
	AccessToken() string
	ChatAPIKey() string
}

// Client talks to the simulation backend.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// New creates a client for baseURL. creds may be nil for anonymous use.
func New(baseURL string, creds Credentials, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the resolved backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	const op = "log in"
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transportError(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var tok Token
	if err := c.do(req, op, "", &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &APIError{Op: op, StatusCode: http.StatusOK, Message: "Login failed: no access token in response"}
	}
	return &tok, nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, email, password string) (*Registration, error) {
	var out Registration
	body := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "register", "/register", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile sends r as a multipart "file" field named filename.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	const op = "upload file"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, transportError(op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, transportError(op, err)
	}
	if err := mw.Close(); err != nil {
		return nil, transportError(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploadfile/", &buf)
	if err != nil {
		return nil, transportError(op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out UploadResult
	if err := c.do(req, op, c.token(), &out); err != nil {
		return nil, err
	}
	if out.Filename == "" {
		out.Filename = filepath.Base(filename)
	}
	return &out, nil
}

// UploadPath opens a local file and uploads it.
func (c *Client) UploadPath(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return c.UploadFile(ctx, filepath.Base(path), f)
}

// CSVColumns lists the column headers of an uploaded file.
func (c *Client) CSVColumns(ctx context.Context, filePath string) ([]string, error) {
	var out struct {
		Columns []string `json:"columns"`
	}
	body := map[string]string{"file_path": filePath}
	if err := c.postJSON(ctx, "load columns", "/api/get_csv_columns/", c.token(), body, &out); err != nil {
		return nil, err
	}
	return out.Columns, nil
}

// RunFileSimulation runs the full SIPmath pipeline on an uploaded file.
func (c *Client) RunFileSimulation(ctx context.Context, req FileSimulationRequest) (*SimulationResult, error) {
	req.Distribution = ""
	var out SimulationResult
	if err := c.postJSON(ctx, "run simulation", "/api/run_simulation/", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunTickerSimulation runs the full SIPmath pipeline on market history.
func (c *Client) RunTickerSimulation(ctx context.Context, req TickerSimulationRequest) (*SimulationResult, error) {
	req.Distribution = ""
	var out SimulationResult
	if err := c.postJSON(ctx, "run simulation", "/api/run_ticker_simulation/", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SimpleFileSimulation fits the chosen distribution to a file column.
func (c *Client) SimpleFileSimulation(ctx context.Context, req FileSimulationRequest) (*SimulationResult, error) {
	var out SimulationResult
	if err := c.postJSON(ctx, "run simulation", "/api/simple_file_simulation/", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SimpleTickerSimulation fits the chosen distribution to a ticker's returns.
func (c *Client) SimpleTickerSimulation(ctx context.Context, req TickerSimulationRequest) (*SimulationResult, error) {
	var out SimulationResult
	if err := c.postJSON(ctx, "run simulation", "/api/simple_ticker_simulation", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PortfolioSimulation simulates a weighted basket of tickers.
func (c *Client) PortfolioSimulation(ctx context.Context, req PortfolioRequest) (*PortfolioResult, error) {
	var out PortfolioResult
	if err := c.postJSON(ctx, "run portfolio simulation", "/simulate", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunBacktester runs the percentile-threshold backtester.
func (c *Client) RunBacktester(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	var out BacktestResult
	if err := c.postJSON(ctx, "run backtester", "/api/run_backtester_simulation/", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OptimiseStrategy asks the backend to rank candidate threshold strategies.
func (c *Client) OptimiseStrategy(ctx context.Context, req OptimiseRequest) (*OptimiseResult, error) {
	var out OptimiseResult
	if err := c.postJSON(ctx, "optimise strategy", "/api/optimise_strategy/", c.token(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchTickers performs a remote symbol lookup.
func (c *Client) SearchTickers(ctx context.Context, query string) ([]TickerMatch, error) {
	var out []TickerMatch
	body := map[string]string{"query": query}
	if err := c.postJSON(ctx, "search tickers", "/api/search_tickers/", c.token(), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chat sends a free-form prompt. The chat API key, when set, replaces the
// session token as bearer credential.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	bearer := c.token()
	if c.creds != nil && c.creds.ChatAPIKey() != "" {
		bearer = c.creds.ChatAPIKey()
	}
	var out chatResponse
	body := map[string]string{"prompt": prompt}
	if err := c.postJSON(ctx, "get chat response", "/chat", bearer, body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) token() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.AccessToken()
}

func (c *Client) postJSON(ctx context.Context, op, path, bearer string, in, out any) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return transportError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, bearer, out)
}

// do sends req and decodes a 2xx body into out. Results exposing an
// "error" field are turned into *ResultError when it is non-empty.
func (c *Client) do(req *http.Request, op, bearer string, out any) error {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Debugf("%s %s: %v", req.Method, req.URL.Path, err)
		return transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}
	logrus.Debugf("%s %s -> %d in %v", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, bodyData)
	}
	if out == nil || len(bytes.TrimSpace(bodyData)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyData, out); err != nil {
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Failed to %s: unreadable response.", op),
			Err:        err,
		}
	}
	if r, ok := out.(interface{ resultError() string }); ok {
		if msg := r.resultError(); strings.TrimSpace(msg) != "" {
			return &ResultError{Op: op, Message: msg}
		}
	}
	return nil
}
