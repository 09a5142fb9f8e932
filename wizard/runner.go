package wizard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
)

// Reauthenticator signs the user in again after a 401. *session.Auth
// implements it.
type Reauthenticator interface {
	Login(ctx context.Context, email, password string) error
}

// TickerSearcher looks symbols up remotely. *client.Client implements it.
type TickerSearcher interface {
	SearchTickers(ctx context.Context, query string) ([]client.TickerMatch, error)
}

// RunnerConfig wires a terminal Runner.
type RunnerConfig struct {
	In        io.Reader
	Out       io.Writer
	Defaults  Params
	Report    report.Options
	ReportDir string
	Auth      Reauthenticator // optional
	Search    TickerSearcher  // optional
}

// Runner presents one screen per step on a line-oriented terminal.
// "back", "restart" and "quit" are accepted at every prompt.
type Runner struct {
	ctrl    *Controller
	cfg     RunnerConfig
	in      *bufio.Reader
	out     io.Writer
	st      report.Styles
	catalog lexicon.Catalog
}

var errQuit = errors.New("quit")

// navigation carries a back/restart typed at a prompt.
type navigation struct{ ev Event }

func (n navigation) Error() string { return fmt.Sprintf("navigate %T", n.ev) }

func NewRunner(ctrl *Controller, cfg RunnerConfig) *Runner {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Runner{
		ctrl:    ctrl,
		cfg:     cfg,
		in:      bufio.NewReader(cfg.In),
		out:     cfg.Out,
		st:      report.StylesFor(cfg.Out),
		catalog: lexicon.Default(),
	}
}

// Run loops over screens until the user quits, input ends or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := r.ctrl.State()
		r.header(s)

		err := r.screen(ctx, s)
		var nav navigation
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			r.printf("Goodbye.\n")
			return nil
		case errors.As(err, &nav):
			if _, err := r.ctrl.Dispatch(nav.ev); err != nil {
				r.printError(err)
			}
		default:
			r.printError(err)
		}
	}
}

func (r *Runner) screen(ctx context.Context, s State) error {
	switch s.Step {
	case DataSource:
		return r.dataSource()
	case DefineAsset:
		if s.Mode == Portfolio {
			return r.definePortfolio(s)
		}
		return r.defineSingleAsset(ctx, s)
	case DefineColumns:
		return r.defineColumns(ctx)
	case SetParams:
		return r.setParams(ctx, s)
	case ViewReport:
		return r.viewReport()
	}
	return fmt.Errorf("unknown step %s", s.Step)
}

func (r *Runner) header(s State) {
	r.printf("\n%s\n", r.st.Title.Render(s.Step.Title()))
	if s.Error != "" {
		r.printf("%s\n", r.st.Error.Render("Error: "+s.Error))
	}
}

func (r *Runner) dataSource() error {
	r.printf("  1) Single asset: one ticker, or a CSV/XLSX file you upload\n")
	r.printf("  2) Portfolio: several tickers weighted by quantity\n")
	v, err := r.ask("Choice", "1")
	if err != nil {
		return err
	}
	m, err := ParseMode(v)
	if err != nil {
		return err
	}
	_, err = r.ctrl.SelectMode(m)
	return err
}

func (r *Runner) defineSingleAsset(ctx context.Context, s State) error {
	r.printf("  Enter a ticker (e.g. AAPL, EURUSD=X, GC=F), 'file <path>' to upload data,\n")
	r.printf("  or 'search <text>' to browse symbols.\n")
	def := ""
	if s.Asset != nil && s.Asset.Kind == TickerAsset {
		def = s.Asset.Ticker
	}
	v, err := r.ask("Asset", def)
	if err != nil {
		return err
	}
	lower := strings.ToLower(v)
	switch {
	case v == "":
		return errors.New("ticker is required")
	case strings.HasPrefix(lower, "search "):
		r.search(ctx, strings.TrimSpace(v[len("search "):]))
		return nil
	case strings.HasPrefix(lower, "file "):
		return r.upload(ctx, strings.TrimSpace(v[len("file "):]))
	}
	_, err = r.ctrl.SelectTicker(v)
	return err
}

func (r *Runner) upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	r.printf("  Uploading %s...\n", filepath.Base(path))
	_, err = r.ctrl.UploadFile(ctx, filepath.Base(path), f)
	if client.IsUnauthorized(err) {
		return r.reauth(ctx)
	}
	return err
}

func (r *Runner) search(ctx context.Context, q string) {
	local := r.catalog.Filter(q)
	for _, groups := range [][]lexicon.Group{local.Commodities, local.Indices} {
		for _, g := range groups {
			r.printf("  %s\n", r.st.Heading.Render(g.Category))
			for _, e := range g.Entries {
				r.printf("    %-20s %s\n", e.Ticker, e.Name)
			}
		}
	}
	if r.cfg.Search != nil && q != "" {
		matches, err := r.cfg.Search.SearchTickers(ctx, q)
		if err != nil {
			r.printError(err)
		}
		if len(matches) > 0 {
			r.printf("  %s\n", r.st.Heading.Render("Search results"))
			for _, m := range matches {
				r.printf("    %-20s %s\n", m.Ticker, m.Name)
			}
		}
	}
	if local.Len() == 0 {
		for _, h := range lexicon.Hints() {
			r.printf("  %s: %s\n", h.Title, h.Text)
		}
	}
}

func (r *Runner) definePortfolio(s State) error {
	var holdings []Holding
	if s.Asset != nil {
		holdings = append(holdings, s.Asset.Holdings...)
	}
	r.printf("  Add holdings as 'TICKER QUANTITY' (e.g. AAPL 10). 'remove N' drops line N, 'done' continues.\n")
	for {
		for i, h := range holdings {
			r.printf("    %d. %s - %s shares\n", i+1, h.Ticker, strconv.FormatFloat(h.Quantity, 'f', -1, 64))
		}
		v, err := r.ask("Holding", "")
		if err != nil {
			return err
		}
		fields := strings.Fields(v)
		switch {
		case len(fields) == 0:
			continue
		case strings.EqualFold(fields[0], "done"):
			_, err := r.ctrl.SelectPortfolio(holdings)
			return err
		case strings.EqualFold(fields[0], "remove") && len(fields) == 2:
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || n > len(holdings) {
				r.printError(fmt.Errorf("no holding %q", fields[1]))
				continue
			}
			holdings = append(holdings[:n-1], holdings[n:]...)
		default:
			q := 1.0
			if len(fields) > 1 {
				q, err = strconv.ParseFloat(fields[1], 64)
				if err != nil {
					r.printError(fmt.Errorf("quantity %q is not a number", fields[1]))
					continue
				}
			}
			h := Holding{Ticker: fields[0], Quantity: q}
			if _, err := NewPortfolioAsset(append(append([]Holding(nil), holdings...), h)); err != nil {
				r.printError(err)
				continue
			}
			holdings = append(holdings, h)
		}
	}
}

func (r *Runner) defineColumns(ctx context.Context) error {
	cols, err := r.ctrl.Columns(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			return r.reauth(ctx)
		}
		if _, err := r.ask("Press Enter to retry", ""); err != nil {
			return err
		}
		return nil
	}
	r.printf("  0) let the backend choose\n")
	for i, c := range cols {
		r.printf("  %d) %s\n", i+1, c)
	}
	v, err := r.ask("Column", "0")
	if err != nil {
		return err
	}
	col, err := pickColumn(cols, v)
	if err != nil {
		return err
	}
	_, err = r.ctrl.SelectColumn(col)
	return err
}

func pickColumn(cols []string, v string) (string, error) {
	if n, err := strconv.Atoi(v); err == nil {
		switch {
		case n == 0:
			return "", nil
		case n >= 1 && n <= len(cols):
			return cols[n-1], nil
		}
		return "", fmt.Errorf("no column %d", n)
	}
	for _, c := range cols {
		if strings.EqualFold(c, v) {
			return c, nil
		}
	}
	return "", fmt.Errorf("no column named %q", v)
}

func (r *Runner) setParams(ctx context.Context, s State) error {
	p := r.cfg.Defaults
	if s.Params != nil {
		p = *s.Params
	}
	var err error
	if s.Mode == Portfolio {
		err = r.portfolioParams(&p)
	} else {
		err = r.singleParams(&p, s.Asset != nil && s.Asset.Kind == TickerAsset)
	}
	if err != nil {
		return err
	}

	r.printf("  %s\n", r.st.Muted.Render("Running simulation..."))
	_, err = r.ctrl.Submit(ctx, p)
	var apiErr *client.APIError
	var resErr *client.ResultError
	switch {
	case err == nil:
		return nil
	case client.IsUnauthorized(err):
		return r.reauth(ctx)
	case errors.As(err, &apiErr), errors.As(err, &resErr):
		// recorded in the state, shown by the next header
		return nil
	}
	return err
}

func (r *Runner) singleParams(p *Params, ticker bool) error {
	v, err := r.ask("Distribution ("+strings.Join(client.Distributions, ", ")+")", p.Distribution)
	if err != nil {
		return err
	}
	if p.Distribution, err = client.ParseDistribution(v); err != nil {
		return err
	}
	pipeline := string(p.Pipeline)
	if pipeline == "" {
		pipeline = string(Simple)
	}
	if v, err = r.ask("Pipeline (simple, full)", pipeline); err != nil {
		return err
	}
	p.Pipeline = Pipeline(strings.ToLower(v))
	if ticker {
		if p.HistoryYears, err = r.askInt("History years", p.HistoryYears); err != nil {
			return err
		}
	}
	if v, err = r.ask("Percentile thresholds (comma-separated, 'none' to clear)", joinFloats(p.Percentiles)); err != nil {
		return err
	}
	if strings.EqualFold(v, "none") || v == "-" {
		p.Percentiles = nil
		return nil
	}
	p.Percentiles, err = parseFloats(v)
	return err
}

func (r *Runner) portfolioParams(p *Params) error {
	plan := "lump"
	if p.Plan == client.SIP {
		plan = "sip"
	}
	v, err := r.ask("Plan (lump, sip)", plan)
	if err != nil {
		return err
	}
	switch strings.ToLower(v) {
	case "lump", "lump sum", strings.ToLower(client.LumpSum):
		p.Plan = client.LumpSum
	case "sip", strings.ToLower(client.SIP):
		p.Plan = client.SIP
	default:
		return fmt.Errorf("plan %q: want lump or sip", v)
	}
	if p.InitialInvestment, err = r.askFloat("Initial investment ($)", p.InitialInvestment); err != nil {
		return err
	}
	if p.Plan == client.SIP {
		if p.MonthlyContribution, err = r.askFloat("Monthly contribution ($)", p.MonthlyContribution); err != nil {
			return err
		}
	}
	if p.HorizonYears, err = r.askFloat("Time horizon (years)", p.HorizonYears); err != nil {
		return err
	}
	p.Trials, err = r.askInt("Number of simulations", p.Trials)
	return err
}

func (r *Runner) viewReport() error {
	doc, err := r.ctrl.Report(r.cfg.Report)
	if err != nil {
		return err
	}
	if err := report.WriteText(r.out, doc); err != nil {
		return err
	}
	v, err := r.ask("'pdf [file]' exports, 'back' adjusts parameters, 'restart' starts over, 'quit' exits", "")
	if err != nil {
		return err
	}
	fields := strings.Fields(v)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "pdf") {
		return nil
	}
	name := "Vantage_Report.pdf"
	if len(fields) > 1 {
		name = fields[1]
	}
	path, err := report.SavePDF(r.cfg.ReportDir, name, doc)
	if err != nil {
		return err
	}
	r.printf("  Saved %s\n", path)
	return nil
}

func (r *Runner) reauth(ctx context.Context) error {
	r.printf("%s\n", r.st.Error.Render("Your session has expired or you are not signed in."))
	if r.cfg.Auth == nil {
		r.printf("  Run 'vantage login' and try again.\n")
		return nil
	}
	email, err := r.ask("Email", "")
	if err != nil {
		return err
	}
	password, err := r.ask("Password", "")
	if err != nil {
		return err
	}
	if err := r.cfg.Auth.Login(ctx, email, password); err != nil {
		return err
	}
	r.printf("  Signed in as %s.\n", email)
	return nil
}

// ask prompts for one line. Empty input yields def.
func (r *Runner) ask(label, def string) (string, error) {
	if def != "" {
		r.printf("%s [%s]: ", label, def)
	} else {
		r.printf("%s: ", label)
	}
	line, err := r.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", errQuit
	}
	v := strings.TrimSpace(line)
	switch strings.ToLower(v) {
	case "quit", "exit":
		return "", errQuit
	case "back":
		return "", navigation{Back{}}
	case "restart":
		return "", navigation{Restart{}}
	case "":
		return def, nil
	}
	return v, nil
}

func (r *Runner) askInt(label string, def int) (int, error) {
	v, err := r.ask(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a whole number", label, v)
	}
	return n, nil
}

func (r *Runner) askFloat(label string, def float64) (float64, error) {
	v, err := r.ask(label, strconv.FormatFloat(def, 'f', -1, 64))
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", label, v)
	}
	return f, nil
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) printError(err error) {
	r.printf("%s\n", r.st.Error.Render("Error: "+client.UserMessage(err)))
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("percentile %q is not a number", part)
		}
		out = append(out, f)
	}
	return out, nil
}
