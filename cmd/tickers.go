package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/wizard"
)

var tickersRemote bool

var tickersCmd = &cobra.Command{
	Use:   "tickers [QUERY]",
	Short: "List bundled commodity and index symbols, optionally searching the backend",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var search wizard.TickerSearcher
		if tickersRemote {
			search = newClient()
		}
		if err := runTickers(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), search); err != nil {
			logrus.Fatalf("tickers: %s", client.UserMessage(err))
		}
	},
}

func runTickers(ctx context.Context, out io.Writer, query string, search wizard.TickerSearcher) error {
	st := report.StylesFor(out)
	cat := lexicon.Default().Filter(query)
	for _, section := range []struct {
		title  string
		groups []lexicon.Group
	}{
		{"Commodities", cat.Commodities},
		{"Indices", cat.Indices},
	} {
		if len(section.groups) == 0 {
			continue
		}
		_, _ = fmt.Fprintln(out, st.Title.Render(section.title))
		for _, g := range section.groups {
			_, _ = fmt.Fprintf(out, "  %s\n", st.Heading.Render(g.Category))
			for _, e := range g.Entries {
				_, _ = fmt.Fprintf(out, "    %-12s %s\n", e.Ticker, e.Name)
			}
		}
	}

	remote := 0
	if search != nil && strings.TrimSpace(query) != "" {
		matches, err := search.SearchTickers(ctx, query)
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			_, _ = fmt.Fprintln(out, st.Title.Render("Search results"))
			for _, m := range matches {
				_, _ = fmt.Fprintf(out, "    %-12s %s\n", m.Ticker, m.Name)
			}
		}
		remote = len(matches)
	}

	if cat.Len() == 0 && remote == 0 {
		_, _ = fmt.Fprintf(out, "No listed symbol matches %q.\n", query)
		for _, h := range lexicon.Hints() {
			_, _ = fmt.Fprintf(out, "%s\n  %s\n", st.Heading.Render(h.Title), h.Text)
		}
	}
	return nil
}

func init() {
	tickersCmd.Flags().BoolVar(&tickersRemote, "remote", false, "Also search the backend's symbol index")
	rootCmd.AddCommand(tickersCmd)
}
