// Package lexicon is the bundled catalogue of commodity futures and index
// symbols offered when picking a ticker.
package lexicon

import (
	"strings"
)

// Entry is one named symbol.
type Entry struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Group is a named category of entries.
type Group struct {
	Category string  `json:"category"`
	Entries  []Entry `json:"entries"`
}

// Catalog is the commodity and index listing, each in display order.
type Catalog struct {
	Commodities []Group `json:"commodities"`
	Indices     []Group `json:"indices"`
}

// Hint explains how to spell symbols that are not listed.
type Hint struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

var defaultCatalog = Catalog{
	Commodities: []Group{
		{"Metals", []Entry{
			{"Gold", "GC=F"},
			{"Silver", "SI=F"},
			{"Copper", "HG=F"},
			{"Platinum", "PL=F"},
			{"Palladium", "PA=F"},
			{"Aluminum", "ALI=F"},
			{"Zinc", "ZN=F"},
			{"Tin", "TIN=F"},
			{"Nickel", "NICKEL=F"},
			{"Lead", "LEAD=F"},
		}},
		{"Energy", []Entry{
			{"Crude Oil", "CL=F"},
			{"Brent Crude", "BZ=F"},
			{"Natural Gas", "NG=F"},
			{"Heating Oil", "HO=F"},
			{"Gasoline", "RB=F"},
		}},
		{"Agriculture", []Entry{
			{"Corn", "ZC=F"},
			{"Soybeans", "ZS=F"},
			{"Wheat", "ZW=F"},
			{"Coffee", "KC=F"},
			{"Cotton", "CT=F"},
			{"Sugar", "SB=F"},
			{"Cocoa", "CC=F"},
			{"Orange Juice", "OJ=F"},
			{"Live Cattle", "LE=F"},
			{"Feeder Cattle", "GF=F"},
			{"Lean Hogs", "HE=F"},
		}},
		{"Lumber", []Entry{
			{"Lumber", "LBS=F"},
		}},
	},
	Indices: []Group{
		{"US", []Entry{
			{"S&P 500", "^GSPC"},
			{"Dow Jones", "^DJI"},
			{"NASDAQ", "^IXIC"},
			{"Russell 2000", "^RUT"},
		}},
		{"Europe", []Entry{
			{"FTSE 100", "^FTSE"},
			{"DAX", "^GDAXI"},
			{"CAC 40", "^FCHI"},
			{"Euro Stoxx 50", "^STOXX50E"},
		}},
		{"Asia", []Entry{
			{"Nikkei 225", "^N225"},
			{"Hang Seng", "^HSI"},
			{"Shanghai Composite", "000001.SS"},
			{"CSI 300", "000300.SS"},
		}},
		{"Other", []Entry{
			{"S&P/TSX Composite", "^GSPTSE"},
			{"Bovespa Index", "^BVSP"},
			{"S&P/ASX 200", "^AXJO"},
		}},
	},
}

var hints = []Hint{
	{"Stocks", "Use the company's ticker symbol, e.g. AAPL for Apple Inc. or MSFT for Microsoft Corporation."},
	{"Currencies (Forex)", "Join the two currency codes and add =X, e.g. EURUSD=X for the Euro against the US Dollar or GBPJPY=X for the Pound against the Yen."},
	{"Elsewhere", "Yahoo Finance (https://finance.yahoo.com/) and Investing.com (https://www.investing.com/) list symbols for most stocks, commodities and currencies."},
}

// Default returns a copy of the bundled catalogue.
func Default() Catalog {
	return defaultCatalog.Filter("")
}

// Hints returns the symbol-format help shown below the catalogue.
func Hints() []Hint {
	out := make([]Hint, len(hints))
	copy(out, hints)
	return out
}

// Filter keeps entries whose name or ticker contains query, ignoring case.
// Category order is preserved and categories left empty are dropped.
func (c Catalog) Filter(query string) Catalog {
	q := strings.ToLower(strings.TrimSpace(query))
	return Catalog{
		Commodities: filterGroups(c.Commodities, q),
		Indices:     filterGroups(c.Indices, q),
	}
}

// Lookup finds an entry by exact ticker, ignoring case.
func (c Catalog) Lookup(ticker string) (Entry, bool) {
	t := strings.TrimSpace(ticker)
	for _, groups := range [][]Group{c.Commodities, c.Indices} {
		for _, g := range groups {
			for _, e := range g.Entries {
				if strings.EqualFold(e.Ticker, t) {
					return e, true
				}
			}
		}
	}
	return Entry{}, false
}

// Len counts entries across both listings.
func (c Catalog) Len() int {
	n := 0
	for _, g := range c.Commodities {
		n += len(g.Entries)
	}
	for _, g := range c.Indices {
		n += len(g.Entries)
	}
	return n
}

func filterGroups(groups []Group, q string) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		var kept []Entry
		for _, e := range g.Entries {
			if q == "" || strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.Ticker), q) {
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			out = append(out, Group{Category: g.Category, Entries: kept})
		}
	}
	return out
}

// NormalizeTicker trims and upper-cases a user-typed symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
