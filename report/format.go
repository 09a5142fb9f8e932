package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed formats v with the given number of decimals, rounding half away
// from zero. Non-finite values print as NaN, +Inf or -Inf.
func Fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Percent formats v, already expressed in percent, with a trailing %.
func Percent(v float64, places int32) string {
	return Fixed(v, places) + "%"
}

// USD formats v as whole US dollars with thousands separators, e.g. $12,346.
func USD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Fixed(v, 0)
	}
	d := decimal.NewFromFloat(v).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "$" + groupThousands(d.StringFixed(0))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
