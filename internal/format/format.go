// Package format turns backend numbers and timestamps into display strings.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Missing is rendered for values the backend did not report.
const Missing = "--"

// fixed rounds v half away from zero to places decimals and groups the
// integer part with commas. The sign is dropped.
func fixed(v float64, places int32) string {
	d := decimal.NewFromFloat(math.Abs(v)).Round(places)
	s := d.StringFixed(places)
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac = s[i:]
	}
	return humanize.Comma(d.IntPart()) + frac
}

func sign(v float64, places int32) string {
	if v < 0 && !decimal.NewFromFloat(v).Round(places).IsZero() {
		return "-"
	}
	return ""
}

func bad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// USD formats v as $1,234.57, or -$1,234.57 for negative values.
func USD(v float64) string {
	if bad(v) {
		return "-"
	}
	return sign(v, 2) + "$" + fixed(v, 2)
}

// Price formats v with exactly two decimals and no currency symbol.
func Price(v float64) string {
	if bad(v) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// CryptoPrice formats a crypto price. Prices under $1 keep up to four
// decimals; zero means the backend had no price.
func CryptoPrice(v float64) string {
	if v == 0 || bad(v) {
		return Missing
	}
	if math.Abs(v) >= 1 {
		return USD(v)
	}
	s := fixed(v, 4)
	for strings.HasSuffix(s, "0") && len(s)-strings.IndexByte(s, '.') > 3 {
		s = s[:len(s)-1]
	}
	return sign(v, 4) + "$" + s
}

// SignedPercent formats v as +1.23% or -1.23%. Zero renders as +0.00%.
func SignedPercent(v float64) string {
	if bad(v) {
		return Missing
	}
	if sign(v, 2) == "-" {
		return "-" + fixed(v, 2) + "%"
	}
	return "+" + fixed(v, 2) + "%"
}

// ArrowPercent formats v as "▲ 1.23%" or "▼ 1.23%".
func ArrowPercent(v float64) string {
	if bad(v) {
		return Missing
	}
	return Arrow(v) + " " + fixed(v, 2) + "%"
}

// Arrow returns ▲ for v >= 0 and ▼ otherwise.
func Arrow(v float64) string {
	if v < 0 {
		return "▼"
	}
	return "▲"
}

// ChangeAbs formats the absolute difference between current and previous
// as a dollar amount.
func ChangeAbs(current, previous float64) string {
	return USD(math.Abs(current - previous))
}

// Compact formats large values with T/B/M/K suffixes.
func Compact(v float64) string {
	if bad(v) {
		return "-"
	}
	a := math.Abs(v)
	s := ""
	if v < 0 {
		s = "-"
	}
	switch {
	case a >= 1e12:
		return fmt.Sprintf("%s%.2fT", s, a/1e12)
	case a >= 1e9:
		return fmt.Sprintf("%s%.2fB", s, a/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%s%.2fM", s, a/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%s%.2fK", s, a/1e3)
	default:
		return fmt.Sprintf("%s%.2f", s, a)
	}
}

// Int formats an integer with comma separators.
func Int(n int64) string {
	return humanize.Comma(n)
}

// Number formats v with two decimals and separators, keeping the sign.
func Number(v float64) string {
	if bad(v) {
		return "-"
	}
	return sign(v, 2) + fixed(v, 2)
}

// ShortDate formats t as "Jan 2".
func ShortDate(t time.Time) string {
	return t.Format("Jan 2")
}

// NewsDate formats a unix-seconds timestamp as "1/2/2006" in loc.
func NewsDate(unix int64, loc *time.Location) string {
	if unix <= 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format("1/2/2006")
}

// Clock formats t as "3:04:05 PM".
func Clock(t time.Time) string {
	return t.Format("3:04:05 PM")
}

// Timestamp parses a backend timestamp that is either RFC 3339 text or unix
// milliseconds. The zero time is returned when s is neither.
func Timestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return time.UnixMilli(d.IntPart())
	}
	return time.Time{}
}
