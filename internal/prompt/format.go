package prompt

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/hyperifyio/gonarrative/internal/table"
)

// NumberLocale is the one separator convention used in prompts: comma for
// thousands, dot for decimals ("1,234,567" and "2.50").
var NumberLocale = language.English

// ratioWords mark a metric as a percentage, ratio or efficiency index. They
// are compared against whole words of the folded metric name.
var ratioWords = map[string]bool{
	"fcr":            true,
	"ratio":          true,
	"razon":          true,
	"roi":            true,
	"liquidez":       true,
	"liquidity":      true,
	"apalancamiento": true,
	"leverage":       true,
	"indice":         true,
	"index":          true,
	"conversion":     true,
}

// IsRatioMetric reports whether a metric name denotes a percentage, ratio or
// efficiency index.
func IsRatioMetric(name string) bool {
	if strings.Contains(name, "%") {
		return true
	}
	words := strings.FieldsFunc(table.Fold(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if ratioWords[w] {
			return true
		}
	}
	return false
}

// FormatValue renders a metric value for the prompt. Ratio-like numbers get
// two fixed decimals, other numbers are rounded to an integer with thousands
// grouping, and text passes through unchanged.
func FormatValue(name string, v table.Value) string {
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	if IsRatioMetric(name) {
		return FormatRatio(f)
	}
	return FormatAmount(f)
}

// FormatRatio renders f with two decimals and no grouping.
func FormatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatAmount rounds f half-to-even and renders it with thousands grouping.
func FormatAmount(f float64) string {
	r := math.RoundToEven(f)
	p := message.NewPrinter(NumberLocale)
	if r >= math.MaxInt64 || r <= math.MinInt64 {
		return p.Sprint(number.Decimal(r, number.MaxFractionDigits(0)))
	}
	return p.Sprintf("%d", int64(r))
}
