package crossfilter

import (
	"math"
	"strconv"
	"strings"
)

// EmptyPlaceholder is rendered for null cells and non-finite numbers.
const EmptyPlaceholder = "-"

// FormatValue renders a cell for display according to its column. It never
// fails: anything it cannot interpret is returned in raw form.
func FormatValue(v Value, col ColumnDefinition) string {
	if v.IsNull() {
		return EmptyPlaceholder
	}
	if col.DataType == DataTypeDate {
		if t, err := ParseDate(v); err == nil {
			return dayLabel(t)
		}
		return v.String()
	}
	if isNumericColumn(col) {
		f, err := ParseNumber(v)
		if err == nil {
			return FormatNumber(f, col)
		}
		if v.Kind() == KindNumber {
			return EmptyPlaceholder
		}
		return v.String()
	}
	if t, ok := v.Time(); ok {
		return dayLabel(t)
	}
	return v.String()
}

// FormatNumber renders a number using the column's formatting flags.
func FormatNumber(f float64, col ColumnDefinition) string {
	switch {
	case col.IsCurrency:
		return FormatCurrency(f)
	case col.IsTrend:
		return FormatTrend(f)
	case col.DataType == DataTypeNumber || col.IsNumber:
		return FormatCompact(f)
	default:
		if !finite(f) {
			return EmptyPlaceholder
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// FormatCurrency renders dollars: two decimals below 1000, one decimal with a
// k/m/b suffix above, and up to four decimals for sub-cent amounts.
func FormatCurrency(f float64) string {
	if !finite(f) {
		return EmptyPlaceholder
	}
	sign, abs := splitSign(f)
	switch {
	case abs >= 1000:
		return sign + "$" + abbreviate(abs)
	case abs > 0 && abs < 0.01:
		return sign + "$" + trimFraction(strconv.FormatFloat(abs, 'f', 4, 64), 2)
	default:
		return sign + "$" + groupDigits(strconv.FormatFloat(abs, 'f', 2, 64))
	}
}

// FormatTrend renders a percentage change with one decimal and an explicit
// sign for positive values.
func FormatTrend(f float64) string {
	if !finite(f) {
		return EmptyPlaceholder
	}
	rounded := math.Round(f*10) / 10
	if rounded == 0 {
		return "0.0%"
	}
	s := strconv.FormatFloat(rounded, 'f', 1, 64)
	if rounded > 0 {
		s = "+" + s
	}
	return s + "%"
}

// FormatCompact renders plain numbers as grouped integers, abbreviating
// magnitudes from 1000 upwards.
func FormatCompact(f float64) string {
	if !finite(f) {
		return EmptyPlaceholder
	}
	sign, abs := splitSign(f)
	if abs >= 1000 {
		return sign + abbreviate(abs)
	}
	rounded := math.Round(abs)
	if rounded == 0 {
		return "0"
	}
	return sign + groupDigits(strconv.FormatFloat(rounded, 'f', 0, 64))
}

var magnitudes = []struct {
	div    float64
	suffix string
}{
	{1e3, "k"},
	{1e6, "m"},
	{1e9, "b"},
}

// abbreviate expects abs >= 1000.
func abbreviate(abs float64) string {
	idx := 0
	for i, m := range magnitudes {
		if abs >= m.div {
			idx = i
		}
	}
	// 999,960 would print as 1000.0k
	for idx < len(magnitudes)-1 && math.Round(abs/magnitudes[idx].div*10)/10 >= 1000 {
		idx++
	}
	m := magnitudes[idx]
	return strconv.FormatFloat(abs/m.div, 'f', 1, 64) + m.suffix
}

func splitSign(f float64) (string, float64) {
	if f < 0 {
		return "-", -f
	}
	return "", f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// trimFraction drops trailing zeros but keeps at least min decimals.
func trimFraction(s string, min int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	end := len(s)
	for end > dot+1+min && s[end-1] == '0' {
		end--
	}
	return s[:end]
}

// groupDigits inserts thousands separators into the integer part.
func groupDigits(s string) string {
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	if len(intPart) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(frac)
	return b.String()
}

func isNumericColumn(col ColumnDefinition) bool {
	return col.IsCurrency || col.IsTrend || col.IsNumber || col.DataType == DataTypeNumber
}
