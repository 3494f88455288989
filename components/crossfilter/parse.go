package crossfilter

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotNumeric is returned when a cell cannot be coerced to a finite number.
	ErrNotNumeric = errors.New("crossfilter: value is not numeric")
	// ErrInvalidDate is returned when a cell cannot be read as a date.
	ErrInvalidDate = errors.New("crossfilter: value is not a date")
)

var numberStripper = strings.NewReplacer("$", "", ",", "", "%", "", " ", "", "\u00a0", "")

// ParseNumber coerces a cell to a finite float. Formatted strings such as
// "$1,500.00" or "12.5%" are accepted. Callers drop values that fail.
func ParseNumber(v Value) (float64, error) {
	switch v.Kind() {
	case KindNumber:
		f, _ := v.Num()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, ErrNotNumeric
		}
		return f, nil
	case KindString:
		s, _ := v.Str()
		s = numberStripper.Replace(strings.TrimSpace(s))
		if s == "" {
			return 0, ErrNotNumeric
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, ErrNotNumeric
		}
		return f, nil
	default:
		return 0, ErrNotNumeric
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads a cell as a timestamp. Numbers are Unix milliseconds.
func ParseDate(v Value) (time.Time, error) {
	switch v.Kind() {
	case KindTime:
		t, _ := v.Time()
		if t.IsZero() {
			return time.Time{}, ErrInvalidDate
		}
		return t, nil
	case KindNumber:
		f, _ := v.Num()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, ErrInvalidDate
		}
		return time.UnixMilli(int64(f)).UTC(), nil
	case KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, ErrInvalidDate
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, ErrInvalidDate
	default:
		return time.Time{}, ErrInvalidDate
	}
}

const (
	dayKeyLayout   = "2006-01-02"
	dayLabelLayout = "Jan 2, 2006"
)

func dayKey(t time.Time) string   { return t.Format(dayKeyLayout) }
func dayLabel(t time.Time) string { return t.Format(dayLabelLayout) }
