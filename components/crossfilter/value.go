package crossfilter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single cell: null, string, number or time.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Time wraps a timestamp cell.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// ValueOf converts loosely typed input (decoded JSON, fixtures) into a Value.
func ValueOf(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case string:
		return String(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return Number(f)
		}
		return String(val.String())
	case time.Time:
		return Time(val)
	case *time.Time:
		if val == nil {
			return Null()
		}
		return Time(*val)
	case bool:
		return String(strconv.FormatBool(val))
	case fmt.Stringer:
		return String(val.String())
	default:
		return String(fmt.Sprint(val))
	}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Time returns the time payload.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// String returns the raw representation of the value. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindTime:
		return v.t.Equal(other.t)
	default:
		return true
	}
}

// MarshalJSON encodes null, strings, numbers and RFC3339 timestamps.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON scalar. Timestamps stay strings until a
// date column parses them.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("crossfilter: decode value: %w", err)
	}
	switch raw.(type) {
	case map[string]any, []any:
		return fmt.Errorf("crossfilter: decode value: unsupported JSON %s", string(data))
	}
	*v = ValueOf(raw)
	return nil
}

// Row maps column ids to cell values.
type Row map[string]Value

// Rows is an ordered row set.
type Rows []Row

// Get returns the cell for id, or null when absent.
func (r Row) Get(id string) Value {
	if r == nil {
		return Null()
	}
	return r[id]
}

// RowFromMap builds a Row from loosely typed input.
func RowFromMap(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = ValueOf(v)
	}
	return row
}

// RowsFromMaps converts a slice of loose maps.
func RowsFromMaps(items []map[string]any) Rows {
	rows := make(Rows, len(items))
	for i, item := range items {
		rows[i] = RowFromMap(item)
	}
	return rows
}
