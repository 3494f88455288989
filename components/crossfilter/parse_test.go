package crossfilter

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	ok := map[string]struct {
		in   Value
		want float64
	}{
		"number":     {Number(12), 12},
		"currency":   {String("$1,500.00"), 1500},
		"percentage": {String("12.5%"), 12.5},
		"padded":     {String(" 42 "), 42},
		"negative":   {String("-$3.25"), -3.25},
	}
	for name, tc := range ok {
		t.Run(name, func(t *testing.T) {
			got, err := ParseNumber(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}

	for name, in := range map[string]Value{
		"text":     String("abc"),
		"blank":    String("  "),
		"nan text": String("NaN"),
		"infinite": Number(math.Inf(1)),
		"null":     Null(),
		"time":     Time(time.Now()),
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := ParseNumber(in)
			assert.ErrorIs(t, err, ErrNotNumeric)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	for name, in := range map[string]Value{
		"iso day":     String("2024-03-05"),
		"us slashes":  String("03/05/2024"),
		"short month": String("Mar 5, 2024"),
		"unix millis": Number(1709596800000),
		"time":        Time(want),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate(String("not a date"))
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate(Null())
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestValueJSON(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":1.5,"c":null,"d":true}`), &row))
	assert.Equal(t, KindString, row.Get("a").Kind())
	assert.Equal(t, KindNumber, row.Get("b").Kind())
	assert.True(t, row.Get("c").IsNull())
	assert.Equal(t, "true", row.Get("d").String())
	assert.True(t, row.Get("missing").IsNull())

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"nested":1}`), &v))

	out, err := json.Marshal(Row{"n": Number(2), "z": Null()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2,"z":null}`, string(out))
}

func TestValueOf(t *testing.T) {
	assert.True(t, ValueOf(nil).IsNull())
	assert.True(t, ValueOf(3).Equal(Number(3)))
	assert.True(t, ValueOf(json.Number("4.5")).Equal(Number(4.5)))
	assert.True(t, ValueOf("x").Equal(String("x")))
	var nilTime *time.Time
	assert.True(t, ValueOf(nilTime).IsNull())
	assert.False(t, ValueOf("3").Equal(Number(3)))
}
