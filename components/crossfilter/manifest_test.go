package crossfilter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seatManifest = `
version: 1
name: expansion-pack
reports:
  - id: seat-expansion
    description: Accounts adding seats this quarter.
    columns:
      - id: customer
        data_type: string
      - id: seats_added
        data_type: number
        is_number: true
      - id: expansion_mrr
        label: Expansion MRR
        data_type: number
        is_currency: true
      - id: expanded_on
        data_type: date
metrics:
  - id: seat-growth
    columns:
      - {id: date, data_type: date}
      - {id: growth, data_type: number, is_trend: true, is_positive: true}
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(seatManifest))
	require.NoError(t, err)

	assert.Equal(t, ManifestVersion, doc.Version)
	assert.Equal(t, "expansion-pack", doc.Name)
	require.Len(t, doc.Reports, 1)
	report := doc.Reports[0]
	assert.Equal(t, "seat-expansion", report.ID)
	require.Len(t, report.Columns, 4)
	assert.Equal(t, DataTypeNumber, report.Columns[1].DataType)
	assert.True(t, report.Columns[1].IsNumber)
	assert.Equal(t, "Expansion MRR", report.Columns[2].Label)
	require.Len(t, doc.Metrics, 1)
	assert.True(t, doc.Metrics[0].Columns[1].IsPositive)
}

func TestRegistryLoadManifestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seatManifest), 0o600))
	registry := NewSchemaRegistry()

	doc, err := registry.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	cols, ok := registry.Lookup("seat-expansion", true)
	require.True(t, ok)
	assert.Equal(t, "Seats Added", cols[1].Label)
	_, ok = registry.Lookup("seat-growth", false)
	assert.True(t, ok)
	_, ok = registry.Lookup("churn-risk", true)
	assert.True(t, ok, "manifests extend the built-in tables")
}

func TestDecodeManifestRejects(t *testing.T) {
	cases := map[string]string{
		"empty":            "   \n",
		"unknown field":    "version: 1\nreports:\n  - id: a\n    colour: red\n    columns:\n      - {id: x, data_type: string}\n",
		"bad version":      "version: 2\n",
		"bad data type":    "reports:\n  - id: a\n    columns:\n      - {id: x, data_type: money}\n",
		"no columns":       "reports:\n  - id: a\n    columns: []\n",
		"duplicate table":  "reports:\n  - id: a\n    columns: [{id: x, data_type: string}]\n  - id: a\n    columns: [{id: y, data_type: string}]\n",
		"duplicate column": "metrics:\n  - id: a\n    columns: [{id: x, data_type: string}, {id: x, data_type: date}]\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(payload))
			assert.Error(t, err)
		})
	}
}

func TestEncodeManifestRoundTrips(t *testing.T) {
	registry := NewSchemaRegistry(WithoutBuiltinSchemas())
	require.NoError(t, registry.RegisterReport("churn-risk", churnColumns()))

	var buf bytes.Buffer
	require.NoError(t, registry.EncodeManifest(&buf, "export"))

	doc, err := DecodeManifest(&buf)
	require.NoError(t, err)
	require.Len(t, doc.Reports, 1)
	assert.Equal(t, churnColumns(), doc.Reports[0].Columns)
}
