package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

func TestHTTPClientFetchRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reports/query" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected auth header, got %s", got)
		}
		var req rowsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(rowsResponse{
			ID:   req.ID,
			Rows: []map[string]any{{"customer": "Acme", "mrr": 120}},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", APIKey: "secret"})
	require.NoError(t, err)
	rows, err := client.FetchRows(context.Background(), Query{SchemaID: "churn-risk", IsReport: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0]["customer"])
}

func TestHTTPClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.FetchRows(context.Background(), Query{SchemaID: "mrr"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	assert.Error(t, err)
}

func TestStaticClientClonesRows(t *testing.T) {
	client := NewStaticClient()
	client.SetMetric("mrr", []map[string]any{{"date": "2024-01-01", "value": 10}})

	rows, err := client.FetchRows(context.Background(), Query{SchemaID: "mrr"})
	require.NoError(t, err)
	rows[0]["value"] = 99

	again, err := client.FetchRows(context.Background(), Query{SchemaID: "mrr"})
	require.NoError(t, err)
	assert.Equal(t, 10, again[0]["value"])

	_, err = client.FetchRows(context.Background(), Query{SchemaID: "mrr", IsReport: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileClientReadsJSONC(t *testing.T) {
	fsys := fstest.MapFS{
		"reports/churn-risk.json": {Data: []byte(`[
			// exported nightly
			{"customer": "Acme", "plan": "Pro", "mrr": 120,},
			{"customer": "Globex", "plan": "Basic", "mrr": 40},
		]`)},
		"metrics/mrr.json": {Data: []byte(`{"rows": [{"date": "2024-01-01", "value": 10}]}`)},
	}
	client := NewFSClient(fsys)

	rows, err := client.FetchRows(context.Background(), Query{SchemaID: "churn-risk", IsReport: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Globex", rows[1]["customer"])

	metric, err := client.FetchRows(context.Background(), Query{SchemaID: "mrr"})
	require.NoError(t, err)
	assert.Len(t, metric, 1)

	_, err = client.FetchRows(context.Background(), Query{SchemaID: "missing", IsReport: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRowSourceConvertsRecords(t *testing.T) {
	client := NewStaticClient()
	client.SetReport("churn-risk", []map[string]any{{"plan": "Pro", "mrr": 120.0}})

	rows, err := NewRowSource(client).Rows(context.Background(), "churn-risk", true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, crossfilter.ValueOf("Pro"), rows[0]["plan"])
	assert.Equal(t, crossfilter.ValueOf(120.0), rows[0]["mrr"])
}
