package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reserve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]int{"got": in["qty"]})
	}))
	defer srv.Close()

	c := NewClient(otel.Tracer("test"), StaticResolver{"warehouse": srv.URL})
	var out map[string]int
	err := c.PostJSON(context.Background(), "warehouse", "/reserve", map[string]int{"qty": 3}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out["got"])
}

func TestPostJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of stock", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(otel.Tracer("test"), StaticResolver{"warehouse": srv.URL})
	err := c.PostJSON(context.Background(), "warehouse", "/reserve", map[string]int{}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "out of stock", se.Body)
}

func TestStaticResolverUnknown(t *testing.T) {
	_, err := StaticResolver{}.ResolveURL("ledger")
	assert.Error(t, err)
}
