package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tankwatch/internal/observability"
)

const (
	testUserAgent     = "tankwatch-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  testUserAgent,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Salt Lake, Kolkata", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `[{"lat":"22.5867","lon":"88.4171","display_name":"Salt Lake City, Bidhannagar, West Bengal, India"}]`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	places, err := c.Search(context.Background(), "Salt Lake, Kolkata")
	require.NoError(t, err)
	require.Len(t, places, 1)

	assert.Equal(t, 22.5867, places[0].Lat)
	assert.Equal(t, 88.4171, places[0].Lon)
	assert.Contains(t, places[0].DisplayName, "Salt Lake City")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")), 0)
}

func TestClient_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	places, err := c.Search(context.Background(), "XYZNONEXISTENT99")
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")), 0)
}

func TestClient_Search_SkipsMalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat":"north","lon":"88.1","display_name":"Broken"},{"lat":"22.5","lon":"88.3","display_name":"Fine"}]`)
	}))
	defer srv.Close()

	places, err := testClient(srv.URL).Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Fine", places[0].DisplayName)
}

func TestClient_Search_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), "Kolkata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")), 0)
}

func TestClient_Search_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "Kolkata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Search_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Search(ctx, "Kolkata")
	require.Error(t, err)
}

func TestNewClient_DefaultURL(t *testing.T) {
	c := NewClient("", testUserAgent, time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, DefaultURL, c.baseURL)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}
