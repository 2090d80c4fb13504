package tankapi_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tankwatch/internal/adapter/tankapi"
	"github.com/couchcryptid/tankwatch/internal/domain"
)

func newClient(url string) *tankapi.Client {
	return tankapi.NewClient(url, 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_tanks", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"TankA": {"level": 12.5, "status": "RED", "latitude": 22.57, "longitude": 88.36},
			"TankB": {"level": "n/a", "status": null},
			"weather": {"rain": 3}
		}`)
	}))
	defer srv.Close()

	snap, err := newClient(srv.URL + "/get_tanks").Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Readings, 2)
	assert.Equal(t, 3.0, snap.Weather.Rain)
	assert.Equal(t, domain.Number(12.5), domain.ParseLevel(snap.Readings["TankA"].Level))
	assert.Equal(t, domain.Unparsable, domain.ParseLevel(snap.Readings["TankB"].Level))
}

func TestClient_Fetch_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrParse)
	assert.NotErrorIs(t, err, domain.ErrFetch)
}

func TestClient_Fetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(url).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
}

func TestClient_Fetch_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(srv.URL).Fetch(ctx)
	require.ErrorIs(t, err, domain.ErrFetch)
}
