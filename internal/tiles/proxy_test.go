package tiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/cache"
)

func newTestProxy(t *testing.T) (*Proxy, *httptest.Server, *struct {
	tileRequests    []string
	sessionRequests int
}) {
	t.Helper()
	state := &struct {
		tileRequests    []string
		sessionRequests int
	}{}

	mux := http.NewServeMux()
	mux.HandleFunc("/os/", func(w http.ResponseWriter, r *http.Request) {
		state.tileRequests = append(state.tileRequests, r.URL.String())
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/createSession", func(w http.ResponseWriter, r *http.Request) {
		state.sessionRequests++
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "satellite", payload["mapType"])
		assert.Equal(t, "en-GB", payload["language"])

		expiry := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"session": "token-%d", "expiry": %q}`, state.sessionRequests, expiry)
	})
	mux.HandleFunc("/2dtiles/", func(w http.ResponseWriter, r *http.Request) {
		state.tileRequests = append(state.tileRequests, r.URL.String())
		if r.URL.Query().Get("session") == "" {
			http.Error(w, "missing session", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	})
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	proxy := NewProxy("os-key", "google-key", cache.NewMemory())
	proxy.osTileURL = server.URL + "/os/%d/%d/%d.png?key=%s"
	proxy.googleSessionURL = server.URL + "/createSession?key=%s"
	proxy.googleTileURL = server.URL + "/2dtiles/%d/%d/%d?session=%s&key=%s"

	return proxy, server, state
}

func TestOSTile(t *testing.T) {
	proxy, _, state := newTestProxy(t)

	body, contentType, err := proxy.OSTile(context.Background(), 15, 16000, 10000)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("png-bytes"), body)
	require.Len(t, state.tileRequests, 1)
	assert.Contains(t, state.tileRequests[0], "/os/15/16000/10000.png")
}

func TestOSTileClampsZoom(t *testing.T) {
	proxy, _, state := newTestProxy(t)

	_, _, err := proxy.OSTile(context.Background(), 22, 1, 2)
	require.NoError(t, err)
	require.Len(t, state.tileRequests, 1)
	assert.Contains(t, state.tileRequests[0], "/os/20/1/2.png", "zoom clamped to the OS maximum")
}

func TestSatelliteTileReusesSessionToken(t *testing.T) {
	proxy, _, state := newTestProxy(t)
	ctx := context.Background()

	body, contentType, err := proxy.SatelliteTile(ctx, 18, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, []byte("jpeg-bytes"), body)

	_, _, err = proxy.SatelliteTile(ctx, 18, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, state.sessionRequests, "second tile reuses the cached token")
	require.Len(t, state.tileRequests, 2)
	assert.Contains(t, state.tileRequests[1], "session=token-1")
}

func TestTileNotFound(t *testing.T) {
	proxy, server, _ := newTestProxy(t)
	proxy.osTileURL = server.URL + "/missing/%d/%d/%d.png?key=%s"

	_, _, err := proxy.OSTile(context.Background(), 20, 1, 2)
	assert.ErrorIs(t, err, ErrTileNotFound)
}

func TestSessionExpiryFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/createSession", func(w http.ResponseWriter, r *http.Request) {
		// no expiry field
		_, _ = w.Write([]byte(`{"session": "tok"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	proxy := NewProxy("os-key", "google-key", cache.NewMemory())
	proxy.googleSessionURL = server.URL + "/createSession?key=%s"

	token, ttl, err := proxy.createSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, defaultSessionTTL, ttl)
}

func TestSessionMissingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/createSession", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	proxy := NewProxy("os-key", "google-key", cache.NewMemory())
	proxy.googleSessionURL = server.URL + "/createSession?key=%s"

	_, _, err := proxy.createSession(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNewProxyClientTimeouts(t *testing.T) {
	proxy := NewProxy("os-key", "google-key", cache.NewMemory())
	assert.Equal(t, tileRequestTimeout, proxy.HTTPClient.Timeout)
	assert.Equal(t, sessionRequestTimeout, proxy.SessionClient.Timeout)
}

func TestTileUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	proxy := NewProxy("os-key", "google-key", cache.NewMemory())
	proxy.osTileURL = server.URL + "/%d/%d/%d.png?key=%s"

	_, _, err := proxy.OSTile(context.Background(), 10, 1, 2)
	assert.ErrorIs(t, err, ErrUpstream)
}
