// Package tiles proxies basemap tile requests to Ordnance Survey and
// Google Map Tiles, keeping the upstream API keys server-side.
package tiles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/cache"
)

var (
	// ErrTileNotFound reports an upstream 404 for a tile that does not
	// exist at the requested coordinates.
	ErrTileNotFound = errors.New("tile not found")

	// ErrUpstream marks any other upstream failure (network error,
	// non-200 status, bad session response).
	ErrUpstream = errors.New("tile upstream failure")
)

const (
	// osMaxZoom is the deepest zoom level the OS raster API serves.
	osMaxZoom = 20

	osTileURL             = "https://api.os.uk/maps/raster/v1/zxy/Light_3857/%d/%d/%d.png?key=%s"
	googleSessionURL      = "https://tile.googleapis.com/v1/createSession?key=%s"
	googleTileURL         = "https://tile.googleapis.com/v1/2dtiles/%d/%d/%d?session=%s&key=%s"
	sessionTokenKey       = "google_tile_session_token"
	defaultSessionTTL     = 14 * 24 * time.Hour
	tileRequestTimeout    = 15 * time.Second
	sessionRequestTimeout = 30 * time.Second
)

// Proxy fetches tiles from upstream providers on behalf of the client.
type Proxy struct {
	OSAPIKey     string
	GoogleAPIKey string
	Cache        cache.Cache
	HTTPClient   *http.Client

	// SessionClient carries the slower session handshake with its own
	// timeout budget, separate from per-tile fetches.
	SessionClient *http.Client

	// upstream endpoints, overridable in tests
	osTileURL        string
	googleSessionURL string
	googleTileURL    string
}

// NewProxy builds a tile proxy backed by the given token cache.
func NewProxy(osKey, googleKey string, c cache.Cache) *Proxy {
	return &Proxy{
		OSAPIKey:         osKey,
		GoogleAPIKey:     googleKey,
		Cache:            c,
		HTTPClient:       &http.Client{Timeout: tileRequestTimeout},
		SessionClient:    &http.Client{Timeout: sessionRequestTimeout},
		osTileURL:        osTileURL,
		googleSessionURL: googleSessionURL,
		googleTileURL:    googleTileURL,
	}
}

// OSTile fetches an Ordnance Survey Light style tile. Zoom levels past the
// OS maximum are clamped so deep zooms return the deepest available tile
// rather than an upstream error.
func (p *Proxy) OSTile(ctx context.Context, z, x, y int) ([]byte, string, error) {
	if z > osMaxZoom {
		z = osMaxZoom
	}
	url := fmt.Sprintf(p.osTileURL, z, x, y, p.OSAPIKey)
	return p.fetchTile(ctx, url)
}

// SatelliteTile fetches a Google satellite tile, creating or reusing a
// Map Tiles session token.
func (p *Proxy) SatelliteTile(ctx context.Context, z, x, y int) ([]byte, string, error) {
	token, err := p.sessionToken(ctx)
	if err != nil {
		return nil, "", err
	}
	url := fmt.Sprintf(p.googleTileURL, z, x, y, token, p.GoogleAPIKey)
	return p.fetchTile(ctx, url)
}

func (p *Proxy) fetchTile(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", ErrTileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return body, contentType, nil
}

// sessionToken returns a cached Map Tiles session token, creating a new
// session when none is cached.
func (p *Proxy) sessionToken(ctx context.Context) (string, error) {
	if token, ok, err := p.Cache.Get(ctx, sessionTokenKey); err != nil {
		log.Printf("tile session cache read failed: %v", err)
	} else if ok {
		return token, nil
	}

	token, ttl, err := p.createSession(ctx)
	if err != nil {
		return "", err
	}
	if err := p.Cache.Set(ctx, sessionTokenKey, token, ttl); err != nil {
		log.Printf("tile session cache write failed: %v", err)
	}
	return token, nil
}

func (p *Proxy) createSession(ctx context.Context) (string, time.Duration, error) {
	payload := map[string]string{
		"mapType":    "satellite",
		"language":   "en-GB",
		"region":     "UK",
		"layerTypes": "layerRoadmap",
		"overlay":    "false",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, sessionRequestTimeout)
	defer cancel()

	url := fmt.Sprintf(p.googleSessionURL, p.GoogleAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.SessionClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: session request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: session status %d", ErrUpstream, resp.StatusCode)
	}

	var session struct {
		Session string `json:"session"`
		Expiry  string `json:"expiry"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", 0, fmt.Errorf("%w: decode session: %v", ErrUpstream, err)
	}
	if session.Session == "" {
		return "", 0, fmt.Errorf("%w: session response missing token", ErrUpstream)
	}

	ttl := defaultSessionTTL
	if secs, err := strconv.ParseInt(session.Expiry, 10, 64); err == nil {
		if until := time.Until(time.Unix(secs, 0)); until > 0 {
			ttl = until
		}
	}
	return session.Session, ttl, nil
}
