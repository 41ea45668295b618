// Package geocode translates coordinates into human-readable place names
// via an external Nominatim-style reverse geocoding service. All failures
// are converted to typed errors at this boundary; retry decisions belong
// to the caller.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable marks a transient geocoder failure (network error,
// non-200 status, malformed response). Callers schedule a retry rather
// than surfacing it to the end user.
var ErrUnavailable = errors.New("geocoder unavailable")

// zoom 18 resolves to building/street level detail.
const reverseZoom = "18"

// Reverser resolves a coordinate to a place name. A nil result with a nil
// error means the service answered but had no usable address components.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (*string, error)
}

// Client calls a Nominatim-compatible reverse geocoding endpoint.
type Client struct {
	BaseURL      string
	CountryCodes string
	HTTPClient   *http.Client
	UserAgent    string
}

// NewClient returns a Client with a bounded request timeout.
func NewClient(baseURL, countryCodes string) *Client {
	return &Client{
		BaseURL:      baseURL,
		CountryCodes: countryCodes,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		UserAgent:    "dropped-kerb-mapper",
	}
}

// Reverse looks up the coordinate and assembles a place name from the
// returned address components. Components are taken in the provider's
// ranked order (most specific first) and assembly stops at the first
// administrative-level component; consecutive duplicates are dropped and
// the remainder joined with ", ". No retained components yields nil.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("format", "jsonv2")
	q.Set("zoom", reverseZoom)
	q.Set("addressdetails", "1")
	if c.CountryCodes != "" {
		q.Set("countrycodes", c.CountryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", "en-GB")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Address json.RawMessage `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if len(body.Address) == 0 {
		return nil, nil
	}

	components, err := orderedComponents(body.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed address: %v", ErrUnavailable, err)
	}

	return BuildPlaceName(components), nil
}

// Component is a single address component in provider rank order.
type Component struct {
	Key   string
	Value string
}

// administrative component keys end place-name assembly. Keys with an
// "ISO" prefix (e.g. ISO3166-2-lvl8) are treated the same.
var administrativeKeys = map[string]bool{
	"county":         true,
	"state":          true,
	"state_district": true,
	"country":        true,
	"postcode":       true,
	"country_code":   true,
	"province":       true,
}

func isAdministrative(key string) bool {
	return administrativeKeys[key] || strings.HasPrefix(key, "ISO")
}

// BuildPlaceName assembles a place name from ranked components: take
// values in order until the first administrative key, drop consecutive
// duplicates, join with ", ". Returns nil when nothing remains.
func BuildPlaceName(components []Component) *string {
	var parts []string
	for _, comp := range components {
		if isAdministrative(comp.Key) {
			break
		}
		if comp.Value == "" {
			continue
		}
		if len(parts) > 0 && parts[len(parts)-1] == comp.Value {
			continue
		}
		parts = append(parts, comp.Value)
	}
	if len(parts) == 0 {
		return nil
	}
	name := strings.Join(parts, ", ")
	return &name
}

// orderedComponents walks the raw address object token by token to keep
// the provider's key order, which encoding/json maps would lose.
func orderedComponents(raw json.RawMessage) ([]Component, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("address is not an object")
	}

	var components []Component
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected address key token %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		// Only string values contribute to the place name.
		var s string
		if json.Unmarshal(value, &s) == nil {
			components = append(components, Component{Key: key, Value: s})
		}
	}

	return components, nil
}
