package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/geocode"
)

func TestBuildPlaceName(t *testing.T) {
	tests := []struct {
		name       string
		components []geocode.Component
		want       *string
	}{
		{
			name: "stops at first administrative key",
			components: []geocode.Component{
				{Key: "house_number", Value: "12"},
				{Key: "road", Value: "High Street"},
				{Key: "suburb", Value: "Avondale"},
				{Key: "county", Value: "Avonshire"},
				{Key: "postcode", Value: "AV1 2CD"},
			},
			want: strPtr("12, High Street, Avondale"),
		},
		{
			name: "drops consecutive duplicates",
			components: []geocode.Component{
				{Key: "neighbourhood", Value: "Avondale"},
				{Key: "suburb", Value: "Avondale"},
				{Key: "town", Value: "Bristol"},
			},
			want: strPtr("Avondale, Bristol"),
		},
		{
			name: "keeps non-consecutive duplicates",
			components: []geocode.Component{
				{Key: "road", Value: "Avondale"},
				{Key: "suburb", Value: "Clifton"},
				{Key: "town", Value: "Avondale"},
			},
			want: strPtr("Avondale, Clifton, Avondale"),
		},
		{
			name: "skips empty values",
			components: []geocode.Component{
				{Key: "road", Value: ""},
				{Key: "town", Value: "Bristol"},
			},
			want: strPtr("Bristol"),
		},
		{
			name: "ISO prefixed keys are administrative",
			components: []geocode.Component{
				{Key: "ISO3166-2-lvl8", Value: "GB-BST"},
				{Key: "road", Value: "High Street"},
			},
			want: nil,
		},
		{
			name: "only administrative components yields nil",
			components: []geocode.Component{
				{Key: "county", Value: "Avonshire"},
				{Key: "country", Value: "United Kingdom"},
			},
			want: nil,
		},
		{
			name:       "no components yields nil",
			components: nil,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geocode.BuildPlaceName(tt.components)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func TestReversePreservesProviderOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "51.501234", r.URL.Query().Get("lat"))
		assert.Equal(t, "-2.587654", r.URL.Query().Get("lon"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "18", r.URL.Query().Get("zoom"))
		assert.Equal(t, "gb", r.URL.Query().Get("countrycodes"))

		w.Header().Set("Content-Type", "application/json")
		// key order matters
		_, _ = w.Write([]byte(`{
			"place_id": 12345,
			"address": {
				"house_number": "12",
				"road": "High St",
				"suburb": "Avondale",
				"county": "Avonshire",
				"postcode": "AV1 2CD",
				"country_code": "gb"
			},
			"boundingbox": ["51.5", "51.6", "-2.6", "-2.5"]
		}`))
	}))
	defer server.Close()

	client := geocode.NewClient(server.URL, "gb")
	name, err := client.Reverse(context.Background(), 51.501234, -2.587654)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "12, High St, Avondale", *name)
}

func TestReverseNonStringAddressValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"address": {
				"road": "High St",
				"refs": {"osm": 99},
				"levels": [1, 2],
				"town": "Bristol",
				"county": "Avonshire"
			}
		}`))
	}))
	defer server.Close()

	client := geocode.NewClient(server.URL, "gb")
	name, err := client.Reverse(context.Background(), 51.5, -2.58)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "High St, Bristol", *name)
}

func TestReverseNoUsableComponents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address": {"country": "United Kingdom", "country_code": "gb"}}`))
	}))
	defer server.Close()

	client := geocode.NewClient(server.URL, "gb")
	name, err := client.Reverse(context.Background(), 51.5, -2.58)
	require.NoError(t, err)
	assert.Nil(t, name)
}

func TestReverseMissingAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer server.Close()

	client := geocode.NewClient(server.URL, "gb")
	name, err := client.Reverse(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Nil(t, name)
}

func TestReverseUpstreamErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := geocode.NewClient(server.URL, "gb")
	_, err := client.Reverse(context.Background(), 51.5, -2.58)
	assert.ErrorIs(t, err, geocode.ErrUnavailable)
}

func TestReverseNetworkErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := geocode.NewClient(server.URL, "gb")
	_, err := client.Reverse(context.Background(), 51.5, -2.58)
	assert.ErrorIs(t, err, geocode.ErrUnavailable)
}

func strPtr(s string) *string { return &s }
