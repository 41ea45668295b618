package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/geo"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/queue"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
)

// fakeGeocoder replays a scripted sequence of responses, repeating the
// last one once exhausted.
type fakeGeocoder struct {
	responses []geocodeResponse
	calls     int
}

type geocodeResponse struct {
	name *string
	err  error
}

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) (*string, error) {
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[idx]
	return r.name, r.err
}

func geocoderReturning(name string) *fakeGeocoder {
	return &fakeGeocoder{responses: []geocodeResponse{{name: &name}}}
}

func geocoderFailing(err error) *fakeGeocoder {
	return &fakeGeocoder{responses: []geocodeResponse{{err: err}}}
}

// fakeStore records uploads and destroys in memory.
type fakeStore struct {
	uploads   map[string][]byte
	destroyed []string
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (f *fakeStore) Upload(ctx context.Context, publicID string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.uploads[publicID] = data
	return fmt.Sprintf("https://photos.test/%s.jpg", publicID), nil
}

func (f *fakeStore) Destroy(ctx context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	delete(f.uploads, publicID)
	return nil
}

// fakePublisher records published geocode events.
type fakePublisher struct {
	events     []queue.GeocodeRequestedEvent
	publishErr error
}

func (f *fakePublisher) PublishGeocodeRequested(ctx context.Context, event queue.GeocodeRequestedEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, event)
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.County{}, &models.LocalAuthority{}, &models.Report{}))
	return db
}

func squareBoundary(minLon, minLat, maxLon, maxLat float64) orb.MultiPolygon {
	return orb.MultiPolygon{
		orb.Polygon{
			orb.Ring{
				{minLon, minLat},
				{maxLon, minLat},
				{maxLon, maxLat},
				{minLon, maxLat},
				{minLon, minLat},
			},
		},
	}
}

// testRegions returns indexes with the Avondale county and the Northgate
// local authority (the northern half of Avondale).
func testRegions() (*geo.Index, *geo.Index) {
	counties := geo.NewIndex([]geo.Region{
		{ID: 1, Name: "Avondale", Boundary: squareBoundary(-2.7, 51.4, -2.45, 51.55)},
	})
	authorities := geo.NewIndex([]geo.Region{
		{ID: 1, Name: "Northgate", Boundary: squareBoundary(-2.7, 51.47, -2.45, 51.55)},
	})
	return counties, authorities
}

func seedRegions(t *testing.T, db *gorm.DB) {
	t.Helper()
	county := models.County{
		Name:     "Avondale",
		Boundary: models.MultiPolygon{MultiPolygon: squareBoundary(-2.7, 51.4, -2.45, 51.55)},
	}
	require.NoError(t, db.Create(&county).Error)
	authority := models.LocalAuthority{
		Name:     "Northgate",
		Boundary: models.MultiPolygon{MultiPolygon: squareBoundary(-2.7, 51.47, -2.45, 51.55)},
	}
	require.NoError(t, db.Create(&authority).Error)
}

func newTestService(t *testing.T, geocoder *fakeGeocoder) (*ReportService, *fakeStore, *fakePublisher) {
	t.Helper()
	db := testDB(t)
	seedRegions(t, db)
	counties, authorities := testRegions()
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewReportService(db, counties, authorities, geocoder, store, publisher, time.Hour)
	return svc, store, publisher
}

func testPrincipal() *types.Principal {
	return &types.Principal{ID: "user-1111", Username: "sonya", IsAdmin: false}
}

func adminPrincipal() *types.Principal {
	return &types.Principal{ID: "admin-9999", Username: "admin", IsAdmin: true}
}

// greenInput is a valid report inside Avondale and Northgate.
func greenInput() ReportInput {
	return ReportInput{
		Latitude:  51.501234,
		Longitude: -2.587654,
		Condition: models.ConditionGreen,
	}
}

// testImage returns a small encoded PNG for photo upload tests.
func testImage(t *testing.T) io.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}
