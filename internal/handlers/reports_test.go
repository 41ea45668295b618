package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/geo"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/handlers"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/queue"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/services"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
)

type stubGeocoder struct {
	name string
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*string, error) {
	name := s.name
	return &name, nil
}

type stubStore struct{}

func (stubStore) Upload(ctx context.Context, publicID string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "https://photos.test/" + publicID + ".jpg", nil
}

func (stubStore) Destroy(ctx context.Context, publicID string) error { return nil }

type stubPublisher struct{}

func (stubPublisher) PublishGeocodeRequested(ctx context.Context, event queue.GeocodeRequestedEvent) error {
	return nil
}

// setPrincipal stands in for the auth middleware.
func setPrincipal(p *types.Principal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("principal", p)
		return c.Next()
	}
}

func setupApp(t *testing.T, p *types.Principal) (*fiber.App, *services.ReportService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.County{}, &models.LocalAuthority{}, &models.Report{}))

	boundary := orb.MultiPolygon{
		orb.Polygon{
			orb.Ring{{-2.7, 51.4}, {-2.45, 51.4}, {-2.45, 51.55}, {-2.7, 51.55}, {-2.7, 51.4}},
		},
	}
	require.NoError(t, db.Create(&models.County{Name: "Avondale", Boundary: models.MultiPolygon{MultiPolygon: boundary}}).Error)
	counties := geo.NewIndex([]geo.Region{{ID: 1, Name: "Avondale", Boundary: boundary}})
	authorities := geo.NewIndex(nil)

	svc := services.NewReportService(db, counties, authorities, &stubGeocoder{name: "12 High St, Avondale"}, stubStore{}, stubPublisher{}, time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var customErr *types.CustomError
			if errors.As(err, &customErr) {
				return c.Status(customErr.Code).JSON(fiber.Map{
					"status":  customErr.Code,
					"message": customErr.Message,
					"ok":      false,
					"type":    customErr.Type,
				})
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	handler := &handlers.ReportHandler{Reports: svc}

	api := app.Group("/api", setPrincipal(p))
	api.Post("/reports", handler.CreateReport)
	api.Get("/reports", handler.ListReports)
	api.Get("/reports/:id", handler.GetReport)
	api.Put("/reports/:id", handler.UpdateReport)
	api.Patch("/reports/:id/location", handler.UpdateReportLocation)
	api.Delete("/reports/:id", handler.DeleteReport)

	return app, svc
}

func reportForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateReportEndpoint(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, _ := setupApp(t, owner)

	body, contentType := reportForm(t, map[string]string{
		"latitude":  "51.501234",
		"longitude": "-2.587654",
		"condition": "red",
		"reasons":   "lip_too_high,cobbles",
		"comments":  "hard to cross here",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var dto services.ReportDTO
	decodeBody(t, resp, &dto)
	assert.Equal(t, "sonya", dto.User)
	assert.Equal(t, uint(1), dto.UserReportNumber)
	assert.Equal(t, "51.501234", dto.Latitude)
	assert.Equal(t, "-2.587654", dto.Longitude)
	assert.Equal(t, "red", dto.Condition)
	assert.Equal(t, []string{"Lip too high", "Cobblestones"}, dto.Reasons)
	require.NotNil(t, dto.County)
	assert.Equal(t, "Avondale", *dto.County)
	require.NotNil(t, dto.PlaceName)
	assert.Equal(t, "12 High St, Avondale", *dto.PlaceName)
}

func TestCreateReportRepeatedReasonFields(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, _ := setupApp(t, owner)

	// Browsers submit multiselect fields as repeated multipart parts.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("latitude", "51.501234"))
	require.NoError(t, writer.WriteField("longitude", "-2.587654"))
	require.NoError(t, writer.WriteField("condition", "orange"))
	require.NoError(t, writer.WriteField("reasons", "obstacle"))
	require.NoError(t, writer.WriteField("reasons", "narrow_pavement"))
	require.NoError(t, writer.WriteField("reasons", "obstacle"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var dto services.ReportDTO
	decodeBody(t, resp, &dto)
	assert.Equal(t, []string{"Obstacle", "Narrow pavement"}, dto.Reasons)
}

func TestCreateReportValidationError(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, _ := setupApp(t, owner)

	body, contentType := reportForm(t, map[string]string{
		"latitude":  "51.501234",
		"longitude": "-2.587654",
		"condition": "green",
		"reasons":   "lip_too_high",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var envelope struct {
		Ok     bool              `json:"ok"`
		Type   string            `json:"type"`
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, resp, &envelope)
	assert.False(t, envelope.Ok)
	assert.Equal(t, "validation", envelope.Type)
	assert.Contains(t, envelope.Errors, "reasons")
}

func TestCreateReportBadCoordinate(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, _ := setupApp(t, owner)

	body, contentType := reportForm(t, map[string]string{
		"latitude":  "not-a-number",
		"longitude": "-2.587654",
		"condition": "green",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListReportsEndpoint(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, svc := setupApp(t, owner)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), owner, services.ReportInput{
			Latitude: 51.5, Longitude: -2.58, Condition: models.ConditionGreen,
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dtos []services.ReportDTO
	decodeBody(t, resp, &dtos)
	assert.Len(t, dtos, 2)
}

func TestGetReportNotFound(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, _ := setupApp(t, owner)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateReportLocationEndpoint(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, svc := setupApp(t, owner)

	created, err := svc.Create(context.Background(), owner, services.ReportInput{
		Latitude: 51.5, Longitude: -2.58, Condition: models.ConditionGreen,
	})
	require.NoError(t, err)

	payload := `{"latitude": "51.421235", "longitude": "-2.500000"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/1/location", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dto services.ReportDTO
	decodeBody(t, resp, &dto)
	assert.Equal(t, created.ID, dto.ID)
	assert.Equal(t, "51.421235", dto.Latitude)
	assert.Equal(t, "-2.500000", dto.Longitude)
}

func TestDeleteReportForbiddenForStranger(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	stranger := &types.Principal{ID: "user-2222", Username: "intruder"}
	app, svc := setupApp(t, stranger)

	_, err := svc.Create(context.Background(), owner, services.ReportInput{
		Latitude: 51.5, Longitude: -2.58, Condition: models.ConditionGreen,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReportInvalidID(t *testing.T) {
	owner := &types.Principal{ID: "user-1111", Username: "sonya"}
	app, _ := setupApp(t, owner)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
