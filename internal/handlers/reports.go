package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/services"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/utils"
)

// ReportHandler handles dropped-kerb report routes
type ReportHandler struct {
	Reports *services.ReportService
}

// CreateReport handles POST /api/reports
// @Summary Create a report
// @Description Submit a new dropped-kerb condition report
// @Tags Reports
// @Accept mpfd
// @Produce json
// @Param latitude formData string true "Latitude, decimal degrees"
// @Param longitude formData string true "Longitude, decimal degrees"
// @Param condition formData string true "Condition rating" Enums(none, green, orange, red, white)
// @Param reasons formData string false "Reason codes, repeatable or comma-separated"
// @Param comments formData string false "Free-text comments"
// @Param photo formData file false "Photo of the kerb"
// @Success 201 {object} services.ReportDTO
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /reports [post]
func (h *ReportHandler) CreateReport(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	input, cleanup, err := parseReportInput(c)
	if err != nil {
		return serviceErrorResponse(c, err, "createReport")
	}
	defer cleanup()

	report, err := h.Reports.Create(c.UserContext(), p, input)
	if err != nil {
		return serviceErrorResponse(c, err, "createReport")
	}

	return utils.SuccessResponse(c, services.SerializeReport(report, p), fiber.StatusCreated)
}

// ListReports handles GET /api/reports
// @Summary List reports
// @Description List the caller's reports, or all reports for admins, newest first
// @Tags Reports
// @Produce json
// @Success 200 {array} services.ReportDTO
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /reports [get]
func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	reports, err := h.Reports.List(c.UserContext(), p)
	if err != nil {
		return serviceErrorResponse(c, err, "listReports")
	}

	return utils.SuccessResponse(c, services.SerializeReports(reports, p), fiber.StatusOK)
}

// GetReport handles GET /api/reports/:id
// @Summary Get a report
// @Description Get a single report by id
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} services.ReportDTO
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /reports/{id} [get]
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	report, err := h.Reports.Get(c.UserContext(), p, id)
	if err != nil {
		return serviceErrorResponse(c, err, "getReport")
	}

	return utils.SuccessResponse(c, services.SerializeReport(report, p), fiber.StatusOK)
}

// UpdateReport handles PUT /api/reports/:id
// @Summary Update a report
// @Description Replace the editable fields of a report; owner or admin only
// @Tags Reports
// @Accept mpfd
// @Produce json
// @Param id path int true "Report ID"
// @Param latitude formData string true "Latitude, decimal degrees"
// @Param longitude formData string true "Longitude, decimal degrees"
// @Param condition formData string true "Condition rating" Enums(none, green, orange, red, white)
// @Param reasons formData string false "Reason codes, repeatable or comma-separated"
// @Param comments formData string false "Free-text comments"
// @Param photo formData file false "Replacement photo"
// @Param delete_photo formData bool false "Remove the existing photo"
// @Success 200 {object} services.ReportDTO
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /reports/{id} [put]
func (h *ReportHandler) UpdateReport(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	input, cleanup, err := parseReportInput(c)
	if err != nil {
		return serviceErrorResponse(c, err, "updateReport")
	}
	defer cleanup()
	input.DeletePhoto = c.FormValue("delete_photo") == "true"

	report, err := h.Reports.Update(c.UserContext(), p, id, input)
	if err != nil {
		return serviceErrorResponse(c, err, "updateReport")
	}

	return utils.SuccessResponse(c, services.SerializeReport(report, p), fiber.StatusOK)
}

// UpdateReportLocation handles PATCH /api/reports/:id/location
// @Summary Move a report
// @Description Update only the coordinates of a report, re-deriving its spatial attributes
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param location body handlers.LocationPayload true "New coordinates"
// @Success 200 {object} services.ReportDTO
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /reports/{id}/location [patch]
func (h *ReportHandler) UpdateReportLocation(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	var payload LocationPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.ErrorResponse(c, "Invalid request body", fiber.StatusBadRequest, "updateReportLocation")
	}
	lat, err := parseCoordinate(payload.Latitude, "latitude")
	if err != nil {
		return serviceErrorResponse(c, err, "updateReportLocation")
	}
	lon, err := parseCoordinate(payload.Longitude, "longitude")
	if err != nil {
		return serviceErrorResponse(c, err, "updateReportLocation")
	}

	report, err := h.Reports.UpdateLocation(c.UserContext(), p, id, lat, lon)
	if err != nil {
		return serviceErrorResponse(c, err, "updateReportLocation")
	}

	return utils.SuccessResponse(c, services.SerializeReport(report, p), fiber.StatusOK)
}

// DeleteReport handles DELETE /api/reports/:id
// @Summary Delete a report
// @Description Delete a report and its photo; owner or admin only
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /reports/{id} [delete]
func (h *ReportHandler) DeleteReport(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseReportID(c)
	if err != nil {
		return err
	}

	if err := h.Reports.Delete(c.UserContext(), p, id); err != nil {
		return serviceErrorResponse(c, err, "deleteReport")
	}

	return utils.MutationSuccessResponse(c, 1)
}

// LocationPayload is the PATCH location request body. Coordinates are
// decimal strings, matching the report wire shape.
type LocationPayload struct {
	Latitude  string `json:"latitude" form:"latitude"`
	Longitude string `json:"longitude" form:"longitude"`
}

// parseReportInput reads the shared create/update form fields. The
// returned cleanup closes the uploaded photo file, if any.
func parseReportInput(c *fiber.Ctx) (services.ReportInput, func(), error) {
	cleanup := func() {}

	lat, err := parseCoordinate(c.FormValue("latitude"), "latitude")
	if err != nil {
		return services.ReportInput{}, cleanup, err
	}
	lon, err := parseCoordinate(c.FormValue("longitude"), "longitude")
	if err != nil {
		return services.ReportInput{}, cleanup, err
	}

	input := services.ReportInput{
		Latitude:  lat,
		Longitude: lon,
		Condition: models.Condition(c.FormValue("condition")),
		Reasons:   parseReasons(c),
		Comments:  c.FormValue("comments"),
	}

	photo, err := openPhoto(c)
	if err != nil {
		return services.ReportInput{}, cleanup, err
	}
	if photo != nil {
		input.Photo = photo
		cleanup = func() { _ = photo.Close() }
	}

	return input, cleanup, nil
}

// openPhoto opens the optional multipart photo field. A missing field is
// not an error.
func openPhoto(c *fiber.Ctx) (multipart.File, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		return nil, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	return file, nil
}
