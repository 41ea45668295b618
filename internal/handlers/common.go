// Package handlers contains the Fiber HTTP handlers for the report API
// and the tile proxy.
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/services"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/utils"
)

// principal returns the authenticated user stored by the auth middleware.
func principal(c *fiber.Ctx) (*types.Principal, error) {
	p, ok := c.Locals("principal").(*types.Principal)
	if !ok || p == nil {
		return nil, &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "No authenticated principal",
			Type:    "reports.authorization",
		}
	}
	return p, nil
}

// parseReportID parses the :id path parameter.
func parseReportID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid report id",
			Type:    "reports.id",
		}
	}
	return uint(id), nil
}

// parseReasons extracts reason codes from form values, supporting both
// repeated 'reasons' keys and comma-separated values. Order is preserved
// and duplicates dropped.
func parseReasons(c *fiber.Ctx) models.ReasonList {
	// PostArgs only carries urlencoded bodies; the create/update routes
	// are multipart, so check the multipart form first.
	var values []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		values = form.Value["reasons"]
	}
	if len(values) == 0 {
		args := c.Context().PostArgs()
		for key, value := range args.All() {
			if string(key) == "reasons" {
				values = append(values, string(value))
			}
		}
	}

	seen := make(map[string]struct{})
	var reasons models.ReasonList
	for _, value := range values {
		for _, v := range strings.Split(value, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			reasons = append(reasons, models.Reason(v))
		}
	}

	return reasons
}

// parseCoordinate parses a decimal coordinate field.
func parseCoordinate(value, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, &types.ValidationError{
			Fields: map[string]string{field: "must be a decimal number"},
		}
	}
	return v, nil
}

// serviceErrorResponse maps service layer errors to HTTP responses.
func serviceErrorResponse(c *fiber.Ctx, err error, errorType string) error {
	var validation *types.ValidationError
	if errors.As(err, &validation) {
		return utils.ValidationErrorResponse(c, validation.Fields)
	}
	if errors.Is(err, services.ErrNotFound) {
		return utils.NotFoundResponse(c, "Report not found")
	}
	if errors.Is(err, services.ErrPermission) {
		return utils.ErrorResponse(c, "You do not have permission to modify this report", fiber.StatusForbidden, errorType)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}
