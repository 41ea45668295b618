package services

import (
	"fmt"
	"time"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
)

// ReportDTO is the wire shape of a report. Coordinates are fixed-point
// strings so clients never see float artifacts; reasons carry display
// labels, not codes.
type ReportDTO struct {
	ID               uint     `json:"id"`
	User             string   `json:"user"`
	UserID           *string  `json:"user_id"`
	UserReportNumber uint     `json:"user_report_number"`
	UserIsAdmin      bool     `json:"user_is_admin"`
	Latitude         string   `json:"latitude"`
	Longitude        string   `json:"longitude"`
	PlaceName        *string  `json:"place_name"`
	County           *string  `json:"county"`
	LocalAuthority   *string  `json:"local_authority"`
	Condition        string   `json:"condition"`
	Reasons          []string `json:"reasons"`
	Comments         string   `json:"comments"`
	PhotoURL         *string  `json:"photo_url"`
	CreatedAt        string   `json:"created_at"`
}

// SerializeReport converts a report to its wire shape. The viewer decides
// the user_is_admin flag, which the client uses to enable admin-only UI.
func SerializeReport(report *models.Report, viewer *types.Principal) ReportDTO {
	dto := ReportDTO{
		ID:               report.ID,
		User:             report.Username,
		UserID:           report.UserID,
		UserReportNumber: report.UserReportNumber,
		UserIsAdmin:      viewer.IsAdmin,
		Latitude:         fmt.Sprintf("%.6f", report.Latitude),
		Longitude:        fmt.Sprintf("%.6f", report.Longitude),
		PlaceName:        report.PlaceName,
		Condition:        string(report.Condition),
		Reasons:          report.Reasons.Display(),
		Comments:         report.Comments,
		PhotoURL:         report.PhotoURL,
		CreatedAt:        report.CreatedAt.UTC().Format(time.RFC3339),
	}
	if report.County != nil {
		dto.County = &report.County.Name
	}
	if report.LocalAuthority != nil {
		dto.LocalAuthority = &report.LocalAuthority.Name
	}
	return dto
}

// SerializeReports converts a slice of reports, never returning nil so
// the JSON encoding is always an array.
func SerializeReports(reports []models.Report, viewer *types.Principal) []ReportDTO {
	dtos := make([]ReportDTO, 0, len(reports))
	for i := range reports {
		dtos = append(dtos, SerializeReport(&reports[i], viewer))
	}
	return dtos
}
