package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/hints"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/geo"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/geocode"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/photos"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/queue"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
)

// ReportInput carries the user-editable fields of a report. Photo, when
// non-nil, is a raw uploaded image to re-encode and store; DeletePhoto
// removes an existing photo without replacing it.
type ReportInput struct {
	Latitude    float64
	Longitude   float64
	Condition   models.Condition
	Reasons     models.ReasonList
	Comments    string
	Photo       io.Reader
	DeletePhoto bool
}

// ReportService owns the report lifecycle: validation, spatial enrichment,
// place-name resolution, photo storage and persistence.
type ReportService struct {
	DB               *gorm.DB
	Counties         *geo.Index
	LocalAuthorities *geo.Index
	Geocoder         geocode.Reverser
	Photos           photos.Store
	Publisher        queue.Publisher
	RetryDelay       time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewReportService wires a report service over its collaborators.
func NewReportService(db *gorm.DB, counties, localAuthorities *geo.Index, geocoder geocode.Reverser, store photos.Store, publisher queue.Publisher, retryDelay time.Duration) *ReportService {
	return &ReportService{
		DB:               db,
		Counties:         counties,
		LocalAuthorities: localAuthorities,
		Geocoder:         geocoder,
		Photos:           store,
		Publisher:        publisher,
		RetryDelay:       retryDelay,
		now:              time.Now,
	}
}

// round6 rounds a coordinate to the stored 6-decimal precision.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Create validates, enriches and persists a new report for the principal.
func (s *ReportService) Create(ctx context.Context, principal *types.Principal, input ReportInput) (*models.Report, error) {
	report := &models.Report{
		UserID:    &principal.ID,
		Username:  principal.Username,
		Latitude:  round6(input.Latitude),
		Longitude: round6(input.Longitude),
		Condition: input.Condition,
		Reasons:   input.Reasons,
		Comments:  input.Comments,
	}

	if errs := report.Validate(); len(errs) > 0 {
		return nil, &types.ValidationError{Fields: errs}
	}

	if input.Photo != nil {
		if err := s.attachPhoto(ctx, report, input.Photo); err != nil {
			return nil, err
		}
	}

	s.enrich(ctx, report)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Per-user sequence number. Concurrent creates by the same user
		// can race to the same value; the window is accepted.
		var next uint
		row := tx.Model(&models.Report{}).
			Select("COALESCE(MAX(user_report_number), 0) + 1").
			Where("user_id = ?", principal.ID).
			Row()
		if err := row.Scan(&next); err != nil {
			return err
		}
		report.UserReportNumber = next
		return tx.Create(report).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return s.load(ctx, report.ID)
}

// Get returns one report, re-resolving a missing place name on read.
func (s *ReportService) Get(ctx context.Context, principal *types.Principal, id uint) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(principal, report); err != nil {
		return nil, err
	}

	// Lazy repair: a report whose geocode never succeeded gets another
	// attempt when it is read. Only the place name is persisted so a
	// concurrent edit is never clobbered.
	if report.PlaceName == nil {
		if name, err := s.Geocoder.Reverse(ctx, report.Latitude, report.Longitude); err == nil && name != nil {
			report.PlaceName = name
			if err := s.DB.WithContext(ctx).Model(&models.Report{}).
				Where("id = ?", report.ID).
				Update("place_name", name).Error; err != nil {
				log.Printf("failed to persist place name for report %d: %v", report.ID, err)
			}
		}
	}

	return report, nil
}

// List returns the principal's reports, or every report for an admin,
// newest first.
func (s *ReportService) List(ctx context.Context, principal *types.Principal) ([]models.Report, error) {
	query := s.DB.WithContext(ctx).
		Preload("County").
		Preload("LocalAuthority").
		Order("created_at DESC")

	if s.DB.Dialector.Name() == "mysql" {
		query = query.Clauses(hints.UseIndex("idx_reports_user_id"))
	}
	if !principal.IsAdmin {
		query = query.Where("user_id = ?", principal.ID)
	}

	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// Update replaces the editable fields of an existing report. Only the
// owner or an admin may edit; owner identity and the sequence number are
// never touched.
func (s *ReportService) Update(ctx context.Context, principal *types.Principal, id uint, input ReportInput) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(principal, report); err != nil {
		return nil, err
	}

	moved := round6(input.Latitude) != report.Latitude || round6(input.Longitude) != report.Longitude

	report.Latitude = round6(input.Latitude)
	report.Longitude = round6(input.Longitude)
	report.Condition = input.Condition
	report.Reasons = input.Reasons
	report.Comments = input.Comments

	if errs := report.Validate(); len(errs) > 0 {
		return nil, &types.ValidationError{Fields: errs}
	}

	oldPhoto := report.PhotoPublicID
	switch {
	case input.Photo != nil:
		if err := s.attachPhoto(ctx, report, input.Photo); err != nil {
			return nil, err
		}
		s.destroyPhoto(ctx, oldPhoto)
	case input.DeletePhoto:
		s.destroyPhoto(ctx, oldPhoto)
		report.PhotoPublicID = nil
		report.PhotoURL = nil
	}

	if moved {
		s.enrich(ctx, report)
	}

	if err := s.save(ctx, report); err != nil {
		return nil, err
	}
	return s.load(ctx, report.ID)
}

// UpdateLocation moves a report to new coordinates, re-running the full
// spatial enrichment. Used by the map drag interaction.
func (s *ReportService) UpdateLocation(ctx context.Context, principal *types.Principal, id uint, lat, lon float64) (*models.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(principal, report); err != nil {
		return nil, err
	}

	report.Latitude = round6(lat)
	report.Longitude = round6(lon)

	if errs := report.Validate(); len(errs) > 0 {
		return nil, &types.ValidationError{Fields: errs}
	}

	s.enrich(ctx, report)

	if err := s.save(ctx, report); err != nil {
		return nil, err
	}
	return s.load(ctx, report.ID)
}

// Delete removes a report and its stored photo. The photo removal is
// best effort; a dangling blob is preferable to a report that cannot be
// deleted.
func (s *ReportService) Delete(ctx context.Context, principal *types.Principal, id uint) error {
	report, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(principal, report); err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(&models.Report{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	s.destroyPhoto(ctx, report.PhotoPublicID)
	return nil
}

// enrich recomputes the derived spatial attributes for the report's
// current coordinates: county, local authority and place name. Region
// misses clear the association. A geocoder failure leaves the place name
// empty and arms the retry timestamp; success clears it.
func (s *ReportService) enrich(ctx context.Context, report *models.Report) {
	report.CountyID = nil
	report.County = nil
	if region := s.Counties.Find(report.Longitude, report.Latitude); region != nil {
		id := region.ID
		report.CountyID = &id
	}

	report.LocalAuthorityID = nil
	report.LocalAuthority = nil
	if region := s.LocalAuthorities.Find(report.Longitude, report.Latitude); region != nil {
		id := region.ID
		report.LocalAuthorityID = &id
	}

	name, err := s.Geocoder.Reverse(ctx, report.Latitude, report.Longitude)
	if err != nil {
		retryAt := s.now().Add(s.RetryDelay)
		report.PlaceName = nil
		report.GeocodeRetryAt = &retryAt
		log.Printf("reverse geocode failed for (%f, %f), retry at %s: %v",
			report.Latitude, report.Longitude, retryAt.Format(time.RFC3339), err)
		return
	}
	report.PlaceName = name
	report.GeocodeRetryAt = nil
}

// attachPhoto re-encodes and uploads a photo, replacing the report's blob
// reference. The caller is responsible for destroying any previous blob.
func (s *ReportService) attachPhoto(ctx context.Context, report *models.Report, photo io.Reader) error {
	encoded, err := photos.Reencode(photo)
	if err != nil {
		return &types.ValidationError{Fields: map[string]string{"photo": err.Error()}}
	}

	publicID := uuid.New().String()
	url, err := s.Photos.Upload(ctx, publicID, encoded)
	if err != nil {
		return fmt.Errorf("photo upload failed: %w", err)
	}
	report.PhotoPublicID = &publicID
	report.PhotoURL = &url
	return nil
}

// destroyPhoto removes a stored blob, logging rather than failing.
func (s *ReportService) destroyPhoto(ctx context.Context, publicID *string) {
	if publicID == nil {
		return
	}
	if err := s.Photos.Destroy(ctx, *publicID); err != nil {
		log.Printf("failed to destroy photo %s: %v", *publicID, err)
	}
}

func (s *ReportService) authorizeOwner(principal *types.Principal, report *models.Report) error {
	if principal.IsAdmin {
		return nil
	}
	if report.UserID != nil && *report.UserID == principal.ID {
		return nil
	}
	return ErrPermission
}

func (s *ReportService) load(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := s.DB.WithContext(ctx).
		Preload("County").
		Preload("LocalAuthority").
		First(&report, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

// save persists every column of the report, including ones being cleared.
func (s *ReportService) save(ctx context.Context, report *models.Report) error {
	report.County = nil
	report.LocalAuthority = nil
	if err := s.DB.WithContext(ctx).Select("*").Omit("created_at").Save(report).Error; err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
