package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/geocode"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/queue"
)

// SweepDueRetries claims reports whose geocode retry is due and dispatches
// a task for each. The claim is a guarded update that clears the retry
// timestamp, so two concurrent sweeps never dispatch the same report
// twice. Returns the number of tasks dispatched.
func (s *ReportService) SweepDueRetries(ctx context.Context) (int, error) {
	now := s.now()

	var ids []uint
	err := s.DB.WithContext(ctx).Model(&models.Report{}).
		Where("geocode_retry_at IS NOT NULL AND geocode_retry_at <= ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, id := range ids {
		claim := s.DB.WithContext(ctx).Model(&models.Report{}).
			Where("id = ? AND geocode_retry_at <= ?", id, now).
			Update("geocode_retry_at", nil)
		if claim.Error != nil {
			log.Printf("retry sweep: claim failed for report %d: %v", id, claim.Error)
			continue
		}
		if claim.RowsAffected == 0 {
			// Another sweep got there first.
			continue
		}

		event := queue.GeocodeRequestedEvent{
			ReportID:    id,
			RequestedAt: now.UTC().Format(time.RFC3339),
		}
		if err := s.Publisher.PublishGeocodeRequested(ctx, event); err != nil {
			// Re-arm so the task is not lost; the next sweep retries.
			retryAt := now.Add(s.RetryDelay)
			if rearmErr := s.DB.WithContext(ctx).Model(&models.Report{}).
				Where("id = ?", id).
				Update("geocode_retry_at", retryAt).Error; rearmErr != nil {
				log.Printf("retry sweep: re-arm failed for report %d: %v", id, rearmErr)
			}
			continue
		}
		dispatched++
	}

	return dispatched, nil
}

// GeocodeWorker resolves place names for reports delivered over the task
// queue.
type GeocodeWorker struct {
	DB         *gorm.DB
	Geocoder   geocode.Reverser
	RetryDelay time.Duration

	// Attempts is the in-process retry budget per delivery.
	Attempts int

	// sleep and now are injectable for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewGeocodeWorker builds a worker with a three-attempt budget.
func NewGeocodeWorker(db *gorm.DB, geocoder geocode.Reverser, retryDelay time.Duration) *GeocodeWorker {
	return &GeocodeWorker{
		DB:         db,
		Geocoder:   geocoder,
		RetryDelay: retryDelay,
		Attempts:   3,
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

// ProcessReport attempts to resolve and persist the place name for one
// report. It re-reads the report so stale messages work on current
// coordinates, and returns nil for every terminal outcome (resolved,
// gone, already named, or re-armed for a later sweep) so the delivery is
// acked.
func (w *GeocodeWorker) ProcessReport(ctx context.Context, reportID uint) error {
	var report models.Report
	err := w.DB.WithContext(ctx).First(&report, reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("geocode worker: report %d no longer exists", reportID)
		return nil
	}
	if err != nil {
		return err
	}

	if report.PlaceName != nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= w.Attempts; attempt++ {
		name, err := w.Geocoder.Reverse(ctx, report.Latitude, report.Longitude)
		if err == nil {
			updates := map[string]interface{}{
				"place_name":       name,
				"geocode_retry_at": nil,
			}
			if err := w.DB.WithContext(ctx).Model(&models.Report{}).
				Where("id = ?", report.ID).
				Updates(updates).Error; err != nil {
				return err
			}
			log.Printf("geocode worker: resolved report %d", report.ID)
			return nil
		}
		lastErr = err
		if attempt < w.Attempts {
			w.sleep(time.Duration(attempt) * time.Second)
		}
	}

	// Budget exhausted. Hand back to the sweep by re-arming the retry
	// timestamp; the delivery itself is done.
	retryAt := w.now().Add(w.RetryDelay)
	if err := w.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", report.ID).
		Update("geocode_retry_at", retryAt).Error; err != nil {
		return err
	}
	log.Printf("geocode worker: report %d still unresolved, retry at %s: %v",
		report.ID, retryAt.Format(time.RFC3339), lastErr)
	return nil
}
