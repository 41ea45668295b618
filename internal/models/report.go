package models

import (
	"time"
)

// Condition is the traffic-light severity rating of a reported dropped kerb.
type Condition string

const (
	ConditionNone   Condition = "none"   // No issue to report
	ConditionGreen  Condition = "green"  // Usable and in good condition
	ConditionOrange Condition = "orange" // Usable but needs improvement
	ConditionRed    Condition = "red"    // Dangerous or unusable
	ConditionWhite  Condition = "white"  // Dropped kerb missing or preventing access
)

// ValidCondition reports whether c is one of the allowed condition codes.
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionNone, ConditionGreen, ConditionOrange, ConditionRed, ConditionWhite:
		return true
	}
	return false
}

// RequiresReasons reports whether the condition must be explained with
// defect codes. Reasons are forbidden for every other condition.
func (c Condition) RequiresReasons() bool {
	return c == ConditionRed || c == ConditionOrange
}

// Report is a single dropped-kerb condition report submitted by a user.
type Report struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// Ownership. UserID is nulled if the submitting user is deleted;
	// Username is a denormalized snapshot retained for display.
	UserID           *string `gorm:"type:char(36);index"`
	Username         string  `gorm:"size:150"`
	UserReportNumber uint    `gorm:"not null;default:0"`

	// Location, 6 decimal places (sub-meter precision).
	Latitude  float64 `gorm:"type:decimal(9,6);not null"`
	Longitude float64 `gorm:"type:decimal(9,6);not null"`

	// Derived spatial attributes, owned by the lifecycle and overwritten
	// on every coordinate-affecting save.
	CountyID         *uint
	County           *County `gorm:"constraint:OnDelete:SET NULL"`
	LocalAuthorityID *uint
	LocalAuthority   *LocalAuthority `gorm:"constraint:OnDelete:SET NULL"`
	PlaceName        *string         `gorm:"size:255"`

	Condition Condition  `gorm:"size:6;not null;index"`
	Reasons   ReasonList `gorm:"type:json"`
	Comments  string     `gorm:"size:1000"`

	// Photo blob reference. PublicID addresses the stored image; URL is
	// the serving location returned by the store.
	PhotoPublicID *string `gorm:"size:255"`
	PhotoURL      *string `gorm:"size:512"`

	// Non-null means a reverse-geocode retry is due at/after this time.
	GeocodeRetryAt *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name for Report
func (Report) TableName() string {
	return "reports"
}

// Validate enforces the conditional-field rules. It returns a map of
// field name to message, empty when the report is valid.
//
// Invariant: reasons non-empty if and only if condition is red or orange.
// Comments are required when the condition is white.
func (r *Report) Validate() map[string]string {
	errs := make(map[string]string)

	if !ValidCondition(r.Condition) {
		errs["condition"] = "invalid condition"
	}

	if r.Condition.RequiresReasons() {
		if len(r.Reasons) == 0 {
			errs["reasons"] = "at least one reason must be selected when condition is red or orange"
		}
	} else if len(r.Reasons) > 0 {
		errs["reasons"] = "reasons can only be provided for red or orange conditions"
	}

	for _, reason := range r.Reasons {
		if !ValidReason(reason) {
			errs["reasons"] = "unknown reason: " + string(reason)
			break
		}
	}

	if r.Condition == ConditionWhite && r.Comments == "" {
		errs["comments"] = "comments must be provided for 'white' condition"
	}

	if r.Latitude < -90 || r.Latitude > 90 {
		errs["latitude"] = "latitude must be between -90 and 90"
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		errs["longitude"] = "longitude must be between -180 and 180"
	}

	return errs
}
