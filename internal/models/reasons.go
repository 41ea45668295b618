package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Reason is an enumerated defect code explaining a red or orange condition.
type Reason string

const (
	ReasonSteepGradient         Reason = "steep_gradient"
	ReasonLipTooHigh            Reason = "lip_too_high"
	ReasonCobbles               Reason = "cobbles"
	ReasonObstacle              Reason = "obstacle"
	ReasonNoVisualMarking       Reason = "no_visual_marking"
	ReasonNoTactilePaving       Reason = "no_tactile_paving"
	ReasonNarrowPavement        Reason = "narrow_pavement"
	ReasonUnevenRoadSurface     Reason = "uneven_road_surface"
	ReasonUnevenPavementSurface Reason = "uneven_pavement_surface"
	ReasonTightTurningCircle    Reason = "tight_turning_circle"
	ReasonIncorrectlyAngled     Reason = "incorrectly_angled"
	ReasonBrokenRoadSurface     Reason = "broken_road_surface"
	ReasonBrokenPavementSurface Reason = "broken_pavement_surface"
	ReasonAccessibilityBarrier  Reason = "accessibility_barrier"
)

var reasonLabels = map[Reason]string{
	ReasonSteepGradient:         "Steep gradient",
	ReasonLipTooHigh:            "Lip too high",
	ReasonCobbles:               "Cobblestones",
	ReasonObstacle:              "Obstacle",
	ReasonNoVisualMarking:       "No visual marking",
	ReasonNoTactilePaving:       "No tactile paving",
	ReasonNarrowPavement:        "Narrow pavement",
	ReasonUnevenRoadSurface:     "Uneven road surface",
	ReasonUnevenPavementSurface: "Uneven pavement surface",
	ReasonTightTurningCircle:    "Tight turning circle",
	ReasonIncorrectlyAngled:     "Incorrectly angled",
	ReasonBrokenRoadSurface:     "Broken road surface",
	ReasonBrokenPavementSurface: "Broken pavement surface",
	ReasonAccessibilityBarrier:  "Accessibility barrier",
}

// ValidReason reports whether r is one of the allowed defect codes.
func ValidReason(r Reason) bool {
	_, ok := reasonLabels[r]
	return ok
}

// Display returns the human-readable label for the reason code.
func (r Reason) Display() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return string(r)
}

// ReasonList is a set of reason codes stored as a JSON array column.
type ReasonList []Reason

// Display returns the human-readable labels in list order.
func (l ReasonList) Display() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.Display()
	}
	return out
}

// Value serializes the list for storage
func (l ReasonList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the stored JSON array
func (l *ReasonList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported reason list column type %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// GormDBDataType ensures the correct data type is used for each database driver.
// This resolves the issue where MSSQL does not support the 'json' data type.
func (ReasonList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
