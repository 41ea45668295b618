package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// County is a named administrative polygon used to tag report locations.
// Reference data: loaded once from a geographic dataset, never mutated
// by report flows.
type County struct {
	ID        uint         `gorm:"primaryKey;autoIncrement"`
	Name      string       `gorm:"size:100;not null;uniqueIndex"`
	Boundary  MultiPolygon `gorm:"type:json"`
	CreatedAt time.Time
}

// TableName overrides the table name for County
func (County) TableName() string {
	return "counties"
}

// LocalAuthority is a named administrative polygon at local-authority level.
// Reference data like County; the two sets are looked up independently.
type LocalAuthority struct {
	ID        uint         `gorm:"primaryKey;autoIncrement"`
	Name      string       `gorm:"size:100;not null;uniqueIndex"`
	Boundary  MultiPolygon `gorm:"type:json"`
	CreatedAt time.Time
}

// TableName overrides the table name for LocalAuthority
func (LocalAuthority) TableName() string {
	return "local_authorities"
}

// MultiPolygon stores a WGS84 multi-polygon as a GeoJSON geometry column.
type MultiPolygon struct {
	orb.MultiPolygon
}

// Value serializes the geometry as GeoJSON for storage
func (m MultiPolygon) Value() (driver.Value, error) {
	if m.MultiPolygon == nil {
		return nil, nil
	}
	b, err := geojson.NewGeometry(m.MultiPolygon).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes a stored GeoJSON geometry. Both Polygon and
// MultiPolygon geometries are accepted; polygons are promoted.
func (m *MultiPolygon) Scan(value interface{}) error {
	if value == nil {
		m.MultiPolygon = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported geometry column type %T", value)
	}
	if len(data) == 0 {
		m.MultiPolygon = nil
		return nil
	}
	var g geojson.Geometry
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	switch geom := g.Geometry().(type) {
	case orb.MultiPolygon:
		m.MultiPolygon = geom
	case orb.Polygon:
		m.MultiPolygon = orb.MultiPolygon{geom}
	default:
		return fmt.Errorf("unexpected geometry type %T", geom)
	}
	return nil
}

// GormDBDataType ensures the correct data type is used for each database driver.
func (MultiPolygon) GormDBDataType(db *gorm.DB, field *schema.Field) string {
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
