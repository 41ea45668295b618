package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Boundary is a named multi-polygon parsed from a GeoJSON feature.
type Boundary struct {
	Name     string
	Geometry orb.MultiPolygon
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection of Polygon or
// MultiPolygon features into named boundaries. nameProperty selects the
// feature property holding the region name (e.g. "name" or a dataset field
// such as "CTYUA24NM").
func ParseFeatureCollection(data []byte, nameProperty string) ([]Boundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	boundaries := make([]Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		name := f.Properties.MustString(nameProperty, "")
		if name == "" {
			return nil, fmt.Errorf("feature %d has no %q property", i, nameProperty)
		}

		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.MultiPolygon:
			mp = g
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		default:
			return nil, fmt.Errorf("feature %q has unsupported geometry type %T", name, f.Geometry)
		}

		boundaries = append(boundaries, Boundary{Name: name, Geometry: mp})
	}

	return boundaries, nil
}
