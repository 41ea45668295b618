// Package geo provides point-in-polygon lookup over a preloaded set of
// named administrative boundaries.
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Region is a named administrative boundary held in memory for lookups.
type Region struct {
	ID       uint
	Name     string
	Boundary orb.MultiPolygon
}

// Index holds an ordered set of regions. The reference data is immutable
// after construction, so lookups need no locking.
type Index struct {
	regions []Region
}

// NewIndex builds an index over regions. Scan order is preserved: when
// boundaries overlap (not validated), the first containing region in the
// given order wins.
func NewIndex(regions []Region) *Index {
	return &Index{regions: regions}
}

// Len returns the number of regions in the index.
func (ix *Index) Len() int {
	return len(ix.regions)
}

// Find returns the first region whose boundary contains the point, or nil
// when no region contains it. Absence of a match is a valid result, not
// an error.
func (ix *Index) Find(lon, lat float64) *Region {
	p := orb.Point{lon, lat}
	for i := range ix.regions {
		if planar.MultiPolygonContains(ix.regions[i].Boundary, p) {
			return &ix.regions[i]
		}
	}
	return nil
}
