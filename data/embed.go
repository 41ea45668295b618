// Package data embeds the reference datasets shipped with the binaries.
package data

import "embed"

// Regions holds the bundled county and local authority boundary
// FeatureCollections used by the loadregions command.
//
//go:embed regions
var Regions embed.FS
