// loadregions imports county and local authority boundaries from a
// GeoJSON FeatureCollection into the database. Without -file it loads the
// embedded reference boundaries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SonyaJane/dropped-kerb-mapper/data"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/config"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/database"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/geo"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
)

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "GeoJSON FeatureCollection to load (empty loads the embedded boundaries)")
	regionType := flag.String("type", "", "Region type: county or local_authority (required with -file)")
	nameProperty := flag.String("name-property", "name", "Feature property holding the region name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *file == "" {
		if err := loadEmbedded(db); err != nil {
			log.Fatalf("Failed to load embedded boundaries: %v", err)
		}
		return
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	n, err := loadBoundaries(db, raw, *regionType, *nameProperty)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *file, err)
	}
	log.Printf("Loaded %d %s boundaries from %s", n, *regionType, *file)
}

// loadEmbedded imports the reference boundaries shipped with the binary.
func loadEmbedded(db *gorm.DB) error {
	counties, err := data.Regions.ReadFile("regions/counties.geojson")
	if err != nil {
		return err
	}
	n, err := loadBoundaries(db, counties, "county", "name")
	if err != nil {
		return err
	}
	log.Printf("Loaded %d embedded county boundaries", n)

	authorities, err := data.Regions.ReadFile("regions/local_authorities.geojson")
	if err != nil {
		return err
	}
	n, err = loadBoundaries(db, authorities, "local_authority", "name")
	if err != nil {
		return err
	}
	log.Printf("Loaded %d embedded local authority boundaries", n)
	return nil
}

// loadBoundaries upserts the boundaries by name so re-running the import
// refreshes geometry without duplicating regions.
func loadBoundaries(db *gorm.DB, raw []byte, regionType, nameProperty string) (int, error) {
	boundaries, err := geo.ParseFeatureCollection(raw, nameProperty)
	if err != nil {
		return 0, err
	}

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"boundary"}),
	}

	for _, b := range boundaries {
		switch regionType {
		case "county":
			county := models.County{
				Name:     b.Name,
				Boundary: models.MultiPolygon{MultiPolygon: b.Geometry},
			}
			if err := db.Clauses(upsert).Create(&county).Error; err != nil {
				return 0, fmt.Errorf("failed to upsert county %q: %w", b.Name, err)
			}
		case "local_authority":
			authority := models.LocalAuthority{
				Name:     b.Name,
				Boundary: models.MultiPolygon{MultiPolygon: b.Geometry},
			}
			if err := db.Clauses(upsert).Create(&authority).Error; err != nil {
				return 0, fmt.Errorf("failed to upsert local authority %q: %w", b.Name, err)
			}
		default:
			return 0, fmt.Errorf("unknown region type %q (want county or local_authority)", regionType)
		}
	}

	return len(boundaries), nil
}
