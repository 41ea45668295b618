// The worker consumes geocode tasks from the message broker and resolves
// place names for reports whose synchronous geocode failed.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/config"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/database"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/geocode"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/queue"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderCountryCodes)
	worker := services.NewGeocodeWorker(db, geocoder, cfg.GeocodeRetryDelay)

	log.Printf("Starting geocode worker, queue %q", queue.GeocodeQueueName)
	if err := queue.StartGeocodeConsumer(cfg.AMQPURL, worker.ProcessReport); err != nil {
		log.Fatalf("Consumer stopped: %v", err)
	}
}
