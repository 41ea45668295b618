// Package queue defines the geocode task messages exchanged over the
// message broker and the consumer that executes them out-of-band.
package queue

// GeocodeQueueName is the durable queue carrying geocode tasks.
const GeocodeQueueName = "report.geocode"

// GeocodeRequestedEvent asks the worker to reverse-geocode one report.
// It carries only the identifier; the worker reads current coordinates
// from the database so a stale message never writes stale data.
type GeocodeRequestedEvent struct {
	ReportID    uint   `json:"report_id"`
	RequestedAt string `json:"requested_at"`
}
