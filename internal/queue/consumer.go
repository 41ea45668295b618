package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// GeocodeHandler executes one geocode task. It must apply its own retry
// policy and return nil when the task is settled (including the
// rearmed-for-later case); a non-nil error rejects the message.
type GeocodeHandler func(ctx context.Context, reportID uint) error

// StartGeocodeConsumer connects to RabbitMQ, declares the report.geocode
// queue (durable), and consumes tasks with handler. It runs a reconnect
// loop with capped backoff and keeps running across broker restarts;
// per-message failures are logged and the message rejected without
// requeue to avoid tight loops.
func StartGeocodeConsumer(url string, handler GeocodeHandler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("geocode-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, handler); err != nil {
			log.Printf("geocode-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, handler GeocodeHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("geocode-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(GeocodeQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(GeocodeQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleDelivery(d.Body, handler); err != nil {
			log.Printf("geocode-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(body []byte, handler GeocodeHandler) error {
	var ev GeocodeRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReportID == 0 {
		return fmt.Errorf("event has no report id")
	}
	return handler(context.Background(), ev.ReportID)
}
