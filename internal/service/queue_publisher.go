// Package queue_publisher publishes domain events to RabbitMQ.
// Publishing is best effort: errors are logged and returned so that
// callers can ignore failures without interrupting the request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/comuna/facility-events/internal/queue"
)

// ScheduledQueue is the queue name for event.scheduled messages.
const ScheduledQueue = "event.scheduled"

// PublishEventScheduled publishes an EventScheduledMessage to the
// event.scheduled queue.  An empty url disables publishing entirely.
// Messages are marked persistent so they survive broker restarts.
func PublishEventScheduled(ctx context.Context, url string, msg q.EventScheduledMessage) error {
	if url == "" {
		return nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		ScheduledQueue, // name
		true,           // durable
		false,          // autoDelete
		false,          // exclusive
		false,          // noWait
		nil,            // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("rabbitmq: marshal message failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",             // default exchange
		ScheduledQueue, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
