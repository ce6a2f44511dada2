package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const eventsExchange = "tableside.events"

// AMQPPublisher pushes domain events onto a topic exchange with the
// event name as the routing key, for consumers outside this process
// (printers, analytics, external notification services).
type AMQPPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		eventsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish implements Publisher. Failures are logged, never propagated:
// the state transition already committed.
func (p *AMQPPublisher) Publish(event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("amqp publish %s: marshal failed: %v", event, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		eventsExchange,
		event, // routing key
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		log.Printf("amqp publish %s failed: %v", event, err)
	}
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
