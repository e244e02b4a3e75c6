package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/budget"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel the publisher needs
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends settlement events to a topic exchange, routed by event type
type Publisher struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	logger       zerolog.Logger
}

// NewPublisher dials the broker and declares the exchange
func NewPublisher(url, exchangeName string, logger zerolog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := newPublisher(ch, exchangeName, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchangeName string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		channel:      ch,
		exchangeName: exchangeName,
		logger:       log.WithComponent(logger, log.ComponentAMQP),
	}
}

// Publish implements budget.EventPublisher
func (p *Publisher) Publish(ctx context.Context, event budget.Event) error {
	msg := NewSettlementMessage(event)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,     // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.MessageID,
			Type:         msg.Type,
			Timestamp:    msg.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.Debug().
		Str(log.FieldOperation, log.OpPublish).
		Str("type", msg.Type).
		Str(log.FieldPeriod, msg.PeriodKey).
		Str("exchange", p.exchangeName).
		Msg("Published settlement event")

	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
