package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"media-ingest/config"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close() error
}

type publisher struct {
	mu  sync.Mutex
	ch  *amqp.Channel
	cfg *config.RabbitMQ
}

func (p *publisher) Publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.cfg.ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
		return err
	}
	return nil
}

func (p *publisher) Close() error {
	return p.ch.Close()
}

// NewPublisher opens a channel on conn and declares the events exchange.
func NewPublisher(ctx context.Context, conn *amqp.Connection, cfg *config.RabbitMQ) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(cfg.ExchangeName, cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", cfg.ExchangeName).Msg("failed to declare exchange")
		_ = ch.Close()
		return nil, err
	}

	return &publisher{
		ch:  ch,
		cfg: cfg,
	}, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	zerolog.Ctx(ctx).Debug().Str("routing_key", routingKey).Msg("event publishing disabled")
	return nil
}

func (noopPublisher) Close() error { return nil }

// NewNoopPublisher is used when no broker is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}
