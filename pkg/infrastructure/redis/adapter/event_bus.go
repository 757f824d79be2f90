package adapter

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/mateusmacedo/bus-reservation/pkg/application"
	"github.com/mateusmacedo/bus-reservation/pkg/domain"
	watermillAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/watermill/adapter"
)

type StreamConfig struct {
	ConsumerGroup string
	Consumer      string
}

// NewRedisStreamEventBus publica cada evento em um stream Redis com o nome do
// evento e consome pelo consumer group informado.
func NewRedisStreamEventBus[E domain.Event[D], D any](client redis.UniversalClient, cfg StreamConfig, logger application.AppLogger) (*watermillAdapter.EventBus[E, D], error) {
	wmLogger := watermillAdapter.NewWatermillLoggerAdapter(logger)

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("redisstream publisher: %w", err)
	}

	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: cfg.ConsumerGroup,
		Consumer:      cfg.Consumer,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("redisstream subscriber: %w", err)
	}

	return watermillAdapter.NewEventBus[E, D](publisher, subscriber, logger), nil
}
