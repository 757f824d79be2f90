package adapter

import (
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"

	"github.com/mateusmacedo/bus-reservation/pkg/application"
	"github.com/mateusmacedo/bus-reservation/pkg/domain"
	watermillAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/watermill/adapter"
)

type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
}

func saramaSubscriberConfig(cfg Config) *sarama.Config {
	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Version = sarama.V1_0_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.ClientID = cfg.ClientID
	return saramaConfig
}

// NewKafkaEventBus usa um tópico por nome de evento. Os tópicos são criados
// na primeira assinatura com uma partição.
func NewKafkaEventBus[E domain.Event[D], D any](cfg Config, logger application.AppLogger) (*watermillAdapter.EventBus[E, D], error) {
	wmLogger := watermillAdapter.NewWatermillLoggerAdapter(logger)
	marshaler := kafka.DefaultMarshaler{}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: marshaler,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           marshaler,
		ConsumerGroup:         cfg.ConsumerGroup,
		OverwriteSaramaConfig: saramaSubscriberConfig(cfg),
		InitializeTopicDetails: &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("kafka subscriber: %w", err)
	}

	return watermillAdapter.NewEventBus[E, D](publisher, subscriber, logger), nil
}
