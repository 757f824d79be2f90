package adapter

import (
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/mateusmacedo/bus-reservation/pkg/application"
	"github.com/mateusmacedo/bus-reservation/pkg/domain"
	watermillAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/watermill/adapter"
)

// NewChannelEventBus cria um barramento de eventos em memória sobre o
// gochannel do watermill. A entrega é assíncrona.
func NewChannelEventBus[E domain.Event[D], D any](logger application.AppLogger) *watermillAdapter.EventBus[E, D] {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermillAdapter.NewWatermillLoggerAdapter(logger))

	return watermillAdapter.NewEventBus[E, D](pubSub, pubSub, logger)
}
