package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mateusmacedo/bus-reservation/internal/config"
	"github.com/mateusmacedo/bus-reservation/internal/reservation"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	"github.com/mateusmacedo/bus-reservation/internal/reservation/infrastructure"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgInfra "github.com/mateusmacedo/bus-reservation/pkg/infrastructure"
	channelAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/channels/adapter"
	kafkaAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/kafka/adapter"
	redisAdapter "github.com/mateusmacedo/bus-reservation/pkg/infrastructure/redis/adapter"
)

const defaultRedisAddr = "localhost:6379"

// Run monta o serviço de reservas a partir de cfg e atende HTTP até ctx ser
// cancelado.
func Run(ctx context.Context, cfg config.Config, logger pkgApp.AppLogger) error {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				pkgApp.LogError(context.Background(), logger, "error releasing resource", err, nil)
			}
		}
	}()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		closers = append(closers, closer.Close)
	}

	var redisClient redis.UniversalClient
	if cfg.RedisAddr != "" || cfg.EventTransport == config.TransportRedis {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = defaultRedisAddr
		}
		redisClient, err = redisAdapter.NewRedisClient(ctx, redisAdapter.ClientConfig{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
	}

	var seatCache application.SeatCache = application.NopSeatCache{}
	if redisClient != nil {
		seatCache = infrastructure.NewRedisSeatCache(redisClient, cfg.SeatCacheTTL, logger)
	}

	eventBus, closeBus, err := newEventBus(cfg, redisClient, logger)
	if err != nil {
		return err
	}
	if closeBus != nil {
		closers = append(closers, closeBus)
	}

	slice := reservation.NewReservationSlice(reservation.Dependencies{
		UnitOfWork:  store,
		EventBus:    eventBus,
		SeatCache:   seatCache,
		IDGenerator: pkgInfra.GenerateUUID,
		Logger:      logger,
		SeatPolicy: application.SeatPolicy{
			ElderPercentage:    cfg.ElderSeatPercentage,
			PregnantPercentage: cfg.PregnantSeatPercentage,
		},
		RequestTimeout: cfg.RequestTimeout,
	})

	jobs, err := slice.NewJobs()
	if err != nil {
		return err
	}
	if err := jobs.Schedule(cfg.ReconcileInterval); err != nil {
		return err
	}
	jobs.Start()
	closers = append(closers, jobs.Shutdown)

	router := infrastructure.NewRouter(logger)
	slice.RegisterRoutes(router)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		pkgApp.LogInfo(ctx, logger, "server starting", map[string]interface{}{
			"address":         cfg.HTTPAddr,
			"store":           cfg.Store,
			"event_transport": cfg.EventTransport,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	pkgApp.LogInfo(context.Background(), logger, "shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(cfg config.Config, logger pkgApp.AppLogger) (domain.UnitOfWork, error) {
	if cfg.Store == config.StoreMemory {
		return infrastructure.NewInMemoryStore(logger), nil
	}
	store, err := infrastructure.OpenGormStore(cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	return store, nil
}

func newEventBus(cfg config.Config, client redis.UniversalClient, logger pkgApp.AppLogger) (application.EventBus, func() error, error) {
	switch cfg.EventTransport {
	case config.TransportChannel:
		bus := channelAdapter.NewChannelEventBus[application.ReservationEvent, application.ReservationEventData](logger)
		return bus, bus.Close, nil
	case config.TransportRedis:
		consumer, _ := os.Hostname()
		if consumer == "" {
			consumer = cfg.AppName
		}
		bus, err := redisAdapter.NewRedisStreamEventBus[application.ReservationEvent, application.ReservationEventData](
			client,
			redisAdapter.StreamConfig{ConsumerGroup: cfg.AppName, Consumer: consumer},
			logger,
		)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	case config.TransportKafka:
		bus, err := kafkaAdapter.NewKafkaEventBus[application.ReservationEvent, application.ReservationEventData](kafkaAdapter.Config{
			Brokers:       cfg.KafkaBrokers,
			ConsumerGroup: cfg.KafkaConsumerGroup,
			ClientID:      cfg.AppName,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return bus, bus.Close, nil
	default:
		return pkgInfra.NewSimpleEventBus[application.ReservationEvent, application.ReservationEventData](logger), nil, nil
	}
}
