package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	TransportMemory  = "memory"
	TransportChannel = "channel"
	TransportRedis   = "redis"
	TransportKafka   = "kafka"
)

type Config struct {
	AppName        string
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration

	Store       string
	DatabaseDSN string

	EventTransport string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SeatCacheTTL  time.Duration

	KafkaBrokers       []string
	KafkaConsumerGroup string

	ElderSeatPercentage    int
	PregnantSeatPercentage int
	ReconcileInterval      time.Duration
}

// Load lê o ambiente depois de mesclar um .env opcional do diretório de
// trabalho. Valores malformados mantêm o padrão e são reportados juntos no
// erro retornado; a configuração devolvida é sempre utilizável.
func Load() (Config, error) {
	var dotenvErr error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		dotenvErr = fmt.Errorf("load .env: %w", err)
	}
	cfg, err := FromEnv(os.LookupEnv)
	return cfg, errors.Join(dotenvErr, err)
}

// FromEnv monta a configuração a partir de lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		AppName:        r.str("APP_NAME", "bus-reservation"),
		HTTPAddr:       r.str("HTTP_ADDR", ":8080"),
		LogLevel:       r.str("LOG_LEVEL", "info"),
		RequestTimeout: r.duration("REQUEST_TIMEOUT", 10*time.Second),

		Store:       strings.ToLower(r.str("STORE", StorePostgres)),
		DatabaseDSN: r.str("DATABASE_DSN", ""),

		EventTransport: strings.ToLower(r.str("EVENT_TRANSPORT", TransportMemory)),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.integer("REDIS_DB", 0),
		SeatCacheTTL:  r.duration("SEAT_CACHE_TTL", 30*time.Second),

		KafkaBrokers:       r.list("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaConsumerGroup: r.str("KAFKA_CONSUMER_GROUP", "bus-reservation"),

		ElderSeatPercentage:    r.integer("ELDER_SEAT_PERCENTAGE", 10),
		PregnantSeatPercentage: r.integer("PREGNANT_SEAT_PERCENTAGE", 10),
		ReconcileInterval:      r.duration("RECONCILE_INTERVAL", 5*time.Minute),
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			r.str("DATABASE_HOST", "localhost"),
			r.str("DATABASE_PORT", "5432"),
			r.str("DATABASE_USER", "postgres"),
			r.str("DATABASE_PASSWORD", "postgres"),
			r.str("DATABASE_NAME", "bus_reservation"),
			r.str("DATABASE_SSLMODE", "disable"),
			r.str("DATABASE_TIMEZONE", "UTC"),
		)
	}

	switch cfg.Store {
	case StorePostgres, StoreMemory:
	default:
		r.fail("STORE", cfg.Store)
		cfg.Store = StorePostgres
	}

	switch cfg.EventTransport {
	case TransportMemory, TransportChannel, TransportRedis, TransportKafka:
	default:
		r.fail("EVENT_TRANSPORT", cfg.EventTransport)
		cfg.EventTransport = TransportMemory
	}

	if cfg.ElderSeatPercentage < 0 || cfg.PregnantSeatPercentage < 0 ||
		cfg.ElderSeatPercentage+cfg.PregnantSeatPercentage > 100 {
		r.errs = append(r.errs, fmt.Errorf("seat percentages %d/%d out of range", cfg.ElderSeatPercentage, cfg.PregnantSeatPercentage))
		cfg.ElderSeatPercentage, cfg.PregnantSeatPercentage = 10, 10
	}

	return cfg, errors.Join(r.errs...)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) fail(key, value string) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s %q", key, value))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v)
		return def
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
