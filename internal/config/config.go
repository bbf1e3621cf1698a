package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config is the full service configuration, loaded from the environment.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Cart snapshot storage: memory, redis or mongo.
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	SnapshotTTL    time.Duration `env:"SNAPSHOT_TTL" envDefault:"0"`
	MongoURI       string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName    string        `env:"MONGO_DB_NAME" envDefault:"stripecheckout"`

	// Optional session record store; disabled while PostgresHost is empty.
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDBName   string `env:"POSTGRES_DB" envDefault:"stripecheckout"`
	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"./internal/repository/migrations"`

	// Optional Kafka mirror of cart events; disabled while empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"cart-events"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripeAPIURL    string `env:"STRIPE_API_URL"`
	SuccessURL      string `env:"CHECKOUT_SUCCESS_URL"`
	CancelURL       string `env:"CHECKOUT_CANCEL_URL"`

	// How long the success page keeps showing the cart before it is
	// cleared.
	ClearDelay time.Duration `env:"CLEAR_CART_DELAY" envDefault:"3s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.SuccessURL == "" {
		return fmt.Errorf("CHECKOUT_SUCCESS_URL is required")
	}
	if c.CancelURL == "" {
		return fmt.Errorf("CHECKOUT_CANCEL_URL is required")
	}

	return nil
}

// SessionStoreEnabled reports whether a Postgres session record store is
// configured.
func (c *Config) SessionStoreEnabled() bool {
	return c.PostgresHost != ""
}

// KafkaEnabled reports whether cart events are mirrored to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
