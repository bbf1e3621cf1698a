package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ricardo118/stripe-checkout/internal/cart"
	"github.com/ricardo118/stripe-checkout/internal/checkout"
	"github.com/ricardo118/stripe-checkout/internal/config"
	"github.com/ricardo118/stripe-checkout/internal/event"
	serverhttp "github.com/ricardo118/stripe-checkout/internal/http"
	"github.com/ricardo118/stripe-checkout/internal/repository"
	"github.com/ricardo118/stripe-checkout/internal/storage"
	"github.com/ricardo118/stripe-checkout/internal/stripe"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	kv, cleanupStorage, err := buildStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up cart storage")
	}
	defer cleanupStorage()

	bus := event.NewBus()
	var publisher event.Publisher = bus
	if cfg.KafkaEnabled() {
		kafkaPub := event.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer kafkaPub.Close()
		publisher = event.NewMulti(bus, kafkaPub)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("mirroring cart events to Kafka")
	}

	var sessions repository.SessionStore
	if cfg.SessionStoreEnabled() {
		creds := &repository.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPassword,
			DBName:            cfg.PostgresDBName,
			MigrationsDirPath: cfg.MigrationsDir,
		}
		repo, err := repository.NewRepository(creds)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer repo.Close()
		if err := repo.RunMigrations(creds); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		sessions = repo
		log.Info().Str("host", cfg.PostgresHost).Msg("recording checkout sessions to postgres")
	}

	provider := stripe.NewBreaker(stripe.NewClient(cfg.StripeSecretKey, cfg.StripeAPIURL))
	sessionService := checkout.NewSessionService(provider, sessions, cfg.SuccessURL, cfg.CancelURL, log)
	manager := cart.NewManager(kv, publisher, log)

	router := serverhttp.NewRouter(serverhttp.RouterConfig{
		Manager:        manager,
		SessionService: sessionService,
		Sessions:       sessions,
		RequestTimeout: cfg.RequestTimeout,
		ClearDelay:     cfg.ClearDelay,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "stripe-checkout"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("stripe-checkout starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func buildStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.KeyValueStore, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
		return storage.NewRedisStore(client, cfg.SnapshotTTL), func() { client.Close() }, nil

	case config.BackendMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongoStore(db)
		if err := store.CreateIndexes(ctx); err != nil {
			return nil, nil, err
		}
		log.Info().Str("uri", cfg.MongoURI).Msg("connected to mongodb")
		cleanup := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("mongodb disconnect failed")
			}
		}
		return store, cleanup, nil

	default:
		log.Info().Msg("using in-memory cart storage")
		return storage.NewMemoryStore(), func() {}, nil
	}
}
