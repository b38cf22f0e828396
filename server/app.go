package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"media-ingest/config"
	"media-ingest/constant"
	"media-ingest/pkg/blob"
	"media-ingest/pkg/rabbitmq"
	"media-ingest/repository"
)

// app holds the long-lived connections shared by every command.
type app struct {
	db     *sql.DB
	repo   repository.MediaRepository
	store  blob.Store
	redis  *redis.Client
	conn   *amqp.Connection
	events rabbitmq.Publisher
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{events: rabbitmq.NewNoopPublisher()}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	a.store = store

	a.db, err = config.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	gormDB, err := repository.OpenGorm(a.db, cfg.App.Environment)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("gorm: %w", err)
	}
	a.repo = repository.NewRepo(gormDB, a.store)
	return a, nil
}

// withCache connects the optional dedup cache. Failure only disables the cache.
func (a *app) withCache(ctx context.Context, cfg *config.Config) {
	client, err := config.NewRedis(ctx, cfg.Redis)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRedis, dedup cache disabled")
		return
	}
	a.redis = client
}

// withEvents connects the optional event publisher. Failure only disables events.
func (a *app) withEvents(ctx context.Context, cfg *config.Config) {
	if cfg.Queue == nil {
		return
	}
	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn, events disabled")
		return
	}
	publisher, err := rabbitmq.NewPublisher(ctx, conn, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewPublisher, events disabled")
		_ = conn.Close()
		return
	}
	a.conn = conn
	a.events = publisher
}

func (a *app) close(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	if err := a.events.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database pool")
		}
	}
}

func newStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Storage.Backend {
	case constant.BlobBackendFS, "":
		return blob.NewFSStore(cfg.Storage.Root, cfg.Storage.PublicPrefix)
	case constant.BlobBackendMinIO:
		client, err := config.NewMinio(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		store := blob.NewMinioStore(client, cfg.MinIO.Bucket, cfg.Storage.PublicPrefix)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case constant.BlobBackendMemory:
		zerolog.Ctx(ctx).Warn().Msg("using in-memory blob storage, files are lost on restart")
		return blob.NewMemoryStore(cfg.Storage.PublicPrefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
