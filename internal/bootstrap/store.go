package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/issue-tracker/config"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/repository"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/service"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/storage/postgres"
)

type StoreOptions struct {
	ConnectTO time.Duration
	PingTO    time.Duration
}

// Store is an opened project store plus whatever owns its connections.
type Store struct {
	Backend   string
	Projects  service.ProjectStore
	Publisher service.EventPublisher
	close     func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects to the backend selected by cfg.Store.Backend and
// prepares its schema or indexes.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, opt StoreOptions) (*Store, error) {
	if opt.ConnectTO == 0 {
		opt.ConnectTO = 5 * time.Second
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	var (
		st  *Store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendRedis:
		st, err = openRedis(ctx, &cfg.Redis, opt)
	case config.BackendMongo:
		st, err = openMongo(ctx, &cfg.Mongo, opt)
	case config.BackendPostgres:
		st, err = openPostgres(ctx, &cfg.Database, opt)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	st.Backend = cfg.Store.Backend
	logger.Info("project store ready", zap.String("backend", st.Backend))
	return st, nil
}

func openRedis(ctx context.Context, cfg *config.RedisConfig, opt StoreOptions) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: opt.ConnectTO,
	})

	pctx, cancel := context.WithTimeout(ctx, opt.PingTO)
	defer cancel()

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Store{
		Projects:  repository.NewRedisProjectStore(client),
		Publisher: repository.NewRedisEventPublisher(client),
		close:     func(context.Context) error { return client.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.MongoConfig, opt StoreOptions) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(opt.ConnectTO).
		SetServerSelectionTimeout(opt.ConnectTO))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	store := repository.NewMongoProjectStore(client.Database(cfg.Database).Collection(cfg.Collection))

	pctx, pcancel := context.WithTimeout(ctx, opt.PingTO)
	defer pcancel()

	if err := store.Ping(pctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := store.EnsureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Store{
		Projects: store,
		close:    client.Disconnect,
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.DatabaseConfig, opt StoreOptions) (*Store, error) {
	db, err := postgres.NewConnection(ctx, cfg, opt.PingTO)
	if err != nil {
		return nil, err
	}

	store := repository.NewPostgresProjectStore(db)

	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	if err := store.EnsureSchema(cctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		Projects: store,
		close:    func(context.Context) error { return db.Close() },
	}, nil
}
