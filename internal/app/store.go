package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/stock/internal/capability"
	"github.com/shestoi/GoBigTech/stock/internal/config"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
	"github.com/shestoi/GoBigTech/stock/internal/repository/memory"
	mongorepo "github.com/shestoi/GoBigTech/stock/internal/repository/mongo"
	"github.com/shestoi/GoBigTech/stock/internal/repository/postgres"
	platformshutdown "github.com/shestoi/GoBigTech/stock/platform/shutdown"
)

// storage - всё, что ядру склада нужно от одного бэкенда
type storage struct {
	stock      repository.StockStore
	transactor repository.Transactor
	probe      repository.StorageCapabilityProbe
	orders     repository.OrderStore

	// ping используется для readiness, nil значит всегда готово
	ping  func(context.Context) error
	close func(context.Context) error
}

// openStorage подключает выбранный бэкенд
// state сбрасывается монитором Mongo при смене топологии
func openStorage(ctx context.Context, cfg config.Config, state *capability.State, logger *zap.Logger) (*storage, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		return openMongo(ctx, cfg, state, logger)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.BackendMemory:
		logger.Warn("using in-memory store, data is lost on restart",
			zap.Int("seed_items", len(cfg.MemorySeed)))
		if len(cfg.MemorySeed) == 0 {
			logger.Warn("in-memory catalog is empty, every order will fail until STOCK_MEMORY_SEED is set")
		}
		store := memory.NewStore(cfg.MemorySeed, true)
		return &storage{
			stock:      store,
			transactor: store,
			probe:      store,
			orders:     memory.NewOrderRepository(),
			close:      func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func openMongo(ctx context.Context, cfg config.Config, state *capability.State, logger *zap.Logger) (*storage, error) {
	logger.Info("connecting to MongoDB")

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerMonitor(mongorepo.NewTopologyMonitor(state, logger))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("MongoDB connection established")

	return &storage{
		stock:      mongorepo.NewStockRepository(client, cfg.MongoDBName),
		transactor: mongorepo.NewTransactor(client),
		probe:      mongorepo.NewProbe(client, cfg.MongoDBName),
		orders:     mongorepo.NewOrderRepository(client, cfg.MongoDBName),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: platformshutdown.DisconnectMongo(client),
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *zap.Logger) (*storage, error) {
	logger.Info("applying PostgreSQL migrations")
	if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
		return nil, err
	}

	logger.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	logger.Info("PostgreSQL connection established")

	return &storage{
		stock:      postgres.NewStockRepository(pool),
		transactor: postgres.NewTransactor(pool),
		probe:      postgres.NewProbe(pool),
		orders:     postgres.NewOrderRepository(pool),
		ping:       pool.Ping,
		close:      platformshutdown.ClosePool(pool),
	}, nil
}
