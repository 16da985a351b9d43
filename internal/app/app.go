package app

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/shestoi/GoBigTech/stock/internal/capability"
	"github.com/shestoi/GoBigTech/stock/internal/config"
	eventkafka "github.com/shestoi/GoBigTech/stock/internal/event/kafka"
	"github.com/shestoi/GoBigTech/stock/internal/repository"
	"github.com/shestoi/GoBigTech/stock/internal/repository/memory"
	redisrepo "github.com/shestoi/GoBigTech/stock/internal/repository/redis"
	"github.com/shestoi/GoBigTech/stock/internal/service"
	"github.com/shestoi/GoBigTech/stock/internal/stock"
	platformhealth "github.com/shestoi/GoBigTech/stock/platform/health/grpc"
	platformlogging "github.com/shestoi/GoBigTech/stock/platform/logging"
	"github.com/shestoi/GoBigTech/stock/platform/observability"
	platformshutdown "github.com/shestoi/GoBigTech/stock/platform/shutdown"
)

const (
	serviceName    = "stock"
	connectTimeout = 10 * time.Second
)

// App содержит все зависимости для запуска и корректного shutdown Stock Service
type App struct {
	logger      *zap.Logger
	grpcServer  *grpc.Server
	listener    net.Listener
	health      *platformhealth.Health
	shutdownMgr *platformshutdown.Manager
	consumer    *eventkafka.OrderCancelledConsumer
	workflow    *service.OrderStockWorkflow
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости Stock Service
// При ошибке всё, что успели открыть, закрывается
func Build(cfg config.Config) (_ *App, err error) {
	// Создаём logger
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	cfg.Log(logger)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	// Shutdown manager создаём сразу, чтобы закрыть открытое при ошибке
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	defer func() {
		if err != nil {
			shutdownMgr.Run()
		}
	}()

	// Инициализируем OpenTelemetry
	otelShutdown, err := observability.Init(ctx, observability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, err
	}
	shutdownMgr.Add("otel", otelShutdown)

	// Создаём health check с начальным статусом NOT_SERVING
	health := platformhealth.New(grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Подключаемся к хранилищу, кеш транзакций сбрасывает монитор топологии
	capState := capability.NewState()
	store, err := openStorage(ctx, cfg, capState, logger)
	if err != nil {
		return nil, err
	}
	shutdownMgr.Add("store", store.close)

	// Guard повторного восстановления: Redis или память процесса
	guard, err := buildRestoreGuard(ctx, cfg, logger, shutdownMgr)
	if err != nil {
		return nil, err
	}

	// Собираем ядро резервирования
	detector := capability.NewDetector(store.probe, capState, logger)
	updater := stock.NewUpdater(store.stock, logger)
	coordinator := stock.NewCoordinator(updater, store.transactor, detector, logger)
	validator := stock.NewValidator(store.stock)

	// Алерты о неудачной компенсации уходят в Kafka, если она включена
	var alerter service.CompensationAlerter
	if cfg.KafkaEnabled {
		publisher := eventkafka.NewCompensationAlertPublisher(logger, cfg.Kafka.Brokers, cfg.CompensationAlertTopic)
		shutdownMgr.Add("compensation_alert_publisher", platformshutdown.Close(publisher))
		alerter = publisher
	}

	workflow := service.NewOrderStockWorkflow(validator, coordinator, store.orders, guard, alerter, service.Config{
		ReserveTimeout:      cfg.ReserveTimeout,
		CreateTimeout:       cfg.CreateTimeout,
		CompensationTimeout: cfg.CompensationTimeout,
		RestoreGuardTTL:     cfg.RestoreGuardTTL,
	}, logger)

	logger.Info("stock execution mode selected", zap.String("mode", string(coordinator.Mode(ctx))))

	// Consumer отмен заказов
	var consumer *eventkafka.OrderCancelledConsumer
	if cfg.KafkaEnabled {
		consumer = eventkafka.NewOrderCancelledConsumer(
			logger,
			cfg.Kafka.Brokers,
			cfg.Kafka.GroupID,
			cfg.OrderCancelledTopic,
			workflow,
			cfg.Kafka.RetryMaxAttempts,
			cfg.Kafka.RetryBackoffBase,
		)
		shutdownMgr.Add("order_cancelled_consumer", platformshutdown.Close(consumer))
	}

	// Слушаем на указанном адресе
	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	// Создаём gRPC сервер с tracing interceptor
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(observability.GRPCUnaryServerInterceptor(serviceName, logger)),
	)
	// Включаем reflection, если указано в конфиге
	if cfg.EnableGRPCReflection {
		reflection.Register(grpcServer)
		logger.Info("gRPC reflection enabled")
	}
	// Регистрируем gRPC health service
	health.Register(grpcServer)

	// Хуки выполняются в обратном порядке: сначала readiness, потом сервер
	shutdownMgr.Add("grpc_server", platformshutdown.ShutdownGRPCServer(grpcServer))
	shutdownMgr.Add("health_readiness", platformshutdown.SetHealthNotServing(health))

	// После успешного ping устанавливаем readiness в SERVING
	if store.ping != nil {
		if err := store.ping(ctx); err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("store readiness: %w", err)
		}
	}
	health.SetServing("")
	logger.Info("readiness status set to SERVING")

	return &App{
		logger:      logger,
		grpcServer:  grpcServer,
		listener:    listener,
		health:      health,
		shutdownMgr: shutdownMgr,
		consumer:    consumer,
		workflow:    workflow,
	}, nil
}

// buildRestoreGuard создаёт Redis guard или, если Redis выключен, in-memory guard
func buildRestoreGuard(ctx context.Context, cfg config.Config, logger *zap.Logger, shutdownMgr *platformshutdown.Manager) (repository.RestoreGuard, error) {
	if !cfg.RedisEnabled {
		logger.Warn("redis disabled, restore guard is process-local")
		return memory.NewRestoreGuard(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))
	shutdownMgr.Add("redis", platformshutdown.Close(client))

	return redisrepo.NewRestoreGuard(client, logger), nil
}

// Workflow возвращает точку входа оформления заказов и восстановления остатков
func (a *App) Workflow() *service.OrderStockWorkflow {
	return a.workflow
}

// Run запускает сервис и блокируется до получения сигнала shutdown
// Зависимости закрываются в порядке, обратном созданию
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.logger.Info("starting stock service", zap.String("addr", a.listener.Addr().String()))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.grpcServer.Serve(a.listener); err != nil {
			a.logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	if a.consumer != nil {
		// выполняется до закрытия consumer, чтобы Start увидел отменённый контекст
		a.shutdownMgr.Add("consumer_context", func(context.Context) error {
			cancel()
			return nil
		})

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("order cancelled consumer stopped", zap.Error(err))
			}
		}()
	}

	// Ожидаем сигнал и выполняем shutdown
	a.shutdownMgr.Wait(ctx)

	a.wg.Wait()
	a.logger.Info("stock service stopped")
	return nil
}
