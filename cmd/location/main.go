package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/config"
	"github.com/piresc/geoquery/internal/pkg/database"
	"github.com/piresc/geoquery/internal/pkg/health"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/metrics"
	"github.com/piresc/geoquery/internal/pkg/middleware"
	"github.com/piresc/geoquery/internal/pkg/models"
	natspkg "github.com/piresc/geoquery/internal/pkg/nats"
	"github.com/piresc/geoquery/internal/pkg/server"
	"github.com/piresc/geoquery/internal/pkg/store"
	firestorestore "github.com/piresc/geoquery/internal/pkg/store/firestore"
	"github.com/piresc/geoquery/internal/pkg/store/memory"
	redisstore "github.com/piresc/geoquery/internal/pkg/store/redis"
	wspkg "github.com/piresc/geoquery/internal/pkg/websocket"
	"github.com/piresc/geoquery/services/location"
	"github.com/piresc/geoquery/services/location/gateway"
	"github.com/piresc/geoquery/services/location/handler"
	"github.com/piresc/geoquery/services/location/repository"
	"github.com/piresc/geoquery/services/location/usecase"
	"go.uber.org/zap"
)

func main() {
	appName := "location-service"
	configPath := flag.String("config", "config/location.env", "path to the .env file loaded when APP_ENV=local")
	flag.Parse()

	configs, err := config.InitConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.InitZapLoggerFromConfig(configs)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	zapLogger.Info("Starting application",
		zap.String("app", appName),
		zap.String("version", configs.App.Version),
		zap.String("environment", configs.App.Environment),
		zap.String("store_driver", configs.Geo.StoreDriver),
	)

	healthService := health.NewService()

	// Initialize Redis client
	var redisClient *database.RedisClient
	if configs.Geo.StoreDriver == config.StoreDriverRedis {
		redisClient, err = database.NewRedisClient(configs.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		healthService.AddChecker("redis", health.NewRedisChecker(redisClient))
	}

	// Initialize NATS
	var natsClient *natspkg.Client
	if configs.Geo.StoreDriver == config.StoreDriverRedis || configs.Geo.PublishEvents {
		natsClient, err = natspkg.NewClient(configs.NATS.URL, appName)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()
		healthService.AddChecker("nats", health.NewNATSChecker(natsClient))
	}

	// Initialize PostgreSQL database connection
	var eventRepo location.EventRepo
	if configs.Database.Enabled {
		postgresClient, err := database.NewPostgresClient(configs.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer postgresClient.Close()
		healthService.AddChecker("postgres", health.NewPostgresChecker(postgresClient))
		eventRepo = repository.NewEventRepository(configs, postgresClient.GetDB())
	}

	// Initialize store
	st, closeStore, err := newStore(configs, redisClient, natsClient)
	if err != nil {
		zapLogger.Fatal("Failed to initialize location store", zap.Error(err))
	}
	defer closeStore()

	// Initialize Gateway
	var locationGW location.LocationGW
	if configs.Geo.PublishEvents {
		locationGW = gateway.NewLocationGW(natsClient)
	}

	// Initialize UseCase
	locationUC := usecase.NewLocationUC(st, locationGW, eventRepo, configs.Geo)
	defer locationUC.Close()

	// Initialize handlers
	wsManager := wspkg.NewManager()
	var consumerClient *natspkg.Client
	if configs.Geo.PublishEvents && eventRepo != nil {
		consumerClient = natsClient
	}
	h := handler.NewHTTPHandler(locationUC, consumerClient, wsManager, configs)

	if err := h.InitNATSConsumers(); err != nil {
		zapLogger.Fatal("Failed to initialize NATS consumers", zap.Error(err))
	}
	defer h.Stop()

	// Initialize Echo router
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(configs.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(configs.Server.WriteTimeout) * time.Second

	// Add middlewares
	e.Use(middleware.PanicRecoveryMiddleware(zapLogger))
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.ZapEchoMiddleware(zapLogger))
	if configs.Metrics.Enabled {
		e.Use(metrics.Middleware())
		e.GET(configs.Metrics.Path, metrics.Handler())
	}

	// Register health endpoints
	health.RegisterEndpoints(e, appName, configs.App.Version, healthService)

	// Register service routes
	var limiterClient *redis.Client
	if redisClient != nil {
		limiterClient = redisClient.GetClient()
	}
	h.RegisterRoutes(e, limiterClient)

	// Start server
	addr := fmt.Sprintf("%s:%d", configs.Server.Host, configs.Server.Port)
	srv := server.NewGracefulServer(e, addr, time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	srv.OnShutdown("websocket", func(context.Context) error {
		wsManager.CloseAll()
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Error("Server stopped with error", zap.String("app", appName), zap.Error(err))
	}
}

// newStore builds the store selected by geo.store_driver and returns a
// function releasing its resources
func newStore(configs *models.Config, redisClient *database.RedisClient, natsClient *natspkg.Client) (store.Store, func(), error) {
	switch configs.Geo.StoreDriver {
	case config.StoreDriverRedis:
		return redisstore.New(redisClient, natsClient, configs.Geo.Index), func() {}, nil
	case config.StoreDriverFirestore:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := database.NewFirestoreClient(ctx, configs.Firestore)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close Firestore client", logger.Err(err))
			}
		}
		return firestorestore.New(client.GetClient(), configs.Geo.Index), closeFn, nil
	default:
		return memory.New(), func() {}, nil
	}
}
