package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ahwlsqja/nonce-service/docs"
	"github.com/ahwlsqja/nonce-service/internal/common/handler"
	"github.com/ahwlsqja/nonce-service/internal/common/middleware"
	"github.com/ahwlsqja/nonce-service/internal/config"
	"github.com/ahwlsqja/nonce-service/internal/nonces"
	"github.com/ahwlsqja/nonce-service/internal/worker"
	pkgdb "github.com/ahwlsqja/nonce-service/pkg/db"
	"github.com/ahwlsqja/nonce-service/pkg/eip712"
	pkgmongo "github.com/ahwlsqja/nonce-service/pkg/mongo"
	"github.com/ahwlsqja/nonce-service/pkg/nonce"
	pkgredis "github.com/ahwlsqja/nonce-service/pkg/redis"
)

// @title Nonce Service API
// @version 1.0
// @description Single-use, time-limited nonce issuance and validation

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	// 1) logger
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 2) config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger.Info("starting server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("nonce_backend", cfg.Nonce.Backend),
		zap.Duration("nonce_default_duration", cfg.Nonce.DefaultDuration()),
	)

	// 3) nonce storage (fail-fast on connectivity)
	store, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize nonce store", zap.Error(err))
	}
	defer closeStore()

	// 4) services
	nonceService := nonce.NewService(store, nonce.Config{
		DefaultDuration: cfg.Nonce.DefaultDuration(),
	}, logger.Named("nonces"))

	verifier := eip712.NewEthVerifier(eip712.Config{
		ChainID:            cfg.EIP712.ChainID,
		VerifyingContract:  cfg.EIP712.VerifyingContract,
		TimestampTolerance: cfg.EIP712.TimestampTolerance,
	}, nonceService, logger.Named("eip712"))

	// 5) background prune worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	pruneWorker := worker.NewPruneWorker(nonceService, cfg.Worker.PruneInterval, logger.Named("worker"))
	go pruneWorker.Run(workerCtx)

	// 6) router
	router := setupRouter(cfg, logger, store, nonceService, verifier)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("server started",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("swagger", fmt.Sprintf("http://localhost:%d/swagger/index.html", cfg.Server.Port)),
	)

	// 7) wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// buildStore connects the configured backend and returns the store with its teardown
func buildStore(cfg *config.Config, logger *zap.Logger) (nonce.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	storeLogger := logger.Named("store")

	switch cfg.Nonce.Backend {
	case config.BackendRedis:
		rdb := pkgredis.New(pkgredis.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := pkgredis.Ping(ctx, rdb); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		logger.Info("using redis nonce store", zap.String("addr", cfg.Redis.Host))
		return nonce.NewRedisStore(rdb, cfg.Nonce.RedisKeyPrefix, storeLogger), func() { rdb.Close() }, nil

	case config.BackendMySQL:
		db, err := pkgdb.New(pkgdb.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Name:            cfg.Database.Name,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := pkgdb.Ping(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		store := nonce.NewMySQLStore(pkgdb.NewTxRunner(db), storeLogger)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("using mysql nonce store", zap.String("database", cfg.Database.Name))
		return store, func() { db.Close() }, nil

	case config.BackendMongo:
		client, err := pkgmongo.Connect(ctx, pkgmongo.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Disconnect(ctx)
		}
		if err := pkgmongo.Ping(ctx, client); err != nil {
			closeClient()
			return nil, nil, err
		}
		store, err := nonce.NewMongoStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), storeLogger)
		if err != nil {
			closeClient()
			return nil, nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			closeClient()
			return nil, nil, err
		}
		logger.Info("using mongo nonce store",
			zap.String("database", cfg.Mongo.Database),
			zap.String("collection", cfg.Mongo.Collection),
		)
		return store, closeClient, nil

	default:
		logger.Info("using in-memory nonce store")
		return nonce.NewMemoryStore(), func() {}, nil
	}
}

func setupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	store nonce.Store,
	nonceService *nonce.Service,
	verifier eip712.Verifier,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger, "/health", "/ready"))

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	checks := map[string]handler.Pinger{}
	if p, ok := store.(nonce.Pinger); ok {
		checks[cfg.Nonce.Backend] = p
	}
	healthHandler := handler.NewHealthHandler(checks, logger)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	nonceHandler := nonces.NewHandler(nonceService, verifier, logger.Named("http"))

	v1 := router.Group("/api/v1")
	{
		nonceHandler.RegisterRoutes(v1)
	}

	return router
}
