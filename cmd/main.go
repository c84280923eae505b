package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/cart"
	"github.com/fjod/go_cart/pos-service/internal/catalog"
	"github.com/fjod/go_cart/pos-service/internal/config"
	"github.com/fjod/go_cart/pos-service/internal/discount"
	h "github.com/fjod/go_cart/pos-service/internal/http"
	"github.com/fjod/go_cart/pos-service/internal/logger"
	"github.com/fjod/go_cart/pos-service/internal/publisher"
	"github.com/fjod/go_cart/pos-service/internal/receipt"
	"github.com/fjod/go_cart/pos-service/internal/tax"
	"github.com/fjod/go_cart/pos-service/internal/transaction"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("pos service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, zl)

	store, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	zl.Info("catalog ready", zap.String("store", cfg.CatalogStore))

	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		cache = catalog.NewRedisCache(redisClient, cfg.CacheTTL)
		zl.Info("catalog cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	catalogSvc := catalog.NewService(store, cache)
	registry := cart.NewRegistry(catalogSvc)

	discounts := discount.NewDefaultEngine(cfg.Discount, time.Now)
	taxes, err := tax.NewDefaultEngine(cfg.Tax)
	if err != nil {
		return err
	}

	outbox := publisher.NewOutbox()
	var sink publisher.Sink = publisher.LogSink{Log: zl}
	if len(cfg.KafkaBrokers) > 0 {
		kp := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, publisher.DefaultBreakerSettings())
		defer kp.Close()
		sink = kp
		zl.Info("publishing transaction events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	}
	poller := publisher.NewOutboxPoller(outbox, sink, cfg.OutboxInterval, zl)
	pollerCtx, stopPoller := context.WithCancel(context.WithoutCancel(ctx))
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(pollerCtx)
	}()

	transactions := transaction.NewService(discounts, taxes, transaction.NewMemoryStore(), outbox, registry,
		transaction.Options{PointValue: cfg.PointValue})
	renderer := receipt.NewRenderer(cfg.StoreName, cfg.Currency)

	router := h.NewRouter(h.Handlers{
		Products:     h.NewProductHandler(catalogSvc, cfg.RequestTimeout),
		Customers:    h.NewCustomerHandler(registry, transactions, cfg.RequestTimeout),
		Carts:        h.NewCartHandler(registry, transactions, renderer, cfg.RequestTimeout),
		Transactions: h.NewTransactionHandler(transactions, renderer, cfg.RequestTimeout),
	}, zl, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "pos-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("pos service starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("tax_mode", string(cfg.Tax.Mode)),
			zap.Strings("discounts", discounts.StrategyNames()),
			zap.Strings("taxes", taxes.StrategyNames()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stopPoller()
		<-pollerDone
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	zl.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	stopPoller()
	<-pollerDone
	if n := outbox.Len(); n > 0 {
		zl.Warn("transaction events left unpublished", zap.Int("count", n))
	}
	zl.Info("server exited")
	return nil
}

func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Store, error) {
	if cfg.CatalogStore == config.CatalogSQLite {
		s, err := catalog.NewSQLiteStore(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		return s, nil
	}
	return catalog.NewMemoryStore(catalog.DefaultProducts()...), nil
}
