package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/farellandr/seatbook/config"
	"github.com/farellandr/seatbook/internal/cache"
	"github.com/farellandr/seatbook/internal/handlers"
	"github.com/farellandr/seatbook/internal/helpers"
	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/farellandr/seatbook/internal/logging"
	"github.com/farellandr/seatbook/internal/messaging"
	"github.com/farellandr/seatbook/internal/middleware"
	"github.com/farellandr/seatbook/internal/storage/gormstore"
	"github.com/farellandr/seatbook/internal/storage/memstore"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func Start(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, nil)
	warnInsecureDefaults(cfg, logger)

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %v", err)
	}

	opts := []inventory.Option{inventory.WithLogger(logger.WithField("component", "inventory"))}

	if cfg.RedisAddr != "" {
		redisClient, err := config.InitRedis(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %v", err)
		}
		defer redisClient.Close()

		busOpts, err := newRedisOptions(redisClient, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize event bus: %v", err)
		}
		opts = append(opts, busOpts...)
	} else {
		logger.Warn("REDIS_ADDR not set, running without availability cache and event publishing")
	}

	svc := inventory.NewService(store, opts...)
	signer := helpers.NewReceiptSigner(cfg.ReceiptSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: NewRouter(svc, signer, logger, cfg.CORSOrigins),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Port,
			"storage": cfg.StorageDriver,
		}).Info("starting HTTP server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func warnInsecureDefaults(cfg *config.Config, logger *logrus.Logger) {
	if cfg.UsesDefaultReceiptSecret() {
		logger.Warn("RECEIPT_SECRET not set, receipts are signed with the built-in placeholder key")
	}
}

func newStore(cfg *config.Config) (inventory.Store, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		return memstore.New(), nil
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return gormstore.New(db), nil
}

func newRedisOptions(client *redis.Client, cfg *config.Config, logger *logrus.Logger) ([]inventory.Option, error) {
	wmLogger := logging.NewWatermill(logger.WithField("component", "watermill"))

	pub, err := messaging.NewRedisPublisher(client, wmLogger)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewEventBus(pub, wmLogger)
	if err != nil {
		return nil, err
	}

	return []inventory.Option{
		inventory.WithCache(cache.NewAvailabilityCache(client, cfg.CacheTTL)),
		inventory.WithPublisher(bus),
	}, nil
}

func NewRouter(svc *inventory.Service, signer *helpers.ReceiptSigner, logger *logrus.Logger, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(corsOrigins))

	setupRoutes(r, svc, signer)
	return r
}

func setupRoutes(r *gin.Engine, svc *inventory.Service, signer *helpers.ReceiptSigner) {
	r.GET("/health", handlers.Health)

	api := r.Group("")
	api.Use(middleware.InventoryMiddleware(svc))
	api.Use(middleware.ReceiptSignerMiddleware(signer))
	{
		events := api.Group("/events")
		{
			events.POST("", handlers.CreateEvent)
			events.GET("", handlers.ListEvents)
			events.GET("/:id", handlers.GetEvent)
			events.GET("/:id/availability", handlers.GetEventAvailability)
			events.POST("/:id/purchase", handlers.PurchaseTickets)
			events.GET("/:id/purchases/:purchaseId/receipt", handlers.GetPurchaseReceipt)
		}

		api.POST("/receipts/verify", handlers.VerifyReceipt)
	}
}
