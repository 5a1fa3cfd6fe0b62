// File: slotchain/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotchain/config"
	"slotchain/cron"
	"slotchain/database"
	availabilityRepo "slotchain/database/repository/availability"
	bookingRepo "slotchain/database/repository/booking"
	nonceRepo "slotchain/database/repository/nonce"
	userRepo "slotchain/database/repository/user"
	"slotchain/handlers"
	"slotchain/middleware"
	"slotchain/routes"
	"slotchain/services/availability"
	"slotchain/services/booking"
	"slotchain/services/chain"
	"slotchain/services/meetings"
	"slotchain/services/notification"
	"slotchain/services/zoom"
	"slotchain/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.GetLogger().Fatal("main: invalid configuration", zap.Error(err))
	}
	logger := utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// MongoDB.
	client, err := database.Connect(rootCtx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := database.Disconnect(client); err != nil {
			logger.Warn("main: MongoDB disconnect failed", zap.Error(err))
		}
	}()
	db := client.Database(cfg.DatabaseName)

	// repositories.
	availRepo, err := availabilityRepo.NewMongoAvailabilityRepo(db)
	if err != nil {
		logger.Fatal("main: failed to initialize availability repository", zap.Error(err))
	}
	bookRepo, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		logger.Fatal("main: failed to initialize booking repository", zap.Error(err))
	}
	users := userRepo.NewMongoUserRepo(db)

	healthDeps := map[string]utils.Pinger{
		"mongodb": utils.PingerFunc(func(ctx context.Context) error { return database.Ping(ctx, client) }),
	}

	nonces, redisClient, err := newNonceStore(cfg)
	if err != nil {
		logger.Fatal("main: failed to initialize nonce store", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthDeps["redis"] = utils.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	// metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := utils.NewMetrics(registry)

	// external collaborators.
	chainClient, err := chain.Dial(rootCtx, cfg.ChainRPCURL, cfg.ContractAddress)
	if err != nil {
		logger.Fatal("main: failed to connect to chain RPC", zap.Error(err))
	}
	defer chainClient.Close()

	zoomClient := zoom.NewClient(zoom.Config{
		AccountID:    cfg.ZoomAccountID,
		ClientID:     cfg.ZoomClientID,
		ClientSecret: cfg.ZoomClientSecret,
		APIURL:       cfg.ZoomAPIURL,
		OAuthURL:     cfg.ZoomOAuthURL,
	})
	if !zoomClient.Configured() {
		logger.Warn("main: Zoom credentials missing; bookings will fail at meeting creation")
	}

	emailNotifier := notification.NewEmailNotifier(notification.EmailConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)

	var notifier booking.Notifier = emailNotifier
	if cfg.NotifyAsync {
		queueOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		queueClient := asynq.NewClient(queueOpts)
		defer queueClient.Close()
		notifier = notification.NewQueuedNotifier(queueClient, logger)

		worker := cron.NewEmailWorker(queueOpts, emailNotifier, logger)
		worker.Start()
		defer worker.Shutdown()
	}

	// services.
	availabilityService := availability.NewAvailabilityService(availRepo, logger)

	bookingService := booking.NewDefaultBookingService(availRepo, bookRepo, users, zoomClient, notifier, logger, metrics)
	bookingService.MeetingTimeout = cfg.MeetingTimeout

	meetingService := meetings.NewMeetingAccessService(bookRepo, nonces, chainClient, chain.SignatureVerifier{}, logger, metrics)
	meetingService.NonceTTL = cfg.NonceTTL
	meetingService.ChainTimeout = cfg.ChainTimeout

	health := utils.NewHealthMonitor(healthDeps)
	health.Start(rootCtx, 30*time.Second)

	sweeper := &cron.NonceSweeper{
		Store:    nonces,
		Interval: cfg.NonceSweepInterval,
		Logger:   logger,
		Metrics:  metrics,
	}
	go sweeper.Run(rootCtx)

	// Create the Gin router.
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.Metrics(metrics))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	handlerBundle := &handlers.HandlerBundle{
		Availability: availabilityService,
		Booking:      bookingService,
		Meetings:     meetingService,
		Health:       health,
	}

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		gatherer = registry
	}
	routes.RegisterRoutes(router, handlerBundle, gatherer)

	// Start the HTTP server.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
		return
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// newNonceStore selects the challenge backend. The Redis client is returned
// so the caller can ping and close it.
func newNonceStore(cfg config.Config) (nonceRepo.NonceStore, *redis.Client, error) {
	if cfg.NonceBackend != "redis" {
		return nonceRepo.NewMemoryNonceStore(), nil, nil
	}
	client, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisNonceDB)
	if err != nil {
		return nil, nil, err
	}
	return nonceRepo.NewRedisNonceStore(client), client, nil
}
