package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mkarlsen/rentscout/config"
	"mkarlsen/rentscout/internal/pipeline"
	"mkarlsen/rentscout/internal/scraper"
	"mkarlsen/rentscout/logger"
	"mkarlsen/rentscout/services/cache"
	"mkarlsen/rentscout/services/notify"
	"mkarlsen/rentscout/services/publisher"
	"mkarlsen/rentscout/services/server"
	"mkarlsen/rentscout/services/store"
	"mkarlsen/rentscout/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	sites, err := config.LoadSites(cfg.SitesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SitesPath).Msg("Invalid site configuration")
	}
	if len(sites) == 0 {
		log.Fatal().Str("path", cfg.SitesPath).Msg("No sites configured")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("daily_scrape_time", cfg.DailyScrapeTime).
		Int("site_count", len(sites)).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Create scrapers, one per configured site
	scrapers, err := scraper.NewAll(sites, scraper.Options{
		CacheSvc:      services.Cache,
		FetchTimeout:  cfg.FetchTimeout,
		RenderTimeout: cfg.RenderTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scrapers")
	}

	orch := pipeline.New(sites, scrapers, services.Store)
	w := worker.NewWorker(orch, services.Publisher, services.Notifier, cfg.DailyScrapeTime)
	srv := server.New(w, services.Store, services.Notifier, sites)

	// Start the daily scheduler
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting scrape scheduler")
		workerDone <- w.Start(ctx)
	}()

	// Start the HTTP server
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.ListenAndServe(ctx, cfg.ListenAddr)
	}()

	// Wait for shutdown signal or component failure
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		<-serverDone
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		}
		cancel()
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
		cancel()
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Store     store.Store
	Publisher publisher.Publisher
	Notifier  notify.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
	if s.Notifier != nil {
		s.Notifier.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Rate-limit guard cache
	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Snapshot store: Postgres when configured, in-memory otherwise
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		services.Store = pg
		logger.Info("Connected to Postgres snapshot store")
	} else {
		services.Store = store.NewMemoryStore()
		logger.Warn("POSTGRES_DSN not set, using in-memory snapshot store")
	}

	// New-listing stream publisher
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Chat notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		services.Notifier = notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	} else {
		services.Notifier = notify.NoopNotifier{}
		logger.Warn("Telegram credentials not set, notifications disabled")
	}

	return services, nil
}
