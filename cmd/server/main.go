package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/clock"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/config"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/database"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/flow"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/handler"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/intent"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/jobs"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/middleware"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/queue"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/redis"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/service"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/transport"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	profileRepo := repository.NewProfileRepository()
	var archiveRepo repository.ArchiveRepository

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		cancel()
		log.Info().Msg("database connected")

		archiveRepo = repository.NewArchiveRepository(db)

		loadCtx, loadCancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		profiles, err := archiveRepo.LoadProfiles(loadCtx)
		loadCancel()
		if err != nil {
			log.Error().Err(err).Msg("failed to load contact profiles")
		} else {
			profileRepo.Load(profiles)
			log.Info().Int("count", len(profiles)).Msg("contact profiles loaded")
		}
	} else {
		log.Info().Msg("DATABASE_URL not set: history kept in memory only")
	}

	var redisClient *redis.Client
	var limiter service.Limiter
	var floodLimiter service.Limiter

	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		limiter = service.NewRateLimiter(redisClient.Client)
		floodLimiter = service.NewFailOpenRateLimiter(redisClient.Client)
	} else {
		memoryLimiter := service.NewMemoryRateLimiter()
		limiter = memoryLimiter
		floodLimiter = memoryLimiter
	}

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	sessionRepo := repository.NewSessionRepository(cfg.SessionTimeout())
	historyRepo := repository.NewHistoryRepository(config.HistoryCapacity)

	historyService := service.NewHistoryService(historyRepo, archiveRepo, broker)
	metricsService := service.NewMetricsService(time.Now())
	connectionService := service.NewConnectionService(broker)
	panelService := service.NewPanelService(cfg.PanelPIN, cfg.PanelSessionSecret, config.PanelSessionTTL)

	gateway := transport.NewGateway(cfg.GatewayURL, cfg.GatewaySecret)

	var bot *service.BotService
	outbound := queue.New(gateway, queue.Options{
		DelayMin:     cfg.DelayMin(),
		DelayMax:     cfg.DelayMax(),
		Attempts:     cfg.SendAttempts,
		RetryBackoff: cfg.RetryBackoff(),
		SendTimeout:  config.GatewaySendTimeout,
		OnSent:       func(d queue.Delivery) { bot.OnSent(d) },
		OnRetry:      func(d queue.Delivery, err error) { bot.OnRetry(d, err) },
		OnFailure:    func(d queue.Delivery, err error) { bot.OnSendFailure(d, err) },
	})

	bot = service.NewBotService(service.BotConfig{
		Tables: flow.Tables{
			Classifier:  intent.NewClassifier(nil),
			Transitions: flow.Transitions,
			Hours:       cfg.Hours(),
			StoreType:   cfg.Store(),
			StoreName:   cfg.StoreName,
			QuoteTTL:    cfg.QuoteTTL(),
		},
		FloodLimit: cfg.FloodLimitPerMin,
	}, service.BotDeps{
		Sessions:   sessionRepo,
		Profiles:   profileRepo,
		History:    historyService,
		Metrics:    metricsService,
		Connection: connectionService,
		Queue:      outbound,
		Flood:      floodLimiter,
		Publisher:  broker,
		Clock:      clock.SystemClock{},
	})

	gateway.OnMessage(bot.OnMessage)
	gateway.OnConnectionStateChange(connectionService.Update)

	panelSessionMiddleware := middleware.NewPanelSessionMiddleware(panelService)
	gatewaySignatureMiddleware := middleware.NewGatewaySignatureMiddleware(cfg.GatewaySecret)
	panelRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(
		limiter, config.PanelRequestsPerMinute, config.IPRateLimitWindow, "panel",
	)
	gatewayRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(
		limiter, config.GatewayRequestsPerMinute, config.IPRateLimitWindow, "gateway",
	)

	isProduction := cfg.IsProduction()
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(middleware.PanelMaxBodySize, map[string]int64{
		"/gateway": middleware.GatewayMaxBodySize,
	})
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction, cfg.PanelOrigins)

	gatewayHandler := handler.NewGatewayHandler(gateway, gatewaySignatureMiddleware.Handler)
	eventsHandler := handler.NewEventsHandler(broker, bot)
	wsHandler := handler.NewWebSocketHandler(broker, bot, cfg.PanelOrigins)
	panelHandler := handler.NewPanelHandler(handler.PanelDeps{
		Panel:    panelService,
		Bot:      bot,
		Sessions: sessionRepo,
		Profiles: profileRepo,
		History:  historyService,
		Events:   eventsHandler,
		WS:       wsHandler,
	}, panelSessionMiddleware.Handler, isProduction)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":     "ok",
			"connection": connectionService.State().Status,
			"paused":     bot.Paused(),
			"timestamp":  time.Now().UnixMilli(),
		})
	})

	r.Route("/gateway", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
		r.Use(gatewayRateLimitMiddleware.Handler)
		r.Mount("/", gatewayHandler.Routes())
	})

	// No request timeout here: /panel/events and /panel/ws are long-lived.
	r.Route("/panel", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(panelRateLimitMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)
		r.Mount("/", panelHandler.Routes())
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	outbound.Start(ctx)

	sweepJob := jobs.NewSweepJob(jobs.SweepDeps{
		Sessions:  sessionRepo,
		Panel:     panelService,
		Profiles:  profileRepo,
		Archive:   archiveRepo,
		History:   historyService,
		Metrics:   bot,
		Publisher: broker,
	}, cfg.HistoryRetention(), config.SweepJobInterval)
	sweepJob.Start()

	connectCtx, connectCancel := context.WithTimeout(ctx, config.GatewaySendTimeout)
	if err := gateway.Connect(connectCtx); err != nil {
		log.Warn().Err(err).Msg("failed to fetch gateway status")
	}
	connectCancel()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("store", cfg.StoreName).
			Str("storeType", cfg.StoreType).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	outbound.Stop()
	sweepJob.Stop()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
