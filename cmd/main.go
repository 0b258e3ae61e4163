package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-pos/internal/api"
	"restaurant-pos/internal/config"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/engine"
	"restaurant-pos/internal/kitchen"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notification"
	"restaurant-pos/internal/realtime"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/store/memory"
	"restaurant-pos/internal/store/postgres"
)

func main() {
	var (
		mode              = flag.String("mode", "", "Service mode (pos-service, kitchen-display, notification-subscriber, migrate)")
		configPath        = flag.String("config", "config.yaml", "Path to the YAML config file")
		port              = flag.Int("port", 0, "HTTP port, overrides server.port")
		station           = flag.String("station", "", "Station name (required for kitchen-display mode)")
		diningModes       = flag.String("dining-modes", "", "Comma-separated dining modes shown on the station (dine_in,take_away,delivery)")
		heartbeatInterval = flag.Int("heartbeat-interval", 30, "Heartbeat interval in seconds")
		prefetch          = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log := logger.NewWithWriter(*mode, os.Stdout, logger.ParseLevel(cfg.Logging.Level))
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":  *mode,
		"port":  cfg.Server.Port,
		"store": cfg.Server.Store,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "pos-service":
		err = runPOSService(ctx, cfg, log)
	case "kitchen-display":
		if *station == "" {
			log.Error("validation_failed", "station is required for kitchen-display mode", requestID, nil, nil)
			os.Exit(1)
		}
		err = runKitchenDisplay(ctx, cfg, log, models.Station{
			Name:      *station,
			Modes:     models.ParseDiningModes(*diningModes),
			StartedAt: time.Now().UTC(),
		}, time.Duration(*heartbeatInterval)*time.Second, *prefetch)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	case "migrate":
		err = runMigrate(ctx, cfg, log)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runPOSService serves the HTTP surface over the engine
func runPOSService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	opts := engine.OptionsFromConfig(cfg.Engine)
	checks := make(map[string]api.HealthCheck)

	var s store.Store
	switch cfg.Server.Store {
	case config.StorePostgres:
		db, err := database.New(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(ctx, database.Migrations()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		s = postgres.New(db)
		checks["database"] = db.Ping
	default:
		s = memory.New()
	}

	if cfg.Engine.Seed {
		if err := store.Seed(ctx, s, time.Now().UTC(), opts.TaxRate, engine.HashPIN(opts.BcryptCost)); err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
		log.Info("store_seeded", "Demo restaurant data loaded", "startup", map[string]interface{}{"store": cfg.Server.Store})
	}

	m := metrics.New()
	hub := realtime.NewHub(log.With("realtime"))
	defer hub.Close()

	options := []engine.Option{engine.WithRecorder(m), engine.WithNotifier(hub)}
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		options = append(options, engine.WithNotifier(messaging.NewPublisher(conn, log)))
		checks["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("rabbitmq connection closed")
			}
			return nil
		}
	}

	eng := engine.New(s, opts, log.With("engine"), options...)
	server := api.NewServer(eng, log, api.Options{
		Metrics:        m,
		Realtime:       hub,
		Checks:         checks,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port), cfg.Server.ShutdownTimeout)
}

// runKitchenDisplay keeps a station board from the kitchen queue
func runKitchenDisplay(ctx context.Context, cfg *config.Config, log *logger.Logger, station models.Station, heartbeat time.Duration, prefetch int) error {
	conn, err := messaging.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	m := metrics.New()
	board := kitchen.NewBoard(station)
	consumer := messaging.NewConsumer(conn, log, messaging.KitchenQueue, "kitchen-"+station.Name, prefetch)
	worker := kitchen.NewWorker(board, consumer, m, log, heartbeat)

	handler := kitchen.NewHandler(board, log, map[string]http.Handler{"/metrics": m.Handler()})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           m.Instrument(handler.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http_server_started", fmt.Sprintf("Kitchen board on port %d", cfg.Server.Port), "startup", nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", "HTTP server failed", "startup", err, nil)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return worker.Start(ctx)
}

// runNotificationSubscriber prints status updates from the fanout
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	return notification.NewSubscriber(consumer, log).Start(ctx)
}

// runMigrate applies the Postgres schema and exits
func runMigrate(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return db.RunMigrations(ctx, database.Migrations())
}
