package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"

	"littlelemon/internal/api"
	"littlelemon/internal/auth"
	"littlelemon/internal/cache"
	"littlelemon/internal/config"
	"littlelemon/internal/database"
	"littlelemon/internal/events"
	"littlelemon/internal/models"
	"littlelemon/internal/monitoring"
	"littlelemon/internal/realtime"
	"littlelemon/internal/sl"
	"littlelemon/internal/store"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

const kafkaQueueSize = 1024

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Metrics.Port = *metricsPort
	}

	log := sl.Setup(cfg.Env).With(slog.String("service", cfg.ServiceName))

	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
		err = serve(cfg, log)
	case "migrate":
		err = migrate(cfg, log)
	case "createuser":
		err = createUser(cfg, log, flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", sl.Err(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] [serve | migrate | createuser -username NAME -password PASS]

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func serve(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	var menu store.MenuRepository = store.NewMenuStore(db)
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Warn("menu cache disabled", sl.Err(err))
		} else {
			defer rdb.Close()
			menu = cache.NewMenuCache(menu, rdb, log)
			log.Info("menu cache enabled", slog.String("redis", cfg.Redis.Addr))
		}
	}

	monitor := monitoring.NewMonitor()
	hub := realtime.NewHub(log)
	defer hub.Close()

	publishers := events.Multi{hub, monitor}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafkaQueueSize, log)
		producer.Start(ctx)
		defer producer.Close()
		publishers = append(publishers, producer)
		log.Info("publishing events to kafka", slog.String("topic", cfg.Kafka.Topic))
	}

	server := api.NewServer(api.Deps{
		Log:         log,
		ServiceName: cfg.ServiceName,
		Menu:        menu,
		Bookings:    store.NewBookingStore(db),
		Auth:        auth.NewAuthenticator(store.NewUserStore(db), auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)),
		Events:      publishers,
		Hub:         hub,
		Metrics:     monitor.Middleware(),
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: server.Router,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(cfg.Metrics, monitor, log)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", slog.Int("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("API server: %w", err)
	}

	log.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("API server shutdown", sl.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown", sl.Err(err))
		}
	}
	return nil
}

func startMetricsServer(cfg config.MetricsConfig, monitor *monitoring.Monitor, log *slog.Logger) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(cfg.Path, gin.WrapH(monitor.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: metricsRouter,
	}

	go func() {
		log.Info("starting metrics server", slog.Int("port", cfg.Port), slog.String("path", cfg.Path))
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", sl.Err(err))
		}
	}()
	return metricsServer
}

func migrate(cfg *config.Config, log *slog.Logger) error {
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("schema is up to date", slog.String("driver", cfg.Database.Driver))
	return nil
}

func createUser(cfg *config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		fs.Usage()
		return errors.New("createuser: -username and -password are required")
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return addUser(context.Background(), db, *username, *password, log)
}

func addUser(ctx context.Context, db *gorm.DB, username, password string, log *slog.Logger) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("createuser: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: hash, IsActive: true}
	if err := store.NewUserStore(db).Create(ctx, user); err != nil {
		return fmt.Errorf("createuser: %w", err)
	}

	log.Info("user created", slog.String("username", user.Username), slog.Uint64("id", uint64(user.ID)))
	return nil
}
