package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/switchboard/internal/catalog"
	"github.com/MrSnakeDoc/switchboard/internal/config"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver"
	"github.com/MrSnakeDoc/switchboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/switchboard/internal/logger"
	"github.com/MrSnakeDoc/switchboard/internal/mutator"
	"github.com/MrSnakeDoc/switchboard/internal/redis"
	"github.com/MrSnakeDoc/switchboard/internal/session"
	"github.com/MrSnakeDoc/switchboard/internal/store"
	boltstore "github.com/MrSnakeDoc/switchboard/internal/store/bolt"
	redisstore "github.com/MrSnakeDoc/switchboard/internal/store/redis"
	"github.com/MrSnakeDoc/switchboard/internal/version"
	"github.com/MrSnakeDoc/switchboard/internal/ws"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	store  store.Store
	hub    *ws.Hub
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize the record store early - fail fast if unavailable
	st, err := openStore(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open state store: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("state store initialized",
		logger.String("backend", cfg.StoreBackend))

	// Service catalog: built-in copy unless a yaml override is configured
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.Load(cfg.CatalogFile)
		if err != nil {
			loggerClient.Errorf("Failed to load catalog file: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("service catalog loaded",
			logger.String("file", cfg.CatalogFile))
	}

	guard := session.NewGuard(cfg.AdminUsername, cfg.AdminPassword, cfg.SessionSecret)
	hub := ws.NewHub(loggerClient)
	mut := mutator.New(st, cat, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedHosts:  cfg.AllowedHosts,
		Store:         st,
		Mutator:       mut,
		Guard:         guard,
		Catalog:       cat,
		Hub:           hub,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: server,
		store:  st,
		hub:    hub,
	}
}

func openStore(cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBolt:
		return boltstore.Open(cfg.BoltPath)
	default:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Switchboard v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Switchboard %s", version.Human())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close store: %v", err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	a.logger.Info("✅ Switchboard stopped cleanly")
	return nil
}
