package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/francesco74/sonde/internal/config"
	"github.com/francesco74/sonde/internal/database"
	"github.com/francesco74/sonde/internal/httpapi"
	"github.com/francesco74/sonde/internal/logger"
	"github.com/francesco74/sonde/internal/repository"
	"github.com/francesco74/sonde/internal/service"
	"github.com/francesco74/sonde/internal/session"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "sonde-server")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatal("Failed to ensure schema", zap.Error(err))
	}

	secret := cfg.Session.Secret
	if secret == "" {
		// Without a configured secret sessions cannot outlive this
		// process, matching a fresh random key per start.
		secret = randomSecret()
		log.Warn("SESSION_SECRET not set, using a random per-process secret")
	}

	var sessions session.Store
	var redisClient *redis.Client
	switch cfg.Session.Backend {
	case "memory":
		sessions = session.NewMemoryStore(secret, cfg.Session.TTL)
		log.Info("Using in-memory session store")
	default:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = session.NewRedisStore(redisClient, secret, cfg.Session.TTL)
		log.Info("Using redis session store", zap.String("addr", cfg.Redis.Addr))
	}

	usersRepo := repository.NewPostgresUsersRepository(db)
	permsRepo := repository.NewPostgresPermissionsRepository(db)
	practicesRepo := repository.NewPostgresPracticesRepository(db)
	readingsRepo := repository.NewPostgresReadingsRepository(db)

	authService := service.NewAuthService(usersRepo, permsRepo, log)
	treeService := service.NewTreeService(practicesRepo, log)
	seriesService := service.NewSeriesService(practicesRepo, readingsRepo, log)

	cookies := httpapi.CookieOptions{
		Secure:   !cfg.DevMode,
		SameSite: http.SameSiteNoneMode,
	}
	if cfg.DevMode {
		cookies.SameSite = http.SameSiteLaxMode
		log.Info("DEV MODE: cookie security disabled for HTTP")
	}

	authHandler := httpapi.NewAuthHandler(authService, sessions, cookies, log)
	dataHandler := httpapi.NewDataHandler(treeService, seriesService, log)

	router := httpapi.NewRouter(log)
	router.Register(authHandler, dataHandler, sessions)

	handler := httpapi.RequestLogger(log, httpapi.CORS(cfg.AllowedOrigins, router))
	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
