package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"labreserve/internal/config"
	"labreserve/internal/database"
	"labreserve/internal/middleware"
	"labreserve/internal/modules/auth"
	"labreserve/internal/modules/authz"
	"labreserve/internal/modules/catalog"
	"labreserve/internal/modules/reservation"
	"labreserve/internal/notification"
	jwtsvc "labreserve/internal/pkg/jwt"
	"labreserve/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsProdLike() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return log.With(zap.String("service", "labreserve-api"))
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	store := repository.NewStore(db)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}
	catalogRepo := repository.NewCachedCatalog(store.Catalog, rdb, cfg.CatalogCacheTTL, log)
	az := authz.New(store.Catalog, store.Reservations, log)

	hub := notification.NewHub()
	defer hub.Close()
	senders := []notification.Sender{notification.NewInbox(store.Notifications), hub}
	if cfg.RabbitMQURL != "" {
		publisher := notification.NewPublisher(cfg.RabbitMQURL, cfg.NotifyQueue, log)
		defer publisher.Close()
		senders = append(senders, publisher)
	}
	dispatcher := notification.NewDispatcher(log, cfg.NotifyBuffer, senders...)
	defer dispatcher.Close()

	jwt := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	reservationService := reservation.NewService(reservation.Deps{
		Store:      store,
		Catalog:    catalogRepo,
		Authorizer: az,
		Notifier:   dispatcher,
		Location:   cfg.LabLocation,
		Log:        log,
	})

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	cors := middleware.CORSOptions{
		Origins: cfg.CORSOrigins,
		Methods: cfg.CORSMethods,
		Headers: cfg.CORSHeaders,
		MaxAge:  cfg.CORSMaxAge,
	}
	r := newRouter(log, cors, jwt, store.Users, handlers{
		hub:          hub,
		auth:         auth.NewHandler(auth.NewService(store.Users, jwt, log)),
		catalog:      catalog.NewHandler(catalog.NewService(catalogRepo, az)),
		reservation:  reservation.NewHandler(reservationService),
		notification: notification.NewHTTPHandler(store.Notifications, hub, jwt, log),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
