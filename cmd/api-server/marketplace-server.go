package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"marketplace/config"
	"marketplace/db"
	"marketplace/db/migrations"
	"marketplace/internal/handlers"
	"marketplace/internal/lifecycle"
	"marketplace/internal/logger"
	"marketplace/internal/notify"
	"marketplace/internal/session"
	"marketplace/internal/taxonomy"
)

func main() {
	// .env необязателен
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "marketplace")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logg.Sync()

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		logg.Fatal("cannot connect to DB", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.RunMigrations {
		if err := migrations.Run(dbConn.DB); err != nil {
			logg.Fatal("migrations failed", zap.Error(err))
		}
		version, _ := migrations.Version(dbConn.DB)
		logg.Info("schema up to date", zap.Int64("version", version))
	}

	store := db.NewStorage(dbConn)
	ctx := context.Background()

	if cfg.SeedTaxonomy {
		doc, err := taxonomy.Default()
		if err != nil {
			logg.Fatal("taxonomy", zap.Error(err))
		}
		res, err := taxonomy.Seed(ctx, store, doc)
		if err != nil {
			logg.Fatal("taxonomy seed failed", zap.Error(err))
		}
		logg.Info("taxonomy seeded",
			zap.Int("categories", res.Categories),
			zap.Int("subcategories", res.Subcategories),
			zap.Int("margin_rules", res.MarginRules))
	}

	added, err := handlers.EnsureAdmin(ctx, store, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logg.Fatal("admin bootstrap failed", zap.Error(err))
	}
	if added {
		logg.Info("admin account created", zap.String("email", cfg.AdminEmail))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logg.Fatal("cannot connect to redis", zap.Error(err))
	}

	dispatcher := notify.NewDispatcher(store, redisClient, cfg.NotifyStream, logg)
	svc := lifecycle.NewService(store, dispatcher, logg, lifecycle.Config{QuoteValidity: cfg.QuoteValidity})

	h := handlers.NewHandler(store, svc, session.NewStore(redisClient, cfg.SessionTTL), logg)
	h.SecureCookies = cfg.SecureCookies

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("starting server", zap.String("addr", cfg.ServerAddress))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logg.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
}
