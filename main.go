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

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/config"
	"github.com/sidhant-sriv/home-catalog/db"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/middleware"
	"github.com/sidhant-sriv/home-catalog/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = logg.Sync() }()
	logg.Info("starting home catalog", logger.String("port", cfg.Port), logger.String("db_driver", cfg.DBDriver))

	gin.SetMode(cfg.GinMode)

	// Initialize database
	DB, err := db.Connect(cfg)
	if err != nil {
		logg.Error("database connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(DB); err != nil {
			logg.Warn("database close failed", logger.Error(err))
		}
	}()

	if err := db.MakeMigration(DB); err != nil {
		logg.Error("migration failed", logger.Error(err))
		os.Exit(1)
	}
	logg.Debug("migrations applied")

	if cfg.SuperuserUsername != "" && cfg.SuperuserPassword != "" {
		user, err := db.EnsureSuperuser(DB, cfg.SuperuserUsername, cfg.SuperuserPassword)
		if err != nil {
			logg.Error("superuser setup failed", logger.Error(err))
			os.Exit(1)
		}
		logg.Info("superuser ready", logger.String("username", user.Username))
	}

	router, err := routes.NewRouter(&routes.Handler{
		DB:       DB,
		Log:      logg,
		Config:   cfg,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Sessions: middleware.NewSessionStore(cfg.SessionSecret, cfg.SecureCookies()),
	})
	if err != nil {
		logg.Error("router setup failed", logger.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logg.Infof("server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", logger.Error(err))
	}
}
