package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcclellann/hoaportal/pkg/config"
	"github.com/mcclellann/hoaportal/pkg/delivery"
	"github.com/mcclellann/hoaportal/pkg/logger"
	"github.com/mcclellann/hoaportal/pkg/notification"
	"github.com/mcclellann/hoaportal/pkg/scheduler"
	"github.com/mcclellann/hoaportal/pkg/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func openStorage(cfg *config.AppConfig) (store.Storage, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		return store.NewSQLiteStore(cfg.SQLitePath)
	case config.DriverPostgres:
		return store.NewPostgresStore(cfg.DatabaseURL)
	default:
		return store.NewMemoryStore(), nil
	}
}

func dispatchers(cfg *config.AppConfig, residents store.ResidentStore, log *logrus.Logger) []notification.Dispatcher {
	var out []notification.Dispatcher

	if cfg.EmailEnabled() {
		out = append(out, delivery.NewEmailDispatcher(delivery.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			SenderEmail: cfg.SenderEmail,
			PortalURL:   cfg.PortalURL,
		}, residents, log))
		log.Info("Email delivery enabled")
	}

	if cfg.TelegramEnabled() {
		bot, err := telebot.NewBot(telebot.Settings{Token: cfg.TelegramToken})
		if err != nil {
			log.WithError(err).Warn("Could not create Telegram bot, Telegram delivery disabled")
		} else {
			out = append(out, delivery.NewTelegramDispatcher(bot, residents, log))
			log.Info("Telegram delivery enabled")
		}
	}
	return out
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	storage, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.StoreDriver, err)
	}
	defer storage.Close()
	log.WithField("driver", cfg.StoreDriver).Info("Storage initialized")

	server := NewServer(storage, log, dispatchers(cfg, storage, log)...)

	jobs := scheduler.New(server.community, log, cfg.CronSpecBillingStatements, cfg.CronSpecVisitorPassExpiry)
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer jobs.Stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Server starting on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
