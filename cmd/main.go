package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"assurbot/internal/analytics"
	"assurbot/internal/config"
	"assurbot/internal/handlers"
	"assurbot/internal/metrics"
	"assurbot/internal/middleware"
	"assurbot/internal/models"
	"assurbot/internal/notify"
	"assurbot/internal/routes"
	"assurbot/internal/services/chat"
	"assurbot/internal/services/qcm"
	"assurbot/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	logger.Info("AssurBot chat service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	// Lead store: redis, with an in-memory fallback so the widget keeps
	// answering when redis is down.
	var leads models.LeadSink
	leadStore, err := store.NewRedisLeadStore(cfg.Redis, logger, m)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, storing leads in memory")
		leads = store.NewMemoryLeadStore()
	} else {
		defer leadStore.Close()
		leads = leadStore
	}

	// Notification sink: rabbit publisher, nop fallback.
	var notifier models.NotificationSink
	publisher, err := notify.NewPublisher(ctx, cfg.RabbitMQ, logger)
	if err != nil {
		logger.WithError(err).Warn("RabbitMQ unavailable, dropping notifications")
		notifier = notify.NopNotifier{Logger: logger}
	} else {
		defer publisher.Close()
		notifier = publisher
	}

	tracker := analytics.NewTracker(m, logger)
	chatService := chat.NewService(cfg.Chat, chat.DefaultScript(), leads, notifier, tracker, logger)
	qcmService := qcm.NewService(qcm.DefaultQuestions(), leads, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	middleware.Setup(r)

	chatHandler := handlers.NewChatHandler(chatService, cfg.WebSocket, m, logger)
	qcmHandler := handlers.NewQcmHandler(qcmService, m, logger)
	routes.RegisterRoutes(r, chatHandler, qcmHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
}
