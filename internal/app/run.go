package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/config"
	"stationdesk-server/internal/db"
	"stationdesk-server/internal/formstore"
	"stationdesk-server/internal/httpapi"
	"stationdesk-server/internal/migrate"
	"stationdesk-server/internal/modules/agro"
	"stationdesk-server/internal/modules/dashboard"
	dashboardviews "stationdesk-server/internal/modules/dashboard/views"
	"stationdesk-server/internal/modules/observation"
	"stationdesk-server/internal/modules/station"
	"stationdesk-server/internal/modules/summary"
	"stationdesk-server/internal/mqtt"
	"stationdesk-server/internal/scheduler"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sessionTTL", cfg.SessionTTL,
		"draftTTL", cfg.DraftTTL,
		"summarySchedule", cfg.SummarySchedule,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}
	logger.Info("database ready")

	if err := dashboardviews.LoadTemplates(); err != nil {
		return err
	}

	// The subscriber gets its handler before Connect so queued messages the
	// broker sends right after CONNACK are not lost.
	var subscriber *mqtt.Subscriber
	var broker httpapi.BrokerStatus
	if cfg.MQTTEnabled {
		subscriber, err = mqtt.NewSubscriber(cfg, logger)
		if err != nil {
			return err
		}
		broker = subscriber
	}

	mux := httpapi.NewMux(dbConn, cfg.StaticDir, broker)

	authService := auth.RegisterFeature(mux, dbConn, cfg.SessionTTL, logger)
	stationService := station.RegisterFeature(mux, dbConn)
	observationService := observation.RegisterFeature(mux, dbConn, stationService, logger)
	summaryService := summary.RegisterFeature(mux, dbConn, stationService, observationService, logger)
	agroService := agro.RegisterFeature(mux, dbConn, stationService, logger)
	draftStore := formstore.NewMemoryStore(cfg.DraftTTL)
	formstore.NewController(draftStore).RegisterRoutes(mux)
	dashboard.RegisterFeature(mux, stationService, summaryService, logger)

	if subscriber != nil {
		agro.RegisterMQTTHandler(subscriber, agroService, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			// HTTP and /healthz keep working while the broker is unreachable.
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	jobs := scheduler.New(cfg.SummarySchedule, scheduler.Jobs{
		Summaries: summaryService,
		Drafts:    draftStore,
		Sessions:  authService,
	}, logger)
	if err := jobs.Start(); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, auth.Middleware(authService)(mux), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		jobs.Stop()
		if subscriber != nil {
			subscriber.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("scheduler stopping")
	jobs.Stop()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
