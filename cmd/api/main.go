package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/auth"
	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/catalog"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage/memory"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("catalog load failed")
	}
	clock := shared.RealClock{}

	// stores
	var (
		hotels        domain.HotelRepository
		reservations  domain.ReservationRepository
		notifications domain.NotificationRepository
	)
	switch cfg.Store {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		hotels = mysqlrepo.NewHotelRepo(db)
		reservations = mysqlrepo.NewReservationRepo(db)
		notifications = mysqlrepo.NewNotificationRepo(db)
	case "memory":
		hotels = memory.NewHotelRepo()
		reservations = memory.NewReservationRepo()
		notifications = memory.NewNotificationRepo()
	}

	// cache and idempotency keys
	var (
		cache domain.Cache
		idem  domain.IdempotencyStore = memory.NewIdempotencyStore()
	)
	if cfg.RedisAddr != "" {
		rc := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = redisad.New(rc)
		idem = redisad.NewIdempotencyStore(rc, cfg.IdemTTL)
	}

	if cfg.Store == "memory" {
		importer := app.NewCatalogService(hotels, cache, cat.SeasonNames())
		if err := importer.ImportAll(context.Background(), cat.DomainHotels()); err != nil {
			log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("catalog import failed")
		}
		log.Warn().Int("hotels", len(cat.DomainHotels())).Msg("using in-memory store seeded from catalog")
	}

	// services
	seasons := cat.SeasonPolicy()
	q := app.NewQueryService(hotels, cache, cfg.CacheTTL, seasons, clock)
	ns := app.NewNotificationService(notifications, clock)
	dispatcher := app.NewDispatcher(ns, cfg.NotifyWorkers, cfg.NotifyQueue, log.Logger)
	rs := app.NewReservationService(app.ReservationDeps{
		Hotels:       hotels,
		Reservations: reservations,
		Notifier:     dispatcher,
		Idempotency:  idem,
		Seasons:      seasons,
		Clock:        clock,
		Logger:       log.Logger,
	})

	// http
	srv := server.New(log.Logger)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Hotels:        q,
		Reservations:  rs,
		Notifications: ns,
		Auth:          auth.NewService(cfg.JWTSecret, cfg.JWTTTL, clock),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// requests are done; flush pending notifications
	dispatcher.Close()
	log.Info().Msg("bye")
}
