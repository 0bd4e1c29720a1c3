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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/analytics"
	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/config"
	"github.com/linksgo/linksgo/internal/datacenter"
	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/geo"
	"github.com/linksgo/linksgo/internal/handlers"
	"github.com/linksgo/linksgo/internal/logging"
	"github.com/linksgo/linksgo/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer database.Close()
	log.Info("database ready", zap.String("driver", database.DriverName()))

	geoReader, err := geo.Open(cfg.GeoIPPath)
	if err != nil {
		log.Warn("geo lookups disabled", zap.Error(err))
		geoReader, _ = geo.Open("")
	}
	defer geoReader.Close()

	started := time.Now()
	profileCache := cache.New(cfg.CacheSize, cfg.CacheTTL, cache.StoreLoader(database))

	var collectorOpts []analytics.Option
	if cfg.ClassifyHosting {
		hosting := datacenter.New(log, datacenter.DefaultSources()...)
		hosting.Start(24 * time.Hour)
		defer hosting.Shutdown()
		collectorOpts = append(collectorOpts, analytics.WithHostingNetworks(hosting))
	}
	collector := analytics.NewCollector(database, geoReader, log, cfg.BufferSize, cfg.FlushInterval, collectorOpts...)

	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.Production())
	gate := &auth.Gate{Sessions: sessions, DB: database, Log: log}
	oauth := auth.NewOAuth(auth.OAuthOptions{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		Secure:       cfg.Production(),
	}, sessions, database, log)
	if !cfg.OAuthEnabled() {
		log.Warn("google sign-in is not configured")
	}

	links := &handlers.LinkHandler{DB: database, Cache: profileCache, Collector: collector, Log: log}
	appearance := &handlers.AppearanceHandler{DB: database, Cache: profileCache, Log: log}
	profile := &handlers.ProfileHandler{DB: database, Cache: profileCache, Sessions: sessions, Log: log}
	stats := &handlers.AnalyticsHandler{DB: database, Cache: profileCache, Collector: collector, Log: log}
	redirect := &handlers.RedirectHandler{DB: database, Cache: profileCache, Collector: collector, Log: log}

	pages, err := web.New(web.Options{
		DB:        database,
		BaseURL:   cfg.BaseURL,
		Cache:     profileCache,
		Collector: collector,
		Gate:      gate,
		OAuth:     oauth,
		Log:       log,
		Secure:    cfg.Production(),
	})
	if err != nil {
		log.Fatal("load templates", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.NoStore)
		r.Use(chimiddleware.RequestSize(handlers.MaxBodyBytes))

		r.Get("/health", handlers.Health(started))
		r.Post("/links/click", links.Click)
		r.Post("/analytics", stats.RecordView)
		r.Put("/analytics", stats.RecordClick)

		r.Group(func(r chi.Router) {
			r.Use(gate.Require)
			r.Get("/links", links.List)
			r.Post("/links", links.Create)
			r.Patch("/links", links.Update)
			r.Delete("/links", links.Delete)
			r.Put("/links/reorder", links.Reorder)
			r.Get("/appearance", appearance.Get)
			r.Post("/appearance", appearance.Save)
			r.Get("/profile", profile.Get)
			r.Patch("/profile", profile.Update)
			r.Delete("/profile", profile.Delete)
			r.Get("/analytics", stats.Summary)
		})
	})
	r.Get("/go/{id}", redirect.ServeHTTP)
	pages.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("linksgo listening", zap.String("addr", srv.Addr), zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}

	collector.Shutdown()
	log.Info("goodbye")
}
