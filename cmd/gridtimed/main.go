package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gridtime/gridtime/internal/config"
	"github.com/gridtime/gridtime/pkg/api"
	"github.com/gridtime/gridtime/pkg/ledger"
	"github.com/gridtime/gridtime/pkg/logging"
	"github.com/gridtime/gridtime/pkg/metrics"
	"github.com/gridtime/gridtime/pkg/ratelimit"
	"github.com/gridtime/gridtime/pkg/settings"
	"github.com/gridtime/gridtime/pkg/shutdown"
	"github.com/gridtime/gridtime/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logging.NewLogger(logging.ERROR, false).Error("failed to load config", map[string]interface{}{"error": err.Error()})
			return
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	log := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
	log.Info("starting gridtimed", map[string]interface{}{
		"listen": cfg.Listen,
		"store":  cfg.Store.Type,
	})

	st, err := store.NewStore(store.Config{Type: cfg.Store.Type, URL: cfg.Store.URL})
	if err != nil {
		log.Error("failed to create store", map[string]interface{}{"error": err.Error()})
		return
	}

	ttl, err := cfg.TTL()
	if err != nil {
		log.Error("invalid config", map[string]interface{}{"error": err.Error()})
		return
	}

	exporter := metrics.NewExporter()

	cache := settings.NewCache(st, ttl)
	cache.SetRecorder(exporter)

	engine := ledger.New(st, cache, log)

	handler := api.NewTimerHandler(engine, log)
	handler.SetMetricsRecorder(exporter)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	router := mux.NewRouter()
	router.Use(api.RequestLogger(log))
	router.Use(mux.MiddlewareFunc(limiter.Middleware(api.DocumentKey)))
	handler.RegisterRoutes(router)
	router.Handle("/metrics", exporter).Methods("GET")

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sd := shutdown.New(15 * time.Second)
	sd.Register(func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})

	go func() {
		log.Info("listening", map[string]interface{}{"addr": cfg.Listen})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	sig := sd.Wait()
	log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	if err := sd.Shutdown(); err != nil {
		log.Error("shutdown error", map[string]interface{}{"error": err.Error()})
	}
}
