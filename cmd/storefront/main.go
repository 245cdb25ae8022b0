package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

func main() {
	service := "storefront"

	_ = godotenv.Load()

	cfg, err := storefront.LoadConfig()
	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()

	store, closeStore, err := storefront.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store failed", zap.Error(err), zap.String("backend", cfg.Backend))
	}
	defer func() { _ = closeStore() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := storefront.NewHandler(store, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  cfg.SecureCookies,
		AdminToken:     cfg.AdminToken,
		MetricsToken:   cfg.MetricsToken,
		CartRateLimit:  cfg.CartRateLimit,
		CartRateWindow: cfg.CartRateWindow,
		TrustProxy:     cfg.TrustProxy,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}
