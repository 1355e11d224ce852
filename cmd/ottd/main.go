// Command ottd serves one-time token issue and redemption over HTTP.
//
// Configuration is read from the environment (and a .env file when present);
// see config.go for the variables.
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

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/jwt"
	ottprom "github.com/MrEthical07/goOTT/metrics/export/prometheus"
	"github.com/MrEthical07/goOTT/transport/httpapi"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ottd stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	ottCfg := goOTT.DefaultConfig()
	ottCfg.OneTimeToken.ExpiresIn = cfg.ExpiresIn
	ottCfg.OneTimeToken.DisableClientRequest = cfg.DisableClientRequest
	ottCfg.OneTimeToken.StoreToken = goOTT.StorageMode(cfg.StoreToken)
	ottCfg.OneTimeToken.CreateSession = cfg.CreateSession
	ottCfg.Session.Lifetime = cfg.SessionLifetime
	ottCfg.Audit.Enabled = cfg.AuditEnabled

	builder := goOTT.New().WithConfig(ottCfg).WithLogger(logger)
	if cfg.AuditEnabled {
		builder.WithAuditSink(goOTT.NewZapSink(logger))
	}

	cleanup, err := backend(ctx, cfg, ottCfg, builder, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var assertions *jwt.Manager
	cookies := httpapi.NewCookieTransport()
	cookies.Name = cfg.CookieName
	cookies.Domain = cfg.CookieDomain
	cookies.Secure = cfg.CookieSecure
	transports := httpapi.MultiTransport{cookies}
	if cfg.JWTSecret != "" {
		assertions, err = jwt.NewManager(jwt.Config{
			TTL:           cfg.SessionLifetime,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    []byte(cfg.JWTSecret),
			Issuer:        "ottd",
		})
		if err != nil {
			return err
		}
		transports = append(transports, &httpapi.BearerTransport{Assertions: assertions})
	}
	builder.WithSessionTransport(transports)

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := ottprom.NewPrometheusExporter(engine).Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	router := httpapi.NewRouter(engine, httpapi.RouterConfig{
		CookieName:     cfg.CookieName,
		Assertions:     assertions,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsMux}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server started", zap.String("port", cfg.Port), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("metrics server started", zap.String("port", cfg.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
