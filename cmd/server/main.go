package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"greenlight/internal/hcert/decoder"
	"greenlight/internal/hcert/engine"
	"greenlight/internal/hcert/handler"
	"greenlight/internal/hcert/identity"
	"greenlight/internal/hcert/metrics"
	"greenlight/internal/hcert/service"
	"greenlight/internal/hcert/tracer"
	"greenlight/internal/hcert/trust"
	jwttoken "greenlight/internal/jwt_token"
	"greenlight/internal/platform/config"
	"greenlight/internal/platform/database"
	"greenlight/internal/platform/health"
	"greenlight/internal/platform/kafka"
	"greenlight/internal/platform/kafka/producer"
	"greenlight/internal/platform/logger"
	"greenlight/internal/platform/redis"
	httptransport "greenlight/internal/transport/http"
	"greenlight/pkg/platform/audit"
	"greenlight/pkg/platform/audit/publisher"
	kafkasink "greenlight/pkg/platform/audit/store/kafka"
	"greenlight/pkg/platform/audit/store/postgres"
	"greenlight/pkg/platform/circuit"
	"greenlight/pkg/platform/middleware/auth"
	"greenlight/pkg/platform/middleware/metadata"
	"greenlight/pkg/platform/middleware/ratelimit"
	"greenlight/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 15 * time.Second
	auditBufferSize   = 1024
	poolStatsInterval = 15 * time.Second
	requestTimeout    = 30 * time.Second
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in internal/hcert.
func main() {
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := config.LoadIdentityPolicy(cfg.IdentityPolicyFile)
	if err != nil {
		return err
	}
	anchorPEM, err := os.ReadFile(cfg.Trust.AnchorFile)
	if err != nil {
		return fmt.Errorf("read trust anchor: %w", err)
	}
	anchor, err := trust.ParseAnchor(anchorPEM)
	if err != nil {
		return fmt.Errorf("parse trust anchor: %w", err)
	}

	log.Info("initializing greenlight",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"default_country", cfg.DefaultCountry,
		"anchor", anchor.Fingerprint(),
	)

	reg := prometheus.DefaultRegisterer
	hcertMetrics := metrics.NewWithRegisterer(reg)
	tr := tracer.NewOTel()
	checks := health.New(cfg.Environment)

	// Infrastructure. Each piece is optional; the service degrades to
	// in-process behaviour without it.
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // shutdown path

	redisClient, err := redis.New(ctx, cfg.Redis, reg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // shutdown path
		checks.RegisterCheck("redis", redisClient.Health)
		go redisClient.ReportPoolStats(ctx, poolStatsInterval)
	}

	var kafkaProducer *producer.Producer
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err = producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close(5 * time.Second)
		checks.RegisterChecker(kafka.NewHealthChecker(kafkaProducer))
	}

	// Audit trail: Postgres and Kafka when configured, fed asynchronously.
	var sinks audit.Fanout
	if pool != nil {
		checks.RegisterCheck("postgres", pool.Health)
		sinks = append(sinks, postgres.New(pool.DB()))
	}
	if kafkaProducer != nil {
		sinks = append(sinks, kafkasink.NewSink(kafkaProducer, cfg.Kafka.AuditTopic))
	}
	var auditor *publisher.Publisher
	if len(sinks) > 0 {
		auditor = publisher.New(sinks,
			publisher.WithAsyncBuffer(auditBufferSize),
			publisher.WithLogger(log),
		)
		defer auditor.Close()
	} else {
		log.Warn("no audit store configured; validation outcomes are only logged")
	}

	// Trust list: fetched remotely, cached in Redis, refreshed in the background.
	fetcherCfg := trust.FetcherConfig{
		URL:     cfg.Trust.ListURL,
		Timeout: cfg.Trust.FetchTimeout,
		Breaker: circuit.New("trust-list",
			circuit.WithFailureThreshold(3),
			circuit.WithCooldown(time.Minute),
		),
	}
	if redisClient != nil {
		fetcherCfg.Cache = trust.NewRedisCache(redisClient.Client, cfg.Trust.CacheTTL)
	}
	fetcher := trust.NewFetcher(fetcherCfg,
		trust.WithFetcherLogger(log),
		trust.WithFetcherMetrics(hcertMetrics),
		trust.WithFetcherTracer(tr),
	)
	refresherOpts := []trust.RefresherOption{trust.WithRefresherLogger(log)}
	if auditor != nil {
		refresherOpts = append(refresherOpts, trust.WithRefresherAuditor(auditor))
	}
	refresher := trust.NewRefresher(fetcher, refresherOpts...)
	if err := refresher.Refresh(ctx); err != nil {
		// Served as 503 until a later refresh succeeds.
		log.Warn("initial trust list load failed", "error", err)
	}
	go refresher.Run(ctx, cfg.Trust.RefreshInterval)
	checks.RegisterCheck("trust_list", func(ctx context.Context) error {
		_, err := refresher.Current(ctx)
		return err
	})

	verifier, err := trust.NewVerifier(
		trust.WithVerifierLogger(log),
		trust.WithVerifierMetrics(hcertMetrics),
	)
	if err != nil {
		return err
	}

	validatorOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(hcertMetrics),
		service.WithTracer(tr),
		service.WithEngine(engine.New(engine.WithLogger(log))),
		service.WithMatcher(identity.NewMatcher(identity.WithPolicy(policy))),
	}
	if auditor != nil {
		validatorOpts = append(validatorOpts, service.WithAuditor(auditor))
	}
	validator := service.New(
		decoder.NewHTTPDecoder(decoder.HTTPDecoderConfig{
			URL:     cfg.Decoder.URL,
			APIKey:  cfg.Decoder.APIKey,
			Timeout: cfg.Decoder.Timeout,
		}),
		verifier,
		validatorOpts...,
	)

	// Identity tokens; revocation needs Redis.
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience, cfg.TokenTTL)
	var revocations auth.TokenRevocationChecker
	if redisClient != nil {
		revocations = jwttoken.NewRevocationList(redisClient.Client)
	}

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Config{
		Validation: handler.New(validator, refresher, anchor,
			handler.WithLogger(log),
			handler.WithDefaultCountry(cfg.DefaultCountry),
		),
		Admin:          handler.NewAdmin(refresher, log),
		Health:         checks,
		Metrics:        promhttp.Handler(),
		Authenticate:   auth.RequireAuth(jwttoken.NewAdapter(tokens), revocations, log),
		RateLimit:      ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, log).Handler,
		AdminToken:     cfg.AdminToken,
		Metadata:       metadata.Config{TrustedProxies: proxies},
		RequestMetrics: request.NewMetricsWithRegisterer(reg),
		RequestTimeout: requestTimeout,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
