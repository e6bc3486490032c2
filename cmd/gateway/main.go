package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"limits-gateway/middleware/limits"
	"limits-gateway/middleware/limits/domain"
	"limits-gateway/middleware/limits/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const metricsNamespace = "gateway"

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		log.Fatalf("invalid UPSTREAM_URL: %v", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		// estouro de corpo e timeout são tratados pelos guards
		if errors.Is(err, domain.ErrContentLengthExceeded) || errors.Is(err, domain.ErrStreamClosed) {
			return
		}
		log.Printf("proxy error: %v", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	current := newLimitsHolder(cfg.limits)

	tracer := domain.Tracer(domain.NopTracer)
	if cfg.trace {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		tracer = limits.SlogTracer(logger, "component", "limits")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promStats, err := infra.NewPrometheusStatsStore(reg, metricsNamespace)
	if err != nil {
		log.Fatalf("metrics error: %v", err)
	}
	stats := infra.FanoutStatsStore{promStats}

	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackRoutes(cfg.statsTrackRoutes),
		))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rateStore := infra.NewRateStore(cfg.limits.RateRPS, cfg.limits.RateBurst)
	rateStore.StartJanitor(ctx)

	concurrency := limits.NewConcurrencyGuard(limits.ConcurrencyOptions{
		Limit:  current.concurrency,
		Tracer: tracer,
		Stats:  stats,
	})
	if err := infra.RegisterInFlightGauge(reg, metricsNamespace, concurrency.Counter()); err != nil {
		log.Fatalf("metrics error: %v", err)
	}

	var rate func(http.Handler) http.Handler
	if cfg.rateEnabled {
		rate = limits.RequestRate(limits.RateOptions{
			Store:               rateStore,
			RetryAfter:          limits.Static(cfg.retryAfter),
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			AddRateLimitHeaders: cfg.addHeaders,
			Tracer:              tracer,
			Stats:               stats,
		})
	}

	h := limits.Chain(
		rate,
		concurrency.Middleware,
		limits.MaxURLLengthWith(limits.URLOptions{Limit: current.urlLength, Tracer: tracer, Stats: stats}),
		limits.MaxQueryStringLengthWith(limits.QueryStringOptions{Limit: current.queryStringLength, Tracer: tracer, Stats: stats}),
		limits.MaxRequestContentLengthWith(limits.ContentLengthOptions{Limit: current.contentLength, Tracer: tracer, Stats: stats}),
		limits.ConnectionTimeoutWith(limits.TimeoutOptions{Limit: current.timeout, Tracer: tracer, Stats: stats}),
		limits.MaxBandwidthWith(limits.BandwidthOptions{Limit: current.bandwidth, Tracer: tracer}),
	)(proxy)

	if cfg.configFile != "" {
		go watchReload(ctx, cfg, current, rateStore)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{
			Addr:              cfg.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	l := cfg.limits
	log.Printf("gateway listening on %s -> %s", cfg.listenAddr, target)
	log.Printf("limits: bandwidth=%dB/s concurrency=%d timeout=%s url=%d query=%d content=%d", l.MaxBandwidthBPS, l.ConcurrencyMax, l.ConnectionTimeout, l.MaxURLLength, l.MaxQueryStringLength, l.MaxContentLength)
	log.Printf("rate: enabled=%v rps=%.3f burst=%d keyHeader=%q trustXFF=%v", cfg.rateEnabled, l.RateRPS, l.RateBurst, cfg.rateKeyHeader, cfg.trustXFF)
	log.Printf("limits-stats: redis=%v redisAddr=%q bucket=%q ttl=%s trackRoutes=%v metricsAddr=%q", cfg.statsEnabled, cfg.statsRedisAddr, cfg.statsBucket, cfg.statsTTL, cfg.statsTrackRoutes, cfg.metricsAddr)
	if cfg.configFile != "" {
		log.Printf("limits file: %s (SIGHUP to reload)", cfg.configFile)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// watchReload relê o arquivo de limites a cada SIGHUP. Um arquivo inválido mantém os
// limites atuais.
func watchReload(ctx context.Context, cfg config, current *limitsHolder, rateStore *infra.RateStore) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			l, err := loadLimitsFile(cfg.configFile, cfg.envLimits)
			if err != nil {
				log.Printf("reload error: %v", err)
				continue
			}
			current.Store(l)
			rateStore.SetRate(l.RateRPS, l.RateBurst)
			log.Printf("limits reloaded: bandwidth=%dB/s concurrency=%d timeout=%s url=%d query=%d content=%d rps=%.3f burst=%d",
				l.MaxBandwidthBPS, l.ConcurrencyMax, l.ConnectionTimeout, l.MaxURLLength, l.MaxQueryStringLength, l.MaxContentLength, l.RateRPS, l.RateBurst)
		}
	}
}
