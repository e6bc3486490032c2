package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

type config struct {
	listenAddr  string
	upstreamURL string
	metricsAddr string
	configFile  string
	trace       bool

	limits limitsConfig

	// envLimits são os limites só do ambiente; base para o arquivo em cada reload.
	envLimits limitsConfig

	rateEnabled   bool
	rateKeyHeader string
	trustXFF      bool
	retryAfter    time.Duration
	addHeaders    bool

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackRoutes   bool
}

// limitsConfig são os limites que podem mudar em tempo de execução (SIGHUP relê o
// arquivo LIMITS_CONFIG). Zero desliga o guard correspondente.
type limitsConfig struct {
	MaxBandwidthBPS      int64
	ConcurrencyMax       int
	ConnectionTimeout    time.Duration
	MaxURLLength         int
	MaxQueryStringLength int
	MaxContentLength     int64
	RateRPS              float64
	RateBurst            int
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.metricsAddr = getenvDefault("METRICS_ADDR", ":9090")
	cfg.configFile = os.Getenv("LIMITS_CONFIG")
	cfg.trace = getenvBoolDefault("LIMITS_TRACE", false)

	cfg.limits.MaxBandwidthBPS = getenvInt64Default("MAX_BANDWIDTH_BPS", 0)
	cfg.limits.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.limits.ConnectionTimeout = getenvDurationDefault("CONNECTION_TIMEOUT", 30*time.Second)
	cfg.limits.MaxURLLength = getenvIntDefault("MAX_URL_LENGTH", 8192)
	cfg.limits.MaxQueryStringLength = getenvIntDefault("MAX_QUERY_STRING_LENGTH", 4096)
	cfg.limits.MaxContentLength = getenvInt64Default("MAX_CONTENT_LENGTH", 10<<20)
	cfg.limits.RateRPS = getenvFloatDefault("RATE_RPS", 10)
	// IMPORTANTE: o "burst" permite uma rajada inicial de requisições.
	// Com RPS muito baixo (ex: 0.02), o padrão 20 pode dar a impressão de que
	// o limiter não está funcionando, porque as primeiras ~20 passam.
	if burst, ok := getenvInt("RATE_BURST"); ok {
		cfg.limits.RateBurst = burst
	} else {
		cfg.limits.RateBurst = 20
		if getenvIsSet("RATE_RPS") && cfg.limits.RateRPS > 0 && cfg.limits.RateRPS < 1 {
			cfg.limits.RateBurst = 1
		}
	}

	cfg.rateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 1*time.Second)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	cfg.statsEnabled = getenvBoolDefault("LIMITS_STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("LIMITS_STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("LIMITS_STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("LIMITS_STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("LIMITS_STATS_PREFIX", "limits:stats")
	cfg.statsTTL = getenvDurationDefault("LIMITS_STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("LIMITS_STATS_BUCKET", "minute")
	cfg.statsTrackRoutes = getenvBoolDefault("LIMITS_STATS_TRACK_ROUTES", false)

	cfg.envLimits = cfg.limits
	if cfg.configFile != "" {
		l, err := loadLimitsFile(cfg.configFile, cfg.envLimits)
		if err != nil {
			return config{}, err
		}
		cfg.limits = l
	}

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("LIMITS_STATS_REDIS_ADDR is required when LIMITS_STATS_ENABLED=true")
	}
	if err := cfg.limits.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (l limitsConfig) validate() error {
	if l.RateRPS <= 0 {
		return errors.New("rate_rps must be > 0")
	}
	if l.RateBurst <= 0 {
		return errors.New("rate_burst must be > 0")
	}
	if l.ConcurrencyMax < 0 {
		return errors.New("concurrency_max must be >= 0")
	}
	return nil
}

// loadLimitsFile lê o YAML de limites por cima de base. Chaves ausentes mantêm o valor
// de base (que vem do ambiente).
//
//	max_bandwidth_bps: 65536
//	concurrency_max: 50
//	connection_timeout: 15s
//	max_url_length: 2048
//	max_query_string_length: 1024
//	max_content_length: 1048576
//	rate_rps: 5
//	rate_burst: 10
func loadLimitsFile(path string, base limitsConfig) (limitsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return limitsConfig{}, fmt.Errorf("reading limits file: %w", err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return limitsConfig{}, fmt.Errorf("parsing limits file %s: %w", path, err)
	}

	l := base
	if err := l.apply(values); err != nil {
		return limitsConfig{}, fmt.Errorf("limits file %s: %w", path, err)
	}
	if err := l.validate(); err != nil {
		return limitsConfig{}, fmt.Errorf("limits file %s: %w", path, err)
	}
	return l, nil
}

func (l *limitsConfig) apply(values map[string]any) error {
	for k, v := range values {
		var err error
		switch strings.ToLower(k) {
		case "max_bandwidth_bps":
			l.MaxBandwidthBPS, err = cast.ToInt64E(v)
		case "concurrency_max":
			l.ConcurrencyMax, err = cast.ToIntE(v)
		case "connection_timeout":
			l.ConnectionTimeout, err = cast.ToDurationE(v)
		case "max_url_length":
			l.MaxURLLength, err = cast.ToIntE(v)
		case "max_query_string_length":
			l.MaxQueryStringLength, err = cast.ToIntE(v)
		case "max_content_length":
			l.MaxContentLength, err = cast.ToInt64E(v)
		case "rate_rps":
			l.RateRPS, err = cast.ToFloat64E(v)
		case "rate_burst":
			l.RateBurst, err = cast.ToIntE(v)
		default:
			return fmt.Errorf("unknown key %q", k)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// limitsHolder guarda o snapshot atual dos limites; os guards leem a cada requisição.
type limitsHolder struct {
	v atomic.Pointer[limitsConfig]
}

func newLimitsHolder(l limitsConfig) *limitsHolder {
	h := &limitsHolder{}
	h.Store(l)
	return h
}

func (h *limitsHolder) Load() limitsConfig { return *h.v.Load() }

func (h *limitsHolder) Store(l limitsConfig) { h.v.Store(&l) }

func (h *limitsHolder) bandwidth() int64 { return h.Load().MaxBandwidthBPS }

func (h *limitsHolder) concurrency() int { return h.Load().ConcurrencyMax }

func (h *limitsHolder) timeout() time.Duration { return h.Load().ConnectionTimeout }

// nos guards de tamanho, zero desliga o guard
func (h *limitsHolder) urlLength() int { return orMax(h.Load().MaxURLLength) }

func (h *limitsHolder) queryStringLength() int { return orMax(h.Load().MaxQueryStringLength) }

func (h *limitsHolder) contentLength() int64 {
	if n := h.Load().MaxContentLength; n > 0 {
		return n
	}
	return math.MaxInt64
}

func orMax(n int) int {
	if n > 0 {
		return n
	}
	return math.MaxInt
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt64Default(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt(k string) (int, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return 0, false
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getenvIsSet(k string) bool {
	v, ok := os.LookupEnv(k)
	return ok && v != ""
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return def
	}
	return d
}
