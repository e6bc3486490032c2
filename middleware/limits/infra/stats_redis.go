package infra

import (
	"context"
	"strconv"
	"strings"
	"time"

	"limits-gateway/middleware/limits/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore acumula as decisões dos guards em hashes do Redis:
//
//	<prefix>:total                 allowed, denied
//	<prefix>:guard:<guard>         allowed, denied, status:<code>
//	<prefix>:<bucket>:<timestamp>  allowed, denied (expira após ttl)
//	<prefix>:route                 "<METHOD> <path>:allowed|denied" (opcional)
//
// total e guard são cumulativos e não expiram. bucket é "minute" (padrão), "hour"
// ou "none".
type RedisStatsStore struct {
	rdb         redis.UniversalClient
	prefix      string
	ttl         time.Duration
	bucket      string
	trackRoutes bool
}

// layouts de timestamp por tamanho de bucket
var statsBuckets = map[string]string{
	"minute": "200601021504",
	"hour":   "2006010215",
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithStatsTTL define a expiração das chaves de série temporal. <= 0 não expira.
func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket escolhe o tamanho do bucket de série temporal. Valores desconhecidos
// desligam a série.
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

// WithStatsTrackRoutes liga o contador por rota. Cuidado com a cardinalidade de Path.
func WithStatsTrackRoutes(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackRoutes = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "limits:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Prefix() string { return s.prefix }

func (s *RedisStatsStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// Record grava o evento num único pipeline.
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, s.key("total"), outcome, 1)

		if guard := strings.TrimSpace(ev.Guard); guard != "" {
			k := s.key("guard", guard)
			p.HIncrBy(ctx, k, outcome, 1)
			if !ev.Allowed && ev.Status != 0 {
				p.HIncrBy(ctx, k, "status:"+strconv.Itoa(ev.Status), 1)
			}
		}

		if layout, ok := statsBuckets[s.bucket]; ok {
			k := s.key(s.bucket, at.UTC().Format(layout))
			p.HIncrBy(ctx, k, outcome, 1)
			if s.ttl > 0 {
				p.Expire(ctx, k, s.ttl)
			}
		}

		if s.trackRoutes {
			if route := strings.TrimSpace(ev.Method + " " + ev.Path); route != "" {
				p.HIncrBy(ctx, s.key("route"), route+":"+outcome, 1)
			}
		}
		return nil
	})
	return err
}
