package domain

import (
	"strings"
	"time"
)

// Key identifica o cliente no guard de taxa (IP, API key, usuário).
type Key string

// UnknownClient agrupa as requisições sem nenhuma chave identificável.
const UnknownClient Key = "unknown"

// ClientKey normaliza v; vazio vira UnknownClient.
func ClientKey(v string) Key {
	if v = strings.TrimSpace(v); v == "" {
		return UnknownClient
	}
	return Key(v)
}

// Limiter decide se o cliente pode passar agora. A infra usa token bucket.
type Limiter interface {
	Allow() bool
}

// LimiterStore entrega o Limiter de cada cliente.
type LimiterStore interface {
	Get(Key) Limiter
}

// RateDecision é o veredito do guard de taxa para um cliente.
//
// Como em Verdict, Status 0 significa "encaminhar". Ao bloquear, Status é 429 e
// RetryAfter é o valor recomendado para o header Retry-After.
type RateDecision struct {
	Guard      string
	Key        Key
	Status     int
	RetryAfter time.Duration
}

func (d RateDecision) Allowed() bool { return d.Status == 0 }
