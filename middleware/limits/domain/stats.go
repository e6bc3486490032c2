package domain

import (
	"context"
	"time"
)

// Nomes de guard usados em StatsEvent.Guard.
const (
	GuardBandwidth     = "bandwidth"
	GuardConcurrency   = "concurrency"
	GuardTimeout       = "connection_timeout"
	GuardURLLength     = "url_length"
	GuardQueryLength   = "query_string_length"
	GuardContentLength = "content_length"
	GuardRequestRate   = "request_rate"
)

// StatsEvent representa uma decisão de um guard.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
// Status é 0 quando a requisição foi encaminhada.
//
// Observação: cuidado com cardinalidade (ex.: salvar Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Guard   string
	Allowed bool
	Status  int

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas dos guards.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
