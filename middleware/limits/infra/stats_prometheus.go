package infra

import (
	"context"
	"strconv"

	"limits-gateway/middleware/limits/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore conta as decisões dos guards em um CounterVec
// `<namespace>_guard_decisions_total{guard,outcome,status}`.
// status é "0" para requisições encaminhadas.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer, namespace string) (*PrometheusStatsStore, error) {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Decisions taken by the request limit guards.",
	}, []string{"guard", "outcome", "status"})

	if err := reg.Register(decisions); err != nil {
		return nil, err
	}
	return &PrometheusStatsStore{decisions: decisions}, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	s.decisions.WithLabelValues(ev.Guard, outcome, strconv.Itoa(ev.Status)).Inc()
	return nil
}

// Collector expõe o CounterVec (útil em testes com prometheus/testutil).
func (s *PrometheusStatsStore) Collector() *prometheus.CounterVec { return s.decisions }

// RegisterInFlightGauge publica o valor atual de um contador de admissão como gauge.
func RegisterInFlightGauge(reg prometheus.Registerer, namespace string, counter domain.AdmissionCounter) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "in_flight_requests",
		Help:      "Requests currently admitted by the concurrency guard.",
	}, func() float64 { return float64(counter.Current()) }))
}
