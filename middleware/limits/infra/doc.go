// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - ThrottledStream: decorador de stream que limita bytes/segundo
//   - TimeoutStream: decorador de stream com timer de inatividade que fecha o stream
//   - ContentLengthLimitingStream: decorador que conta bytes lidos e falha acima do limite
//   - AtomicCounter: contador de admissão lock-free
//   - RateStore: token bucket por chave usando golang.org/x/time/rate
//   - MemoryStatsStore, RedisStatsStore, PrometheusStatsStore, FanoutStatsStore: estatísticas de decisão
package infra
