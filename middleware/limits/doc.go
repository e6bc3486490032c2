// Package limits fornece guards HTTP (net/http) que impõem limites de consumo de recursos
// na frente de um handler.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: decisões puras (admissão por concorrência, tamanhos de URL/query/corpo, taxa)
//   - infra: streams decoradores (throttle, timeout, limite de corpo), contadores, stores de estatística
//   - limits (este pacote): middlewares HTTP + tradução para status/reason phrase
//
// Guards disponíveis:
//
//   - MaxBandwidth: limita bytes/segundo do corpo da requisição e da resposta
//   - MaxConcurrentRequests: 503 quando há requisições demais em andamento
//   - ConnectionTimeout: derruba a conexão após um período sem I/O
//   - MaxURLLength / MaxQueryStringLength: 414 quando o tamanho decodificado passa do limite
//   - MaxRequestContentLength: 411/400/413 pelo Content-Length, e 413 pelo que foi lido de fato
//   - RequestRate: 429 por cliente (token bucket)
//
// Cada guard tem três formas equivalentes: valor fixo, função que devolve o limite
// (chamada a cada requisição) e Options completo (limite, reason phrase, tracer, stats).
// A ordem dos guards é decisão de quem monta o pipeline (ver Chain).
package limits
