// Package domain define contratos e tipos de domínio dos guards de limite
// (banda, concorrência, timeout de conexão, tamanho de URL/querystring/corpo).
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura (streams, Redis, Prometheus).
package domain
