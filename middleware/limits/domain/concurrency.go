package domain

// AdmissionCounter representa o contador de requisições em andamento de um guard
// de concorrência.
//
// A semântica é: Increment soma 1 e devolve o valor já incrementado (fetch-and-add);
// Decrement subtrai 1. Implementações devem ser lock-free, pois rodam em toda requisição.
type AdmissionCounter interface {
	Increment() int64
	Decrement() int64
	Current() int64
}
