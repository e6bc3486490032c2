package domain

import "time"

// IntFunc, Int64Func e DurationFunc devolvem o limite atual.
//
// São chamadas a cada requisição, o que permite alterar limites em tempo de execução
// sem reconstruir o pipeline.
type (
	IntFunc      func() int
	Int64Func    func() int64
	DurationFunc func() time.Duration
)

// ReasonPhraseFunc devolve a reason phrase para o status HTTP que o guard vai produzir.
type ReasonPhraseFunc func(status int) string

// EmptyReasonPhrase é a reason phrase padrão (vazia).
func EmptyReasonPhrase(int) string { return "" }

// Códigos de status produzidos pelos guards. Ficam aqui para que application
// não precise importar net/http.
const (
	StatusBadRequest         = 400
	StatusLengthRequired     = 411
	StatusEntityTooLarge     = 413
	StatusURITooLong         = 414
	StatusTooManyRequests    = 429
	StatusServiceUnavailable = 503
)

// Verdict é o resultado de uma checagem de limite feita pela camada application.
//
// Status 0 significa "encaminhar"; qualquer outro valor é o status de rejeição.
// Length é o valor medido (quando houver) e Limit o limite avaliado.
type Verdict struct {
	Status int
	Length int64
	Limit  int64
}

func (v Verdict) Allowed() bool { return v.Status == 0 }
