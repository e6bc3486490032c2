package domain

import "errors"

var (
	// ErrContentLengthExceeded sinaliza que o corpo lido passou do limite configurado.
	// Só o guard de content length deve traduzir isso em resposta (413).
	ErrContentLengthExceeded = errors.New("content length exceeded")

	// ErrStreamClosed é devolvido por leituras/escritas em um stream fechado
	// (por exemplo, após o timeout de conexão).
	ErrStreamClosed = errors.New("stream closed")

	// ErrUnsupported é devolvido quando o stream interno não oferece a operação pedida.
	ErrUnsupported = errors.New("operation not supported by inner stream")
)
