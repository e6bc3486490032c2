package application

import (
	"strconv"
	"strings"

	"limits-gateway/middleware/limits/domain"
)

// BodyExempt informa se o método dispensa qualquer checagem de corpo (GET e HEAD).
func BodyExempt(method string) bool {
	m := strings.ToUpper(strings.TrimSpace(method))
	return m == "GET" || m == "HEAD"
}

// CheckDeclaredLength valida o Content-Length declarado de uma requisição não chunked.
//
//   - header ausente: 411
//   - header que não é um inteiro decimal não negativo: 400
//   - valor declarado maior que max: 413
//
// Requisições chunked não têm tamanho declarado e passam direto; o limite real
// é aplicado depois, na leitura do corpo.
func CheckDeclaredLength(chunked bool, header string, present bool, max int64) domain.Verdict {
	v := domain.Verdict{Limit: max, Length: -1}
	if chunked {
		return v
	}
	if !present {
		v.Status = domain.StatusLengthRequired
		return v
	}

	n, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil || n < 0 {
		v.Status = domain.StatusBadRequest
		return v
	}
	v.Length = n
	if n > max {
		v.Status = domain.StatusEntityTooLarge
	}
	return v
}
