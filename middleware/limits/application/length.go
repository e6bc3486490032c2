package application

import (
	"strings"
	"unicode/utf8"

	"limits-gateway/middleware/limits/domain"
)

// CheckLength mede o tamanho lógico (após percent-decoding, em caracteres) de value
// e devolve 414 quando passa de max.
func CheckLength(value string, max int) domain.Verdict {
	n := utf8.RuneCountInString(UnescapeData(value))
	v := domain.Verdict{Length: int64(n), Limit: int64(max)}
	if n > max {
		v.Status = domain.StatusURITooLong
	}
	return v
}

// UnescapeData decodifica sequências %XX e mantém o resto como veio (inclusive '+' e
// '%' soltos). Uma sequência só é decodificada quando os bytes formam UTF-8 válido;
// bytes inválidos continuam escapados ("%FF" mede 3 caracteres). Não falha em entrada
// malformada.
func UnescapeData(s string) string {
	i := strings.IndexByte(s, '%')
	if i < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for i < len(s) {
		if !isEscape(s, i) {
			b.WriteByte(s[i])
			i++
			continue
		}

		// junta escapes seguidos: um caractere UTF-8 pode ocupar vários
		start := i
		var raw []byte
		for isEscape(s, i) {
			raw = append(raw, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 3
		}
		for j := 0; j < len(raw); {
			r, size := utf8.DecodeRune(raw[j:])
			if r == utf8.RuneError && size <= 1 {
				esc := start + 3*j
				b.WriteString(s[esc : esc+3])
				j++
				continue
			}
			b.Write(raw[j : j+size])
			j += size
		}
	}
	return b.String()
}

func isEscape(s string, i int) bool {
	return i+2 < len(s) && s[i] == '%' && isHex(s[i+1]) && isHex(s[i+2])
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
