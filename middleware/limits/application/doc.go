// Package application contém os casos de uso (regras de aplicação) dos guards de limite.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: AdmissionService.Admit() decide se uma requisição entra (contador atômico),
// CheckDeclaredLength valida o header Content-Length e CheckLength mede URL/querystring
// já "unescaped".
package application
