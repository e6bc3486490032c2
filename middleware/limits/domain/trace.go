package domain

// TraceLevel classifica os eventos emitidos pelos guards.
type TraceLevel int

const (
	// TraceVerbose: passos internos (checando, encaminhado, timer rearmado).
	TraceVerbose TraceLevel = iota
	// TraceInfo: decisões relevantes (rejeição, timeout atingido).
	TraceInfo
)

func (l TraceLevel) String() string {
	switch l {
	case TraceVerbose:
		return "verbose"
	case TraceInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Tracer recebe os eventos de trace de um guard.
type Tracer func(level TraceLevel, msg string)

// NopTracer descarta tudo. É o tracer padrão.
func NopTracer(TraceLevel, string) {}
