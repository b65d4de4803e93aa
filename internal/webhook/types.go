package webhook

// Job é uma entrega pendente. O payload é serializado uma única vez no
// enfileiramento: retries reenviam exatamente os bytes que foram assinados.
type Job struct {
	EventType   string
	Payload     []byte
	Attempts    int
	MaxAttempts int
}
