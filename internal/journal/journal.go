// Package journal guarda os últimos eventos emitidos pelo sensor. O
// anel em memória alimenta a consulta de eventos recentes da API; o
// arquivo JSONL, quando configurado, é o rastro durável para auditoria.
package journal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/event"
)

// DefaultSize é a capacidade do anel quando a config não diz outra.
const DefaultSize = 256

// Journal é seguro para escrita concorrente com leitura.
type Journal struct {
	logger *slog.Logger

	mu    sync.Mutex
	ring  []event.Envelope
	next  int
	count int
	file  *os.File
}

// New cria o journal. Com path vazio o rastro em arquivo fica
// desligado; path inválido é erro de configuração e volta ao chamador.
func New(size int, path string, logger *slog.Logger) (*Journal, error) {
	if size <= 0 {
		size = DefaultSize
	}

	j := &Journal{
		logger: logger,
		ring:   make([]event.Envelope, size),
	}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open journal %s: %w", path, err)
			}
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open journal %s: %w", path, err)
		}
		j.file = f
	}

	return j, nil
}

// Record registra o envelope. Falha de escrita no arquivo não derruba
// nada: o anel em memória continua valendo e o caso vai para o log.
func (j *Journal) Record(env event.Envelope) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.ring[j.next] = env
	j.next = (j.next + 1) % len(j.ring)
	if j.count < len(j.ring) {
		j.count++
	}

	if j.file == nil {
		return
	}

	line, err := json.Marshal(env)
	if err != nil {
		j.logger.Error("journal marshal failed", "error", err, "type", env.Type)
		return
	}
	line = append(line, '\n')
	if _, err := j.file.Write(line); err != nil {
		j.logger.Error("journal write failed", "error", err)
	}
}

// Recent devolve os últimos eventos, do mais novo para o mais antigo.
// limit fora do intervalo vale a capacidade do anel.
func (j *Journal) Recent(limit int) []event.Envelope {
	j.mu.Lock()
	defer j.mu.Unlock()

	if limit <= 0 || limit > j.count {
		limit = j.count
	}

	out := make([]event.Envelope, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (j.next - i + len(j.ring)) % len(j.ring)
		out = append(out, j.ring[idx])
	}
	return out
}

// Len devolve quantos eventos o anel segura agora.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Close fecha o arquivo de rastro, se houver.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
